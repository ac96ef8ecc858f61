package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/pevans/newspick/config"
	"github.com/pevans/newspick/logging"
	"github.com/pevans/newspick/search"
	"github.com/pevans/newspick/sheet"
)

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// newLogger returns the stderr logger used by every command. LOG_FORMAT=json
// switches to JSON output.
func newLogger() *slog.Logger {
	if getEnv("LOG_FORMAT", "text") == "json" {
		return logging.NewJSONLogger(os.Stderr, logging.LevelFromEnv())
	}
	return logging.NewTextLogger(os.Stderr, logging.LevelFromEnv())
}

// loadConfig loads the effective configuration or exits with an error.
func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// prompt writes label to w and returns the next line read from r, trimmed.
// A missing trailing newline at end of input is not an error.
func prompt(r *bufio.Reader, w io.Writer, label string) (string, error) {
	fmt.Fprint(w, label)

	line, err := r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read input: %w", err)
	}

	return strings.TrimSpace(line), nil
}

// needsAPIKey reports whether the configured provider requires a key.
func needsAPIKey(cfg *config.Config) bool {
	return cfg.Search.Provider == config.ProviderSerpAPI
}

// newFetcher builds the configured search provider.
func newFetcher(cfg *config.Config, apiKey string, logger *slog.Logger) search.Fetcher {
	client := &http.Client{Timeout: cfg.Search.Timeout}

	if cfg.Search.Provider == config.ProviderGoogleNewsRSS {
		return search.NewRSSFetcher(search.RSSConfig{
			Endpoint: cfg.Search.Endpoint,
			Language: cfg.Search.Language,
			Region:   cfg.Search.Region,
		}, client, logger)
	}

	return search.NewSerpAPIFetcher(search.SerpAPIConfig{
		APIKey:   apiKey,
		Endpoint: cfg.Search.Endpoint,
		Language: cfg.Search.Language,
		Region:   cfg.Search.Region,
	}, client, logger)
}

// sheetTarget converts the sheet config into an open target.
func sheetTarget(cfg *config.Config) sheet.Target {
	return sheet.Target{
		Type:          cfg.Sheet.Type,
		Name:          cfg.Sheet.Name,
		SpreadsheetID: cfg.Sheet.SpreadsheetID,
		Credentials:   cfg.Sheet.Credentials,
		DSN:           cfg.Sheet.DSN,
	}
}

// describeTarget names the sheet target for user-facing messages.
func describeTarget(t sheet.Target) string {
	switch t.Type {
	case sheet.TypeGoogle:
		return "Google Sheets"
	case sheet.TypeSQLite, sheet.TypePostgres:
		return fmt.Sprintf("%s sheet %q", t.Type, t.Name)
	default:
		return t.Type
	}
}

// flagSet reports whether the named flag was given on the command line.
func flagSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
