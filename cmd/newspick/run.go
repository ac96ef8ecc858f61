package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/pevans/newspick/config"
	"github.com/pevans/newspick/logging"
	"github.com/pevans/newspick/roundup"
	"github.com/pevans/newspick/selection"
	"github.com/pevans/newspick/sheet"
)

// runOptions holds the resolved inputs of a run command.
type runOptions struct {
	apiKey  string
	date    string
	format  string
	noSheet bool
}

func handleRun(args []string) int {
	// Parse flags for run command
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	date := fs.String("date", "", "Date to search (YYYY-MM-DD); prompted when omitted")
	key := fs.String("key", "", "SerpAPI key; prompted when omitted")
	format := fs.String("format", getEnv("NEWSPICK_FORMAT", "table"), "Output format (table, json, compact)")
	limit := fs.Int("cap", 0, "Stories per source (overrides config)")
	noSheet := fs.Bool("no-sheet", false, "Skip the sheet append")
	fs.Parse(args)

	if !validFormat(*format) {
		fmt.Fprintf(os.Stderr, "Error: --format must be 'table', 'json' or 'compact'\n")
		return 1
	}

	cfg := loadConfig()
	if *limit != 0 {
		cfg.Selection.Cap = *limit
	}

	opts := runOptions{
		apiKey:  *key,
		date:    *date,
		format:  *format,
		noSheet: *noSheet,
	}
	if opts.apiKey == "" {
		opts.apiKey = cfg.Search.APIKey
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return runInteractive(ctx, os.Stdin, os.Stdout, cfg, opts, !flagSet(fs, "date"))
}

// runInteractive prompts on in for the key (when the provider needs one and
// none was given) and for the date (when askDate is set), then runs. An
// empty key ends the run with status 0 before any request is made.
func runInteractive(ctx context.Context, in io.Reader, out io.Writer, cfg *config.Config, opts runOptions, askDate bool) int {
	// Prompt for anything not supplied, key first
	reader := bufio.NewReader(in)
	if opts.apiKey == "" && needsAPIKey(cfg) {
		v, err := prompt(reader, out, "Enter your SerpAPI Key: ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		opts.apiKey = v
	}
	if askDate {
		v, err := prompt(reader, out, "Enter the date (YYYY-MM-DD) for the news: ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		opts.date = v
	}

	if opts.apiKey == "" && needsAPIKey(cfg) {
		fmt.Fprintln(out, "API key is required. Exiting...")
		return 0
	}

	return runRoundup(ctx, out, cfg, opts)
}

// runRoundup performs the run and prints the report. The exit status is 1
// only when the sheet rejects the credentials.
func runRoundup(ctx context.Context, w io.Writer, cfg *config.Config, opts runOptions) int {
	logger := newLogger()
	ctx = logging.WithLogger(ctx, logger)

	selector, err := selection.NewSelector(cfg.Selection.AllowList, cfg.Selection.Cap)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	// Open the sheet up front; a failure is reported after the results
	var (
		appender *sheet.Appender
		sheetErr error
	)
	target := sheetTarget(cfg)
	if opts.noSheet {
		target.Type = sheet.TypeNone
	}
	ws, closer, err := sheet.Open(ctx, target)
	if err != nil {
		sheetErr = err
	} else {
		defer closer.Close()
		if ws != nil {
			appender = sheet.NewAppender(ws, logger)
		}
	}

	categories := make([]roundup.Category, len(cfg.Categories))
	for i, c := range cfg.Categories {
		categories[i] = roundup.Category{Name: c.Name, Query: c.Query}
	}

	svc := roundup.NewService(newFetcher(cfg, opts.apiKey, logger), selector, appender, categories, logger)
	svc.SetResultCount(cfg.Search.Num)

	report, err := svc.Run(ctx, opts.date)
	if err != nil {
		sheetErr = err
	}

	if ferr := printReport(w, opts.format, report, selector.Cap()); ferr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", ferr)
	}

	if sheetErr != nil {
		if sheet.IsAuthError(sheetErr) {
			fmt.Fprintf(os.Stderr, "Error: sheet authentication failed: %v\n", sheetErr)
			return 1
		}
		fmt.Fprintf(os.Stderr, "Error saving news: %v\n", sheetErr)
		return 0
	}

	if report.Append != nil && opts.format == formatTable {
		fmt.Fprintf(w, "\nNews successfully added to %s!\n", describeTarget(target))
	}

	return 0
}
