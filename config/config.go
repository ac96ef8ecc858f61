package config

import (
	"errors"
	"fmt"
	"time"
)

// Search providers.
const (
	ProviderSerpAPI       = "serpapi"
	ProviderGoogleNewsRSS = "google_news_rss"
)

// Custom errors for configuration validation
var (
	ErrInvalidProvider   = errors.New("invalid search provider")
	ErrInvalidCap        = errors.New("selection cap must be at least 1")
	ErrEmptyAllowList    = errors.New("allow list must not be empty")
	ErrNoCategories      = errors.New("at least one category is required")
	ErrInvalidSheetType  = errors.New("invalid sheet type")
	ErrInvalidCategory   = errors.New("category needs a name and a query")
	ErrMissingSheetDSN   = errors.New("sheet dsn is required for sql backends")
	ErrMissingSheetTitle = errors.New("sheet name or spreadsheet id is required")
)

// Config is the complete newspick configuration. It is built once and passed
// to each component at construction.
type Config struct {
	Search     SearchConfig    `yaml:"search"`
	Selection  SelectionConfig `yaml:"selection"`
	Categories []Category      `yaml:"categories"`
	Sheet      SheetConfig     `yaml:"sheet"`
}

// SearchConfig configures the news search provider.
type SearchConfig struct {
	Provider string `yaml:"provider"`
	// APIKey is normally supplied at the prompt or through NEWSPICK_API_KEY.
	APIKey   string        `yaml:"api_key,omitempty"`
	Endpoint string        `yaml:"endpoint,omitempty"`
	Num      int           `yaml:"num"`
	Language string        `yaml:"language"`
	Region   string        `yaml:"region"`
	Timeout  time.Duration `yaml:"timeout,omitempty"`
}

// SelectionConfig configures source selection.
type SelectionConfig struct {
	Cap       int      `yaml:"cap"`
	AllowList []string `yaml:"allow_list"`
}

// Category pairs a row label with its search query.
type Category struct {
	Name  string `yaml:"name"`
	Query string `yaml:"query"`
}

// SheetConfig configures where selected stories are appended.
type SheetConfig struct {
	Type          string `yaml:"type"`
	Name          string `yaml:"name"`
	SpreadsheetID string `yaml:"spreadsheet_id,omitempty"`
	Credentials   string `yaml:"credentials,omitempty"`
	DSN           string `yaml:"dsn,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Search: SearchConfig{
			Provider: ProviderSerpAPI,
			Num:      20,
			Language: "en",
			Region:   "us",
		},
		Selection: SelectionConfig{
			Cap:       1,
			AllowList: []string{"The Associated Press", "Reuters", "BBC.com"},
		},
		Categories: []Category{
			{Name: "US", Query: "top news in the US"},
			{Name: "World", Query: "world news"},
		},
		Sheet: SheetConfig{
			Type:        "google",
			Name:        "News_Aggregator",
			Credentials: "config/credentials.json",
		},
	}
}

// Validate checks that the configuration can drive a run.
func (c *Config) Validate() error {
	switch c.Search.Provider {
	case ProviderSerpAPI, ProviderGoogleNewsRSS:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidProvider, c.Search.Provider)
	}

	if c.Selection.Cap < 1 {
		return ErrInvalidCap
	}
	if len(c.Selection.AllowList) == 0 {
		return ErrEmptyAllowList
	}

	if len(c.Categories) == 0 {
		return ErrNoCategories
	}
	for i, cat := range c.Categories {
		if cat.Name == "" || cat.Query == "" {
			return fmt.Errorf("%w: entry %d", ErrInvalidCategory, i+1)
		}
	}

	switch c.Sheet.Type {
	case "none":
	case "google":
		if c.Sheet.Name == "" && c.Sheet.SpreadsheetID == "" {
			return ErrMissingSheetTitle
		}
	case "sqlite", "postgres":
		if c.Sheet.DSN == "" {
			return fmt.Errorf("%w: %s", ErrMissingSheetDSN, c.Sheet.Type)
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidSheetType, c.Sheet.Type)
	}

	return nil
}
