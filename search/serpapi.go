package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pevans/newspick/logging"
	"github.com/pevans/newspick/news"
)

// DefaultSerpAPIEndpoint is the SerpAPI search endpoint.
const DefaultSerpAPIEndpoint = "https://serpapi.com/search"

// userAgent identifies newspick to the search backends.
const userAgent = "newspick/1.0 (news search and selection)"

// SerpAPIConfig holds configuration for the SerpAPI fetcher.
type SerpAPIConfig struct {
	APIKey   string
	Endpoint string
	// Language and Region are the hl and gl locale parameters.
	Language string
	Region   string
}

// SerpAPIFetcher queries SerpAPI's google_news engine.
type SerpAPIFetcher struct {
	config     SerpAPIConfig
	httpClient *http.Client
	logger     *slog.Logger
}

// NewSerpAPIFetcher creates a new SerpAPI fetcher. A nil client uses
// http.DefaultClient, so no timeout applies beyond the transport default.
func NewSerpAPIFetcher(config SerpAPIConfig, client *http.Client, logger *slog.Logger) *SerpAPIFetcher {
	if config.Endpoint == "" {
		config.Endpoint = DefaultSerpAPIEndpoint
	}
	if config.Language == "" {
		config.Language = "en"
	}
	if config.Region == "" {
		config.Region = "us"
	}
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = logging.Discard()
	}

	return &SerpAPIFetcher{
		config:     config,
		httpClient: client,
		logger:     logger,
	}
}

// serpResponse is the subset of the SerpAPI payload newspick reads.
// NewsResults is a pointer so a missing key can be told apart from an empty
// list.
type serpResponse struct {
	NewsResults *[]serpResult `json:"news_results"`
	Error       string        `json:"error"`
}

type serpResult struct {
	Title   string       `json:"title"`
	Link    string       `json:"link"`
	Source  news.Source  `json:"source"`
	Date    string       `json:"date"`
	Stories []serpResult `json:"stories"`
}

// DateFilter returns the tbs value bounding a search to a single day.
func DateFilter(date string) string {
	return fmt.Sprintf("cdr:1,cd_min:%s,cd_max:%s", date, date)
}

// BuildURL returns the request URL for q.
func (f *SerpAPIFetcher) BuildURL(q Query) (string, error) {
	base, err := url.Parse(f.config.Endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint: %w", err)
	}

	params := url.Values{}
	params.Set("engine", "google_news")
	params.Set("q", q.Topic)
	params.Set("api_key", f.config.APIKey)
	if q.Date != "" {
		params.Set("tbs", DateFilter(q.Date))
	}
	params.Set("hl", f.config.Language)
	params.Set("gl", f.config.Region)
	params.Set("num", strconv.Itoa(q.ResultCount()))

	base.RawQuery = params.Encode()
	return base.String(), nil
}

// Fetch performs one search request. A response without news_results is a
// StatusEmpty result, not an error.
func (f *SerpAPIFetcher) Fetch(ctx context.Context, q Query) (*Result, error) {
	if strings.TrimSpace(f.config.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}

	reqURL, err := f.BuildURL(q)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	f.logger.Debug("searching", "engine", "google_news", "query", q.Topic, "date", q.Date)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch search results: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read search response: %w", err)
	}

	var payload serpResponse
	decodeErr := json.Unmarshal(body, &payload)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Status:     http.StatusText(resp.StatusCode),
			Message:    payload.Error,
		}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", decodeErr)
	}

	if payload.NewsResults == nil {
		f.logger.Warn("news_results key not found in the response",
			"query", q.Topic, "date", q.Date, "api_error", payload.Error)
		return &Result{Status: StatusEmpty, Message: payload.Error}, nil
	}

	articles := flattenResults(*payload.NewsResults)
	f.logger.Debug("search complete", "query", q.Topic, "results", len(articles))

	return &Result{
		Status:   StatusOK,
		Articles: articles,
		Message:  payload.Error,
	}, nil
}

// flattenResults converts results to articles in API order. Clustered results
// (a stories array and no link of their own) expand in place. Results without
// a link are skipped.
func flattenResults(results []serpResult) []news.Article {
	articles := make([]news.Article, 0, len(results))
	for _, r := range results {
		if r.Link == "" {
			if len(r.Stories) > 0 {
				articles = append(articles, flattenResults(r.Stories)...)
			}
			continue
		}

		articles = append(articles, news.Article{
			Title:       r.Title,
			Link:        r.Link,
			Publisher:   r.Source.Name,
			PublishedAt: r.Date,
		})
	}
	return articles
}
