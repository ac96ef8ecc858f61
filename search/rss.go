package search

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed/rss"
	"github.com/pevans/newspick/logging"
	"github.com/pevans/newspick/news"
)

// DefaultRSSEndpoint is the Google News RSS search endpoint.
const DefaultRSSEndpoint = "https://news.google.com/rss/search"

// RSSConfig holds configuration for the Google News RSS fetcher.
type RSSConfig struct {
	Endpoint string
	Language string
	Region   string
}

// RSSFetcher searches the Google News RSS feed. It needs no API key.
type RSSFetcher struct {
	config     RSSConfig
	httpClient *http.Client
	logger     *slog.Logger
}

// NewRSSFetcher creates a new RSS fetcher.
func NewRSSFetcher(config RSSConfig, client *http.Client, logger *slog.Logger) *RSSFetcher {
	if config.Endpoint == "" {
		config.Endpoint = DefaultRSSEndpoint
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

	return &RSSFetcher{
		config:     config,
		httpClient: client,
		logger:     logger,
	}
}

// searchTerms appends after:/before: operators bounding the search to the
// query date. A date that does not parse is dropped, since the feed has no
// equivalent of a pass-through filter.
func searchTerms(q Query) string {
	if q.Date == "" {
		return q.Topic
	}

	day, err := time.Parse("2006-01-02", q.Date)
	if err != nil {
		return q.Topic
	}

	next := day.AddDate(0, 0, 1)
	return fmt.Sprintf("%s after:%s before:%s", q.Topic, day.Format("2006-01-02"), next.Format("2006-01-02"))
}

// BuildURL returns the feed URL for q.
func (f *RSSFetcher) BuildURL(q Query) (string, error) {
	base, err := url.Parse(f.config.Endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint: %w", err)
	}

	region := strings.ToUpper(f.config.Region)
	params := url.Values{}
	params.Set("q", searchTerms(q))
	params.Set("hl", f.config.Language)
	params.Set("gl", region)
	params.Set("ceid", region+":"+f.config.Language)

	base.RawQuery = params.Encode()
	return base.String(), nil
}

// Fetch downloads and parses the search feed. A feed with no items is a
// StatusOK result with no articles.
func (f *RSSFetcher) Fetch(ctx context.Context, q Query) (*Result, error) {
	feedURL, err := f.BuildURL(q)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	f.logger.Debug("searching", "engine", "google_news_rss", "query", q.Topic, "date", q.Date)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Status:     http.StatusText(resp.StatusCode),
		}
	}

	parser := &rss.Parser{}
	feed, err := parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	limit := q.ResultCount()
	articles := make([]news.Article, 0, min(len(feed.Items), limit))
	for _, item := range feed.Items {
		if len(articles) == limit {
			break
		}
		if item.Link == "" {
			continue
		}
		articles = append(articles, ItemToArticle(item))
	}

	f.logger.Debug("search complete", "query", q.Topic, "results", len(articles))

	return &Result{Status: StatusOK, Articles: articles}, nil
}

// ItemToArticle converts a Google News RSS item. The publisher comes from the
// <source> element, then from the trailing <font> of the HTML description,
// then from the " - Publisher" title suffix. The suffix is stripped from the
// title when it matches the publisher.
func ItemToArticle(item *rss.Item) news.Article {
	publisher := ""
	if item.Source != nil {
		publisher = strings.TrimSpace(item.Source.Title)
	}
	if publisher == "" {
		publisher = descriptionPublisher(item.Description)
	}

	title := strings.TrimSpace(item.Title)
	if idx := strings.LastIndex(title, " - "); idx > 0 {
		suffix := strings.TrimSpace(title[idx+3:])
		if publisher == "" {
			publisher = suffix
		}
		if suffix == publisher {
			title = strings.TrimSpace(title[:idx])
		}
	}

	return news.Article{
		Title:       title,
		Link:        item.Link,
		Publisher:   publisher,
		PublishedAt: item.PubDate,
	}
}

// descriptionPublisher extracts the publisher label Google News appends to
// item descriptions as a <font> element.
func descriptionPublisher(description string) string {
	if description == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(description))
	if err != nil {
		return ""
	}

	return strings.TrimSpace(doc.Find("font").Last().Text())
}
