package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/pevans/newspick/news"
)

// Custom errors for search operations
var (
	ErrMissingAPIKey = errors.New("API key is required")
	ErrNoResults     = errors.New("no results")
)

// Result-count bounds for a query. The API is oversampled because the
// allow-list filter discards most results.
const (
	MinResults     = 10
	MaxResults     = 20
	DefaultResults = 20
)

// Query describes a single search: a topic bounded to one calendar day.
type Query struct {
	Topic string
	// Date is a YYYY-MM-DD string. It is passed through without validation;
	// an empty date searches without a date filter.
	Date string
	// Num is the result-count hint, clamped to [MinResults, MaxResults].
	// Zero means DefaultResults.
	Num int
}

// ResultCount returns the clamped result-count hint for the query.
func (q Query) ResultCount() int {
	switch {
	case q.Num == 0:
		return DefaultResults
	case q.Num < MinResults:
		return MinResults
	case q.Num > MaxResults:
		return MaxResults
	default:
		return q.Num
	}
}

// Status classifies a completed fetch.
type Status int

const (
	// StatusOK means the response carried a result list (possibly empty).
	StatusOK Status = iota
	// StatusEmpty means the response had no result list at all.
	StatusEmpty
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusEmpty:
		return "empty"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Result is the outcome of a fetch that reached the API. Transport failures
// are returned as errors instead.
type Result struct {
	Status   Status
	Articles []news.Article
	// Message carries the API's own error text, if it sent one.
	Message string
}

// Empty reports whether the result holds no articles.
func (r *Result) Empty() bool {
	return r == nil || len(r.Articles) == 0
}

// Fetcher issues one query against a news search backend.
type Fetcher interface {
	Fetch(ctx context.Context, q Query) (*Result, error)
}

// StatusError is returned when the search endpoint answers with a non-2xx
// status.
type StatusError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("HTTP error: %d %s: %s", e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("HTTP error: %d %s", e.StatusCode, e.Status)
}

// Top fetches q and returns the first article of the result. ErrNoResults is
// returned when the result holds no article.
func Top(ctx context.Context, f Fetcher, q Query) (*news.Article, error) {
	result, err := f.Fetch(ctx, q)
	if err != nil {
		return nil, err
	}
	if result.Empty() {
		return nil, ErrNoResults
	}

	top := result.Articles[0]
	return &top, nil
}
