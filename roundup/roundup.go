// Package roundup runs one news roundup: a search per category, source
// selection on each result, and a single append of the selected stories.
package roundup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pevans/newspick/logging"
	"github.com/pevans/newspick/search"
	"github.com/pevans/newspick/selection"
	"github.com/pevans/newspick/sheet"
)

// Status is the outcome of one category search.
type Status string

const (
	StatusOK    Status = "ok"
	StatusEmpty Status = "empty"
	StatusError Status = "error"
)

// Category pairs a row label with the query searched for it.
type Category struct {
	Name  string
	Query string
}

// CategoryReport is the outcome for one category. Selection is never nil;
// failed and empty searches carry an all-"not found" selection.
type CategoryReport struct {
	Name      string
	Query     string
	Status    Status
	Err       error
	Message   string
	Selection *selection.Result
}

// Report describes a completed run.
type Report struct {
	RunID      string
	Date       string
	StartedAt  time.Time
	Categories []CategoryReport
	Rows       []sheet.Row
	// Append is nil when no appender is configured.
	Append *sheet.AppendResult
}

// Service runs roundups.
type Service struct {
	fetcher     search.Fetcher
	selector    *selection.Selector
	appender    *sheet.Appender
	categories  []Category
	resultCount int
	logger      *slog.Logger
}

// NewService creates a roundup service. A nil appender disables the sheet
// step.
func NewService(
	fetcher search.Fetcher,
	selector *selection.Selector,
	appender *sheet.Appender,
	categories []Category,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = logging.Discard()
	}

	return &Service{
		fetcher:    fetcher,
		selector:   selector,
		appender:   appender,
		categories: categories,
		logger:     logger,
	}
}

// SetResultCount sets the result-count hint sent with every search.
func (s *Service) SetResultCount(n int) {
	s.resultCount = n
}

// Run searches every category for date, selects stories, and appends the
// rows. Search failures are recorded on the report and never abort the run;
// the returned error is non-nil only when the append fails, in which case the
// report is still returned.
func (s *Service) Run(ctx context.Context, date string) (*Report, error) {
	report := &Report{
		RunID:     uuid.New().String(),
		Date:      date,
		StartedAt: time.Now(),
	}
	logger := s.logger.With("run_id", report.RunID)
	logger.Info("roundup started", "date", date, "categories", len(s.categories))

	for _, cat := range s.categories {
		report.Categories = append(report.Categories, s.runCategory(ctx, logger, cat, date))
	}

	report.Rows = BuildRows(s.selector.AllowList(), report.Categories)

	if s.appender == nil {
		logger.Info("roundup finished", "rows", len(report.Rows), "sheet", false)
		return report, nil
	}

	result, err := s.appender.Append(ctx, report.Rows)
	report.Append = result
	if err != nil {
		logger.Error("append failed", "error", err)
		return report, fmt.Errorf("failed to append rows: %w", err)
	}

	logger.Info("roundup finished", "rows", result.RowsWritten, "header", result.HeaderWritten)
	return report, nil
}

// runCategory searches one category and selects its stories.
func (s *Service) runCategory(ctx context.Context, logger *slog.Logger, cat Category, date string) CategoryReport {
	cr := CategoryReport{
		Name:  cat.Name,
		Query: cat.Query,
	}

	result, err := s.fetcher.Fetch(ctx, search.Query{
		Topic: cat.Query,
		Date:  date,
		Num:   s.resultCount,
	})
	if err != nil {
		logger.Warn("search failed", "category", cat.Name, "error", err)
		cr.Status = StatusError
		cr.Err = err
		cr.Selection = s.selector.NotFound()
		return cr
	}

	cr.Message = result.Message
	if result.Status == search.StatusEmpty {
		cr.Status = StatusEmpty
		cr.Selection = s.selector.NotFound()
		return cr
	}

	cr.Status = StatusOK
	cr.Selection = s.selector.Select(result.Articles)
	logger.Debug("selected stories",
		"category", cat.Name,
		"articles", len(result.Articles),
		"scanned", cr.Selection.Scanned(),
		"selected", cr.Selection.Count(),
	)

	return cr
}

// BuildRows flattens selections into sheet rows ordered by publisher
// (allow-list order), then category, then story. Publishers with no story
// produce no row. Timestamps are left for the appender to stamp.
func BuildRows(allow selection.AllowList, categories []CategoryReport) []sheet.Row {
	var rows []sheet.Row
	for _, publisher := range allow {
		for _, cat := range categories {
			if cat.Selection == nil {
				continue
			}
			for _, story := range cat.Selection.Stories(publisher) {
				rows = append(rows, sheet.Row{
					Source:   publisher,
					Category: cat.Name,
					Title:    story.Title,
					Link:     story.Link,
				})
			}
		}
	}
	return rows
}
