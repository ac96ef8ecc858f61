// Package sheet appends selected stories to a tabular store. The store is
// append-only: rows are never updated or deduplicated, so running the same
// append twice writes the rows twice.
package sheet

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// TimestampFormat is the layout of the timestamp column.
const TimestampFormat = "2006-01-02 15:04:05"

// Header is the row written to an empty worksheet before any data.
var Header = []string{"Timestamp", "Source", "Category", "Title", "Link"}

// Custom errors for sheet operations
var (
	ErrUnknownType         = errors.New("sheet type must be google, sqlite, postgres, or none")
	ErrSpreadsheetNotFound = errors.New("spreadsheet not found")
	ErrNoWorksheet         = errors.New("spreadsheet has no worksheets")

	errWorksheetFull = errors.New("worksheet is full")
)

// Row is one persisted story.
type Row struct {
	Timestamp time.Time
	Source    string
	Category  string
	Title     string
	Link      string
}

// Cells returns the row as the string values written to the sheet.
func (r Row) Cells() []string {
	return []string{
		r.Timestamp.Format(TimestampFormat),
		r.Source,
		r.Category,
		r.Title,
		r.Link,
	}
}

// Worksheet is a single append-only sheet.
type Worksheet interface {
	// IsEmpty reports whether the worksheet holds no rows at all.
	IsEmpty(ctx context.Context) (bool, error)
	// AppendRow writes one row after the last existing row.
	AppendRow(ctx context.Context, cells []string) error
}

// AuthError wraps a credential or authentication failure. These are the only
// failures that end a run abnormally.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("sheet authentication failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// IsAuthError reports whether err is or wraps an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}
