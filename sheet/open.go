package sheet

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pevans/newspick/logging"
	"google.golang.org/api/option"
)

// Backend types accepted by Open.
const (
	TypeGoogle   = "google"
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
	TypeNone     = "none"
)

// Target describes where rows are appended.
type Target struct {
	Type string
	// Name is the spreadsheet title (google) or sheet name (sql backends).
	Name          string
	SpreadsheetID string
	Credentials   string
	// DSN is the database path (sqlite) or connection string (postgres).
	DSN string
}

// nopCloser is returned for backends that hold no resources.
type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open returns the worksheet for target and a closer releasing it. A "none"
// target returns a nil worksheet.
func Open(ctx context.Context, target Target, opts ...option.ClientOption) (Worksheet, io.Closer, error) {
	logging.FromContext(ctx).Debug("opening worksheet", "type", target.Type, "name", target.Name)

	switch target.Type {
	case TypeNone, "":
		return nil, nopCloser{}, nil
	case TypeGoogle:
		ws, err := OpenGoogleWorksheet(ctx, GoogleConfig{
			Title:           target.Name,
			SpreadsheetID:   target.SpreadsheetID,
			CredentialsFile: target.Credentials,
		}, opts...)
		if err != nil {
			return nil, nil, err
		}
		return ws, nopCloser{}, nil
	case TypeSQLite:
		// Create the parent directory (0700: owner-only access)
		if dir := filepath.Dir(target.DSN); dir != "." {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return nil, nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		ws, err := OpenSQLWorksheet(ctx, DialectSQLite, target.DSN, target.Name)
		if err != nil {
			return nil, nil, err
		}
		return ws, ws, nil
	case TypePostgres:
		ws, err := OpenSQLWorksheet(ctx, DialectPostgres, target.DSN, target.Name)
		if err != nil {
			return nil, nil, err
		}
		return ws, ws, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownType, target.Type)
	}
}
