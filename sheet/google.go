package sheet

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// spreadsheetMimeType is the Drive MIME type of Google Sheets files.
const spreadsheetMimeType = "application/vnd.google-apps.spreadsheet"

// GoogleConfig identifies a Google Sheets spreadsheet.
type GoogleConfig struct {
	// Title is the spreadsheet name, resolved through the Drive API when
	// SpreadsheetID is empty.
	Title         string
	SpreadsheetID string
	// CredentialsFile is a service-account JSON key file.
	CredentialsFile string
}

// GoogleWorksheet is the first worksheet tab of a Google Sheets spreadsheet.
type GoogleWorksheet struct {
	service       *sheets.Service
	spreadsheetID string
	tab           string
}

// OpenGoogleWorksheet authenticates with the service-account credentials in
// config and opens the first worksheet of the spreadsheet. Extra client
// options are appended after the credential options.
func OpenGoogleWorksheet(ctx context.Context, config GoogleConfig, opts ...option.ClientOption) (*GoogleWorksheet, error) {
	var clientOpts []option.ClientOption
	if config.CredentialsFile != "" {
		if _, err := os.Stat(config.CredentialsFile); err != nil {
			return nil, &AuthError{Err: fmt.Errorf("failed to read credentials file: %w", err)}
		}
		clientOpts = append(clientOpts,
			option.WithCredentialsFile(config.CredentialsFile),
			option.WithScopes(sheets.SpreadsheetsScope, drive.DriveMetadataReadonlyScope),
		)
	}
	clientOpts = append(clientOpts, opts...)

	service, err := sheets.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, &AuthError{Err: fmt.Errorf("failed to create sheets client: %w", err)}
	}

	spreadsheetID := config.SpreadsheetID
	if spreadsheetID == "" {
		spreadsheetID, err = findSpreadsheet(ctx, config.Title, clientOpts)
		if err != nil {
			return nil, err
		}
	}

	spreadsheet, err := service.Spreadsheets.Get(spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return nil, classifyGoogleError("failed to open spreadsheet", err)
	}
	if len(spreadsheet.Sheets) == 0 || spreadsheet.Sheets[0].Properties == nil {
		return nil, ErrNoWorksheet
	}

	return &GoogleWorksheet{
		service:       service,
		spreadsheetID: spreadsheetID,
		tab:           spreadsheet.Sheets[0].Properties.Title,
	}, nil
}

// findSpreadsheet looks up a spreadsheet ID by exact title.
func findSpreadsheet(ctx context.Context, title string, opts []option.ClientOption) (string, error) {
	if title == "" {
		return "", fmt.Errorf("%w: no title or spreadsheet id configured", ErrSpreadsheetNotFound)
	}

	service, err := drive.NewService(ctx, opts...)
	if err != nil {
		return "", &AuthError{Err: fmt.Errorf("failed to create drive client: %w", err)}
	}

	q := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false",
		escapeQueryValue(title), spreadsheetMimeType)

	list, err := service.Files.List().
		Q(q).
		Fields("files(id, name)").
		PageSize(10).
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", classifyGoogleError("failed to search for spreadsheet", err)
	}
	if len(list.Files) == 0 {
		return "", fmt.Errorf("%w: %q", ErrSpreadsheetNotFound, title)
	}

	return list.Files[0].Id, nil
}

// SpreadsheetID returns the resolved spreadsheet ID.
func (g *GoogleWorksheet) SpreadsheetID() string {
	return g.spreadsheetID
}

// Tab returns the worksheet tab title.
func (g *GoogleWorksheet) Tab() string {
	return g.tab
}

// IsEmpty implements Worksheet.
func (g *GoogleWorksheet) IsEmpty(ctx context.Context) (bool, error) {
	values, err := g.service.Spreadsheets.Values.Get(g.spreadsheetID, quoteTab(g.tab)).
		Context(ctx).
		Do()
	if err != nil {
		return false, classifyGoogleError("failed to read worksheet values", err)
	}
	return len(values.Values) == 0, nil
}

// AppendRow implements Worksheet.
func (g *GoogleWorksheet) AppendRow(ctx context.Context, cells []string) error {
	row := make([]any, len(cells))
	for i, c := range cells {
		row[i] = c
	}

	_, err := g.service.Spreadsheets.Values.Append(g.spreadsheetID, quoteTab(g.tab)+"!A1", &sheets.ValueRange{
		MajorDimension: "ROWS",
		Values:         [][]any{row},
	}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return classifyGoogleError("failed to append row", err)
	}
	return nil
}

// quoteTab quotes a worksheet title for use in A1 notation.
func quoteTab(tab string) string {
	return "'" + strings.ReplaceAll(tab, "'", "''") + "'"
}

// escapeQueryValue escapes a string literal for a Drive files.list query.
func escapeQueryValue(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

// classifyGoogleError wraps err, turning 401/403 responses and token failures
// into AuthErrors.
func classifyGoogleError(msg string, err error) error {
	wrapped := fmt.Errorf("%s: %w", msg, err)

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return &AuthError{Err: wrapped}
		case http.StatusNotFound:
			return fmt.Errorf("%w: %w", ErrSpreadsheetNotFound, wrapped)
		}
	}

	var tokenErr *oauth2.RetrieveError
	if errors.As(err, &tokenErr) {
		return &AuthError{Err: wrapped}
	}

	return wrapped
}
