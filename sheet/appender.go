package sheet

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pevans/newspick/logging"
)

// AppendResult reports what an Append call wrote.
type AppendResult struct {
	HeaderWritten bool
	RowsWritten   int
}

// Appender writes rows to a worksheet, adding the header first when the
// worksheet is empty.
type Appender struct {
	sheet  Worksheet
	now    func() time.Time
	logger *slog.Logger
}

// NewAppender creates an appender for ws.
func NewAppender(ws Worksheet, logger *slog.Logger) *Appender {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Appender{
		sheet:  ws,
		now:    time.Now,
		logger: logger,
	}
}

// Append writes rows in order, one at a time. Rows without a timestamp are
// stamped with the time of the call. On failure the rows already written stay
// written and the result reports how many there were.
func (a *Appender) Append(ctx context.Context, rows []Row) (*AppendResult, error) {
	result := &AppendResult{}

	empty, err := a.sheet.IsEmpty(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to read worksheet: %w", err)
	}

	if empty {
		if err := a.sheet.AppendRow(ctx, Header); err != nil {
			return result, fmt.Errorf("failed to write header row: %w", err)
		}
		result.HeaderWritten = true
		a.logger.Debug("wrote header row")
	}

	stamp := a.now()
	for _, row := range rows {
		if row.Timestamp.IsZero() {
			row.Timestamp = stamp
		}
		if err := a.sheet.AppendRow(ctx, row.Cells()); err != nil {
			return result, fmt.Errorf("failed to append row %d of %d: %w", result.RowsWritten+1, len(rows), err)
		}
		result.RowsWritten++
	}

	a.logger.Info("appended rows", "rows", result.RowsWritten, "header", result.HeaderWritten)
	return result, nil
}
