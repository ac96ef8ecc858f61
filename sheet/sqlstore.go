package sheet

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Dialect selects the SQL placeholder style and driver.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// driverName returns the database/sql driver registered for the dialect.
func (d Dialect) driverName() string {
	if d == DialectPostgres {
		return "postgres"
	}
	return "sqlite3"
}

// SQLWorksheet stores sheet rows in a SQL table, one named sheet per
// worksheet. Row order is kept in a position column.
type SQLWorksheet struct {
	db      *sql.DB
	dialect Dialect
	name    string
	ownsDB  bool
}

// OpenSQLWorksheet opens the database at dsn and returns the worksheet named
// name. The database is closed by Close.
func OpenSQLWorksheet(ctx context.Context, dialect Dialect, dsn, name string) (*SQLWorksheet, error) {
	db, err := sql.Open(dialect.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ws, err := NewSQLWorksheet(ctx, db, dialect, name)
	if err != nil {
		db.Close()
		return nil, err
	}
	ws.ownsDB = true

	return ws, nil
}

// NewSQLWorksheet returns the worksheet named name in db, creating the table
// if it doesn't exist. The caller keeps ownership of db.
func NewSQLWorksheet(ctx context.Context, db *sql.DB, dialect Dialect, name string) (*SQLWorksheet, error) {
	ws := &SQLWorksheet{
		db:      db,
		dialect: dialect,
		name:    name,
	}
	if err := ws.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return ws, nil
}

// initSchema creates the sheet_rows table if it doesn't exist.
func (w *SQLWorksheet) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS sheet_rows (
		row_id TEXT PRIMARY KEY,
		sheet TEXT NOT NULL,
		position INTEGER NOT NULL,
		cells TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	`

	_, err := w.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database connection if the worksheet opened it.
func (w *SQLWorksheet) Close() error {
	if !w.ownsDB {
		return nil
	}
	return w.db.Close()
}

// Name returns the sheet name.
func (w *SQLWorksheet) Name() string {
	return w.name
}

// IsEmpty implements Worksheet.
func (w *SQLWorksheet) IsEmpty(ctx context.Context) (bool, error) {
	query := w.rebind("SELECT COUNT(*) FROM sheet_rows WHERE sheet = ?")

	var count int
	if err := w.db.QueryRowContext(ctx, query, w.name).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to count rows: %w", err)
	}
	return count == 0, nil
}

// AppendRow implements Worksheet.
func (w *SQLWorksheet) AppendRow(ctx context.Context, cells []string) error {
	data, err := json.Marshal(cells)
	if err != nil {
		return fmt.Errorf("failed to marshal cells: %w", err)
	}

	query := w.rebind(`
		INSERT INTO sheet_rows (row_id, sheet, position, cells, created_at)
		VALUES (?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM sheet_rows WHERE sheet = ?), ?, ?)
	`)

	_, err = w.db.ExecContext(ctx, query,
		uuid.New().String(),
		w.name,
		w.name,
		string(data),
		time.Now().UTC().Truncate(0).Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to insert row: %w", err)
	}

	return nil
}

// Rows returns every row of the sheet in append order.
func (w *SQLWorksheet) Rows(ctx context.Context) ([][]string, error) {
	query := w.rebind("SELECT cells FROM sheet_rows WHERE sheet = ? ORDER BY position")

	rows, err := w.db.QueryContext(ctx, query, w.name)
	if err != nil {
		return nil, fmt.Errorf("failed to query rows: %w", err)
	}
	defer rows.Close()

	var out [][]string
	for rows.Next() {
		var cellsJSON string
		if err := rows.Scan(&cellsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		var cells []string
		if err := json.Unmarshal([]byte(cellsJSON), &cells); err != nil {
			return nil, fmt.Errorf("failed to unmarshal cells: %w", err)
		}
		out = append(out, cells)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	return out, nil
}

// rebind rewrites ? placeholders to $n for postgres.
func (w *SQLWorksheet) rebind(query string) string {
	if w.dialect != DialectPostgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
