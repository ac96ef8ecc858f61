package sheet

import (
	"context"
	"slices"
	"sync"
)

// MemoryWorksheet keeps rows in memory. It backs dry runs and tests.
type MemoryWorksheet struct {
	mu   sync.Mutex
	rows [][]string
	// FailAfter makes AppendRow fail once this many rows are stored, when
	// positive.
	FailAfter int
	// Err is returned by every call when set.
	Err error
}

// NewMemoryWorksheet creates a worksheet holding the given rows.
func NewMemoryWorksheet(rows ...[]string) *MemoryWorksheet {
	return &MemoryWorksheet{rows: rows}
}

// IsEmpty implements Worksheet.
func (m *MemoryWorksheet) IsEmpty(_ context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return false, m.Err
	}
	return len(m.rows) == 0, nil
}

// AppendRow implements Worksheet.
func (m *MemoryWorksheet) AppendRow(_ context.Context, cells []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}
	if m.FailAfter > 0 && len(m.rows) >= m.FailAfter {
		return errWorksheetFull
	}
	m.rows = append(m.rows, slices.Clone(cells))
	return nil
}

// Rows returns a copy of the stored rows.
func (m *MemoryWorksheet) Rows() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([][]string, len(m.rows))
	for i, r := range m.rows {
		out[i] = slices.Clone(r)
	}
	return out
}
