// Package tablefs implements file-based CSV table storage for the finsent jobs.
package tablefs

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrFileNotFound is returned when a table file does not exist
	ErrFileNotFound = errors.New("file not found")

	// ErrColumnNotFound is returned when a required column is absent
	ErrColumnNotFound = errors.New("column not found")

	// ErrMalformedRow is returned when a data row has more fields than the header
	ErrMalformedRow = errors.New("malformed row")
)

// Table is a CSV file held as a header and string rows.
// Every row has exactly len(Header) cells.
type Table struct {
	Header []string
	Rows   [][]string
}

// NewTable creates an empty table with the given header
func NewTable(header ...string) *Table {
	return &Table{Header: append([]string(nil), header...)}
}

// Len returns the number of data rows
func (t *Table) Len() int {
	return len(t.Rows)
}

// Index returns the position of col in the header, or -1
func (t *Table) Index(col string) int {
	for i, h := range t.Header {
		if h == col {
			return i
		}
	}
	return -1
}

// Has reports whether the header contains col
func (t *Table) Has(col string) bool {
	return t.Index(col) >= 0
}

// Column returns a copy of every value in col
func (t *Table) Column(col string) ([]string, error) {
	idx := t.Index(col)
	if idx < 0 {
		return nil, fmt.Errorf("%w: '%s'", ErrColumnNotFound, col)
	}
	out := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[idx]
	}
	return out, nil
}

// Distinct returns the sorted distinct non-empty values of col
func (t *Table) Distinct(col string) ([]string, error) {
	values, err := t.Column(col)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out, nil
}

// Rename renames header columns in place. Missing source columns are ignored.
func (t *Table) Rename(mapping map[string]string) {
	for i, h := range t.Header {
		if to, ok := mapping[h]; ok {
			t.Header[i] = to
		}
	}
}

// Filter returns a new table holding the rows for which keep returns true.
// Rows are shared with the receiver, not copied.
func (t *Table) Filter(keep func(row []string) bool) *Table {
	out := NewTable(t.Header...)
	for _, row := range t.Rows {
		if keep(row) {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

// FilterIn keeps the rows whose col value is a member of set
func (t *Table) FilterIn(col string, set map[string]struct{}) (*Table, error) {
	idx := t.Index(col)
	if idx < 0 {
		return nil, fmt.Errorf("%w: '%s'", ErrColumnNotFound, col)
	}
	return t.Filter(func(row []string) bool {
		_, ok := set[row[idx]]
		return ok
	}), nil
}

// SetColumn replaces col with values, appending it when absent
func (t *Table) SetColumn(col string, values []string) error {
	if len(values) != len(t.Rows) {
		return fmt.Errorf("column '%s' has %d values for %d rows", col, len(values), len(t.Rows))
	}
	idx := t.Index(col)
	if idx < 0 {
		t.Header = append(t.Header, col)
		for i := range t.Rows {
			t.Rows[i] = append(t.Rows[i], values[i])
		}
		return nil
	}
	for i := range t.Rows {
		t.Rows[i][idx] = values[i]
	}
	return nil
}

// Head returns up to n rows as column->value maps, for log previews
func (t *Table) Head(n int) []map[string]string {
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	out := make([]map[string]string, n)
	for i := 0; i < n; i++ {
		m := make(map[string]string, len(t.Header))
		for j, h := range t.Header {
			m[h] = t.Rows[i][j]
		}
		out[i] = m
	}
	return out
}
