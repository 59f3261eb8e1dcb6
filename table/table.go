// Package table holds an immutable, column-typed view of one spreadsheet
// and the search and filter operations that narrow it.
package table

import (
	"time"
)

// Options control how raw cells are typed when a table is built.
type Options struct {
	// IsDateColumn designates columns whose values are normalized and read as dates.
	IsDateColumn func(name string) bool
	// AutoDates reads undesignated text columns as dates when every value parses as one.
	AutoDates bool
}

// Table is a view over shared, immutable columns.
// Narrowing a table returns a new view; the receiver is never modified.
type Table struct {
	cols  []Column
	index map[string]int
	rows  []int
}

// New builds a table from a header row and data rows.
// Short rows are padded with empty cells.
func New(headers []string, rows [][]string, opts Options) *Table {
	cols := make([]Column, len(headers))
	for c, name := range headers {
		values := make([]string, len(rows))
		for r, row := range rows {
			if c < len(row) {
				values[r] = row[c]
			}
		}
		cols[c] = buildColumn(name, values, opts)
	}

	all := make([]int, len(rows))
	for i := range all {
		all[i] = i
	}
	return FromColumns(cols, all)
}

// FromColumns assembles a view of the given rows over cols.
func FromColumns(cols []Column, rows []int) *Table {
	index := make(map[string]int, len(cols))
	for i, col := range cols {
		index[col.Name()] = i
	}
	return &Table{cols: cols, index: index, rows: rows}
}

// Columns returns the columns in order.
func (t *Table) Columns() []Column {
	return t.cols
}

// Column looks a column up by name.
func (t *Table) Column(name string) (Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.cols[i], true
}

// Headers returns the column names in order.
func (t *Table) Headers() []string {
	names := make([]string, len(t.cols))
	for i, col := range t.cols {
		names[i] = col.Name()
	}
	return names
}

// Len is the number of rows in the view.
func (t *Table) Len() int {
	return len(t.rows)
}

// RowIndex maps a view row to its row in the uploaded sheet.
func (t *Table) RowIndex(i int) int {
	return t.rows[i]
}

// Row returns the display strings of view row i.
func (t *Table) Row(i int) []string {
	row := t.rows[i]
	cells := make([]string, len(t.cols))
	for c, col := range t.cols {
		cells[c] = col.String(row)
	}
	return cells
}

// Rows returns the display strings of every row in the view.
func (t *Table) Rows() [][]string {
	out := make([][]string, len(t.rows))
	for i := range t.rows {
		out[i] = t.Row(i)
	}
	return out
}

// Where returns the view of rows for which keep holds, in order.
func (t *Table) Where(keep Predicate) *Table {
	rows := make([]int, 0, len(t.rows))
	for _, row := range t.rows {
		if keep(row) {
			rows = append(rows, row)
		}
	}
	return &Table{cols: t.cols, index: t.index, rows: rows}
}

// MinNumber returns the smallest value of a numeric column in the view.
func (t *Table) MinNumber(name string) (float64, bool) {
	col, ok := t.Column(name)
	if !ok {
		return 0, false
	}
	nc, ok := col.(NumericColumn)
	if !ok {
		return 0, false
	}

	var lowest float64
	found := false
	for _, row := range t.rows {
		v, present := nc.Number(row)
		if !present {
			continue
		}
		if !found || v < lowest {
			lowest = v
			found = true
		}
	}
	return lowest, found
}

// MinDate returns the earliest value of a date column in the view.
func (t *Table) MinDate(name string) (time.Time, bool) {
	col, ok := t.Column(name)
	if !ok {
		return time.Time{}, false
	}
	dc, ok := col.(DateColumn)
	if !ok {
		return time.Time{}, false
	}

	var lowest time.Time
	found := false
	for _, row := range t.rows {
		v, present := dc.Date(row)
		if !present {
			continue
		}
		if !found || v.Before(lowest) {
			lowest = v
			found = true
		}
	}
	return lowest, found
}
