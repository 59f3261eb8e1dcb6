package table

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind tags the type of values a column holds.
type Kind int

const (
	KindText Kind = iota
	KindNumeric
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindDate:
		return "date"
	default:
		return "text"
	}
}

// Column is a named, immutable sequence of cells addressed by absolute row index.
type Column interface {
	Name() string
	Kind() Kind
	Len() int
	// String returns the cell as it is displayed and searched.
	String(row int) string
}

// NumericColumn is a column whose cells compare as numbers.
type NumericColumn interface {
	Column
	Number(row int) (float64, bool)
}

// DateColumn is a column whose cells compare as civil dates.
type DateColumn interface {
	Column
	Date(row int) (time.Time, bool)
}

// TextColumn is a column whose cells match substring patterns.
type TextColumn interface {
	Column
	Text(row int) string
}

type textColumn struct {
	name   string
	values []string
}

func (c *textColumn) Name() string          { return c.name }
func (c *textColumn) Kind() Kind            { return KindText }
func (c *textColumn) Len() int              { return len(c.values) }
func (c *textColumn) String(row int) string { return c.values[row] }
func (c *textColumn) Text(row int) string   { return c.values[row] }

type numericColumn struct {
	name    string
	raw     []string
	values  []float64
	present []bool
}

func (c *numericColumn) Name() string          { return c.name }
func (c *numericColumn) Kind() Kind            { return KindNumeric }
func (c *numericColumn) Len() int              { return len(c.raw) }
func (c *numericColumn) String(row int) string { return c.raw[row] }

func (c *numericColumn) Number(row int) (float64, bool) {
	return c.values[row], c.present[row]
}

type dateColumn struct {
	name    string
	values  []time.Time
	present []bool
}

func (c *dateColumn) Name() string { return c.name }
func (c *dateColumn) Kind() Kind   { return KindDate }
func (c *dateColumn) Len() int     { return len(c.values) }

func (c *dateColumn) String(row int) string {
	if !c.present[row] {
		return ""
	}
	return c.values[row].Format(isoLayout)
}

func (c *dateColumn) Date(row int) (time.Time, bool) {
	return c.values[row], c.present[row]
}

// NewTextColumn builds a text column.
func NewTextColumn(name string, values []string) TextColumn {
	return &textColumn{name: name, values: values}
}

// NewNumericColumn parses values as numbers; it fails when any non-empty value is not numeric.
func NewNumericColumn(name string, values []string) (NumericColumn, bool) {
	nums := make([]float64, len(values))
	present := make([]bool, len(values))
	seen := 0
	for i, v := range values {
		if v == "" {
			continue
		}
		f, ok := parseNumber(v)
		if !ok {
			return nil, false
		}
		nums[i] = f
		present[i] = true
		seen++
	}
	if seen == 0 {
		return nil, false
	}
	return &numericColumn{name: name, raw: values, values: nums, present: present}, true
}

// parseNumber accepts finite decimal numbers only. NaN, Inf and hex floats are text.
func parseNumber(s string) (float64, bool) {
	digits := strings.TrimLeft(s, "+-")
	if len(digits) > 1 && digits[0] == '0' && (digits[1] == 'x' || digits[1] == 'X') {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// NewDateColumn reinterprets values as dates; it fails when any non-empty value is not a date.
func NewDateColumn(name string, values []string) (DateColumn, bool) {
	dates, present, ok := reinterpretDates(values)
	if !ok {
		return nil, false
	}
	return &dateColumn{name: name, values: dates, present: present}, true
}

// buildColumn picks the column kind for one column of raw cells.
func buildColumn(name string, values []string, opts Options) Column {
	for i, v := range values {
		values[i] = strings.TrimSpace(v)
	}

	if opts.IsDateColumn != nil && opts.IsDateColumn(name) {
		values = NormalizeDates(values)
		if col, ok := NewDateColumn(name, values); ok {
			return col
		}
		return NewTextColumn(name, values)
	}

	if col, ok := NewNumericColumn(name, values); ok {
		return col
	}

	if opts.AutoDates {
		if col, ok := NewDateColumn(name, values); ok {
			return col
		}
	}

	return NewTextColumn(name, values)
}
