package web

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"sheetsearch/stats"
	"sheetsearch/table"
)

const dateInputLayout = "2006-01-02"

var errBadValue = errors.New("bad filter value")

func opField(i int) string      { return fmt.Sprintf("op_%d", i) }
func valueField(i int) string   { return fmt.Sprintf("value_%d", i) }
func patternField(i int) string { return fmt.Sprintf("pattern_%d", i) }

// condition builds the filter for col from raw inputs.
// A nil condition means the column is not configured.
func condition(col table.Column, op, value, pattern string) (table.Condition, error) {
	switch col.Kind() {
	case table.KindNumeric:
		if op == "" {
			return nil, nil
		}
		o, err := table.ParseOp(op)
		if err != nil {
			return nil, err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, errors.Wrapf(errBadValue, "number for %q: %q", col.Name(), value)
		}
		return table.Comparison{Op: o, Value: v}, nil

	case table.KindDate:
		if op == "" {
			return nil, nil
		}
		o, err := table.ParseOp(op)
		if err != nil {
			return nil, err
		}
		d, err := time.Parse(dateInputLayout, strings.TrimSpace(value))
		if err != nil {
			return nil, errors.Wrapf(errBadValue, "date for %q: %q", col.Name(), value)
		}
		return table.DateComparison{Op: o, Value: d}, nil

	default:
		if pattern == "" {
			return nil, nil
		}
		return table.Pattern(pattern), nil
	}
}

// parseQuery reads the search box and per-column controls.
func parseQuery(r *http.Request, base *table.Table) (table.Query, error) {
	q := table.Query{
		Search:  r.FormValue("search"),
		Filters: table.Spec{},
	}
	for i, col := range base.Columns() {
		cond, err := condition(col, r.FormValue(opField(i)), r.FormValue(valueField(i)), r.FormValue(patternField(i)))
		if err != nil {
			return q, err
		}
		if cond != nil {
			q.Filters[col.Name()] = cond
		}
	}
	return q, nil
}

// parseOperation reads the optional summary aggregate.
func parseOperation(r *http.Request) (string, error) {
	op := r.FormValue("operation")
	if op == "" {
		return "", nil
	}
	for _, known := range stats.Operations {
		if op == known {
			return op, nil
		}
	}
	return "", errors.Wrapf(stats.ErrUnsupported, "%q", op)
}

// apiQuery converts a JSON query into a table query.
func apiQuery(in APIQuery, base *table.Table) (table.Query, error) {
	q := table.Query{Search: in.Search, Filters: table.Spec{}}
	for name, f := range in.Filters {
		col, ok := base.Column(name)
		if !ok {
			return q, errors.Wrapf(table.ErrUnknownColumn, "%q", name)
		}
		cond, err := condition(col, f.Op, apiValue(f.Value), f.Pattern)
		if err != nil {
			return q, err
		}
		if cond != nil {
			q.Filters[name] = cond
		}
	}
	return q, nil
}

func apiValue(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// controls builds the form inputs, keeping submitted values when r is not nil.
// Untouched number and date inputs start at the column minimum.
func controls(base *table.Table, r *http.Request) []Control {
	cols := base.Columns()
	out := make([]Control, len(cols))
	for i, col := range cols {
		c := Control{Index: i, Name: col.Name(), Kind: col.Kind().String()}
		if r != nil {
			c.Op = r.FormValue(opField(i))
			c.Value = r.FormValue(valueField(i))
			c.Pattern = r.FormValue(patternField(i))
		}
		if c.Value == "" {
			switch col.Kind() {
			case table.KindNumeric:
				if v, ok := base.MinNumber(col.Name()); ok {
					c.Value = strconv.FormatFloat(v, 'f', -1, 64)
				}
			case table.KindDate:
				if d, ok := base.MinDate(col.Name()); ok {
					c.Value = d.Format(dateInputLayout)
				}
			}
		}
		out[i] = c
	}
	return out
}

func opStrings() []string {
	ops := make([]string, len(table.Ops))
	for i, op := range table.Ops {
		ops[i] = string(op)
	}
	return ops
}
