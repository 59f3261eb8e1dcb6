// Package stats summarizes the numeric columns of a table view.
package stats

import (
	"math"
	"slices"

	"github.com/pkg/errors"

	"sheetsearch/table"
)

var (
	ErrNoValues    = errors.New("no numeric values")
	ErrUnsupported = errors.New("unsupported operation")
)

// Operations lists the supported aggregates in display order.
var Operations = []string{"sum", "average", "median", "min", "max", "count", "std"}

// Result is one aggregate over one column.
type Result struct {
	Col   string  `json:"col"`
	Value float64 `json:"value"`
}

// Compute aggregates op over the present values of col within view.
func Compute(view *table.Table, col table.NumericColumn, op string) (float64, error) {
	var values []float64
	for i := 0; i < view.Len(); i++ {
		v, ok := col.Number(view.RowIndex(i))
		if !ok {
			continue
		}
		values = append(values, v)
	}

	if op == "count" {
		return float64(len(values)), nil
	}
	if len(values) == 0 {
		return 0, errors.Wrapf(ErrNoValues, "column %q", col.Name())
	}
	switch op {
	case "sum":
		return sum(values), nil
	case "average":
		return avg(values), nil
	case "median":
		return median(values), nil
	case "min":
		return slices.Min(values), nil
	case "max":
		return slices.Max(values), nil
	case "std":
		return std(values), nil
	default:
		return 0, errors.Wrapf(ErrUnsupported, "%q", op)
	}
}

// Summarize aggregates op over every numeric column of view.
// Columns without values are skipped.
func Summarize(view *table.Table, op string) ([]Result, error) {
	if !slices.Contains(Operations, op) {
		return nil, errors.Wrapf(ErrUnsupported, "%q", op)
	}

	var results []Result
	for _, col := range view.Columns() {
		nc, ok := col.(table.NumericColumn)
		if !ok {
			continue
		}
		v, err := Compute(view, nc, op)
		if errors.Cause(err) == ErrNoValues {
			continue
		}
		if err != nil {
			return nil, err
		}
		results = append(results, Result{Col: col.Name(), Value: v})
	}
	return results, nil
}

func sum(vals []float64) float64 {
	s := 0.0
	for _, v := range vals {
		s += v
	}
	return s
}

func avg(vals []float64) float64 { return sum(vals) / float64(len(vals)) }

func median(vals []float64) float64 {
	sorted := slices.Clone(vals)
	slices.Sort(sorted)
	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}

// std is the sample standard deviation.
func std(vals []float64) float64 {
	if len(vals) <= 1 {
		return 0
	}
	mean := avg(vals)
	sumSq := 0.0
	for _, v := range vals {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(vals)-1))
}
