package table

import (
	"cmp"
	"time"

	"github.com/pkg/errors"
)

var (
	ErrUnknownColumn = errors.New("unknown column")
	ErrKindMismatch  = errors.New("condition does not fit column kind")
	ErrUnknownOp     = errors.New("unknown operator")
)

// Predicate reports whether the row at an absolute index is kept.
type Predicate func(row int) bool

// Op is a comparison operator.
type Op string

const (
	Gt  Op = ">"
	Lt  Op = "<"
	Gte Op = ">="
	Lte Op = "<="
	Eq  Op = "=="
	Ne  Op = "!="
)

// Ops lists the operators in the order a form offers them.
var Ops = []Op{Gt, Lt, Gte, Lte, Eq, Ne}

// ParseOp validates an operator string.
func ParseOp(s string) (Op, error) {
	for _, op := range Ops {
		if string(op) == s {
			return op, nil
		}
	}
	return "", errors.Wrapf(ErrUnknownOp, "%q", s)
}

// holds applies op to the result of a three-way comparison.
func (op Op) holds(c int) bool {
	switch op {
	case Gt:
		return c > 0
	case Lt:
		return c < 0
	case Gte:
		return c >= 0
	case Lte:
		return c <= 0
	case Eq:
		return c == 0
	case Ne:
		return c != 0
	}
	return false
}

// Condition is the filter configured for one column.
type Condition interface {
	// Predicate binds the condition to col; a nil Predicate keeps every row.
	Predicate(col Column) (Predicate, error)
}

// Comparison compares a numeric column against a number.
type Comparison struct {
	Op    Op
	Value float64
}

func (c Comparison) Predicate(col Column) (Predicate, error) {
	nc, ok := col.(NumericColumn)
	if !ok {
		return nil, errors.Wrapf(ErrKindMismatch, "%s column %q with numeric comparison", col.Kind(), col.Name())
	}
	return func(row int) bool {
		v, present := nc.Number(row)
		if !present {
			return c.Op == Ne
		}
		return c.Op.holds(cmp.Compare(v, c.Value))
	}, nil
}

// DateComparison compares a date column against a civil date.
type DateComparison struct {
	Op    Op
	Value time.Time
}

func (c DateComparison) Predicate(col Column) (Predicate, error) {
	dc, ok := col.(DateColumn)
	if !ok {
		return nil, errors.Wrapf(ErrKindMismatch, "%s column %q with date comparison", col.Kind(), col.Name())
	}
	want := civil(c.Value)
	return func(row int) bool {
		v, present := dc.Date(row)
		if !present {
			return c.Op == Ne
		}
		return c.Op.holds(v.Compare(want))
	}, nil
}

// Pattern keeps text cells containing it, ignoring case. An empty pattern keeps everything.
type Pattern string

func (p Pattern) Predicate(col Column) (Predicate, error) {
	tc, ok := col.(TextColumn)
	if !ok {
		return nil, errors.Wrapf(ErrKindMismatch, "%s column %q with text pattern", col.Kind(), col.Name())
	}
	if p == "" {
		return nil, nil
	}
	match := containsFold(string(p))
	return func(row int) bool {
		return match(tc.Text(row))
	}, nil
}

// Spec maps column names to their conditions.
type Spec map[string]Condition

// Filter keeps the rows satisfying every condition in spec.
// Conditions are bound in column order.
func (t *Table) Filter(spec Spec) (*Table, error) {
	for name := range spec {
		if _, ok := t.Column(name); !ok {
			return nil, errors.Wrapf(ErrUnknownColumn, "%q", name)
		}
	}

	var preds []Predicate
	for _, col := range t.cols {
		cond, ok := spec[col.Name()]
		if !ok || cond == nil {
			continue
		}
		pred, err := cond.Predicate(col)
		if err != nil {
			return nil, err
		}
		if pred != nil {
			preds = append(preds, pred)
		}
	}

	if len(preds) == 0 {
		return t.Where(func(int) bool { return true }), nil
	}
	return t.Where(func(row int) bool {
		for _, pred := range preds {
			if !pred(row) {
				return false
			}
		}
		return true
	}), nil
}
