package table

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(tbl *Table) []string {
	col, _ := tbl.Column("Name")
	out := []string{}
	for i := 0; i < tbl.Len(); i++ {
		out = append(out, col.String(tbl.RowIndex(i)))
	}
	return out
}

func TestFilterNumeric(t *testing.T) {
	tbl := people()

	tests := []struct {
		op   Op
		want []string
	}{
		{op: Gt, want: []string{"ALICE"}},
		{op: Lt, want: []string{"Alice"}},
		{op: Gte, want: []string{"bob", "ALICE"}},
		{op: Lte, want: []string{"Alice", "bob"}},
		{op: Eq, want: []string{"bob"}},
		{op: Ne, want: []string{"Alice", "ALICE"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			got, err := tbl.Filter(Spec{"Age": Comparison{Op: tt.op, Value: 20}})
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(got))
		})
	}
}

func TestFilterAgeAtLeastTwenty(t *testing.T) {
	tbl := New([]string{"Age"}, [][]string{{"10"}, {"20"}, {"30"}}, Options{})

	got, err := tbl.Filter(Spec{"Age": Comparison{Op: Gte, Value: 20}})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"20"}, {"30"}}, got.Rows())
	assert.Equal(t, 3, tbl.Len(), "base table is untouched")
}

func TestFilterDate(t *testing.T) {
	tbl := people()
	feb := time.Date(2023, time.February, 1, 17, 30, 0, 0, time.UTC)

	got, err := tbl.Filter(Spec{"Date": DateComparison{Op: Gte, Value: feb}})
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "ALICE"}, names(got), "time of day is ignored")

	got, err = tbl.Filter(Spec{"Date": DateComparison{Op: Eq, Value: feb}})
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, names(got))
}

func TestFilterPattern(t *testing.T) {
	tbl := New([]string{"Name"}, [][]string{{"Alice"}, {"bob"}, {"ALICE"}}, Options{})

	got, err := tbl.Filter(Spec{"Name": Pattern("ali")})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Alice"}, {"ALICE"}}, got.Rows())

	got, err = tbl.Filter(Spec{"Name": Pattern("")})
	require.NoError(t, err)
	assert.Equal(t, tbl.Rows(), got.Rows(), "empty pattern passes through")
}

func TestFilterConjunction(t *testing.T) {
	tbl := people()

	got, err := tbl.Filter(Spec{
		"Name": Pattern("alice"),
		"Age":  Comparison{Op: Gt, Value: 15},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"ALICE"}, names(got))
}

func TestFilterMissingCells(t *testing.T) {
	tbl := New([]string{"Name", "Score"}, [][]string{{"a", "1"}, {"b", ""}, {"c", "3"}}, Options{})

	got, err := tbl.Filter(Spec{"Score": Comparison{Op: Lt, Value: 100}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, names(got))

	got, err = tbl.Filter(Spec{"Score": Comparison{Op: Ne, Value: 1}})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, names(got))
}

func TestFilterErrors(t *testing.T) {
	tbl := people()

	_, err := tbl.Filter(Spec{"Nope": Pattern("x")})
	assert.Equal(t, ErrUnknownColumn, errors.Cause(err))

	_, err = tbl.Filter(Spec{"Name": Comparison{Op: Gt, Value: 1}})
	assert.Equal(t, ErrKindMismatch, errors.Cause(err))

	_, err = tbl.Filter(Spec{"Age": Pattern("1")})
	assert.Equal(t, ErrKindMismatch, errors.Cause(err))

	_, err = tbl.Filter(Spec{"Age": DateComparison{Op: Gt}})
	assert.Equal(t, ErrKindMismatch, errors.Cause(err))
}

func TestParseOp(t *testing.T) {
	for _, op := range Ops {
		got, err := ParseOp(string(op))
		require.NoError(t, err)
		assert.Equal(t, op, got)
	}

	_, err := ParseOp("=~")
	assert.Equal(t, ErrUnknownOp, errors.Cause(err))
}
