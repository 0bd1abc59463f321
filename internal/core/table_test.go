package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTable(t *testing.T, cols ...*Column) *Table {
	t.Helper()
	tbl, err := NewTable(cols...)
	require.NoError(t, err)
	return tbl
}

// assertTablesEqual compares names, kinds and values. Times compare with
// time.Equal so locations do not matter.
func assertTablesEqual(t *testing.T, want, got *Table) {
	t.Helper()
	require.Equal(t, want.ColumnNames(), got.ColumnNames())
	require.Equal(t, want.NumRows(), got.NumRows())
	for j, wc := range want.Columns() {
		gc := got.Columns()[j]
		assert.Equal(t, wc.Kind, gc.Kind, "kind of column %q", wc.Name)
		for i := range wc.Values {
			wv, gv := wc.Values[i], gc.Values[i]
			if wt, ok := wv.(time.Time); ok {
				gt, ok := gv.(time.Time)
				if assert.True(t, ok, "column %q row %d: got %T", wc.Name, i, gv) {
					assert.True(t, wt.Equal(gt), "column %q row %d: want %v, got %v", wc.Name, i, wt, gt)
				}
				continue
			}
			assert.Equal(t, wv, gv, "column %q row %d", wc.Name, i)
		}
	}
}

func TestNewTable(t *testing.T) {
	t.Run("derives counts", func(t *testing.T) {
		tbl := newTestTable(t,
			&Column{Name: "a", Kind: KindInt, Values: []any{int64(1), nil}},
			&Column{Name: "b", Kind: KindString, Values: []any{"x", "y"}},
		)
		assert.Equal(t, 2, tbl.NumRows())
		assert.Equal(t, 2, tbl.NumColumns())
		assert.Equal(t, []string{"a", "b"}, tbl.ColumnNames())
		assert.Equal(t, []any{nil, "y"}, tbl.Row(1))
	})

	t.Run("empty table has no rows", func(t *testing.T) {
		tbl := newTestTable(t)
		assert.Equal(t, 0, tbl.NumRows())
	})

	t.Run("rejects duplicate names", func(t *testing.T) {
		_, err := NewTable(
			&Column{Name: "a", Kind: KindInt, Values: []any{}},
			&Column{Name: "a", Kind: KindInt, Values: []any{}},
		)
		assert.ErrorIs(t, err, ErrDuplicateColumn)
	})

	t.Run("rejects ragged columns", func(t *testing.T) {
		_, err := NewTable(
			&Column{Name: "a", Kind: KindInt, Values: []any{int64(1)}},
			&Column{Name: "b", Kind: KindInt, Values: []any{int64(1), int64(2)}},
		)
		assert.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("rejects values of the wrong kind", func(t *testing.T) {
		_, err := NewTable(&Column{Name: "a", Kind: KindInt, Values: []any{1.5}})
		assert.ErrorIs(t, err, ErrMalformed)
	})
}

func TestTable_HeadAndClone(t *testing.T) {
	tbl := newTestTable(t, &Column{Name: "n", Kind: KindInt, Values: []any{int64(1), int64(2), int64(3)}})

	assert.Equal(t, 2, tbl.Head(2).NumRows())
	assert.Equal(t, 3, tbl.Head(10).NumRows())
	assert.Equal(t, 0, tbl.Head(-1).NumRows())

	clone := tbl.Clone()
	col, _ := clone.Column("n")
	col.Values[0] = int64(99)
	orig, _ := tbl.Column("n")
	assert.Equal(t, int64(1), orig.Values[0], "clone must not share value slices")
}

func TestColumn_Floats(t *testing.T) {
	c := &Column{Name: "n", Kind: KindInt, Values: []any{int64(2), nil, int64(4)}}
	assert.Equal(t, []float64{2, 4}, c.Floats())
	assert.Equal(t, 1, c.MissingCount())
	assert.True(t, c.IsMissing(1))
}

func TestKind_String(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindString, "text"},
		{KindInt, "int"},
		{KindFloat, "float"},
		{KindBool, "bool"},
		{KindTime, "datetime"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.kind.String())
	}
	assert.True(t, KindInt.IsNumeric())
	assert.True(t, KindFloat.IsNumeric())
	assert.False(t, KindBool.IsNumeric())
}
