package core

import (
	"fmt"
	"time"
)

// Kind is the inferred type shared by every value of a column.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
	KindTime
)

// String returns the kind name used in summaries and JSON payloads.
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindTime:
		return "datetime"
	default:
		return "text"
	}
}

// IsNumeric reports whether the kind takes part in mean filling and charts.
func (k Kind) IsNumeric() bool {
	return k == KindInt || k == KindFloat
}

// Column is a named, single-kind sequence of values.
//
// Non-nil values have the Go type of the kind: int64, float64, string, bool
// or time.Time. A nil value is missing.
type Column struct {
	Name   string
	Kind   Kind
	Values []any
}

// Len returns the number of values, missing ones included.
func (c *Column) Len() int { return len(c.Values) }

// IsMissing reports whether row i holds no value.
func (c *Column) IsMissing(i int) bool { return c.Values[i] == nil }

// MissingCount returns the number of missing values.
func (c *Column) MissingCount() int {
	n := 0
	for _, v := range c.Values {
		if v == nil {
			n++
		}
	}
	return n
}

// Float returns row i as float64 for numeric columns.
func (c *Column) Float(i int) (float64, bool) {
	switch v := c.Values[i].(type) {
	case int64:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}

// Floats returns the non-missing values of a numeric column.
func (c *Column) Floats() []float64 {
	out := make([]float64, 0, len(c.Values))
	for i := range c.Values {
		if f, ok := c.Float(i); ok {
			out = append(out, f)
		}
	}
	return out
}

func (c *Column) clone() *Column {
	values := make([]any, len(c.Values))
	copy(values, c.Values)
	return &Column{Name: c.Name, Kind: c.Kind, Values: values}
}

// Table is an ordered set of equally long, uniquely named columns.
// Row and column counts are derived from the columns.
type Table struct {
	columns []*Column
	index   map[string]int
}

// NewTable builds a table, checking that names are unique and that every
// column has the same length.
func NewTable(columns ...*Column) (*Table, error) {
	t := &Table{
		columns: make([]*Column, 0, len(columns)),
		index:   make(map[string]int, len(columns)),
	}
	for _, col := range columns {
		if _, dup := t.index[col.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, col.Name)
		}
		if len(t.columns) > 0 && col.Len() != t.columns[0].Len() {
			return nil, fmt.Errorf("%w: column %q has %d rows, expected %d",
				ErrMalformed, col.Name, col.Len(), t.columns[0].Len())
		}
		if err := checkKind(col); err != nil {
			return nil, err
		}
		t.index[col.Name] = len(t.columns)
		t.columns = append(t.columns, col)
	}
	return t, nil
}

// checkKind verifies that every non-nil value matches the column kind.
func checkKind(col *Column) error {
	for i, v := range col.Values {
		if v == nil {
			continue
		}
		ok := false
		switch col.Kind {
		case KindInt:
			_, ok = v.(int64)
		case KindFloat:
			_, ok = v.(float64)
		case KindBool:
			_, ok = v.(bool)
		case KindTime:
			_, ok = v.(time.Time)
		case KindString:
			_, ok = v.(string)
		}
		if !ok {
			return fmt.Errorf("%w: column %q row %d holds %T, expected %s",
				ErrMalformed, col.Name, i, v, col.Kind)
		}
	}
	return nil
}

// NumRows returns the row count; a table without columns has no rows.
func (t *Table) NumRows() int {
	if len(t.columns) == 0 {
		return 0
	}
	return t.columns[0].Len()
}

// NumColumns returns the column count.
func (t *Table) NumColumns() int { return len(t.columns) }

// Columns returns the columns in order. The slice must not be modified.
func (t *Table) Columns() []*Column { return t.columns }

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Column looks up a column by name.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.columns[i], true
}

// Row returns the values of row i in column order.
func (t *Table) Row(i int) []any {
	row := make([]any, len(t.columns))
	for j, c := range t.columns {
		row[j] = c.Values[i]
	}
	return row
}

// Clone returns a deep copy of the column slices; values themselves are
// immutable and shared.
func (t *Table) Clone() *Table {
	cols := make([]*Column, len(t.columns))
	for i, c := range t.columns {
		cols[i] = c.clone()
	}
	return mustTable(cols...)
}

// Head returns a table with at most the first n rows.
func (t *Table) Head(n int) *Table {
	if n < 0 {
		n = 0
	}
	if n > t.NumRows() {
		n = t.NumRows()
	}
	cols := make([]*Column, len(t.columns))
	for i, c := range t.columns {
		values := make([]any, n)
		copy(values, c.Values[:n])
		cols[i] = &Column{Name: c.Name, Kind: c.Kind, Values: values}
	}
	return mustTable(cols...)
}

// mustTable wraps NewTable for columns derived from an already valid table.
func mustTable(cols ...*Column) *Table {
	t, err := NewTable(cols...)
	if err != nil {
		panic(fmt.Sprintf("core: derived table is invalid: %v", err))
	}
	return t
}
