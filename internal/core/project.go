package core

import "fmt"

// Project returns a table holding only the named columns, in the requested
// order. Rows keep their count and order.
func Project(t *Table, names []string) (*Table, error) {
	cols := make([]*Column, 0, len(names))
	requested := make(map[string]bool, len(names))
	for _, name := range names {
		if requested[name] {
			return nil, fmt.Errorf("%w: %q requested twice", ErrDuplicateColumn, name)
		}
		requested[name] = true

		c, ok := t.Column(name)
		if !ok {
			return nil, &UnknownColumnError{Column: name, Available: t.ColumnNames()}
		}
		cols = append(cols, c.clone())
	}
	return NewTable(cols...)
}
