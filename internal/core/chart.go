package core

import (
	"fmt"
	"strings"
)

// ChartKind selects how the host draws the chart data.
type ChartKind string

const (
	ChartBar     ChartKind = "bar"
	ChartLine    ChartKind = "line"
	ChartScatter ChartKind = "scatter"
)

// ChartKinds lists the kinds in the order they are offered.
func ChartKinds() []ChartKind {
	return []ChartKind{ChartBar, ChartLine, ChartScatter}
}

// ParseChartKind accepts "bar", "Bar Chart", "scatter plot" and so on.
func ParseChartKind(s string) (ChartKind, error) {
	word, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(s)), " ")
	for _, k := range ChartKinds() {
		if word == string(k) {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownChartKind, s)
}

// ChartRequest selects the chart kind and the numeric columns to plot.
// An empty Columns list means the first two numeric columns.
type ChartRequest struct {
	Kind    ChartKind
	Columns []string
}

// ChartData is what a host needs to draw a chart. Bar and line charts plot
// every series against the row index; scatter plots the remaining series
// against the first one. Missing points are nil.
type ChartData struct {
	Kind   ChartKind     `json:"kind"`
	Index  []int         `json:"index"`
	Series []ChartSeries `json:"series"`
}

// ChartSeries is one plotted column.
type ChartSeries struct {
	Name   string     `json:"name"`
	Values []*float64 `json:"values"`
}

// BuildChart extracts the series for req from t.
func BuildChart(t *Table, req ChartRequest) (*ChartData, error) {
	if req.Kind == "" {
		req.Kind = ChartBar
	}
	names := req.Columns
	if len(names) == 0 {
		names = NumericColumns(t)
		if len(names) > 2 {
			names = names[:2]
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: table has no numeric columns", ErrChartColumns)
	}
	if req.Kind == ChartScatter && len(names) < 2 {
		return nil, fmt.Errorf("%w: scatter needs at least 2 numeric columns, got %d", ErrChartColumns, len(names))
	}

	data := &ChartData{Kind: req.Kind, Index: make([]int, t.NumRows())}
	for i := range data.Index {
		data.Index[i] = i
	}
	for _, name := range names {
		c, ok := t.Column(name)
		if !ok {
			return nil, &UnknownColumnError{Column: name, Available: t.ColumnNames()}
		}
		if !c.Kind.IsNumeric() {
			return nil, fmt.Errorf("%w: %q is %s", ErrNotNumeric, name, c.Kind)
		}
		s := ChartSeries{Name: name, Values: make([]*float64, c.Len())}
		for i := range s.Values {
			if f, ok := c.Float(i); ok {
				s.Values[i] = &f
			}
		}
		data.Series = append(data.Series, s)
	}
	return data, nil
}
