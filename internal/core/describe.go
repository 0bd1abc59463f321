package core

import (
	"math"
	"slices"

	"github.com/montanaflynn/stats"
)

// Summary is the per-table overview shown next to the preview.
type Summary struct {
	Rows    int             `json:"rows"`
	Columns int             `json:"columns"`
	Fields  []ColumnSummary `json:"fields"`
}

// ColumnSummary describes one column. Numeric is set for int and float
// columns; Categorical for everything else.
type ColumnSummary struct {
	Name        string              `json:"name"`
	Kind        string              `json:"kind"`
	Count       int                 `json:"count"`
	Missing     int                 `json:"missing"`
	Numeric     *NumericSummary     `json:"numeric,omitempty"`
	Categorical *CategoricalSummary `json:"categorical,omitempty"`
}

// NumericSummary holds describe-style statistics over non-missing values.
// It is nil when the column has no values.
type NumericSummary struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	Min  float64 `json:"min"`
	P25  float64 `json:"p25"`
	P50  float64 `json:"p50"`
	P75  float64 `json:"p75"`
	Max  float64 `json:"max"`
}

// CategoricalSummary counts distinct values. Top is the most frequent value
// as rendered text; ties go to the value seen first.
type CategoricalSummary struct {
	Unique int    `json:"unique"`
	Top    string `json:"top"`
	Freq   int    `json:"freq"`
}

// Describe computes the summary of every column.
func Describe(t *Table) Summary {
	s := Summary{Rows: t.NumRows(), Columns: t.NumColumns()}
	for _, c := range t.Columns() {
		cs := ColumnSummary{
			Name:    c.Name,
			Kind:    c.Kind.String(),
			Missing: c.MissingCount(),
		}
		cs.Count = c.Len() - cs.Missing
		if c.Kind.IsNumeric() {
			cs.Numeric = describeNumeric(c.Floats())
		} else {
			cs.Categorical = describeCategorical(c)
		}
		s.Fields = append(s.Fields, cs)
	}
	return s
}

func describeNumeric(data []float64) *NumericSummary {
	if len(data) == 0 {
		return nil
	}
	ns := &NumericSummary{}
	ns.Mean, _ = stats.Mean(data)
	ns.Min, _ = stats.Min(data)
	ns.Max, _ = stats.Max(data)
	sorted := slices.Sorted(slices.Values(data))
	ns.P25 = quantile(sorted, 0.25)
	ns.P50 = quantile(sorted, 0.50)
	ns.P75 = quantile(sorted, 0.75)
	if len(data) > 1 {
		ns.Std, _ = stats.StandardDeviationSample(data)
	}
	return ns
}

// quantile interpolates linearly between the two closest ranks of sorted,
// so the quartiles of [1 2 3 4] are 1.75, 2.5 and 3.25.
func quantile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	return sorted[lo] + (pos-float64(lo))*(sorted[hi]-sorted[lo])
}

func describeCategorical(c *Column) *CategoricalSummary {
	counts := make(map[string]int)
	var order []string
	for _, v := range c.Values {
		if v == nil {
			continue
		}
		key := FormatCell(v)
		if counts[key] == 0 {
			order = append(order, key)
		}
		counts[key]++
	}
	cs := &CategoricalSummary{Unique: len(order)}
	for _, key := range order {
		if counts[key] > cs.Freq {
			cs.Top, cs.Freq = key, counts[key]
		}
	}
	return cs
}

// Preview is the first rows of a table rendered as text cells.
type Preview struct {
	Columns []string   `json:"columns"`
	Kinds   []string   `json:"kinds"`
	Rows    [][]string `json:"rows"`
	Total   int        `json:"total_rows"`
}

// Head renders at most n leading rows. Missing cells are empty strings.
func Head(t *Table, n int) Preview {
	h := t.Head(n)
	p := Preview{
		Columns: h.ColumnNames(),
		Kinds:   make([]string, h.NumColumns()),
		Rows:    make([][]string, h.NumRows()),
		Total:   t.NumRows(),
	}
	for j, c := range h.Columns() {
		p.Kinds[j] = c.Kind.String()
	}
	for i := range p.Rows {
		row := make([]string, h.NumColumns())
		for j, v := range h.Row(i) {
			row[j] = FormatCell(v)
		}
		p.Rows[i] = row
	}
	return p
}

// NumericColumns returns the names of int and float columns in table order.
func NumericColumns(t *Table) []string {
	var names []string
	for _, c := range t.Columns() {
		if c.Kind.IsNumeric() {
			names = append(names, c.Name)
		}
	}
	return names
}
