package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/montanaflynn/stats"
)

// Directive is a cleaning operation applied to a whole table.
type Directive string

const (
	RemoveDuplicates Directive = "remove-duplicates"
	FillMissingMean  Directive = "fill-missing-mean"
)

// Directives lists the supported directives in the order they are offered.
func Directives() []Directive {
	return []Directive{RemoveDuplicates, FillMissingMean}
}

// Label returns the text shown next to the directive in the UI.
func (d Directive) Label() string {
	switch d {
	case RemoveDuplicates:
		return "Remove Duplicates"
	case FillMissingMean:
		return "Fill Missing Values (numeric columns with mean)"
	default:
		return string(d)
	}
}

// ParseDirective accepts the directive key or its label, ignoring case,
// spaces and underscores.
func ParseDirective(s string) (Directive, error) {
	norm := strings.NewReplacer(" ", "-", "_", "-").Replace(strings.ToLower(strings.TrimSpace(s)))
	for _, d := range Directives() {
		if norm == string(d) || strings.EqualFold(s, d.Label()) {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDirective, s)
}

// CleanReport describes what a Clean call changed.
type CleanReport struct {
	Directive     Directive      `json:"directive"`
	RowsBefore    int            `json:"rows_before"`
	RowsAfter     int            `json:"rows_after"`
	RowsRemoved   int            `json:"rows_removed"`
	FilledColumns map[string]int `json:"filled_columns,omitempty"` // column name -> cells filled
	UndefinedMean []string       `json:"undefined_mean,omitempty"` // numeric columns with no value to average
}

// Err reports columns whose mean was undefined. It is informational; the
// cleaned table is still valid.
func (r CleanReport) Err() error {
	if len(r.UndefinedMean) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUndefinedMean, strings.Join(r.UndefinedMean, ", "))
}

// Clean applies d and returns a new table. The input is never modified.
// An unrecognized directive returns the input unchanged with an error.
func Clean(t *Table, d Directive) (*Table, CleanReport, error) {
	report := CleanReport{Directive: d, RowsBefore: t.NumRows()}
	var out *Table
	switch d {
	case RemoveDuplicates:
		out = removeDuplicates(t)
	case FillMissingMean:
		out = fillMissingMean(t, &report)
	default:
		return t, report, fmt.Errorf("%w: %q", ErrUnknownDirective, string(d))
	}
	report.RowsAfter = out.NumRows()
	report.RowsRemoved = report.RowsBefore - report.RowsAfter
	return out, report, nil
}

// removeDuplicates keeps the first occurrence of every distinct row.
func removeDuplicates(t *Table) *Table {
	seen := make(map[string]struct{}, t.NumRows())
	keep := make([]int, 0, t.NumRows())
	for i := 0; i < t.NumRows(); i++ {
		key := rowKey(t, i)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keep = append(keep, i)
	}
	return t.selectRows(keep)
}

// rowKey encodes a row so that two rows share a key exactly when all their
// values are equal. Missing equals missing.
func rowKey(t *Table, i int) string {
	var b strings.Builder
	for j, col := range t.Columns() {
		if j > 0 {
			b.WriteByte(0x1f)
		}
		switch v := col.Values[i].(type) {
		case nil:
			b.WriteByte(0)
		case int64:
			b.WriteString(strconv.FormatInt(v, 10))
		case float64:
			b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		case bool:
			b.WriteString(strconv.FormatBool(v))
		case time.Time:
			b.WriteString(v.UTC().Format(time.RFC3339Nano))
		case string:
			b.WriteString(strconv.Quote(v))
		}
	}
	return b.String()
}

func (t *Table) selectRows(rows []int) *Table {
	cols := make([]*Column, t.NumColumns())
	for j, c := range t.Columns() {
		values := make([]any, len(rows))
		for k, i := range rows {
			values[k] = c.Values[i]
		}
		cols[j] = &Column{Name: c.Name, Kind: c.Kind, Values: values}
	}
	return mustTable(cols...)
}

func fillMissingMean(t *Table, report *CleanReport) *Table {
	report.FilledColumns = make(map[string]int)
	cols := make([]*Column, t.NumColumns())
	for j, c := range t.Columns() {
		cols[j] = c
		if !c.Kind.IsNumeric() {
			continue
		}
		missing := c.MissingCount()
		if missing == 0 {
			continue
		}
		mean, err := stats.Mean(c.Floats())
		if err != nil {
			report.UndefinedMean = append(report.UndefinedMean, c.Name)
			continue
		}
		cols[j] = fillColumn(c, mean)
		report.FilledColumns[c.Name] = missing
	}
	return mustTable(cols...)
}

// fillColumn replaces missing values with mean. An int column stays int
// only when the mean is a whole number.
func fillColumn(c *Column, mean float64) *Column {
	out := &Column{Name: c.Name, Kind: c.Kind, Values: make([]any, len(c.Values))}
	if c.Kind == KindInt && mean == math.Trunc(mean) && math.Abs(mean) < math.MaxInt64 {
		for i, v := range c.Values {
			if v == nil {
				v = int64(mean)
			}
			out.Values[i] = v
		}
		return out
	}

	out.Kind = KindFloat
	for i := range c.Values {
		if f, ok := c.Float(i); ok {
			out.Values[i] = f
		} else {
			out.Values[i] = mean
		}
	}
	return out
}
