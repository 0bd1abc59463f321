package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// decodeJSON reads either records orientation (an array of row objects) or
// columns orientation (an object mapping each column to an array, or to an
// object of row index to value). Key order is preserved as first seen.
func decodeJSON(data []byte) (*Table, error) {
	dec := json.NewDecoder(bytes.NewReader(decodeText(data)))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var b *jsonTableBuilder
	switch tok {
	case json.Delim('['):
		b, err = decodeJSONRecords(dec)
	case json.Delim('{'):
		b, err = decodeJSONColumns(dec)
	default:
		return nil, fmt.Errorf("%w: expected array of records or object of columns", ErrMalformed)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after JSON document", ErrMalformed)
	}
	if len(b.names) == 0 {
		return nil, ErrEmptyFile
	}
	return b.build()
}

// jsonTableBuilder collects decoded values per column, keeping key order.
type jsonTableBuilder struct {
	names  []string
	values map[string][]any
	rows   int
}

func newJSONTableBuilder() *jsonTableBuilder {
	return &jsonTableBuilder{values: make(map[string][]any)}
}

func (b *jsonTableBuilder) set(name string, row int, v any) {
	col, ok := b.values[name]
	if !ok {
		b.names = append(b.names, name)
	}
	for len(col) <= row {
		col = append(col, nil)
	}
	col[row] = v
	b.values[name] = col
	if row+1 > b.rows {
		b.rows = row + 1
	}
}

func (b *jsonTableBuilder) build() (*Table, error) {
	cols := make([]*Column, len(b.names))
	for j, name := range b.names {
		values := b.values[name]
		for len(values) < b.rows {
			values = append(values, nil)
		}
		cols[j] = inferJSONColumn(name, values)
	}
	return NewTable(cols...)
}

func decodeJSONRecords(dec *json.Decoder) (*jsonTableBuilder, error) {
	b := newJSONTableBuilder()
	for row := 0; dec.More(); row++ {
		var record orderedObject
		if err := dec.Decode(&record); err != nil {
			return nil, fmt.Errorf("record %d: %w", row, err)
		}
		if record.keys == nil {
			return nil, fmt.Errorf("record %d is not an object", row)
		}
		for _, key := range record.keys {
			b.set(key, row, record.values[key])
		}
		if b.rows < row+1 {
			b.rows = row + 1
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return b, nil
}

func decodeJSONColumns(dec *json.Decoder) (*jsonTableBuilder, error) {
	b := newJSONTableBuilder()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name := tok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("column %q: %w", name, err)
		}
		if err := b.addColumn(name, raw); err != nil {
			return nil, fmt.Errorf("column %q: %w", name, err)
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return b, nil
}

// addColumn accepts [v0, v1, ...] or {"0": v0, "1": v1, ...}.
func (b *jsonTableBuilder) addColumn(name string, raw json.RawMessage) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	trimmed := bytes.TrimSpace(raw)
	switch {
	case len(trimmed) > 0 && trimmed[0] == '[':
		var values []any
		if err := dec.Decode(&values); err != nil {
			return err
		}
		b.names = append(b.names, name)
		b.values[name] = values
		if len(values) > b.rows {
			b.rows = len(values)
		}
	case len(trimmed) > 0 && trimmed[0] == '{':
		var obj orderedObject
		if err := dec.Decode(&obj); err != nil {
			return err
		}
		b.names = append(b.names, name)
		b.values[name] = nil
		for pos, key := range obj.keys {
			row, err := strconv.Atoi(key)
			if err != nil {
				row = pos
			}
			// Indexes are bounded by the key count so a single large key
			// cannot size the column.
			if row < 0 || row >= len(obj.keys) {
				return fmt.Errorf("row index %q out of range [0, %d)", key, len(obj.keys))
			}
			b.set(name, row, obj.values[key])
		}
	default:
		return fmt.Errorf("expected array or object")
	}
	return nil
}

// orderedObject decodes a JSON object remembering key order.
type orderedObject struct {
	keys   []string
	values map[string]any
}

func (o *orderedObject) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok != json.Delim('{') {
		// Not an object: leave keys nil so callers can reject it.
		return nil
	}
	o.keys = []string{}
	o.values = make(map[string]any)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key := tok.(string)
		var v any
		if err := dec.Decode(&v); err != nil {
			return err
		}
		if _, dup := o.values[key]; !dup {
			o.keys = append(o.keys, key)
		}
		o.values[key] = v
	}
	_, err = dec.Token()
	return err
}

// inferJSONColumn types decoded JSON values. Numbers written without a
// decimal point or exponent are ints; strings that all parse as ISO
// datetimes become times; mixed or nested values fall back to text.
func inferJSONColumn(name string, values []any) *Column {
	hasInt, hasFloat, hasBool, hasString, hasOther := false, false, false, false, false
	for _, v := range values {
		switch x := v.(type) {
		case nil:
		case json.Number:
			if _, err := x.Int64(); err == nil && !strings.ContainsAny(x.String(), ".eE") {
				hasInt = true
			} else {
				hasFloat = true
			}
		case bool:
			hasBool = true
		case string:
			hasString = true
		default:
			hasOther = true
		}
	}

	col := &Column{Name: name, Values: make([]any, len(values))}
	switch {
	case hasOther || (hasString && (hasInt || hasFloat || hasBool)) || (hasBool && (hasInt || hasFloat)):
		col.Kind = KindString
		for i, v := range values {
			col.Values[i] = jsonText(v)
		}
	case hasString:
		cells := make([]string, len(values))
		for i, v := range values {
			if v != nil {
				cells[i] = v.(string)
			}
		}
		return inferStringColumn(name, values, cells)
	case hasBool:
		col.Kind = KindBool
		copy(col.Values, values)
	case hasFloat:
		col.Kind = KindFloat
		for i, v := range values {
			if n, ok := v.(json.Number); ok {
				f, _ := n.Float64()
				col.Values[i] = f
			}
		}
	case hasInt:
		col.Kind = KindInt
		for i, v := range values {
			if n, ok := v.(json.Number); ok {
				col.Values[i], _ = n.Int64()
			}
		}
	default:
		col.Kind = KindFloat
	}
	return col
}

// inferStringColumn keeps JSON strings as text unless every one of them is
// an ISO datetime. JSON null stays missing; the string "NA" does not.
func inferStringColumn(name string, values []any, cells []string) *Column {
	col := &Column{Name: name, Kind: KindTime, Values: make([]any, len(values))}
	for i, v := range values {
		if v == nil {
			continue
		}
		t, ok := ParseTime(cells[i])
		if !ok {
			col.Kind = KindString
			break
		}
		col.Values[i] = t
	}
	if col.Kind == KindString {
		for i, v := range values {
			if v != nil {
				col.Values[i] = cells[i]
			}
		}
	}
	return col
}

func jsonText(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}

// encodeJSON writes records orientation with keys in column order.
func encodeJSON(t *Table) ([]byte, error) {
	var buf bytes.Buffer
	names := make([][]byte, t.NumColumns())
	for j, name := range t.ColumnNames() {
		b, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		names[j] = b
	}

	buf.WriteByte('[')
	for i := 0; i < t.NumRows(); i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('{')
		for j, col := range t.Columns() {
			if j > 0 {
				buf.WriteByte(',')
			}
			buf.Write(names[j])
			buf.WriteByte(':')
			if err := writeJSONValue(&buf, col.Values[i]); err != nil {
				return nil, fmt.Errorf("column %q row %d: %w", col.Name, i, err)
			}
		}
		buf.WriteByte('}')
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func writeJSONValue(buf *bytes.Buffer, v any) error {
	switch x := v.(type) {
	case nil:
		buf.WriteString("null")
	case int64:
		buf.WriteString(strconv.FormatInt(x, 10))
	case float64:
		s := formatFloat(x)
		if s == "" {
			buf.WriteString("null")
		} else {
			buf.WriteString(s)
		}
	case bool:
		buf.WriteString(strconv.FormatBool(x))
	case time.Time:
		b, err := json.Marshal(formatTime(x))
		if err != nil {
			return err
		}
		buf.Write(b)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return err
		}
		buf.Write(b)
	}
	return nil
}
