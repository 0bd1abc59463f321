package core

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
)

// parquetTimestamp is the physical type datetime columns are written with.
var parquetTimestamp = &arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: "UTC"}

func decodeParquet(data []byte) (*Table, error) {
	mem := memory.DefaultAllocator
	tbl, err := pqarrow.ReadTable(context.Background(), bytes.NewReader(data),
		parquet.NewReaderProperties(mem), pqarrow.ArrowReadProperties{}, mem)
	if err != nil {
		return nil, fmt.Errorf("%w: read parquet: %v", ErrMalformed, err)
	}
	defer tbl.Release()

	if tbl.NumCols() == 0 {
		return nil, ErrEmptyFile
	}

	names := make([]string, tbl.NumCols())
	for j := range names {
		names[j] = tbl.Schema().Field(j).Name
	}
	names = normalizeHeader(names)

	cols := make([]*Column, tbl.NumCols())
	for j := range cols {
		col, err := columnFromChunks(names[j], tbl.Schema().Field(j).Type, tbl.Column(j).Data().Chunks(), int(tbl.NumRows()))
		if err != nil {
			return nil, fmt.Errorf("%w: column %q: %v", ErrMalformed, names[j], err)
		}
		cols[j] = col
	}
	return NewTable(cols...)
}

func columnFromChunks(name string, dt arrow.DataType, chunks []arrow.Array, rows int) (*Column, error) {
	col := &Column{Name: name, Kind: arrowKind(dt), Values: make([]any, 0, rows)}
	for _, chunk := range chunks {
		for i := 0; i < chunk.Len(); i++ {
			if chunk.IsNull(i) {
				col.Values = append(col.Values, nil)
				continue
			}
			v, err := arrowValue(chunk, i, col.Kind)
			if err != nil {
				return nil, err
			}
			col.Values = append(col.Values, v)
		}
	}
	return col, nil
}

func arrowKind(dt arrow.DataType) Kind {
	switch dt.ID() {
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64:
		return KindInt
	case arrow.FLOAT32, arrow.FLOAT64:
		return KindFloat
	case arrow.BOOL:
		return KindBool
	case arrow.TIMESTAMP, arrow.DATE32, arrow.DATE64:
		return KindTime
	default:
		return KindString
	}
}

func arrowValue(arr arrow.Array, i int, kind Kind) (any, error) {
	switch a := arr.(type) {
	case *array.Int8:
		return int64(a.Value(i)), nil
	case *array.Int16:
		return int64(a.Value(i)), nil
	case *array.Int32:
		return int64(a.Value(i)), nil
	case *array.Int64:
		return a.Value(i), nil
	case *array.Uint8:
		return int64(a.Value(i)), nil
	case *array.Uint16:
		return int64(a.Value(i)), nil
	case *array.Uint32:
		return int64(a.Value(i)), nil
	case *array.Uint64:
		v := a.Value(i)
		if v > math.MaxInt64 {
			return nil, fmt.Errorf("uint64 value %d exceeds the int64 range", v)
		}
		return int64(v), nil
	case *array.Float32:
		return float64(a.Value(i)), nil
	case *array.Float64:
		return a.Value(i), nil
	case *array.Boolean:
		return a.Value(i), nil
	case *array.String:
		return a.Value(i), nil
	case *array.LargeString:
		return a.Value(i), nil
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		return a.Value(i).ToTime(unit).UTC(), nil
	case *array.Date32:
		return a.Value(i).ToTime().UTC(), nil
	case *array.Date64:
		return a.Value(i).ToTime().UTC(), nil
	}

	if kind != KindString {
		return nil, fmt.Errorf("unsupported arrow type %s", arr.DataType())
	}
	return arr.ValueStr(i), nil
}

// encodeParquet writes one row group with a nullable field per column.
func encodeParquet(t *Table) ([]byte, error) {
	mem := memory.DefaultAllocator

	fields := make([]arrow.Field, t.NumColumns())
	for j, col := range t.Columns() {
		fields[j] = arrow.Field{Name: col.Name, Type: parquetType(col.Kind), Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)

	arrays := make([]arrow.Array, t.NumColumns())
	defer func() {
		for _, a := range arrays {
			if a != nil {
				a.Release()
			}
		}
	}()
	for j, col := range t.Columns() {
		a, err := buildArrowArray(mem, col)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", col.Name, err)
		}
		arrays[j] = a
	}

	rec := array.NewRecord(schema, arrays, int64(t.NumRows()))
	defer rec.Release()

	var buf bytes.Buffer
	w, err := pqarrow.NewFileWriter(schema, &buf, parquet.NewWriterProperties(), pqarrow.DefaultWriterProps())
	if err != nil {
		return nil, err
	}
	if err := w.Write(rec); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func parquetType(k Kind) arrow.DataType {
	switch k {
	case KindInt:
		return arrow.PrimitiveTypes.Int64
	case KindFloat:
		return arrow.PrimitiveTypes.Float64
	case KindBool:
		return arrow.FixedWidthTypes.Boolean
	case KindTime:
		return parquetTimestamp
	default:
		return arrow.BinaryTypes.String
	}
}

func buildArrowArray(mem memory.Allocator, col *Column) (arrow.Array, error) {
	switch col.Kind {
	case KindInt:
		b := array.NewInt64Builder(mem)
		defer b.Release()
		for _, v := range col.Values {
			if v == nil {
				b.AppendNull()
				continue
			}
			b.Append(v.(int64))
		}
		return b.NewArray(), nil
	case KindFloat:
		b := array.NewFloat64Builder(mem)
		defer b.Release()
		for _, v := range col.Values {
			if v == nil {
				b.AppendNull()
				continue
			}
			b.Append(v.(float64))
		}
		return b.NewArray(), nil
	case KindBool:
		b := array.NewBooleanBuilder(mem)
		defer b.Release()
		for _, v := range col.Values {
			if v == nil {
				b.AppendNull()
				continue
			}
			b.Append(v.(bool))
		}
		return b.NewArray(), nil
	case KindTime:
		b := array.NewTimestampBuilder(mem, parquetTimestamp)
		defer b.Release()
		for _, v := range col.Values {
			if v == nil {
				b.AppendNull()
				continue
			}
			b.Append(arrow.Timestamp(v.(time.Time).UnixMicro()))
		}
		return b.NewArray(), nil
	case KindString:
		b := array.NewStringBuilder(mem)
		defer b.Release()
		for _, v := range col.Values {
			if v == nil {
				b.AppendNull()
				continue
			}
			b.Append(v.(string))
		}
		return b.NewArray(), nil
	default:
		return nil, fmt.Errorf("unsupported column kind %s", col.Kind)
	}
}
