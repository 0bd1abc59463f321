package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sampleTable covers every kind with a missing value in most columns.
// Floats are non-integral so the Excel round trip keeps them float.
func sampleTable(t *testing.T) *Table {
	t.Helper()
	return newTestTable(t,
		&Column{Name: "id", Kind: KindInt, Values: []any{int64(1), int64(2), int64(3)}},
		&Column{Name: "score", Kind: KindFloat, Values: []any{1.5, nil, 2.25}},
		&Column{Name: "name", Kind: KindString, Values: []any{"alice", "bob, jr", nil}},
		&Column{Name: "active", Kind: KindBool, Values: []any{true, false, true}},
		&Column{Name: "seen", Kind: KindTime, Values: []any{
			time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 1, 3, 10, 20, 30, 0, time.UTC),
			nil,
		}},
	)
}

func TestExport_RoundTrip(t *testing.T) {
	for _, format := range InputFormats() {
		t.Run(format.Key(), func(t *testing.T) {
			want := sampleTable(t)

			art, err := Convert(want, "sample.csv", format)
			require.NoError(t, err)
			assert.Equal(t, ConvertFileName("sample.csv", format), art.FileName)
			assert.Equal(t, format.MIMEType(), art.MIMEType)
			assert.Equal(t, format.Extension(), art.Extension)
			require.NotEmpty(t, art.Data)

			got, gotFormat, err := Parse(art.Data, art.FileName)
			require.NoError(t, err)
			assert.Equal(t, format, gotFormat)
			assertTablesEqual(t, want, got)
		})
	}
}

func TestExport_ExcelIntegralFloatsReadBackAsInt(t *testing.T) {
	in := newTestTable(t, &Column{Name: "n", Kind: KindFloat, Values: []any{1.0, 2.0}})

	art, err := Export(in, FormatExcel)
	require.NoError(t, err)
	out, err := Decode(art.Data, FormatExcel)
	require.NoError(t, err)

	n, _ := out.Column("n")
	assert.Equal(t, KindInt, n.Kind)
	assert.Equal(t, []any{int64(1), int64(2)}, n.Values)
}

func TestExport_CSVKeepsFloatsFloat(t *testing.T) {
	in := newTestTable(t, &Column{Name: "n", Kind: KindFloat, Values: []any{1.0, nil}})

	art, err := Export(in, FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "n\n1.0\n\"\"\n", string(art.Data))

	out, err := Decode(art.Data, FormatCSV)
	require.NoError(t, err)
	assertTablesEqual(t, in, out)
}

func TestExport_ReportXLSXToJSON(t *testing.T) {
	src := newTestTable(t,
		&Column{Name: "region", Kind: KindString, Values: []any{"east", "west"}},
		&Column{Name: "revenue", Kind: KindFloat, Values: []any{10.5, 20.25}},
	)
	xlsx, err := Export(src, FormatExcel)
	require.NoError(t, err)

	tbl, format, err := Parse(xlsx.Data, "report.xlsx")
	require.NoError(t, err)
	require.Equal(t, FormatExcel, format)

	art, err := Convert(tbl, "report.xlsx", FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "report.json", art.FileName)
	assert.Equal(t, "application/json", art.MIMEType)

	var records []map[string]any
	require.NoError(t, json.Unmarshal(art.Data, &records))
	require.Len(t, records, 2)
	assert.Equal(t, "east", records[0]["region"])
	assert.Equal(t, 20.25, records[1]["revenue"])
}

func TestExport_JSONPreservesColumnOrderAndNulls(t *testing.T) {
	in := newTestTable(t,
		&Column{Name: "z", Kind: KindInt, Values: []any{int64(1)}},
		&Column{Name: "a", Kind: KindString, Values: []any{nil}},
	)
	art, err := Export(in, FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, `[{"z":1,"a":null}]`, string(art.Data))
}

func TestExport_UnsupportedFormat(t *testing.T) {
	_, err := Export(sampleTable(t), FormatUnknown)
	assert.ErrorIs(t, err, ErrSerialization)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestExport_EmptyTableKeepsHeader(t *testing.T) {
	in := newTestTable(t,
		&Column{Name: "a", Kind: KindInt, Values: []any{}},
		&Column{Name: "b", Kind: KindString, Values: []any{}},
	)
	for _, format := range []Format{FormatCSV, FormatParquet, FormatExcel} {
		art, err := Export(in, format)
		require.NoError(t, err, format)
		out, err := Decode(art.Data, format)
		require.NoError(t, err, format)
		assert.Equal(t, []string{"a", "b"}, out.ColumnNames(), format)
		assert.Equal(t, 0, out.NumRows(), format)
	}
}

func TestExport_DigitStringsKeepLeadingZeros(t *testing.T) {
	in := newTestTable(t, &Column{Name: "zip", Kind: KindString, Values: []any{"02134", nil, "00501"}})

	for _, format := range []Format{FormatExcel, FormatParquet} {
		t.Run(format.Key(), func(t *testing.T) {
			art, err := Export(in, format)
			require.NoError(t, err)
			out, err := Decode(art.Data, format)
			require.NoError(t, err)
			assertTablesEqual(t, in, out)
		})
	}
}

func TestExport_WorkbookToCSV(t *testing.T) {
	tbl, _, err := Parse(buildWorkbook(t), "book.xlsx")
	require.NoError(t, err)

	art, err := Convert(tbl, "book.xlsx", FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "book.csv", art.FileName)
	assert.Contains(t, string(art.Data), "02134,true,2024-03-01")
	assert.Contains(t, string(art.Data), "00501,true,")
}
