package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		want    Format
		wantErr bool
	}{
		{"csv", "sales.csv", FormatCSV, false},
		{"upper case extension", "SALES.CSV", FormatCSV, false},
		{"excel", "report.xlsx", FormatExcel, false},
		{"json", "data.json", FormatJSON, false},
		{"parquet", "events.parquet", FormatParquet, false},
		{"text", "notes.txt", FormatText, false},
		{"last extension wins", "archive.csv.json", FormatJSON, false},
		{"pdf unsupported", "notes.pdf", FormatUnknown, true},
		{"legacy xls unsupported", "old.xls", FormatUnknown, true},
		{"no extension", "README", FormatUnknown, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectFormat(tt.file)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"json", "JSON", ".json", " Json "} {
		f, err := ParseFormat(s)
		require.NoError(t, err, s)
		assert.Equal(t, FormatJSON, f)
	}

	f, err := ParseFormat("xlsx")
	require.NoError(t, err)
	assert.Equal(t, FormatExcel, f)

	_, err = ParseFormat("pdf")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestFormatMetadata(t *testing.T) {
	assert.Equal(t, "text/csv", FormatCSV.MIMEType())
	assert.Equal(t, "application/json", FormatJSON.MIMEType())
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", FormatExcel.MIMEType())
	assert.Equal(t, "application/octet-stream", FormatParquet.MIMEType())
	assert.Equal(t, ".parquet", FormatParquet.Extension())
	assert.Equal(t, "Excel", FormatExcel.String())
	assert.Equal(t, []Format{FormatCSV, FormatExcel, FormatJSON, FormatParquet}, ConversionTargets())
}

func TestConvertFileName(t *testing.T) {
	tests := []struct {
		name   string
		target Format
		want   string
	}{
		{"report.xlsx", FormatJSON, "report.json"},
		{"sales.csv", FormatParquet, "sales.parquet"},
		{"archive.tar.csv", FormatExcel, "archive.tar.xlsx"},
		{"/tmp/in/data.json", FormatCSV, "data.csv"},
		{"noext", FormatCSV, "noext.csv"},
		{".csv", FormatJSON, "converted.json"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ConvertFileName(tt.name, tt.target), tt.name)
	}
}
