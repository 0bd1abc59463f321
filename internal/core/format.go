package core

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format identifies a tabular file encoding. It is resolved once from the
// file name when a file is parsed and carried with the session afterwards.
type Format int

const (
	FormatUnknown Format = iota
	FormatCSV
	FormatExcel
	FormatJSON
	FormatParquet
	FormatText
)

// Excel MIME type is long enough to be worth naming.
const mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type formatInfo struct {
	key       string // stable identifier used by forms, flags and audit rows
	label     string
	extension string
	mimeType  string
}

var formats = map[Format]formatInfo{
	FormatCSV:     {key: "csv", label: "CSV", extension: ".csv", mimeType: "text/csv"},
	FormatExcel:   {key: "excel", label: "Excel", extension: ".xlsx", mimeType: mimeXLSX},
	FormatJSON:    {key: "json", label: "JSON", extension: ".json", mimeType: "application/json"},
	FormatParquet: {key: "parquet", label: "Parquet", extension: ".parquet", mimeType: "application/octet-stream"},
	FormatText:    {key: "txt", label: "TXT", extension: ".txt", mimeType: "text/tab-separated-values"},
}

// InputFormats lists every format accepted on upload, in display order.
func InputFormats() []Format {
	return []Format{FormatCSV, FormatExcel, FormatJSON, FormatParquet, FormatText}
}

// ConversionTargets lists the formats offered for conversion, in display order.
func ConversionTargets() []Format {
	return []Format{FormatCSV, FormatExcel, FormatJSON, FormatParquet}
}

// Key returns the short identifier ("csv", "excel", ...).
func (f Format) Key() string { return formats[f].key }

// Extension returns the file extension including the leading dot.
func (f Format) Extension() string { return formats[f].extension }

// MIMEType returns the content type used for downloads.
func (f Format) MIMEType() string { return formats[f].mimeType }

// String returns the display label.
func (f Format) String() string {
	if info, ok := formats[f]; ok {
		return info.label
	}
	return "unknown"
}

// DetectFormat resolves the format strictly from the file name extension.
// The content is never inspected.
func DetectFormat(fileName string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	for f, info := range formats {
		if info.extension == ext {
			return f, nil
		}
	}
	if ext == "" {
		return FormatUnknown, fmt.Errorf("%w: %q has no extension", ErrUnsupportedFormat, fileName)
	}
	return FormatUnknown, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
}

// ParseFormat resolves a format from its key, label or extension
// ("json", "JSON", ".json", "xlsx" all work).
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for f, info := range formats {
		ext := strings.TrimPrefix(info.extension, ".")
		if s == info.key || s == strings.ToLower(info.label) || s == ext || s == info.extension {
			return f, nil
		}
	}
	return FormatUnknown, fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// ConvertFileName replaces the final extension of name with the extension of
// target: "report.xlsx" becomes "report.json".
func ConvertFileName(name string, target Format) string {
	base := filepath.Base(name)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." {
		base = "converted"
	}
	return base + target.Extension()
}
