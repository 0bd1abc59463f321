package core

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// utf8BOM is the byte order mark Windows tools put in front of text exports.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Parse detects the format of fileName and decodes data into a table.
func Parse(data []byte, fileName string) (*Table, Format, error) {
	format, err := DetectFormat(fileName)
	if err != nil {
		return nil, FormatUnknown, err
	}
	t, err := Decode(data, format)
	if err != nil {
		return nil, format, err
	}
	return t, format, nil
}

// Decode decodes data already known to be in format.
func Decode(data []byte, format Format) (*Table, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyFile
	}

	switch format {
	case FormatCSV:
		return decodeDelimited(data, ',')
	case FormatText:
		return decodeDelimited(data, '\t')
	case FormatExcel:
		return decodeExcel(data)
	case FormatJSON:
		return decodeJSON(data)
	case FormatParquet:
		return decodeParquet(data)
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, format)
	}
}

// decodeText strips a leading BOM and replaces invalid UTF-8 sequences so
// text decoders never see broken runes.
func decodeText(data []byte) []byte {
	data = bytes.TrimPrefix(data, utf8BOM)
	return bytes.ToValidUTF8(data, []byte("�"))
}

// normalizeHeader names blank headers "Unnamed: <i>" and suffixes repeated
// names with ".1", ".2", ... so every column name is unique.
func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	suffix := make(map[string]int)
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		if seen[name] {
			base := name
			for {
				suffix[base]++
				name = base + "." + strconv.Itoa(suffix[base])
				if !seen[name] {
					break
				}
			}
		}
		seen[name] = true
		out[i] = name
	}
	return out
}

// tableFromRows infers one column per header entry from string rows.
// Short rows are padded with missing cells; rows wider than the header are
// rejected with their 1-based line number. Columns flagged in text skip
// inference and stay strings.
func tableFromRows(header []string, rows [][]string, firstLine int, text []bool) (*Table, error) {
	names := normalizeHeader(header)
	cells := make([][]string, len(names))
	for j := range cells {
		cells[j] = make([]string, len(rows))
	}

	for i, row := range rows {
		if len(row) > len(names) {
			return nil, fmt.Errorf("%w: line %d has %d fields, header has %d",
				ErrMalformed, firstLine+i, len(row), len(names))
		}
		for j := range names {
			if j < len(row) {
				cells[j][i] = row[j]
			}
		}
	}

	cols := make([]*Column, len(names))
	for j, name := range names {
		if j < len(text) && text[j] {
			cols[j] = TextColumn(name, cells[j])
			continue
		}
		cols[j] = InferColumn(name, cells[j])
	}
	return NewTable(cols...)
}
