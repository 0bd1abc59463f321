package core

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// ExcelSheet is the sheet name written by exports.
const ExcelSheet = "Sheet1"

// excelTimeFormat is the number format applied to datetime cells. It reads
// back through ParseTime.
const excelTimeFormat = "yyyy-mm-dd hh:mm:ss"

// decodeExcel reads the first sheet of a workbook. The first row is the header.
func decodeExcel(data []byte) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %v", ErrMalformed, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", ErrMalformed, sheet, err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}

	header := rows[0]
	body := rows[1:]
	// Cells right of the header row get "Unnamed" columns instead of an error.
	for _, row := range body {
		for len(header) < len(row) {
			header = append(header, "")
		}
	}
	text := make([]bool, len(header))
	for j := range header {
		kind := excelColumnKind(f, sheet, body, j)
		switch kind {
		case cellPlain:
			continue
		case cellText:
			text[j] = true
			continue
		}
		for _, row := range body {
			if j < len(row) && row[j] != "" {
				row[j] = normalizeExcelCell(row[j], kind)
			}
		}
	}
	return tableFromRows(header, body, 2, text)
}

type excelCellKind int

const (
	cellPlain excelCellKind = iota
	cellBool
	cellDate
	cellText
)

// excelColumnKind classifies column j. Any string-typed cell makes the whole
// column text, so "02134" keeps its leading zero. Otherwise the first
// non-empty cell decides between bool, date-formatted and plain numbers;
// raw cell values carry booleans as 1/0 and dates as serial numbers.
func excelColumnKind(f *excelize.File, sheet string, rows [][]string, j int) excelCellKind {
	kind, decided := cellPlain, false
	for i, row := range rows {
		if j >= len(row) || row[j] == "" {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(j+1, i+2)
		if err != nil {
			return cellPlain
		}
		typ, err := f.GetCellType(sheet, cell)
		if err != nil {
			continue
		}
		if typ == excelize.CellTypeSharedString || typ == excelize.CellTypeInlineString {
			return cellText
		}
		if !decided {
			kind, decided = excelCellFormat(f, sheet, cell, typ), true
		}
	}
	return kind
}

func excelCellFormat(f *excelize.File, sheet, cell string, typ excelize.CellType) excelCellKind {
	if typ == excelize.CellTypeBool {
		return cellBool
	}
	styleID, err := f.GetCellStyle(sheet, cell)
	if err != nil || styleID == 0 {
		return cellPlain
	}
	style, err := f.GetStyle(styleID)
	if err != nil || style == nil {
		return cellPlain
	}
	if isDateNumFmt(style.NumFmt, style.CustomNumFmt) {
		return cellDate
	}
	return cellPlain
}

// isDateNumFmt reports whether a number format renders a date or time.
// Built-in ids 14-22 and 45-47 are the date/time formats.
func isDateNumFmt(id int, custom *string) bool {
	if custom != nil {
		lower := strings.ToLower(*custom)
		return strings.Contains(lower, "yy") || strings.Contains(lower, "dd") || strings.Contains(lower, "hh")
	}
	return (id >= 14 && id <= 22) || (id >= 45 && id <= 47)
}

func normalizeExcelCell(raw string, kind excelCellKind) string {
	switch kind {
	case cellBool:
		switch raw {
		case "1":
			return "true"
		case "0":
			return "false"
		}
	case cellDate:
		serial, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return raw
		}
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return raw
		}
		// Serial numbers carry sub-second noise; the format shows seconds.
		return formatTime(t.Round(time.Second))
	}
	return raw
}

// encodeExcel writes the table to Sheet1 with typed cells.
func encodeExcel(t *Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	for j, name := range t.ColumnNames() {
		cell, err := excelize.CoordinatesToCellName(j+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellStr(ExcelSheet, cell, name); err != nil {
			return nil, err
		}
	}

	var timeStyle int
	for j, col := range t.Columns() {
		if col.Kind != KindTime || t.NumRows() == 0 {
			continue
		}
		if timeStyle == 0 {
			format := excelTimeFormat
			id, err := f.NewStyle(&excelize.Style{CustomNumFmt: &format})
			if err != nil {
				return nil, err
			}
			timeStyle = id
		}
		top, _ := excelize.CoordinatesToCellName(j+1, 2)
		bottom, _ := excelize.CoordinatesToCellName(j+1, t.NumRows()+1)
		if err := f.SetCellStyle(ExcelSheet, top, bottom, timeStyle); err != nil {
			return nil, err
		}
	}

	for i := 0; i < t.NumRows(); i++ {
		for j, col := range t.Columns() {
			v := col.Values[i]
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return nil, err
			}
			if err := setExcelCell(f, cell, v); err != nil {
				return nil, fmt.Errorf("cell %s: %w", cell, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func setExcelCell(f *excelize.File, cell string, v any) error {
	switch x := v.(type) {
	case int64:
		return f.SetCellValue(ExcelSheet, cell, x)
	case float64:
		return f.SetCellFloat(ExcelSheet, cell, x, -1, 64)
	case bool:
		return f.SetCellBool(ExcelSheet, cell, x)
	case time.Time:
		return f.SetCellValue(ExcelSheet, cell, x.UTC())
	case string:
		return f.SetCellStr(ExcelSheet, cell, x)
	default:
		return f.SetCellValue(ExcelSheet, cell, x)
	}
}
