package core

// infer.go turns raw text cells (CSV, TXT and Excel sources) into typed
// columns.
//
// A column takes the narrowest kind that every non-missing cell parses as,
// tried in this order: int, float, bool, datetime, text. Cells matching one
// of the missing tokens become nil regardless of kind. A column with no
// non-missing cell is float, mirroring an all-NaN column.

import (
	"strconv"
	"strings"
	"time"
)

// missingTokens are the cell spellings read as a missing value.
var missingTokens = map[string]bool{
	"":     true,
	"NA":   true,
	"N/A":  true,
	"NaN":  true,
	"nan":  true,
	"null": true,
	"NULL": true,
	"None": true,
	"#N/A": true,
}

// timeLayouts are the datetime spellings recognised during inference.
// Only unambiguous ISO-style layouts are accepted; US/EU slash dates stay text.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

// IsMissingToken reports whether a raw cell reads as a missing value.
func IsMissingToken(s string) bool {
	return missingTokens[strings.TrimSpace(s)]
}

// ParseInt parses a whole number cell.
func ParseInt(s string) (int64, bool) {
	i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return i, err == nil
}

// ParseFloat parses a decimal or scientific cell. "inf" and "nan" spellings
// are rejected so they never turn a text column numeric.
func ParseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	lower := strings.ToLower(s)
	if strings.Contains(lower, "inf") || strings.Contains(lower, "nan") {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}

// ParseBool accepts true/false in any letter case.
func ParseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return true, true
	case "false":
		return false, true
	default:
		return false, false
	}
}

// ParseTime accepts the ISO-8601 layouts in timeLayouts. Values without a
// zone are read as UTC.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if len(s) < len("2006-01-02") {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// InferColumn builds a typed column from raw text cells.
func InferColumn(name string, cells []string) *Column {
	kind := inferKind(cells)
	values := make([]any, len(cells))
	for i, cell := range cells {
		if IsMissingToken(cell) {
			continue
		}
		values[i] = convertCell(cell, kind)
	}
	return &Column{Name: name, Kind: kind, Values: values}
}

// TextColumn keeps cells as strings without inference. Missing tokens
// still become nil.
func TextColumn(name string, cells []string) *Column {
	values := make([]any, len(cells))
	for i, cell := range cells {
		if !IsMissingToken(cell) {
			values[i] = cell
		}
	}
	return &Column{Name: name, Kind: KindString, Values: values}
}

func inferKind(cells []string) Kind {
	isInt, isFloat, isBool, isTime := true, true, true, true
	seen := 0
	for _, cell := range cells {
		if IsMissingToken(cell) {
			continue
		}
		seen++
		if isInt {
			if _, ok := ParseInt(cell); !ok {
				isInt = false
			}
		}
		if isFloat {
			if _, ok := ParseFloat(cell); !ok {
				isFloat = false
			}
		}
		if isBool {
			if _, ok := ParseBool(cell); !ok {
				isBool = false
			}
		}
		if isTime {
			if _, ok := ParseTime(cell); !ok {
				isTime = false
			}
		}
		if !isInt && !isFloat && !isBool && !isTime {
			return KindString
		}
	}

	switch {
	case seen == 0:
		return KindFloat
	case isInt:
		return KindInt
	case isFloat:
		return KindFloat
	case isBool:
		return KindBool
	case isTime:
		return KindTime
	default:
		return KindString
	}
}

// convertCell converts a non-missing cell already known to parse as kind.
func convertCell(cell string, kind Kind) any {
	switch kind {
	case KindInt:
		i, _ := ParseInt(cell)
		return i
	case KindFloat:
		f, _ := ParseFloat(cell)
		return f
	case KindBool:
		b, _ := ParseBool(cell)
		return b
	case KindTime:
		t, _ := ParseTime(cell)
		return t
	default:
		return cell
	}
}
