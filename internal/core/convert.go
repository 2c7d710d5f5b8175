package core

// convert.go provides cell conversion for loosely-typed sheet data.
//
// These functions handle the messy reality of spreadsheet exports:
//   - Currency symbols and thousand separators in numbers
//   - Accounting-style negatives "(12.50)"
//   - Various boolean representations (yes/no, true/false, 1/0, checkbox exports)
//   - Excel formula prefixes (="value")
//
// Parse* functions return ok=false for blank or unparseable input; callers
// decide whether that is an error.

import (
	"regexp"
	"strconv"
	"strings"
)

// numericRegex validates that a string is a valid numeric format after cleanup.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// HeaderIndex maps column names (lowercase) to their position in the row.
type HeaderIndex map[string]int

// MakeHeaderIndex creates a HeaderIndex from a header row.
// Keys are lowercased for case-insensitive matching.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		key := strings.ToLower(CleanCell(h))
		if _, dup := idx[key]; dup {
			continue // first occurrence wins
		}
		idx[key] = i
	}
	return idx
}

// Cell returns the cleaned value of the named column.
// ok is false when the column is not mapped or the row is too short.
func (h HeaderIndex) Cell(row []string, header string) (string, bool) {
	pos, ok := h[strings.ToLower(header)]
	if !ok || pos >= len(row) {
		return "", false
	}
	return CleanCell(row[pos]), true
}

// Has reports whether the header is mapped.
func (h HeaderIndex) Has(header string) bool {
	_, ok := h[strings.ToLower(header)]
	return ok
}

// CleanCell trims whitespace and unwraps the ="..." form spreadsheets use to
// keep identifiers as text. Any other quote or equals sign is content.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if len(s) >= 3 && strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = strings.TrimSpace(s[2 : len(s)-1])
	}

	return s
}

// ParseNumber converts a cell to a float.
// Handles currency symbols, thousands separators, decimal commas, and
// accounting format (parentheses for negative). Separators that fit neither
// reading (e.g. "12,3456") are rejected.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	isNegative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		isNegative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "€", "") // Euro
	s = strings.ReplaceAll(s, "£", "") // Pound
	s = strings.TrimSpace(s)

	s, ok := normalizeSeparators(s)
	if !ok {
		return 0, false
	}

	if isNegative {
		s = "-" + s
	}

	if !numericRegex.MatchString(s) {
		return 0, false
	}

	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// normalizeSeparators rewrites s so "." is the only decimal separator.
//   - "1,234.56": dot is decimal, commas group thousands
//   - "1.234,56": comma is decimal, dots group thousands
//   - "12,99": a single comma followed by one or two digits is decimal
//   - "1,234,567": commas group thousands
func normalizeSeparators(s string) (string, bool) {
	comma := strings.LastIndex(s, ",")
	if comma < 0 {
		return s, true
	}
	dot := strings.LastIndex(s, ".")

	var whole, frac string
	var sep string
	switch {
	case dot > comma:
		whole, frac, sep = s[:dot], s[dot:], ","
	case dot >= 0:
		whole, frac, sep = s[:comma], "."+s[comma+1:], "."
	case strings.Count(s, ",") == 1 && len(s)-comma-1 <= 2:
		return s[:comma] + "." + s[comma+1:], true
	default:
		whole, sep = s, ","
	}

	if !groupedByThousands(whole, sep) {
		return "", false
	}
	return strings.ReplaceAll(whole, sep, "") + frac, true
}

// groupedByThousands reports whether sep only ever separates groups of three
// digits after a leading group of one to three.
func groupedByThousands(s, sep string) bool {
	s = strings.TrimLeft(s, "+-")
	if !strings.Contains(s, sep) {
		return true
	}
	parts := strings.Split(s, sep)
	if len(parts[0]) == 0 || len(parts[0]) > 3 {
		return false
	}
	for _, p := range parts[1:] {
		if len(p) != 3 {
			return false
		}
	}
	return true
}

// ParseBool converts a cell to a flag.
// Accepts true/false, yes/no, t/f, y/n, 1/0 and checkbox exports (x, checked).
func ParseBool(s string) (bool, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch s {
	case "true", "t", "yes", "y", "1", "x", "checked", "on":
		return true, true
	case "false", "f", "no", "n", "0", "unchecked", "off":
		return false, true
	default:
		return false, false
	}
}
