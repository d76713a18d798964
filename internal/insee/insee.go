// Package insee reconciles the heterogeneous INSEE source files into the
// flat commune table the analyzer consumes. Each source parser tolerates
// missing columns by substituting documented defaults; only the commune
// code itself is indispensable.
package insee

import (
	"strconv"
	"strings"
)

// Substitution values applied when a source column or cell is absent.
// Income defaults mirror the national orders of magnitude so degraded
// inputs stay plausible instead of zeroing out.
const (
	DefaultRevenuMedian    = 22000.0
	DefaultNiveauVieMedian = 29000.0
	DefaultTauxPauvrete    = 14.0

	// NiveauVieFactor derives the living-standard median from the revenue
	// median; the income source carries only one of the two.
	NiveauVieFactor = 1.3

	// PersonsPerHousehold estimates population from household counts when
	// the population column is missing.
	PersonsPerHousehold = 2.2
)

// columnIndex finds the first header cell equal to name, ignoring case and
// surrounding blanks. Returns -1 when absent.
func columnIndex(header []string, name string) int {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

// fuzzyColumnIndex finds the first header cell containing any of the given
// fragments, ignoring case. Returns -1 when absent.
func fuzzyColumnIndex(header []string, fragments ...string) int {
	for i, h := range header {
		cell := strings.ToUpper(strings.TrimSpace(h))
		for _, f := range fragments {
			if strings.Contains(cell, f) {
				return i
			}
		}
	}
	return -1
}

// cell returns row[i] or "" when the row is too short or i is -1.
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// parseNumber converts a French-formatted numeric cell, accepting both
// decimal commas and points and tolerating thousands spacing. Unparseable
// or empty cells yield def.
func parseNumber(s string, def float64) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	s = strings.NewReplacer(",", ".", " ", "", " ", "").Replace(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return v
}

// NormalizeCode canonicalizes a commune code: trims, uppercases the
// Corsican letter, strips spreadsheet float artifacts and restores the
// leading zero that numeric cells lose.
func NormalizeCode(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.TrimSuffix(s, ".0")
	if len(s) == 4 && isDigits(s) {
		s = "0" + s
	}
	return s
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// DepartmentFromCode derives the department from a commune code: the first
// two characters, or three for the overseas departments.
func DepartmentFromCode(code string) string {
	if len(code) >= 3 && strings.HasPrefix(code, "97") {
		return code[:3]
	}
	if len(code) >= 2 {
		return code[:2]
	}
	return code
}
