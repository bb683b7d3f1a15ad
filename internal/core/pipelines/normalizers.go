package pipelines

import (
	"math"
	"strconv"
	"strings"
)

// parseNumber parses s as a float after turning a decimal comma into a point.
func parseNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(strings.ReplaceAll(s, ",", ".")), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// parseScore parses a goal count leniently: "2", "2.0" and "2,7" all give 2.
// Blank and non-numeric values report false.
func parseScore(s string) (int, bool) {
	f, ok := parseNumber(s)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) >= 1<<53 {
		return 0, false
	}
	return int(f), true
}

// looksLikeDivision reports whether a cell names a division ("2e klasse",
// "Eredivisie").
func looksLikeDivision(s string) bool {
	t := strings.ToLower(strings.TrimSpace(s))
	return strings.Contains(t, "divisie") || strings.Contains(t, "klasse")
}

// isPostponed reports whether a full-time score cell says the match was
// called off ("afgelast") or stopped ("gestaakt").
func isPostponed(s string) bool {
	t := strings.ToLower(s)
	return strings.Contains(t, "afg") || strings.Contains(t, "gest")
}
