package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// reportDateFormats are the layouts CAMP has been observed to use for the
// Airframe Report Date column.
var reportDateFormats = []string{
	"2006-01-02",
	"01/02/2006",
	"01/02/06",
	"2006-01-02 15:04:05",
	"01/02/2006 15:04",
	"01/02/2006 15:04:05",
	time.RFC3339,
}

// parseFloat converts a CSV cell to a float, tolerating thousands separators.
// Returns nil when the cell is empty or not numeric.
func parseFloat(val string) *float64 {
	s := strings.TrimSpace(val)
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(s, ",", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

// parseReportDate tries each known layout and returns nil when none matches.
func parseReportDate(val string) *time.Time {
	s := strings.TrimSpace(val)
	if s == "" {
		return nil
	}
	for _, layout := range reportDateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// retirementKeywords identify component retirement/overhaul rows that CAMP
// exports as inspections rather than parts.
var retirementKeywords = []string{
	"RETIRE", "OVERHAUL", "DISCARD", "LIFE LIMIT", "TBO",
	"REPLACEMENT", "REPLACE", "CHANGE OIL", "NOZZLE",
}

func hasRetirementKeyword(desc string) bool {
	u := strings.ToUpper(desc)
	for _, kw := range retirementKeywords {
		if strings.Contains(u, kw) {
			return true
		}
	}
	return false
}

var (
	riiPrefixParen = regexp.MustCompile(`(?i)^\(RII\)\s*`)
	riiPrefixBare  = regexp.MustCompile(`(?i)^RII\s+`)
)

// cleanComponentName strips RII markers and trailing lines from a component
// description and title-cases it for display.
func cleanComponentName(desc string) string {
	s := riiPrefixParen.ReplaceAllString(desc, "")
	s = riiPrefixBare.ReplaceAllString(s, "")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return titleCase(strings.TrimSpace(s))
}

// titleCase uppercases the first letter of each space-separated word and
// lowercases the rest, which is how the dashboard has always displayed
// component names.
func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		r := []rune(w)
		if len(r) > 0 {
			r[0] = []rune(strings.ToUpper(string(r[0])))[0]
			words[i] = string(r)
		}
	}
	return strings.Join(words, " ")
}

// cell safely reads a column from a record, returning "" for short rows.
func cell(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}
