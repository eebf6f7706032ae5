package answer

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// Count renders a count with thousands separators
func Count(n int) string {
	return humanize.Comma(int64(n))
}

// Quantity renders n with a singular or plural unit, e.g. "1 year", "1,558 days"
func Quantity(n int64, unit string) string {
	if n == 1 {
		return "1 " + strings.TrimSuffix(unit, "s")
	}
	return humanize.Comma(n) + " " + unit
}

// DecadeStart truncates a year to its decade
func DecadeStart(year int) int {
	return year - year%10
}

// Century returns the ordinal century of a year; 1901-2000 is the 20th
func Century(year int) int {
	return (year-1)/100 + 1
}

// CenturyRange returns the first and last year of a century
func CenturyRange(c int) (int, int) {
	return (c-1)*100 + 1, c * 100
}

// DecadeName renders "the 1930s"
func DecadeName(year int) string {
	return fmt.Sprintf("the %ds", DecadeStart(year))
}

// CenturyName renders "the 20th century"
func CenturyName(c int) string {
	return fmt.Sprintf("the %s century", humanize.Ordinal(c))
}

// JoinNames renders "A", "A and B" or "A, B and C"
func JoinNames(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	default:
		return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
	}
}
