package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Precision is how much of a Date is known
type Precision int

const (
	PrecisionUnknown Precision = 0
	PrecisionYear    Precision = 1
	PrecisionMonth   Precision = 2
	PrecisionDay     Precision = 3
)

func (p Precision) String() string {
	switch p {
	case PrecisionYear:
		return "year"
	case PrecisionMonth:
		return "month"
	case PrecisionDay:
		return "day"
	default:
		return "unknown"
	}
}

// MinPrecision returns the coarser of two precisions
func MinPrecision(a, b Precision) Precision {
	if a < b {
		return a
	}
	return b
}

// Date is a calendar date known to year, month or day precision (CE only).
// Fields finer than Precision are zero.
type Date struct {
	Year      int       `json:"year"`
	Month     int       `json:"month,omitempty"`
	Day       int       `json:"day,omitempty"`
	Precision Precision `json:"precision"`
}

// YearDate returns a year-precision date
func YearDate(year int) Date {
	return Date{Year: year, Precision: PrecisionYear}
}

// MonthDate returns a month-precision date
func MonthDate(year, month int) Date {
	return Date{Year: year, Month: month, Precision: PrecisionMonth}
}

// DayDate returns a day-precision date
func DayDate(year, month, day int) Date {
	return Date{Year: year, Month: month, Day: day, Precision: PrecisionDay}
}

// ParseDate parses "YYYY", "YYYY-MM" or "YYYY-MM-DD".
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, fmt.Errorf("empty date")
	}

	parts := strings.Split(s, "-")
	if len(parts) > 3 {
		return Date{}, fmt.Errorf("invalid date %q", s)
	}

	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
		}
		nums[i] = n
	}

	var d Date
	switch len(nums) {
	case 1:
		d = YearDate(nums[0])
	case 2:
		d = MonthDate(nums[0], nums[1])
	case 3:
		d = DayDate(nums[0], nums[1], nums[2])
	}

	if err := d.Validate(); err != nil {
		return Date{}, err
	}
	return d, nil
}

// Validate checks the date is a real calendar date at its precision
func (d Date) Validate() error {
	if d.Precision < PrecisionYear || d.Precision > PrecisionDay {
		return fmt.Errorf("date %v has no precision", d)
	}
	if d.Year < 1 || d.Year > 9999 {
		return fmt.Errorf("year %d out of range [1, 9999]", d.Year)
	}
	if d.Precision >= PrecisionMonth && (d.Month < 1 || d.Month > 12) {
		return fmt.Errorf("month %d out of range in %s", d.Month, d)
	}
	if d.Precision == PrecisionDay {
		if d.Day < 1 || d.Day > daysIn(d.Year, d.Month) {
			return fmt.Errorf("day %d out of range in %s", d.Day, d)
		}
	}
	return nil
}

// IsZero reports whether the date is unset
func (d Date) IsZero() bool {
	return d.Precision == PrecisionUnknown
}

// Lower returns the earliest calendar day the date can denote
func (d Date) Lower() time.Time {
	month, day := 1, 1
	if d.Precision >= PrecisionMonth {
		month = d.Month
	}
	if d.Precision == PrecisionDay {
		day = d.Day
	}
	return time.Date(d.Year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// Upper returns the latest calendar day the date can denote
func (d Date) Upper() time.Time {
	switch d.Precision {
	case PrecisionDay:
		return d.Lower()
	case PrecisionMonth:
		return time.Date(d.Year, time.Month(d.Month), daysIn(d.Year, d.Month), 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(d.Year, time.December, 31, 0, 0, 0, 0, time.UTC)
	}
}

// Key is a sortable integer (yyyymmdd) of the earliest day the date denotes
func (d Date) Key() int {
	t := d.Lower()
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}

// UpperKey is a sortable integer (yyyymmdd) of the latest day the date denotes
func (d Date) UpperKey() int {
	t := d.Upper()
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}

// Truncate drops fields finer than p
func (d Date) Truncate(p Precision) Date {
	if p >= d.Precision {
		return d
	}
	out := Date{Year: d.Year, Precision: p}
	if p >= PrecisionMonth {
		out.Month = d.Month
	}
	return out
}

// Compare compares two dates at their coarser common precision.
// It returns -1, 0 or +1; 0 means the dates cannot be told apart.
func (d Date) Compare(o Date) int {
	p := MinPrecision(d.Precision, o.Precision)
	a, b := d.Truncate(p), o.Truncate(p)
	switch {
	case a.Year != b.Year:
		return sign(a.Year - b.Year)
	case a.Month != b.Month:
		return sign(a.Month - b.Month)
	default:
		return sign(a.Day - b.Day)
	}
}

// String renders the date in ISO form at its precision
func (d Date) String() string {
	switch d.Precision {
	case PrecisionDay:
		return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
	case PrecisionMonth:
		return fmt.Sprintf("%04d-%02d", d.Year, d.Month)
	case PrecisionYear:
		return fmt.Sprintf("%04d", d.Year)
	default:
		return ""
	}
}

// Human renders the date for question and answer text
func (d Date) Human() string {
	switch d.Precision {
	case PrecisionDay:
		return fmt.Sprintf("%d %s %d", d.Day, time.Month(d.Month), d.Year)
	case PrecisionMonth:
		return fmt.Sprintf("%s %d", time.Month(d.Month), d.Year)
	case PrecisionYear:
		return strconv.Itoa(d.Year)
	default:
		return ""
	}
}

// UnmarshalYAML accepts "1939", 1939, "1939-09" and "1939-09-01"
func (d *Date) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseDate(value.Value)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalYAML writes the ISO form
func (d Date) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

func daysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}
