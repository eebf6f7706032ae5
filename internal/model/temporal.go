package model

import (
	"fmt"
	"time"
)

// Granularity is the precision level of a TemporalRange
type Granularity string

const (
	GranularityYear     Granularity = "year"
	GranularityDecade   Granularity = "decade"
	GranularityCentury  Granularity = "century"
	GranularityMultiple Granularity = "multiple" // sub-year span of several days
)

// Valid reports whether g is one of the four granularities
func (g Granularity) Valid() bool {
	switch g {
	case GranularityYear, GranularityDecade, GranularityCentury, GranularityMultiple:
		return true
	}
	return false
}

// TemporalRange is a closed span of dates
type TemporalRange struct {
	Start       Date        `json:"start"`
	End         Date        `json:"end"`
	Granularity Granularity `json:"granularity"`
}

// NewRange builds a range whose granularity follows the span
func NewRange(start, end Date) TemporalRange {
	return TemporalRange{Start: start, End: end, Granularity: GranularityForSpan(start, end)}
}

// YearsRange covers whole years from..to inclusive
func YearsRange(from, to int, g Granularity) TemporalRange {
	return TemporalRange{Start: YearDate(from), End: YearDate(to), Granularity: g}
}

// GranularityForSpan picks the coarsest label that still describes the span.
// Day-precise spans shorter than a year are "multiple".
func GranularityForSpan(start, end Date) Granularity {
	if start.Precision == PrecisionDay && end.Precision == PrecisionDay &&
		end.Lower().Before(start.Lower().AddDate(1, 0, 0)) {
		return GranularityMultiple
	}
	years := end.Year - start.Year
	switch {
	case years < 10:
		return GranularityYear
	case years < 100:
		return GranularityDecade
	default:
		return GranularityCentury
	}
}

// Validate checks start <= end and that the granularity is consistent with
// the endpoint precision
func (r TemporalRange) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return fmt.Errorf("range has unset endpoint")
	}
	if err := r.Start.Validate(); err != nil {
		return fmt.Errorf("range start: %w", err)
	}
	if err := r.End.Validate(); err != nil {
		return fmt.Errorf("range end: %w", err)
	}
	if r.Start.Key() > r.End.UpperKey() {
		return fmt.Errorf("range start %s after end %s", r.Start, r.End)
	}
	if !r.Granularity.Valid() {
		return fmt.Errorf("unknown granularity %q", r.Granularity)
	}
	if r.Granularity == GranularityMultiple &&
		(r.Start.Precision != PrecisionDay || r.End.Precision != PrecisionDay) {
		return fmt.Errorf("granularity %q needs day precision, got %s/%s",
			r.Granularity, r.Start.Precision, r.End.Precision)
	}
	return nil
}

// Contains reports whether the earliest day of d falls inside the range
func (r TemporalRange) Contains(d Date) bool {
	k := d.Key()
	return k >= r.Start.Key() && k <= r.End.UpperKey()
}

// Overlaps reports whether two closed ranges intersect
func (r TemporalRange) Overlaps(o TemporalRange) bool {
	return r.Start.Key() <= o.End.UpperKey() && o.Start.Key() <= r.End.UpperKey()
}

// Canonical is the order-stable text form used in fingerprints
func (r TemporalRange) Canonical() string {
	return r.Start.String() + "/" + r.End.String()
}

// SpanStart is the ISO day the range starts (for output records)
func (r TemporalRange) SpanStart() string {
	return r.Start.Lower().Format(time.DateOnly)
}

// SpanEnd is the ISO day the range ends (for output records)
func (r TemporalRange) SpanEnd() string {
	return r.End.Upper().Format(time.DateOnly)
}
