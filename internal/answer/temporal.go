package answer

import (
	"github.com/ppiankov/chronoqa/internal/errors"
	"github.com/ppiankov/chronoqa/internal/model"
)

// Unit is a duration unit
type Unit string

const (
	UnitYears  Unit = "years"
	UnitMonths Unit = "months"
	UnitDays   Unit = "days"
)

// minPrecision is the coarsest endpoint precision a unit can be computed at
func (u Unit) minPrecision() model.Precision {
	switch u {
	case UnitDays:
		return model.PrecisionDay
	case UnitMonths:
		return model.PrecisionMonth
	default:
		return model.PrecisionYear
	}
}

// Between returns the whole number of units from start to end, calendar-aware
// and truncating. Units finer than the endpoint precision give
// ErrUndefinedDuration. The bool reports a fallback to a coarser precision.
func Between(start, end model.Date, unit Unit) (int64, bool, error) {
	p := model.MinPrecision(start.Precision, end.Precision)
	if p < unit.minPrecision() {
		return 0, false, errors.Mark(errors.Newf("%s needs %s precision, dates are known to %s",
			unit, unit.minPrecision(), p), errors.ErrUndefinedDuration)
	}
	if end.Compare(start) < 0 {
		return 0, false, errors.Mark(errors.Newf("end %s before start %s", end, start), errors.ErrUndefinedDuration)
	}

	switch unit {
	case UnitDays:
		return unixDay(end) - unixDay(start), false, nil
	case UnitMonths:
		return months(start, end, p), p < model.PrecisionDay, nil
	default:
		if p == model.PrecisionYear {
			return int64(end.Year - start.Year), true, nil
		}
		return months(start, end, p) / 12, p < model.PrecisionDay, nil
	}
}

// unixDay numbers the calendar day of d from 1970-01-01. It avoids
// time.Duration, which saturates after about 292 years.
func unixDay(d model.Date) int64 {
	return d.Lower().Unix() / 86400
}

// months counts whole calendar months, dropping a partial final month
func months(start, end model.Date, p model.Precision) int64 {
	n := (end.Year-start.Year)*12 + (end.Month - start.Month)
	if p == model.PrecisionDay && end.Day < start.Day {
		n--
	}
	return int64(n)
}

// Duration returns how long an event lasted in unit. Open-ended events and
// zero-length results give ErrUndefinedDuration.
func Duration(ev *model.Event, unit Unit) (Answer, error) {
	if ev.OpenEnded() {
		return Answer{}, errors.Mark(errors.Newf("%s is open-ended", ev.ID), errors.ErrUndefinedDuration)
	}
	n, approx, err := Between(ev.Start, *ev.End, unit)
	if err != nil {
		return Answer{}, errors.Wrapf(err, "duration of %s", ev.ID)
	}
	if n <= 0 {
		return Answer{}, errors.Mark(errors.Newf("%s lasted less than one %s", ev.ID, unit), errors.ErrUndefinedDuration)
	}
	return Answer{
		Text:        Quantity(n, string(unit)),
		Facts:       dedupFacts([]model.Fact{ev.StartFact, *ev.EndFact}),
		Approximate: approx,
		Precision:   model.MinPrecision(ev.Start.Precision, ev.End.Precision),
	}, nil
}

// YearsBetween returns the whole years between the starts of two events,
// regardless of argument order. Same-year starts give ErrIncomparable.
func YearsBetween(a, b *model.Event) (Answer, error) {
	first, second := a, b
	if a.Start.Compare(b.Start) > 0 || (a.Start.Compare(b.Start) == 0 && a.ID > b.ID) {
		first, second = b, a
	}
	n, approx, err := Between(first.Start, second.Start, UnitYears)
	if err != nil {
		return Answer{}, errors.Mark(err, errors.ErrIncomparable)
	}
	if n <= 0 {
		return Answer{}, errors.Mark(errors.Newf("%s and %s began less than a year apart", a.ID, b.ID), errors.ErrIncomparable)
	}
	return Answer{
		Text:        Quantity(n, string(UnitYears)),
		Facts:       dedupFacts([]model.Fact{a.StartFact, b.StartFact}),
		Approximate: approx,
		Precision:   model.MinPrecision(a.Start.Precision, b.Start.Precision),
	}, nil
}

// Overlap reports whether two events' intervals intersect. Open-ended events
// are treated as ongoing.
func Overlap(a, b *model.Event) (Answer, error) {
	facts := []model.Fact{a.StartFact, b.StartFact}
	for _, ev := range []*model.Event{a, b} {
		if ev.EndFact != nil {
			facts = append(facts, *ev.EndFact)
		}
	}
	text := "No"
	if a.ActiveRange().Overlaps(b.ActiveRange()) {
		text = "Yes"
	}
	p := model.MinPrecision(a.Start.Precision, b.Start.Precision)
	if a.End != nil {
		p = model.MinPrecision(p, a.End.Precision)
	}
	if b.End != nil {
		p = model.MinPrecision(p, b.End.Precision)
	}
	return Answer{Text: text, Facts: dedupFacts(facts), Precision: p}, nil
}

// Bucket is a decade or century window
type Bucket struct {
	Granularity model.Granularity
	From, To    int // inclusive years
	Name        string
}

// Range returns the bucket as a temporal range
func (b Bucket) Range() model.TemporalRange {
	return model.YearsRange(b.From, b.To, b.Granularity)
}

// BucketOf returns the decade or century containing year, truncating
func BucketOf(year int, g model.Granularity) (Bucket, error) {
	switch g {
	case model.GranularityDecade:
		from := DecadeStart(year)
		return Bucket{Granularity: g, From: from, To: from + 9, Name: DecadeName(year)}, nil
	case model.GranularityCentury:
		c := Century(year)
		from, to := CenturyRange(c)
		return Bucket{Granularity: g, From: from, To: to, Name: CenturyName(c)}, nil
	default:
		return Bucket{}, errors.Mark(errors.Newf("no bucket for granularity %q", g), errors.ErrIncomparable)
	}
}

// BucketName names the decade or century in which the event's start
// (or end, when useEnd is set) falls
func BucketName(ev *model.Event, g model.Granularity, useEnd bool) (Answer, error) {
	d, f := ev.Start, ev.StartFact
	if useEnd {
		if ev.OpenEnded() {
			return Answer{}, errors.Mark(errors.Newf("%s has not ended", ev.ID), errors.ErrLookup)
		}
		d, f = *ev.End, *ev.EndFact
	}
	b, err := BucketOf(d.Year, g)
	if err != nil {
		return Answer{}, err
	}
	return Answer{Text: b.Name, Facts: []model.Fact{f}, Precision: model.PrecisionYear}, nil
}

// SameBucket returns the other events whose start falls in the anchor's
// decade or century, ordered by start
func SameBucket(idx Index, anchor *model.Event, g model.Granularity) ([]*model.Event, Answer, error) {
	b, err := BucketOf(anchor.Start.Year, g)
	if err != nil {
		return nil, Answer{}, err
	}
	var others []*model.Event
	facts := []model.Fact{anchor.StartFact}
	for _, ev := range idx.EventsInRange(b.Range()) {
		if ev.ID == anchor.ID {
			continue
		}
		others = append(others, ev)
		facts = append(facts, ev.StartFact)
	}
	if len(others) == 0 {
		return nil, Answer{}, errors.Mark(errors.Newf("no other event began in %s", b.Name), errors.ErrInsufficientData)
	}
	return others, Answer{
		Text:      JoinNames(eventNames(others)),
		Facts:     dedupFacts(facts),
		Precision: model.PrecisionYear,
	}, nil
}

// CountEvents counts events of a domain starting inside r. An empty result
// gives ErrInsufficientData.
func CountEvents(idx Index, domain string, r model.TemporalRange) ([]*model.Event, Answer, error) {
	var matched []*model.Event
	var facts []model.Fact
	for _, ev := range idx.EventsInRange(r) {
		if ev.Domain != domain {
			continue
		}
		matched = append(matched, ev)
		facts = append(facts, ev.StartFact)
	}
	if len(matched) == 0 {
		return nil, Answer{}, errors.Mark(errors.Newf("no %s events in %s", domain, r.Canonical()), errors.ErrInsufficientData)
	}
	return matched, Answer{Text: Count(len(matched)), Facts: dedupFacts(facts), Precision: model.PrecisionYear}, nil
}

// CountEntities counts entities of a domain whose dated predicate falls
// inside r. An empty result gives ErrInsufficientData.
func CountEntities(idx Index, predicate, domain string, r model.TemporalRange) ([]*model.Entity, Answer, error) {
	var matched []*model.Entity
	var facts []model.Fact
	seen := make(map[string]bool)
	for _, f := range idx.DatedFactsInRange(predicate, r) {
		e, err := idx.Entity(f.Subject)
		if err != nil {
			return nil, Answer{}, err
		}
		if e.Domain != domain || seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		matched = append(matched, e)
		facts = append(facts, f)
	}
	if len(matched) == 0 {
		return nil, Answer{}, errors.Mark(errors.Newf("no %s entities %s in %s", domain, predicate, r.Canonical()), errors.ErrInsufficientData)
	}
	return matched, Answer{Text: Count(len(matched)), Facts: dedupFacts(facts), Precision: model.PrecisionYear}, nil
}
