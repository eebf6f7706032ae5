package answer

import (
	"sort"
	"strings"

	"github.com/ppiankov/chronoqa/internal/errors"
	"github.com/ppiankov/chronoqa/internal/model"
)

// Earlier returns the name of the event that started first, or last when
// later is set. Starts are compared at their coarser common precision; a tie
// gives ErrIncomparable.
func Earlier(a, b *model.Event, later bool) (Answer, error) {
	c := a.Start.Compare(b.Start)
	if c == 0 {
		return Answer{}, errors.Mark(errors.Newf("%s and %s start together at %s precision",
			a.ID, b.ID, model.MinPrecision(a.Start.Precision, b.Start.Precision)), errors.ErrIncomparable)
	}
	winner := a
	if (c > 0) != later {
		winner = b
	}
	p := model.MinPrecision(a.Start.Precision, b.Start.Precision)
	return Answer{
		Text:        winner.Name,
		Facts:       dedupFacts([]model.Fact{a.StartFact, b.StartFact}),
		Approximate: a.Start.Precision != b.Start.Precision,
		Precision:   p,
	}, nil
}

// EarlierBy compares two entities by a dated predicate such as born or founded
// and returns the name of the earlier one (the later one when later is set)
func EarlierBy(a, b *model.Entity, predicate string, later bool) (Answer, error) {
	fa, ok := a.Fact(predicate)
	if !ok || fa.Kind != model.ObjectDate {
		return Answer{}, errors.Mark(errors.Newf("%s has no %s date", a.ID, predicate), errors.ErrIncomparable)
	}
	fb, ok := b.Fact(predicate)
	if !ok || fb.Kind != model.ObjectDate {
		return Answer{}, errors.Mark(errors.Newf("%s has no %s date", b.ID, predicate), errors.ErrIncomparable)
	}
	c := fa.Date.Compare(fb.Date)
	if c == 0 {
		return Answer{}, errors.Mark(errors.Newf("%s and %s tie on %s", a.ID, b.ID, predicate), errors.ErrIncomparable)
	}
	winner := a
	if (c > 0) != later {
		winner = b
	}
	return Answer{
		Text:        winner.Name,
		Facts:       dedupFacts([]model.Fact{fa, fb}),
		Approximate: fa.Date.Precision != fb.Date.Precision,
		Precision:   model.MinPrecision(fa.Date.Precision, fb.Date.Precision),
	}, nil
}

// Order sorts events chronologically by start, ties broken by id. The answer
// is the comma-separated list of names. Adjacent events that cannot be told
// apart at their common precision mark the answer approximate.
func Order(events []*model.Event) ([]*model.Event, Answer, error) {
	if len(events) < 2 {
		return nil, Answer{}, errors.Mark(errors.Newf("ordering needs at least 2 events, got %d", len(events)), errors.ErrInsufficientData)
	}

	sorted := make([]*model.Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		ki, kj := sorted[i].Start.Key(), sorted[j].Start.Key()
		if ki != kj {
			return ki < kj
		}
		return sorted[i].ID < sorted[j].ID
	})

	a := Answer{Precision: model.PrecisionDay}
	facts := make([]model.Fact, 0, len(sorted))
	for i, ev := range sorted {
		facts = append(facts, ev.StartFact)
		a.Precision = model.MinPrecision(a.Precision, ev.Start.Precision)
		if i > 0 && sorted[i-1].Start.Compare(ev.Start) == 0 {
			a.Approximate = true
		}
	}
	a.Facts = dedupFacts(facts)
	a.Text = strings.Join(eventNames(sorted), ", ")
	return sorted, a, nil
}
