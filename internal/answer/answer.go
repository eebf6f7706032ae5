// Package answer derives answers from knowledge base facts. Every function is
// pure: the same inputs always give the same Answer, and nothing is mutated.
package answer

import (
	"sort"

	"github.com/ppiankov/chronoqa/internal/errors"
	"github.com/ppiankov/chronoqa/internal/model"
)

// Index is the read-only view of the knowledge base the computations need
type Index interface {
	Entity(id string) (*model.Entity, error)
	EventsInRange(r model.TemporalRange) []*model.Event
	DatedFactsInRange(predicate string, r model.TemporalRange) []model.Fact
	Outgoing(id, predicate string) []model.Fact
	Incoming(id, predicate string) []model.Fact
	Relation(subject, predicate, object string) (model.Fact, bool)
}

// Answer is a derived answer with the facts it was computed from
type Answer struct {
	Text        string
	Facts       []model.Fact // distinct facts consulted; hop count is len(Facts)
	Approximate bool         // fell back to a coarser precision than day
	Precision   model.Precision
}

// Hops returns the number of distinct facts consulted
func (a Answer) Hops() int {
	return len(a.Facts)
}

// DateAttribute returns the date of an entity's dated predicate
func DateAttribute(e *model.Entity, predicate string) (Answer, error) {
	f, ok := e.Fact(predicate)
	if !ok || f.Kind != model.ObjectDate {
		return Answer{}, errors.Mark(errors.Newf("%s has no %s date", e.ID, predicate), errors.ErrLookup)
	}
	return Answer{
		Text:      f.Date.Human(),
		Facts:     []model.Fact{f},
		Precision: f.Date.Precision,
	}, nil
}

// TextAttribute returns a text or scalar attribute such as location, country or field
func TextAttribute(e *model.Entity, predicate string) (Answer, error) {
	f, ok := e.Fact(predicate)
	if !ok {
		return Answer{}, errors.Mark(errors.Newf("%s has no %s", e.ID, predicate), errors.ErrLookup)
	}
	switch f.Kind {
	case model.ObjectText:
		return Answer{Text: f.Object, Facts: []model.Fact{f}}, nil
	case model.ObjectScalar:
		n, err := f.Scalar()
		if err != nil {
			return Answer{}, errors.Mark(err, errors.ErrLookup)
		}
		return Answer{Text: Count(int(n)), Facts: []model.Fact{f}}, nil
	default:
		return Answer{}, errors.Mark(errors.Newf("%s %s is a %s, not an attribute", e.ID, predicate, f.Kind), errors.ErrLookup)
	}
}

// EventInYear returns the single event of a domain that began in year.
// Zero matches give ErrInsufficientData and several give ErrIncomparable.
func EventInYear(idx Index, domain string, year int) (Answer, error) {
	var matched []*model.Event
	for _, ev := range idx.EventsInRange(model.YearsRange(year, year, model.GranularityYear)) {
		if ev.Domain == domain {
			matched = append(matched, ev)
		}
	}
	switch len(matched) {
	case 0:
		return Answer{}, errors.Mark(errors.Newf("no %s event began in %d", domain, year), errors.ErrInsufficientData)
	case 1:
		ev := matched[0]
		return Answer{Text: ev.Name, Facts: []model.Fact{ev.StartFact}, Precision: model.PrecisionYear}, nil
	default:
		return Answer{}, errors.Mark(errors.Newf("%d %s events began in %d", len(matched), domain, year), errors.ErrIncomparable)
	}
}

func names(entities []*model.Entity) []string {
	out := make([]string, 0, len(entities))
	for _, e := range entities {
		out = append(out, e.Name)
	}
	return out
}

func eventNames(events []*model.Event) []string {
	out := make([]string, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Name)
	}
	return out
}

// dedupFacts drops repeated facts and returns them in canonical order
func dedupFacts(facts []model.Fact) []model.Fact {
	seen := make(map[string]bool, len(facts))
	out := make([]model.Fact, 0, len(facts))
	for _, f := range facts {
		if seen[f.Key()] {
			continue
		}
		seen[f.Key()] = true
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Subject != out[j].Subject {
			return out[i].Subject < out[j].Subject
		}
		if out[i].Predicate != out[j].Predicate {
			return out[i].Predicate < out[j].Predicate
		}
		return out[i].Object < out[j].Object
	})
	return out
}
