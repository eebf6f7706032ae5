package generate

import (
	"math/rand/v2"

	"github.com/ppiankov/chronoqa/internal/answer"
	"github.com/ppiankov/chronoqa/internal/errors"
	"github.com/ppiankov/chronoqa/internal/model"
)

// eventPair unranks an unordered event pair; the display order is drawn from rng
func eventPair(events []*model.Event, rank int64, rng *rand.Rand) []string {
	pair := Unrank(rank, len(events), 2)
	return shuffled(rng, events[pair[0]].ID, events[pair[1]].ID)
}

func comparisonEvent(s strategy) *strategy {
	s.typ = model.ComparisonEvent
	s.aspects = []string{"earlier", "later"}
	events := s.kb.Events()
	s.space = Choose(len(events), 2) * int64(len(s.aspects))

	s.pick = func(index int64, rng *rand.Rand) (model.Derivation, error) {
		rank, aspect := aspectAt(index, s.aspects)
		return model.Derivation{Aspect: aspect, EntityIDs: eventPair(events, rank, rng)}, nil
	}
	s.solve = func(d model.Derivation) (solution, error) {
		evs, err := s.events(d.EntityIDs, 2)
		if err != nil {
			return solution{}, err
		}
		var later bool
		switch d.Aspect {
		case "earlier":
		case "later":
			later = true
		default:
			return solution{}, unknownAspect(s.typ, d.Aspect)
		}
		a, err := answer.Earlier(evs[0], evs[1], later)
		if err != nil {
			return solution{}, err
		}
		return solution{
			answer:   a,
			entities: asEntities(evs),
			slots:    map[string]string{"event1": evs[0].Name, "event2": evs[1].Name},
			span:     eventSpan(evs...),
		}, nil
	}
	return &s
}

func comparisonEntity(s strategy) *strategy {
	s.typ = model.ComparisonEntity
	s.aspects = []string{"born_earlier", "founded_earlier"}

	// people compare by birth, organizations and nations by founding
	var people, bodies []*model.Entity
	for _, e := range s.kb.EntitiesByType(model.EntityPerson) {
		if _, ok := answer.StartOf(e); ok {
			people = append(people, e)
		}
	}
	for _, t := range []model.EntityType{model.EntityNation, model.EntityOrganization} {
		for _, e := range s.kb.EntitiesByType(t) {
			if _, ok := answer.StartOf(e); ok {
				bodies = append(bodies, e)
			}
		}
	}
	nPeople := Choose(len(people), 2)
	s.space = nPeople + Choose(len(bodies), 2)

	s.pick = func(index int64, rng *rand.Rand) (model.Derivation, error) {
		list, aspect, rank := people, "born_earlier", index
		if index >= nPeople {
			list, aspect, rank = bodies, "founded_earlier", index-nPeople
		}
		pair := Unrank(rank, len(list), 2)
		return model.Derivation{Aspect: aspect, EntityIDs: shuffled(rng, list[pair[0]].ID, list[pair[1]].ID)}, nil
	}
	s.solve = func(d model.Derivation) (solution, error) {
		es, err := s.entities(d.EntityIDs, 2)
		if err != nil {
			return solution{}, err
		}
		var pred string
		switch d.Aspect {
		case "born_earlier":
			pred = model.PredBorn
		case "founded_earlier":
			pred = model.PredFounded
		default:
			return solution{}, unknownAspect(s.typ, d.Aspect)
		}
		a, err := answer.EarlierBy(es[0], es[1], pred, false)
		if err != nil {
			return solution{}, err
		}
		r, err := entitySpan(es...)
		if err != nil {
			return solution{}, err
		}
		return solution{
			answer:   a,
			entities: es,
			slots:    map[string]string{"entity1": es[0].Name, "entity2": es[1].Name},
			span:     r,
		}, nil
	}
	return &s
}

func comparisonTime(s strategy) *strategy {
	s.typ = model.ComparisonTime
	s.aspects = []string{"years_between"}
	events := s.kb.Events()
	s.space = Choose(len(events), 2)

	s.pick = func(index int64, _ *rand.Rand) (model.Derivation, error) {
		// chronological display order reads naturally for "after"
		pair := Unrank(index, len(events), 2)
		return model.Derivation{Aspect: "years_between", EntityIDs: []string{events[pair[0]].ID, events[pair[1]].ID}}, nil
	}
	s.solve = func(d model.Derivation) (solution, error) {
		if d.Aspect != "years_between" {
			return solution{}, unknownAspect(s.typ, d.Aspect)
		}
		evs, err := s.events(d.EntityIDs, 2)
		if err != nil {
			return solution{}, err
		}
		a, err := answer.YearsBetween(evs[0], evs[1])
		if err != nil {
			return solution{}, err
		}
		if evs[0].Start.Compare(evs[1].Start) > 0 {
			return solution{}, errors.Mark(errors.Newf("%s starts after %s", evs[0].ID, evs[1].ID), errors.ErrIncomparable)
		}
		return solution{
			answer:   a,
			entities: asEntities(evs),
			slots:    map[string]string{"event1": evs[0].Name, "event2": evs[1].Name},
			span:     span(evs[0].Start, evs[1].Start),
			calc:     true,
		}, nil
	}
	return &s
}
