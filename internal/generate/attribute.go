package generate

import (
	"math/rand/v2"
	"sort"
	"strconv"

	"github.com/ppiankov/chronoqa/internal/answer"
	"github.com/ppiankov/chronoqa/internal/errors"
	"github.com/ppiankov/chronoqa/internal/model"
)

func attributeEvent(s strategy) *strategy {
	s.typ = model.AttributeEvent
	s.aspects = []string{"began", "ended", "location"}
	events := s.kb.Events()
	s.space = int64(len(events)) * int64(len(s.aspects))

	s.pick = func(index int64, _ *rand.Rand) (model.Derivation, error) {
		i, aspect := aspectAt(index, s.aspects)
		return model.Derivation{Aspect: aspect, EntityIDs: []string{events[i].ID}}, nil
	}
	s.solve = func(d model.Derivation) (solution, error) {
		evs, err := s.events(d.EntityIDs, 1)
		if err != nil {
			return solution{}, err
		}
		ev := evs[0]
		var a answer.Answer
		switch d.Aspect {
		case "began":
			a, err = answer.DateAttribute(ev.Entity, model.PredBegan)
		case "ended":
			if !distinctEnd(ev) {
				return solution{}, errors.Mark(errors.Newf("%s has no distinct end", ev.ID), errors.ErrInsufficientData)
			}
			a, err = answer.DateAttribute(ev.Entity, model.PredEnded)
		case "location":
			a, err = answer.TextAttribute(ev.Entity, model.PredLocatedIn)
		default:
			return solution{}, unknownAspect(s.typ, d.Aspect)
		}
		if err != nil {
			return solution{}, err
		}
		return solution{
			answer:   a,
			entities: []*model.Entity{ev.Entity},
			slots:    map[string]string{"event": ev.Name},
			span:     ev.Range(),
		}, nil
	}
	return &s
}

// entityAspects maps attribute_entity aspects to predicates
var entityAspects = map[string]string{
	"born":    model.PredBorn,
	"died":    model.PredDied,
	"founded": model.PredFounded,
	"country": model.PredCountry,
	"field":   model.PredField,
}

func attributeEntity(s strategy) *strategy {
	s.typ = model.AttributeEntity
	s.aspects = []string{"born", "died", "founded", "country", "field"}

	// Only (entity, aspect) pairs backed by a fact are enumerated. Events
	// are covered by attribute_event.
	type instance struct{ id, aspect string }
	var instances []instance
	for _, e := range s.kb.Entities() {
		if e.Type == model.EntityEvent {
			continue
		}
		for _, aspect := range s.aspects {
			if _, ok := e.Fact(entityAspects[aspect]); ok {
				instances = append(instances, instance{e.ID, aspect})
			}
		}
	}
	s.space = int64(len(instances))

	s.pick = func(index int64, _ *rand.Rand) (model.Derivation, error) {
		in := instances[index]
		return model.Derivation{Aspect: in.aspect, EntityIDs: []string{in.id}}, nil
	}
	s.solve = func(d model.Derivation) (solution, error) {
		es, err := s.entities(d.EntityIDs, 1)
		if err != nil {
			return solution{}, err
		}
		e := es[0]
		pred, ok := entityAspects[d.Aspect]
		if !ok {
			return solution{}, unknownAspect(s.typ, d.Aspect)
		}
		var a answer.Answer
		switch pred {
		case model.PredCountry, model.PredField:
			a, err = answer.TextAttribute(e, pred)
		default:
			a, err = answer.DateAttribute(e, pred)
		}
		if err != nil {
			return solution{}, err
		}
		r, err := entitySpan(e)
		if err != nil {
			return solution{}, err
		}
		return solution{
			answer:   a,
			entities: []*model.Entity{e},
			slots:    map[string]string{"entity": e.Name},
			span:     r,
		}, nil
	}
	return &s
}

func attributeTime(s strategy) *strategy {
	s.typ = model.AttributeTime
	s.aspects = []string{"began_in_year"}

	// (domain, year) keys with exactly one event
	type key struct {
		domain string
		year   int
	}
	counts := make(map[key]int)
	for _, ev := range s.kb.Events() {
		counts[key{ev.Domain, ev.Start.Year}]++
	}
	var keys []key
	for k, n := range counts {
		if n == 1 && k.domain != "" {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].domain != keys[j].domain {
			return keys[i].domain < keys[j].domain
		}
		return keys[i].year < keys[j].year
	})
	s.space = int64(len(keys))

	s.pick = func(index int64, _ *rand.Rand) (model.Derivation, error) {
		k := keys[index]
		r := model.YearsRange(k.year, k.year, model.GranularityYear)
		return model.Derivation{Aspect: "began_in_year", Domain: k.domain, Range: &r, Granularity: model.GranularityYear}, nil
	}
	s.solve = func(d model.Derivation) (solution, error) {
		if d.Aspect != "began_in_year" {
			return solution{}, unknownAspect(s.typ, d.Aspect)
		}
		if d.Range == nil {
			return solution{}, errors.Mark(errors.New("attribute_time needs a year"), errors.ErrLookup)
		}
		year := d.Range.Start.Year
		a, err := answer.EventInYear(s.kb, d.Domain, year)
		if err != nil {
			return solution{}, err
		}
		e, err := s.kb.Entity(a.Facts[0].Subject)
		if err != nil {
			return solution{}, err
		}
		return solution{
			answer:   a,
			entities: []*model.Entity{e},
			slots:    map[string]string{"domain": d.Domain, "year": strconv.Itoa(year)},
			span:     *d.Range,
		}, nil
	}
	return &s
}
