package generate

import (
	"math/rand/v2"

	"github.com/ppiankov/chronoqa/internal/answer"
	"github.com/ppiankov/chronoqa/internal/errors"
	"github.com/ppiankov/chronoqa/internal/model"
)

func durationEstimation(s strategy) *strategy {
	s.typ = model.DurationEstimation
	s.aspects = []string{string(answer.UnitYears), string(answer.UnitMonths), string(answer.UnitDays)}
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
		unit := answer.Unit(d.Aspect)
		switch unit {
		case answer.UnitYears, answer.UnitMonths, answer.UnitDays:
		default:
			return solution{}, unknownAspect(s.typ, d.Aspect)
		}
		a, err := answer.Duration(ev, unit)
		if err != nil {
			return solution{}, err
		}
		return solution{
			answer:   a,
			entities: []*model.Entity{ev.Entity},
			slots:    map[string]string{"event": ev.Name},
			span:     ev.Range(),
			calc:     true,
		}, nil
	}
	return &s
}

func sequenceOrdering(s strategy) *strategy {
	s.typ = model.SequenceOrdering
	s.aspects = []string{"chronological"}
	events := s.kb.Events()
	s.space = Choose(len(events), 3)

	s.pick = func(index int64, rng *rand.Rand) (model.Derivation, error) {
		t := Unrank(index, len(events), 3)
		// the question lists the events in a drawn order, never pre-sorted
		ids := shuffled(rng, events[t[0]].ID, events[t[1]].ID, events[t[2]].ID)
		if ids[0] == events[t[0]].ID && ids[1] == events[t[1]].ID {
			ids[0], ids[2] = ids[2], ids[0]
		}
		return model.Derivation{Aspect: "chronological", EntityIDs: ids}, nil
	}
	s.solve = func(d model.Derivation) (solution, error) {
		if d.Aspect != "chronological" {
			return solution{}, unknownAspect(s.typ, d.Aspect)
		}
		evs, err := s.events(d.EntityIDs, 3)
		if err != nil {
			return solution{}, err
		}
		sorted, a, err := answer.Order(evs)
		if err != nil {
			return solution{}, err
		}
		if a.Approximate {
			return solution{}, errors.Mark(errors.New("events tie at their common precision"), errors.ErrIncomparable)
		}
		names := make([]string, len(evs))
		for i, ev := range evs {
			names[i] = ev.Name
		}
		return solution{
			answer:   a,
			entities: asEntities(sorted),
			slots:    map[string]string{"events": answer.JoinNames(names)},
			span:     eventSpan(evs...),
		}, nil
	}
	return &s
}

var clusterGranularity = map[string]model.Granularity{
	"same_decade":  model.GranularityDecade,
	"same_century": model.GranularityCentury,
}

func temporalClustering(s strategy) *strategy {
	s.typ = model.TemporalClustering
	s.aspects = []string{"same_decade", "same_century"}
	events := s.kb.Events()
	s.space = int64(len(events)) * int64(len(s.aspects))

	s.pick = func(index int64, _ *rand.Rand) (model.Derivation, error) {
		i, aspect := aspectAt(index, s.aspects)
		return model.Derivation{Aspect: aspect, EntityIDs: []string{events[i].ID}, Granularity: clusterGranularity[aspect]}, nil
	}
	s.solve = func(d model.Derivation) (solution, error) {
		g, ok := clusterGranularity[d.Aspect]
		if !ok {
			return solution{}, unknownAspect(s.typ, d.Aspect)
		}
		evs, err := s.events(d.EntityIDs, 1)
		if err != nil {
			return solution{}, err
		}
		anchor := evs[0]
		others, a, err := answer.SameBucket(s.kb, anchor, g)
		if err != nil {
			return solution{}, err
		}
		b, err := answer.BucketOf(anchor.Start.Year, g)
		if err != nil {
			return solution{}, err
		}
		return solution{
			answer:   a,
			entities: append([]*model.Entity{anchor.Entity}, asEntities(others)...),
			slots:    map[string]string{"event": anchor.Name},
			span:     b.Range(),
		}, nil
	}
	return &s
}

func multiGranular(s strategy) *strategy {
	s.typ = model.MultiGranular
	s.aspects = []string{"decade_began", "century_began", "century_ended"}
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
		g, useEnd := model.GranularityCentury, false
		switch d.Aspect {
		case "decade_began":
			g = model.GranularityDecade
		case "century_began":
		case "century_ended":
			if !distinctEnd(ev) {
				return solution{}, errors.Mark(errors.Newf("%s has no distinct end", ev.ID), errors.ErrInsufficientData)
			}
			useEnd = true
		default:
			return solution{}, unknownAspect(s.typ, d.Aspect)
		}
		a, err := answer.BucketName(ev, g, useEnd)
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

func temporalOverlap(s strategy) *strategy {
	s.typ = model.TemporalOverlap
	s.aspects = []string{"overlap"}
	events := s.kb.Events()
	s.space = Choose(len(events), 2)

	s.pick = func(index int64, rng *rand.Rand) (model.Derivation, error) {
		return model.Derivation{Aspect: "overlap", EntityIDs: eventPair(events, index, rng)}, nil
	}
	s.solve = func(d model.Derivation) (solution, error) {
		if d.Aspect != "overlap" {
			return solution{}, unknownAspect(s.typ, d.Aspect)
		}
		evs, err := s.events(d.EntityIDs, 2)
		if err != nil {
			return solution{}, err
		}
		a, err := answer.Overlap(evs[0], evs[1])
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
