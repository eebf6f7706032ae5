package kb

import (
	"sort"

	"github.com/ppiankov/chronoqa/internal/errors"
	"github.com/ppiankov/chronoqa/internal/model"
)

// EventsInRange returns events whose start falls inside r, ordered by start
// date with ties broken by id
func (k *KnowledgeBase) EventsInRange(r model.TemporalRange) []*model.Event {
	lo, hi := r.Start.Key(), r.End.UpperKey()
	i := sort.Search(len(k.events), func(i int) bool { return k.events[i].Start.Key() >= lo })
	j := sort.Search(len(k.events), func(i int) bool { return k.events[i].Start.Key() > hi })
	if i >= j {
		return nil
	}
	return clone(k.events[i:j])
}

// EventsActiveIn returns events whose interval intersects r. Open-ended
// events are treated as ongoing.
func (k *KnowledgeBase) EventsActiveIn(r model.TemporalRange) []*model.Event {
	hi := r.End.UpperKey()
	j := sort.Search(len(k.events), func(i int) bool { return k.events[i].Start.Key() > hi })
	var out []*model.Event
	for _, ev := range k.events[:j] {
		if ev.ActiveRange().Overlaps(r) {
			out = append(out, ev)
		}
	}
	return out
}

// DatedFactsInRange returns facts with the given date predicate whose date
// starts inside r, ordered by date with ties broken by subject
func (k *KnowledgeBase) DatedFactsInRange(predicate string, r model.TemporalRange) []model.Fact {
	list := k.dated[predicate]
	lo, hi := r.Start.Key(), r.End.UpperKey()
	i := sort.Search(len(list), func(i int) bool { return list[i].Date.Key() >= lo })
	j := sort.Search(len(list), func(i int) bool { return list[i].Date.Key() > hi })
	if i >= j {
		return nil
	}
	return clone(list[i:j])
}

// DatedFacts returns every fact with the given date predicate, by date
func (k *KnowledgeBase) DatedFacts(predicate string) []model.Fact {
	return clone(k.dated[predicate])
}

// EntitiesByDomain returns entities tagged with domain, ordered by id
func (k *KnowledgeBase) EntitiesByDomain(domain string) []*model.Entity {
	return clone(k.byDomain[domain])
}

// EntitiesByCountry returns entities associated with country, ordered by id
func (k *KnowledgeBase) EntitiesByCountry(country string) []*model.Entity {
	return clone(k.byCountry[country])
}

// EntitiesByType returns entities of type t, ordered by id
func (k *KnowledgeBase) EntitiesByType(t model.EntityType) []*model.Entity {
	return clone(k.byType[t])
}

// RelatedFacts returns the facts whose subject is id, in canonical order
func (k *KnowledgeBase) RelatedFacts(id string) ([]model.Fact, error) {
	if _, ok := k.entities[id]; !ok {
		return nil, errors.Mark(errors.Newf("entity %q not found", id), errors.ErrLookup)
	}
	return clone(k.bySubject[id]), nil
}

// Relations returns every entity-valued edge with the given predicate,
// ordered by subject then object
func (k *KnowledgeBase) Relations(predicate string) []model.Fact {
	return clone(k.relations[predicate])
}

// Outgoing returns edges with the given predicate leaving id
func (k *KnowledgeBase) Outgoing(id, predicate string) []model.Fact {
	var out []model.Fact
	for _, f := range k.bySubject[id] {
		if f.Predicate == predicate && f.Kind == model.ObjectEntity {
			out = append(out, f)
		}
	}
	return out
}

// Incoming returns edges with the given predicate ending at id, ordered by subject
func (k *KnowledgeBase) Incoming(id, predicate string) []model.Fact {
	var out []model.Fact
	for _, f := range k.relations[predicate] {
		if f.Object == id {
			out = append(out, f)
		}
	}
	return out
}

// Relation returns the edge subject -predicate-> object if present
func (k *KnowledgeBase) Relation(subject, predicate, object string) (model.Fact, bool) {
	for _, f := range k.bySubject[subject] {
		if f.Predicate == predicate && f.Object == object && f.Kind == model.ObjectEntity {
			return f, true
		}
	}
	return model.Fact{}, false
}
