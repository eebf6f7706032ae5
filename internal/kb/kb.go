// Package kb holds the read-only knowledge base and its derived indices.
package kb

import (
	"sort"

	"github.com/ppiankov/chronoqa/internal/errors"
	"github.com/ppiankov/chronoqa/internal/model"
)

// KnowledgeBase owns entities, events and facts for the process lifetime.
// It is immutable after Load and safe for concurrent readers without locking.
type KnowledgeBase struct {
	entities  map[string]*model.Entity
	ordered   []*model.Entity // by id
	events    []*model.Event  // by start, ties by id
	eventByID map[string]*model.Event

	byDomain  map[string][]*model.Entity
	byCountry map[string][]*model.Entity
	byType    map[model.EntityType][]*model.Entity

	facts     []model.Fact            // all facts, canonical order
	bySubject map[string][]model.Fact // subject -> facts
	dated     map[string][]model.Fact // predicate -> date facts by date, ties by subject
	relations map[string][]model.Fact // predicate -> entity edges by subject, object

	domains   []string
	countries []string
}

// Load builds a knowledge base from an entity catalog and fact records.
// The result does not depend on the order of either input.
func Load(entities []model.Entity, facts []model.Fact) (*KnowledgeBase, error) {
	k := &KnowledgeBase{
		entities:  make(map[string]*model.Entity, len(entities)),
		eventByID: make(map[string]*model.Event),
		byDomain:  make(map[string][]*model.Entity),
		byCountry: make(map[string][]*model.Entity),
		byType:    make(map[model.EntityType][]*model.Entity),
		bySubject: make(map[string][]model.Fact),
		dated:     make(map[string][]model.Fact),
		relations: make(map[string][]model.Fact),
	}

	for i := range entities {
		e := entities[i]
		if e.ID == "" {
			return nil, errors.Mark(errors.Newf("entity %d has no id", i), errors.ErrConfig)
		}
		if !e.Type.Valid() {
			return nil, errors.Mark(errors.Newf("entity %q has unknown type %q", e.ID, e.Type), errors.ErrConfig)
		}
		if _, dup := k.entities[e.ID]; dup {
			return nil, errors.Mark(errors.Newf("duplicate entity id %q", e.ID), errors.ErrConfig)
		}
		if e.Name == "" {
			e.Name = e.ID
		}
		e.Facts = nil
		e.Countries = append([]string(nil), e.Countries...)
		k.entities[e.ID] = &e
	}

	normalized := make([]model.Fact, 0, len(facts))
	for _, f := range facts {
		nf, err := k.normalizeFact(f)
		if err != nil {
			return nil, err
		}
		normalized = append(normalized, nf)
	}
	sort.Slice(normalized, func(i, j int) bool { return factLess(normalized[i], normalized[j]) })
	k.facts = normalized

	for _, f := range k.facts {
		k.bySubject[f.Subject] = append(k.bySubject[f.Subject], f)
		switch f.Kind {
		case model.ObjectDate:
			k.dated[f.Predicate] = append(k.dated[f.Predicate], f)
		case model.ObjectEntity:
			k.relations[f.Predicate] = append(k.relations[f.Predicate], f)
		}
	}
	for p := range k.dated {
		list := k.dated[p]
		sort.SliceStable(list, func(i, j int) bool {
			a, b := list[i].Date.Key(), list[j].Date.Key()
			if a != b {
				return a < b
			}
			return list[i].Subject < list[j].Subject
		})
	}

	if err := k.buildEntities(); err != nil {
		return nil, err
	}
	if err := k.buildEvents(); err != nil {
		return nil, err
	}
	return k, nil
}

func (k *KnowledgeBase) normalizeFact(f model.Fact) (model.Fact, error) {
	if _, ok := k.entities[f.Subject]; !ok {
		return f, errors.Mark(errors.Newf("fact %s: subject %q not found", f, f.Subject), errors.ErrLookup)
	}
	if f.Predicate == "" {
		return f, errors.Mark(errors.Newf("fact %s has no predicate", f), errors.ErrConfig)
	}
	if f.Kind == "" {
		f.Kind = defaultKind(f.Predicate)
	}
	switch f.Kind {
	case model.ObjectDate:
		d, err := model.ParseDate(f.Object)
		if err != nil {
			return f, errors.Mark(errors.Wrapf(err, "fact %s", f), errors.ErrConfig)
		}
		f.Date = d
		f.Object = d.String()
	case model.ObjectEntity:
		if _, ok := k.entities[f.Object]; !ok {
			return f, errors.Mark(errors.Newf("fact %s: object %q not found", f, f.Object), errors.ErrLookup)
		}
	case model.ObjectScalar:
		if _, err := f.Scalar(); err != nil {
			return f, errors.Mark(errors.Wrapf(err, "fact %s", f), errors.ErrConfig)
		}
	case model.ObjectText:
	default:
		return f, errors.Mark(errors.Newf("fact %s has unknown kind %q", f, f.Kind), errors.ErrConfig)
	}
	if f.Confidence == 0 {
		f.Confidence = 1
	}
	if f.Confidence < 0 || f.Confidence > 1 {
		return f, errors.Mark(errors.Newf("fact %s confidence %.2f out of [0, 1]", f, f.Confidence), errors.ErrConfig)
	}
	if f.Domain == "" {
		f.Domain = k.entities[f.Subject].Domain
	}
	return f, nil
}

func (k *KnowledgeBase) buildEntities() error {
	domains := make(map[string]bool)
	countries := make(map[string]bool)

	for _, e := range k.entities {
		e.Facts = k.bySubject[e.ID]

		set := make(map[string]bool)
		for _, c := range e.Countries {
			set[c] = true
		}
		for _, f := range e.Facts {
			if f.Predicate == model.PredCountry {
				set[f.Object] = true
			}
			if f.Country != "" {
				set[f.Country] = true
			}
		}
		e.Countries = sortedKeys(set)

		k.ordered = append(k.ordered, e)
	}
	sort.Slice(k.ordered, func(i, j int) bool { return k.ordered[i].ID < k.ordered[j].ID })

	for _, e := range k.ordered {
		k.byType[e.Type] = append(k.byType[e.Type], e)
		if e.Domain != "" {
			k.byDomain[e.Domain] = append(k.byDomain[e.Domain], e)
			domains[e.Domain] = true
		}
		for _, c := range e.Countries {
			k.byCountry[c] = append(k.byCountry[c], e)
			countries[c] = true
		}
	}
	k.domains = sortedKeys(domains)
	k.countries = sortedKeys(countries)
	return nil
}

func (k *KnowledgeBase) buildEvents() error {
	for _, e := range k.byType[model.EntityEvent] {
		start, ok := e.Fact(model.PredBegan)
		if !ok || start.Kind != model.ObjectDate {
			return errors.Mark(errors.Newf("event %q has no start date", e.ID), errors.ErrConfig)
		}
		ev := &model.Event{Entity: e, Start: start.Date, StartFact: start}
		if end, ok := e.Fact(model.PredEnded); ok && end.Kind == model.ObjectDate {
			if end.Date.UpperKey() < start.Date.Key() {
				return errors.Mark(errors.Newf("event %q ends %s before it starts %s", e.ID, end.Date, start.Date), errors.ErrConfig)
			}
			endDate := end.Date
			endFact := end
			ev.End = &endDate
			ev.EndFact = &endFact
		}
		k.events = append(k.events, ev)
		k.eventByID[e.ID] = ev
	}
	sort.Slice(k.events, func(i, j int) bool { return eventLess(k.events[i], k.events[j]) })
	return nil
}

// Entity returns the entity with the given id
func (k *KnowledgeBase) Entity(id string) (*model.Entity, error) {
	e, ok := k.entities[id]
	if !ok {
		return nil, errors.Mark(errors.Newf("entity %q not found", id), errors.ErrLookup)
	}
	return e, nil
}

// Event returns the event with the given id
func (k *KnowledgeBase) Event(id string) (*model.Event, error) {
	ev, ok := k.eventByID[id]
	if !ok {
		return nil, errors.Mark(errors.Newf("event %q not found", id), errors.ErrLookup)
	}
	return ev, nil
}

// Has reports whether id resolves to an entity
func (k *KnowledgeBase) Has(id string) bool {
	_, ok := k.entities[id]
	return ok
}

// Entities returns all entities ordered by id
func (k *KnowledgeBase) Entities() []*model.Entity {
	return clone(k.ordered)
}

// Events returns all events ordered by start date, ties by id
func (k *KnowledgeBase) Events() []*model.Event {
	return clone(k.events)
}

// Facts returns all facts in canonical order
func (k *KnowledgeBase) Facts() []model.Fact {
	return clone(k.facts)
}

// Domains returns the distinct entity domains, sorted
func (k *KnowledgeBase) Domains() []string {
	return clone(k.domains)
}

// Countries returns the distinct country tags, sorted
func (k *KnowledgeBase) Countries() []string {
	return clone(k.countries)
}

// Stats summarizes the knowledge base contents
type Stats struct {
	Entities  int            `json:"entities" yaml:"entities"`
	Events    int            `json:"events" yaml:"events"`
	OpenEnded int            `json:"open_ended" yaml:"open_ended"`
	Facts     int            `json:"facts" yaml:"facts"`
	ByType    map[string]int `json:"by_type" yaml:"by_type"`
	ByDomain  map[string]int `json:"by_domain" yaml:"by_domain"`
	Relations map[string]int `json:"relations" yaml:"relations"`
	Countries int            `json:"countries" yaml:"countries"`
	Earliest  string         `json:"earliest,omitempty" yaml:"earliest,omitempty"`
	Latest    string         `json:"latest,omitempty" yaml:"latest,omitempty"`
}

// Stats computes summary counts
func (k *KnowledgeBase) Stats() Stats {
	s := Stats{
		Entities:  len(k.ordered),
		Events:    len(k.events),
		Facts:     len(k.facts),
		ByType:    make(map[string]int),
		ByDomain:  make(map[string]int),
		Relations: make(map[string]int),
		Countries: len(k.countries),
	}
	for t, list := range k.byType {
		s.ByType[string(t)] = len(list)
	}
	for d, list := range k.byDomain {
		s.ByDomain[d] = len(list)
	}
	for p, list := range k.relations {
		s.Relations[p] = len(list)
	}
	for _, ev := range k.events {
		if ev.OpenEnded() {
			s.OpenEnded++
		}
	}
	if len(k.events) > 0 {
		s.Earliest = k.events[0].Start.String()
		s.Latest = k.events[len(k.events)-1].Start.String()
	}
	return s
}

func defaultKind(predicate string) model.ObjectKind {
	switch predicate {
	case model.PredBegan, model.PredEnded, model.PredBorn, model.PredDied,
		model.PredFounded, model.PredDissolved:
		return model.ObjectDate
	case model.PredCaused, model.PredInfluenced:
		return model.ObjectEntity
	case model.PredCasualties:
		return model.ObjectScalar
	default:
		return model.ObjectText
	}
}

func factLess(a, b model.Fact) bool {
	if a.Subject != b.Subject {
		return a.Subject < b.Subject
	}
	if a.Predicate != b.Predicate {
		return a.Predicate < b.Predicate
	}
	if a.Object != b.Object {
		return a.Object < b.Object
	}
	if a.Source != b.Source {
		return a.Source < b.Source
	}
	return a.Confidence > b.Confidence
}

func eventLess(a, b *model.Event) bool {
	ak, bk := a.Start.Key(), b.Start.Key()
	if ak != bk {
		return ak < bk
	}
	return a.ID < b.ID
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func clone[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}
