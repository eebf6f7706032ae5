// Package generate enumerates question candidates. Each of the 16 question
// types has one Strategy that maps an instance index to its parameters,
// derives the answer from knowledge base facts and renders the question.
package generate

import (
	"math/rand/v2"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/ppiankov/chronoqa/internal/answer"
	"github.com/ppiankov/chronoqa/internal/errors"
	"github.com/ppiankov/chronoqa/internal/kb"
	"github.com/ppiankov/chronoqa/internal/model"
	"github.com/ppiankov/chronoqa/internal/templates"
)

// Strategy generates the candidates of one question type
type Strategy interface {
	// Type returns the question type
	Type() model.QuestionType
	// Aspects lists every aspect the strategy can emit
	Aspects() []string
	// Space is the number of enumerable instances
	Space() int64
	// Generate builds the candidate at index in [0, Space)
	Generate(index int64) (*model.Candidate, error)
	// Derive recomputes the answer from the derivation alone
	Derive(d model.Derivation) (answer.Answer, error)
}

// Classifier maps a fact's source label to a provenance tier
type Classifier interface {
	Classify(label string) model.SourceType
}

// solution is everything a strategy derives for one parameter set
type solution struct {
	answer   answer.Answer
	entities []*model.Entity // referenced entities, parameters first
	slots    map[string]string
	span     model.TemporalRange
	calc     bool // answer needs arithmetic over dates or counts
}

// strategy is the shared implementation; each question type supplies its
// aspects, space, parameter picker and solver
type strategy struct {
	typ      model.QuestionType
	aspects  []string
	space    int64
	pick     func(index int64, rng *rand.Rand) (model.Derivation, error)
	solve    func(d model.Derivation) (solution, error)
	kb       *kb.KnowledgeBase
	catalog  *templates.Catalog
	classify Classifier
	seed     uint64
}

func (s *strategy) Type() model.QuestionType { return s.typ }
func (s *strategy) Aspects() []string        { return append([]string(nil), s.aspects...) }
func (s *strategy) Space() int64             { return s.space }

// rng returns the generator for one instance, seeded on (seed, type, index)
func (s *strategy) rng(index int64) *rand.Rand {
	return rand.New(rand.NewPCG(s.seed, hashType(s.typ)^uint64(index)))
}

func hashType(t model.QuestionType) uint64 {
	return xxhash.Sum64String(string(t))
}

func (s *strategy) Generate(index int64) (*model.Candidate, error) {
	if index < 0 || index >= s.space {
		return nil, errors.Mark(errors.Newf("%s: index %d outside space of %d", s.typ, index, s.space), errors.ErrInsufficientData)
	}
	rng := s.rng(index)
	d, err := s.pick(index, rng)
	if err != nil {
		return nil, errors.Wrapf(err, "%s[%d]", s.typ, index)
	}
	sol, err := s.solve(d)
	if err != nil {
		return nil, errors.Wrapf(err, "%s[%d]", s.typ, index)
	}
	question, err := s.catalog.Render(s.typ, d.Aspect, rng.IntN(1<<16), sol.slots)
	if err != nil {
		return nil, err
	}

	c := &model.Candidate{
		Type:                s.typ,
		Aspect:              d.Aspect,
		Question:            question,
		Answer:              sol.answer.Text,
		HopCount:            max(sol.answer.Hops(), 1),
		Range:               sol.span,
		RequiresCalculation: sol.calc,
		Approximate:         sol.answer.Approximate,
		Facts:               sol.answer.Facts,
		Derivation:          d,
		Index:               index,
	}
	seen := make(map[string]bool)
	countries := make(map[string]bool)
	for _, e := range sol.entities {
		if seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		c.EntityIDs = append(c.EntityIDs, e.ID)
		c.EntityNames = append(c.EntityNames, e.Name)
		for _, country := range e.Countries {
			countries[country] = true
		}
	}
	for country := range countries {
		c.Countries = append(c.Countries, country)
	}
	sort.Strings(c.Countries)
	c.Domain = domainOf(d, sol.entities)
	c.Source = s.source(sol.answer.Facts)
	return c, nil
}

func (s *strategy) Derive(d model.Derivation) (answer.Answer, error) {
	sol, err := s.solve(d)
	if err != nil {
		return answer.Answer{}, err
	}
	return sol.answer, nil
}

// source is the weakest provenance tier among the consulted facts
func (s *strategy) source(facts []model.Fact) model.SourceType {
	out := model.SourceCurated
	for _, f := range facts {
		out = model.WeakerSource(out, s.classifyLabel(f.Source))
	}
	return out
}

func (s *strategy) classifyLabel(label string) model.SourceType {
	if s.classify != nil {
		return s.classify.Classify(label)
	}
	switch t := model.SourceType(strings.ToLower(label)); t {
	case model.SourceCurated, model.SourceGenerated:
		return t
	default:
		return model.SourceTemplate
	}
}

// domainOf is the derivation's domain if it names one, else the sorted
// distinct domains of the referenced entities joined by "+"
func domainOf(d model.Derivation, entities []*model.Entity) string {
	if d.Domain != "" {
		return d.Domain
	}
	set := make(map[string]bool)
	for _, e := range entities {
		if e.Domain != "" {
			set[e.Domain] = true
		}
	}
	out := make([]string, 0, len(set))
	for dom := range set {
		out = append(out, dom)
	}
	sort.Strings(out)
	return strings.Join(out, "+")
}

// span covers the earliest and latest of the given dates
func span(dates ...model.Date) model.TemporalRange {
	lo, hi := dates[0], dates[0]
	for _, d := range dates[1:] {
		if d.Key() < lo.Key() {
			lo = d
		}
		if d.UpperKey() > hi.UpperKey() {
			hi = d
		}
	}
	return model.NewRange(lo, hi)
}

// eventSpan covers the events from the earliest start to the latest known end
func eventSpan(events ...*model.Event) model.TemporalRange {
	var dates []model.Date
	for _, ev := range events {
		dates = append(dates, ev.Start)
		if ev.End != nil {
			dates = append(dates, *ev.End)
		}
	}
	return span(dates...)
}

// endPredicates date the end of an entity's existence
var endPredicates = []string{model.PredEnded, model.PredDied, model.PredDissolved}

// lifespan returns the dated facts bounding an entity
func lifespan(e *model.Entity) []model.Date {
	start, ok := answer.StartOf(e)
	if !ok {
		return nil
	}
	dates := []model.Date{start.Date}
	for _, p := range endPredicates {
		if f, ok := e.Fact(p); ok && f.Kind == model.ObjectDate {
			dates = append(dates, f.Date)
		}
	}
	return dates
}

// entitySpan covers the lifespans of the given entities. Entities without a
// start date are skipped; if none has one the candidate cannot be placed in time.
func entitySpan(entities ...*model.Entity) (model.TemporalRange, error) {
	var dates []model.Date
	for _, e := range entities {
		dates = append(dates, lifespan(e)...)
	}
	if len(dates) == 0 {
		return model.TemporalRange{}, errors.Mark(errors.New("no dated entity to anchor the range"), errors.ErrInsufficientData)
	}
	return span(dates...), nil
}

// distinctEnd reports whether an event ended on a different date than it began
func distinctEnd(ev *model.Event) bool {
	return ev.End != nil && *ev.End != ev.Start
}

// shuffled returns ids in an order drawn from rng
func shuffled(rng *rand.Rand, ids ...string) []string {
	out := append([]string(nil), ids...)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// events resolves event ids
func (s *strategy) events(ids []string, want int) ([]*model.Event, error) {
	if len(ids) != want {
		return nil, errors.Mark(errors.Newf("%s needs %d entity ids, got %d", s.typ, want, len(ids)), errors.ErrLookup)
	}
	out := make([]*model.Event, len(ids))
	for i, id := range ids {
		ev, err := s.kb.Event(id)
		if err != nil {
			return nil, err
		}
		out[i] = ev
	}
	return out, nil
}

// entities resolves entity ids
func (s *strategy) entities(ids []string, want int) ([]*model.Entity, error) {
	if len(ids) != want {
		return nil, errors.Mark(errors.Newf("%s needs %d entity ids, got %d", s.typ, want, len(ids)), errors.ErrLookup)
	}
	out := make([]*model.Entity, len(ids))
	for i, id := range ids {
		e, err := s.kb.Entity(id)
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

func asEntities(events []*model.Event) []*model.Entity {
	out := make([]*model.Entity, len(events))
	for i, ev := range events {
		out[i] = ev.Entity
	}
	return out
}

func ids(events []*model.Event) []string {
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.ID
	}
	return out
}

// aspectAt splits an index into an item position and one of n aspects
func aspectAt(index int64, aspects []string) (int64, string) {
	n := int64(len(aspects))
	return index / n, aspects[index%n]
}

// unknownAspect is returned by solvers handed a derivation they cannot own
func unknownAspect(t model.QuestionType, aspect string) error {
	return errors.Mark(errors.Newf("%s has no aspect %q", t, aspect), errors.ErrLookup)
}
