package generate

import (
	"github.com/ppiankov/chronoqa/internal/errors"
	"github.com/ppiankov/chronoqa/internal/kb"
	"github.com/ppiankov/chronoqa/internal/model"
	"github.com/ppiankov/chronoqa/internal/templates"
)

// constructors is the closed set of strategies, one per question type
var constructors = map[model.QuestionType]func(strategy) *strategy{
	model.AttributeEvent:     attributeEvent,
	model.AttributeEntity:    attributeEntity,
	model.AttributeTime:      attributeTime,
	model.ComparisonEvent:    comparisonEvent,
	model.ComparisonEntity:   comparisonEntity,
	model.ComparisonTime:     comparisonTime,
	model.CountingEvent:      countingEvent,
	model.CountingEntity:     countingEntity,
	model.CausalReasoning:    causalReasoning,
	model.DurationEstimation: durationEstimation,
	model.SequenceOrdering:   sequenceOrdering,
	model.CrossDomain:        crossDomain,
	model.TemporalClustering: temporalClustering,
	model.MultiGranular:      multiGranular,
	model.Counterfactual:     counterfactual,
	model.TemporalOverlap:    temporalOverlap,
}

// Options configures the registry
type Options struct {
	Seed       int64
	Classifier Classifier // nil reads source labels as tier names
}

// Registry holds one strategy per question type, built once
type Registry struct {
	strategies map[model.QuestionType]Strategy
	seed       int64
}

// NewRegistry builds every strategy over k and verifies that the catalog
// covers every aspect they can emit. A gap in the catalog is fatal.
func NewRegistry(k *kb.KnowledgeBase, catalog *templates.Catalog, opts Options) (*Registry, error) {
	if k == nil || catalog == nil {
		return nil, errors.Mark(errors.New("registry needs a knowledge base and a template catalog"), errors.ErrConfig)
	}
	r := &Registry{strategies: make(map[model.QuestionType]Strategy, len(constructors)), seed: opts.Seed}
	for _, t := range model.AllQuestionTypes() {
		base := strategy{
			kb:       k,
			catalog:  catalog,
			classify: opts.Classifier,
			seed:     uint64(opts.Seed),
		}
		r.strategies[t] = constructors[t](base)
	}
	if err := catalog.Check(r.Required()); err != nil {
		return nil, err
	}
	return r, nil
}

// Strategy returns the strategy of t
func (r *Registry) Strategy(t model.QuestionType) (Strategy, error) {
	s, ok := r.strategies[t]
	if !ok {
		return nil, errors.Mark(errors.Newf("no strategy for %q", t), errors.ErrConfig)
	}
	return s, nil
}

// Required lists the aspects each strategy can emit
func (r *Registry) Required() map[model.QuestionType][]string {
	out := make(map[model.QuestionType][]string, len(r.strategies))
	for t, s := range r.strategies {
		out[t] = s.Aspects()
	}
	return out
}

// Permutation returns the enumeration order of t's instance space. It
// depends only on the seed and the space size.
func (r *Registry) Permutation(t model.QuestionType) (Permutation, error) {
	s, err := r.Strategy(t)
	if err != nil {
		return Permutation{}, err
	}
	return NewPermutation(s.Space(), uint64(r.seed)^hashType(t)), nil
}

// Spaces reports the instance space size per type
func (r *Registry) Spaces() map[model.QuestionType]int64 {
	out := make(map[model.QuestionType]int64, len(r.strategies))
	for t, s := range r.strategies {
		out[t] = s.Space()
	}
	return out
}
