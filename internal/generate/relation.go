package generate

import (
	"math/rand/v2"
	"sort"
	"strconv"

	"github.com/ppiankov/chronoqa/internal/answer"
	"github.com/ppiankov/chronoqa/internal/errors"
	"github.com/ppiankov/chronoqa/internal/model"
)

func causalReasoning(s strategy) *strategy {
	s.typ = model.CausalReasoning
	s.aspects = []string{"effect_of", "cause_of"}
	edges := s.kb.Relations(model.PredCaused)
	s.space = int64(len(edges)) * int64(len(s.aspects))

	s.pick = func(index int64, _ *rand.Rand) (model.Derivation, error) {
		i, aspect := aspectAt(index, s.aspects)
		subject := edges[i].Subject
		if aspect == "cause_of" {
			subject = edges[i].Object
		}
		return model.Derivation{Aspect: aspect, EntityIDs: []string{subject}, Predicate: model.PredCaused}, nil
	}
	s.solve = func(d model.Derivation) (solution, error) {
		es, err := s.entities(d.EntityIDs, 1)
		if err != nil {
			return solution{}, err
		}
		subject := es[0]
		var related []*model.Entity
		var a answer.Answer
		switch d.Aspect {
		case "effect_of":
			related, a, err = answer.Effects(s.kb, subject.ID)
		case "cause_of":
			related, a, err = answer.Causes(s.kb, subject.ID)
		default:
			return solution{}, unknownAspect(s.typ, d.Aspect)
		}
		if err != nil {
			return solution{}, err
		}
		all := append([]*model.Entity{subject}, related...)
		r, err := entitySpan(all...)
		if err != nil {
			return solution{}, err
		}
		return solution{
			answer:   a,
			entities: all,
			slots:    map[string]string{"subject": subject.Name},
			span:     r,
		}, nil
	}
	return &s
}

func crossDomain(s strategy) *strategy {
	s.typ = model.CrossDomain
	s.aspects = []string{"influenced"}

	// distinct (subject, target domain) pairs whose domains differ
	type instance struct{ subject, domain string }
	var instances []instance
	seen := make(map[instance]bool)
	for _, f := range s.kb.Relations(model.PredInfluenced) {
		src, err := s.kb.Entity(f.Subject)
		if err != nil {
			continue
		}
		dst, err := s.kb.Entity(f.Object)
		if err != nil || dst.Domain == "" || dst.Domain == src.Domain {
			continue
		}
		in := instance{src.ID, dst.Domain}
		if !seen[in] {
			seen[in] = true
			instances = append(instances, in)
		}
	}
	s.space = int64(len(instances))

	s.pick = func(index int64, _ *rand.Rand) (model.Derivation, error) {
		in := instances[index]
		return model.Derivation{Aspect: "influenced", EntityIDs: []string{in.subject}, Domain: in.domain, Predicate: model.PredInfluenced}, nil
	}
	s.solve = func(d model.Derivation) (solution, error) {
		if d.Aspect != "influenced" {
			return solution{}, unknownAspect(s.typ, d.Aspect)
		}
		es, err := s.entities(d.EntityIDs, 1)
		if err != nil {
			return solution{}, err
		}
		subject := es[0]
		related, a, err := answer.InfluencedIn(s.kb, subject.ID, d.Domain)
		if err != nil {
			return solution{}, err
		}
		all := append([]*model.Entity{subject}, related...)
		r, err := entitySpan(all...)
		if err != nil {
			return solution{}, err
		}
		return solution{
			answer:   a,
			entities: all,
			slots:    map[string]string{"domain": d.Domain, "subject": subject.Name},
			span:     r,
		}, nil
	}
	return &s
}

func counterfactual(s strategy) *strategy {
	s.typ = model.Counterfactual
	s.aspects = []string{"direct", "chained"}

	// direct: every caused edge; chained: distinct (cause, effect) pairs
	// joined by a two-edge causal path
	direct := s.kb.Relations(model.PredCaused)
	type path struct{ cause, effect string }
	var chains []path
	seen := make(map[path]bool)
	for _, first := range direct {
		for _, second := range s.kb.Outgoing(first.Object, model.PredCaused) {
			p := path{first.Subject, second.Object}
			if p.cause == p.effect || seen[p] {
				continue
			}
			seen[p] = true
			chains = append(chains, p)
		}
	}
	sort.Slice(chains, func(i, j int) bool {
		if chains[i].cause != chains[j].cause {
			return chains[i].cause < chains[j].cause
		}
		return chains[i].effect < chains[j].effect
	})
	nDirect := int64(len(direct))
	s.space = nDirect + int64(len(chains))

	s.pick = func(index int64, _ *rand.Rand) (model.Derivation, error) {
		if index < nDirect {
			f := direct[index]
			return model.Derivation{Aspect: "direct", EntityIDs: []string{f.Subject, f.Object}, Predicate: model.PredCaused}, nil
		}
		p := chains[index-nDirect]
		return model.Derivation{Aspect: "chained", EntityIDs: []string{p.cause, p.effect}, Predicate: model.PredCaused}, nil
	}
	s.solve = func(d model.Derivation) (solution, error) {
		es, err := s.entities(d.EntityIDs, 2)
		if err != nil {
			return solution{}, err
		}
		cause, effect := es[0], es[1]
		var a answer.Answer
		var related []*model.Entity
		slots := map[string]string{"cause": cause.Name}
		switch d.Aspect {
		case "direct":
			start, ok := answer.StartOf(effect)
			if !ok {
				return solution{}, errors.Mark(errors.Newf("%s has no start date", effect.ID), errors.ErrInsufficientData)
			}
			slots["year"] = strconv.Itoa(start.Date.Year)
			// every effect named by the answer, so one (cause, year) question
			// fingerprints the same from any of its effects
			related, a, err = answer.Prevented(s.kb, cause, effect)
		case "chained":
			slots["effect"] = effect.Name
			var mids []*model.Entity
			mids, a, err = answer.Intermediates(s.kb, cause, effect)
			related = append([]*model.Entity{effect}, mids...)
		default:
			return solution{}, unknownAspect(s.typ, d.Aspect)
		}
		if err != nil {
			return solution{}, err
		}
		all := append([]*model.Entity{cause}, related...)
		r, err := entitySpan(all...)
		if err != nil {
			return solution{}, err
		}
		return solution{
			answer:   a,
			entities: all,
			slots:    slots,
			span:     r,
		}, nil
	}
	return &s
}
