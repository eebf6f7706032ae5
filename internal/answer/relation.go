package answer

import (
	"sort"

	"github.com/ppiankov/chronoqa/internal/errors"
	"github.com/ppiankov/chronoqa/internal/model"
)

// Effects returns every entity that id caused, ordered by id
func Effects(idx Index, id string) ([]*model.Entity, Answer, error) {
	return follow(idx, idx.Outgoing(id, model.PredCaused), false, "")
}

// Causes returns every entity that caused id, ordered by id
func Causes(idx Index, id string) ([]*model.Entity, Answer, error) {
	return follow(idx, idx.Incoming(id, model.PredCaused), true, "")
}

// InfluencedIn returns the entities of another domain that id influenced
func InfluencedIn(idx Index, id, domain string) ([]*model.Entity, Answer, error) {
	src, err := idx.Entity(id)
	if err != nil {
		return nil, Answer{}, err
	}
	if src.Domain == domain {
		return nil, Answer{}, errors.Mark(errors.Newf("%s is already in domain %s", id, domain), errors.ErrIncomparable)
	}
	return follow(idx, idx.Outgoing(id, model.PredInfluenced), false, domain)
}

// follow resolves the far end of each edge; reverse reads the subject
// instead of the object. A non-empty domain filters the far ends.
func follow(idx Index, edges []model.Fact, reverse bool, domain string) ([]*model.Entity, Answer, error) {
	var out []*model.Entity
	var facts []model.Fact
	for _, f := range edges {
		id := f.Object
		if reverse {
			id = f.Subject
		}
		e, err := idx.Entity(id)
		if err != nil {
			return nil, Answer{}, err
		}
		if domain != "" && e.Domain != domain {
			continue
		}
		out = append(out, e)
		facts = append(facts, f)
	}
	if len(out) == 0 {
		return nil, Answer{}, errors.Mark(errors.New("no relation between the sampled entities"), errors.ErrIncomparable)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, Answer{Text: JoinNames(names(out)), Facts: dedupFacts(facts)}, nil
}

// Prevented answers a direct counterfactual: had cause not happened, which of
// its effects that began in the same year as effect would not have followed.
// The effect must be a direct consequence of cause. The returned entities are
// the effects named by the answer, ordered by id.
func Prevented(idx Index, cause, effect *model.Entity) ([]*model.Entity, Answer, error) {
	edge, ok := idx.Relation(cause.ID, model.PredCaused, effect.ID)
	if !ok {
		return nil, Answer{}, errors.Mark(errors.Newf("%s did not cause %s", cause.ID, effect.ID), errors.ErrIncomparable)
	}
	anchor, ok := StartOf(effect)
	if !ok {
		return nil, Answer{}, errors.Mark(errors.Newf("%s has no start date", effect.ID), errors.ErrLookup)
	}

	var hit []*model.Entity
	facts := []model.Fact{edge, anchor}
	for _, f := range idx.Outgoing(cause.ID, model.PredCaused) {
		e, err := idx.Entity(f.Object)
		if err != nil {
			return nil, Answer{}, err
		}
		start, ok := StartOf(e)
		if !ok || start.Date.Year != anchor.Date.Year {
			continue
		}
		hit = append(hit, e)
		facts = append(facts, f, start)
	}
	sort.Slice(hit, func(i, j int) bool { return hit[i].ID < hit[j].ID })
	return hit, Answer{Text: JoinNames(names(hit)), Facts: dedupFacts(facts), Precision: model.PrecisionYear}, nil
}

// Intermediates answers a chained counterfactual: the events through which
// cause led to effect (cause -> m -> effect). No such path gives ErrIncomparable.
func Intermediates(idx Index, cause, effect *model.Entity) ([]*model.Entity, Answer, error) {
	var mids []*model.Entity
	var facts []model.Fact
	for _, first := range idx.Outgoing(cause.ID, model.PredCaused) {
		second, ok := idx.Relation(first.Object, model.PredCaused, effect.ID)
		if !ok {
			continue
		}
		m, err := idx.Entity(first.Object)
		if err != nil {
			return nil, Answer{}, err
		}
		mids = append(mids, m)
		facts = append(facts, first, second)
	}
	if len(mids) == 0 {
		return nil, Answer{}, errors.Mark(errors.Newf("no causal chain from %s to %s", cause.ID, effect.ID), errors.ErrIncomparable)
	}
	sort.Slice(mids, func(i, j int) bool { return mids[i].ID < mids[j].ID })
	return mids, Answer{Text: JoinNames(names(mids)), Facts: dedupFacts(facts)}, nil
}

// startPredicate is the predicate that dates the beginning of an entity
func startPredicate(e *model.Entity) string {
	switch e.Type {
	case model.EntityPerson:
		return model.PredBorn
	case model.EntityOrganization, model.EntityNation:
		return model.PredFounded
	default:
		return model.PredBegan
	}
}

// StartOf returns the dated fact that marks when an entity began to exist
func StartOf(e *model.Entity) (model.Fact, bool) {
	f, ok := e.Fact(startPredicate(e))
	if !ok || f.Kind != model.ObjectDate {
		return model.Fact{}, false
	}
	return f, true
}
