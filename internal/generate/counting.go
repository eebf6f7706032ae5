package generate

import (
	"math/rand/v2"

	"github.com/ppiankov/chronoqa/internal/answer"
	"github.com/ppiankov/chronoqa/internal/errors"
	"github.com/ppiankov/chronoqa/internal/model"
)

// windows returns every decade and century bucket touching the given years,
// decades first, each ascending
func windows(years []int) []answer.Bucket {
	if len(years) == 0 {
		return nil
	}
	lo, hi := years[0], years[0]
	for _, y := range years[1:] {
		lo, hi = min(lo, y), max(hi, y)
	}
	var out []answer.Bucket
	for y := answer.DecadeStart(lo); y <= hi; y += 10 {
		b, _ := answer.BucketOf(max(y, 1), model.GranularityDecade)
		out = append(out, b)
	}
	for c := answer.Century(lo); c <= answer.Century(hi); c++ {
		from, _ := answer.CenturyRange(c)
		b, _ := answer.BucketOf(from, model.GranularityCentury)
		out = append(out, b)
	}
	return out
}

// bucketFromRange recovers the named bucket of a derivation's range
func bucketFromRange(d model.Derivation) (answer.Bucket, error) {
	if d.Range == nil {
		return answer.Bucket{}, errors.Mark(errors.New("counting needs a period"), errors.ErrLookup)
	}
	b, err := answer.BucketOf(d.Range.Start.Year, d.Range.Granularity)
	if err != nil {
		return answer.Bucket{}, err
	}
	if b.From != d.Range.Start.Year || b.To != d.Range.End.Year {
		return answer.Bucket{}, errors.Mark(errors.Newf("range %s is not a whole %s", d.Range.Canonical(), d.Range.Granularity), errors.ErrLookup)
	}
	return b, nil
}

func countingEvent(s strategy) *strategy {
	s.typ = model.CountingEvent
	s.aspects = []string{"in_range"}
	domains := s.kb.Domains()
	var years []int
	for _, ev := range s.kb.Events() {
		years = append(years, ev.Start.Year)
	}
	buckets := windows(years)
	s.space = int64(len(domains)) * int64(len(buckets))

	s.pick = func(index int64, _ *rand.Rand) (model.Derivation, error) {
		b := buckets[index%int64(len(buckets))]
		r := b.Range()
		return model.Derivation{
			Aspect:      "in_range",
			Domain:      domains[index/int64(len(buckets))],
			Range:       &r,
			Granularity: b.Granularity,
		}, nil
	}
	s.solve = func(d model.Derivation) (solution, error) {
		if d.Aspect != "in_range" {
			return solution{}, unknownAspect(s.typ, d.Aspect)
		}
		b, err := bucketFromRange(d)
		if err != nil {
			return solution{}, err
		}
		matched, a, err := answer.CountEvents(s.kb, d.Domain, b.Range())
		if err != nil {
			return solution{}, err
		}
		return solution{
			answer:   a,
			entities: asEntities(matched),
			slots:    map[string]string{"domain": d.Domain, "period": b.Name},
			span:     b.Range(),
			calc:     true,
		}, nil
	}
	return &s
}

// countedPredicates maps counting_entity aspects to the dated predicate counted
var countedPredicates = map[string]string{
	"born_in_range":    model.PredBorn,
	"founded_in_range": model.PredFounded,
}

func countingEntity(s strategy) *strategy {
	s.typ = model.CountingEntity
	s.aspects = []string{"born_in_range", "founded_in_range"}
	domains := s.kb.Domains()

	// each aspect gets its own windows over the years its predicate covers
	type slot struct {
		aspect string
		bucket answer.Bucket
	}
	var slots []slot
	for _, aspect := range s.aspects {
		var years []int
		for _, f := range s.kb.DatedFacts(countedPredicates[aspect]) {
			years = append(years, f.Date.Year)
		}
		for _, b := range windows(years) {
			slots = append(slots, slot{aspect, b})
		}
	}
	s.space = int64(len(domains)) * int64(len(slots))

	s.pick = func(index int64, _ *rand.Rand) (model.Derivation, error) {
		sl := slots[index%int64(len(slots))]
		r := sl.bucket.Range()
		return model.Derivation{
			Aspect:      sl.aspect,
			Domain:      domains[index/int64(len(slots))],
			Predicate:   countedPredicates[sl.aspect],
			Range:       &r,
			Granularity: sl.bucket.Granularity,
		}, nil
	}
	s.solve = func(d model.Derivation) (solution, error) {
		pred, ok := countedPredicates[d.Aspect]
		if !ok {
			return solution{}, unknownAspect(s.typ, d.Aspect)
		}
		b, err := bucketFromRange(d)
		if err != nil {
			return solution{}, err
		}
		matched, a, err := answer.CountEntities(s.kb, pred, d.Domain, b.Range())
		if err != nil {
			return solution{}, err
		}
		return solution{
			answer:   a,
			entities: matched,
			slots:    map[string]string{"domain": d.Domain, "period": b.Name},
			span:     b.Range(),
			calc:     true,
		}, nil
	}
	return &s
}
