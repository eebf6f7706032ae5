package generate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/chronoqa/internal/dedup"
	"github.com/ppiankov/chronoqa/internal/errors"
	"github.com/ppiankov/chronoqa/internal/kb"
	"github.com/ppiankov/chronoqa/internal/model"
	"github.com/ppiankov/chronoqa/internal/templates"
)

func seedRegistry(t *testing.T, seed int64) (*Registry, *kb.KnowledgeBase) {
	t.Helper()
	k, err := kb.Seed()
	require.NoError(t, err)
	r, err := NewRegistry(k, templates.Default(), Options{Seed: seed})
	require.NoError(t, err)
	return r, k
}

func TestRegistryCoversEveryType(t *testing.T) {
	r, _ := seedRegistry(t, 42)
	for _, qt := range model.AllQuestionTypes() {
		s, err := r.Strategy(qt)
		require.NoError(t, err)
		assert.Equal(t, qt, s.Type())
		assert.NotEmpty(t, s.Aspects())
		assert.Positive(t, s.Space(), "%s has an empty instance space on the seed", qt)
	}
}

func TestRegistryRejectsIncompleteCatalog(t *testing.T) {
	k, err := kb.Seed()
	require.NoError(t, err)
	c, err := templates.New(templates.Overrides{
		"attribute_event": {"began": {"When did {event} first begin?"}},
	})
	require.NoError(t, err)

	_, err = NewRegistry(k, c, Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrTemplate))
}

// Every candidate a strategy emits must be reproducible from its derivation
// alone, and must carry the fields validation relies on.
func TestRederivationReproducesEveryAnswer(t *testing.T) {
	r, k := seedRegistry(t, 7)
	for _, qt := range model.AllQuestionTypes() {
		t.Run(string(qt), func(t *testing.T) {
			s, err := r.Strategy(qt)
			require.NoError(t, err)

			produced := 0
			for i := int64(0); i < s.Space(); i++ {
				c, err := s.Generate(i)
				if err != nil {
					assert.True(t, errors.IsRecoverable(err), "index %d: %v", i, err)
					continue
				}
				produced++

				a, err := s.Derive(c.Derivation)
				require.NoError(t, err, "index %d", i)
				assert.Equal(t, c.Answer, a.Text, "index %d", i)
				assert.Equal(t, c.HopCount, max(a.Hops(), 1))

				assert.Equal(t, qt, c.Type)
				assert.NotContains(t, c.Question, "{")
				assert.NotEmpty(t, c.Answer)
				assert.NotEmpty(t, c.EntityIDs)
				assert.Len(t, c.EntityNames, len(c.EntityIDs))
				assert.NotEmpty(t, c.Domain)
				assert.NoError(t, c.Range.Validate(), "index %d", i)
				for _, id := range c.EntityIDs {
					assert.True(t, k.Has(id), id)
				}
			}
			assert.Positive(t, produced, "no candidate produced")
		})
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	a, _ := seedRegistry(t, 99)
	b, _ := seedRegistry(t, 99)
	for _, qt := range model.AllQuestionTypes() {
		sa, _ := a.Strategy(qt)
		sb, _ := b.Strategy(qt)
		for i := int64(0); i < min(sa.Space(), 20); i++ {
			ca, errA := sa.Generate(i)
			cb, errB := sb.Generate(i)
			if errA != nil {
				require.Error(t, errB)
				continue
			}
			require.NoError(t, errB)
			assert.Equal(t, ca, cb)
		}
	}
}

func TestGenerateOutOfRange(t *testing.T) {
	r, _ := seedRegistry(t, 1)
	s, _ := r.Strategy(model.DurationEstimation)

	_, err := s.Generate(s.Space())
	assert.True(t, errors.Is(err, errors.ErrInsufficientData))
	_, err = s.Generate(-1)
	assert.True(t, errors.Is(err, errors.ErrInsufficientData))
}

func TestDeriveKnownAnswers(t *testing.T) {
	r, _ := seedRegistry(t, 1)
	tests := []struct {
		qt   model.QuestionType
		d    model.Derivation
		want string
	}{
		{model.ComparisonEvent, model.Derivation{Aspect: "earlier", EntityIDs: []string{"ww2", "ww1"}}, "World War I"},
		{model.ComparisonEvent, model.Derivation{Aspect: "later", EntityIDs: []string{"ww1", "ww2"}}, "World War II"},
		{model.DurationEstimation, model.Derivation{Aspect: "years", EntityIDs: []string{"ww2"}}, "6 years"},
		{model.ComparisonTime, model.Derivation{Aspect: "years_between", EntityIDs: []string{"ww1", "ww2"}}, "25 years"},
		{model.SequenceOrdering, model.Derivation{Aspect: "chronological", EntityIDs: []string{"moon_landing", "ww2", "ww1"}}, "World War I, World War II, Moon Landing"},
		{model.CausalReasoning, model.Derivation{Aspect: "effect_of", EntityIDs: []string{"ww2"}}, "Cold War and United Nations"},
		{model.Counterfactual, model.Derivation{Aspect: "chained", EntityIDs: []string{"cold_war", "moon_landing"}}, "Space Race"},
		{model.MultiGranular, model.Derivation{Aspect: "decade_began", EntityIDs: []string{"ww2"}}, "the 1930s"},
	}
	for _, tt := range tests {
		t.Run(string(tt.qt)+"/"+tt.d.Aspect, func(t *testing.T) {
			s, err := r.Strategy(tt.qt)
			require.NoError(t, err)
			a, err := s.Derive(tt.d)
			require.NoError(t, err)
			assert.Equal(t, tt.want, a.Text)
		})
	}
}

func TestDeriveRejectsForeignAspect(t *testing.T) {
	r, _ := seedRegistry(t, 1)
	s, _ := r.Strategy(model.TemporalOverlap)
	_, err := s.Derive(model.Derivation{Aspect: "earlier", EntityIDs: []string{"ww1", "ww2"}})
	assert.True(t, errors.Is(err, errors.ErrLookup))

	_, err = s.Derive(model.Derivation{Aspect: "overlap", EntityIDs: []string{"ww1"}})
	assert.True(t, errors.Is(err, errors.ErrLookup))
}

func TestComparisonCandidate(t *testing.T) {
	r, _ := seedRegistry(t, 3)
	s, _ := r.Strategy(model.ComparisonEvent)

	for i := int64(0); i < s.Space(); i++ {
		c, err := s.Generate(i)
		if err != nil {
			continue
		}
		ids := strings.Join(c.EntityIDs, ",")
		if ids != "ww1,ww2" && ids != "ww2,ww1" {
			continue
		}
		assert.Contains(t, c.Question, "World War I")
		assert.Contains(t, c.Question, "World War II")
		assert.Equal(t, model.SourceCurated, c.Source)
		assert.Equal(t, "military", c.Domain)
		assert.Equal(t, 2, c.HopCount)
		assert.Contains(t, c.Countries, "Germany")
		if c.Aspect == "earlier" {
			assert.Equal(t, "World War I", c.Answer)
		} else {
			assert.Equal(t, "World War II", c.Answer)
		}
	}
}

func TestCounterfactualSameYearEffectsCollapse(t *testing.T) {
	k, err := kb.Load([]model.Entity{
		{ID: "crash", Name: "Market Crash", Type: model.EntityEvent, Domain: "economics"},
		{ID: "run_a", Name: "Bank Run Alpha", Type: model.EntityEvent, Domain: "economics"},
		{ID: "run_b", Name: "Bank Run Beta", Type: model.EntityEvent, Domain: "economics"},
	}, []model.Fact{
		{Subject: "crash", Predicate: model.PredBegan, Object: "1929-10-24", Source: "curated"},
		{Subject: "run_a", Predicate: model.PredBegan, Object: "1930-03", Source: "curated"},
		{Subject: "run_b", Predicate: model.PredBegan, Object: "1930-06", Source: "curated"},
		{Subject: "crash", Predicate: model.PredCaused, Object: "run_a", Source: "curated"},
		{Subject: "crash", Predicate: model.PredCaused, Object: "run_b", Source: "curated"},
	})
	require.NoError(t, err)
	r, err := NewRegistry(k, templates.Default(), Options{Seed: 3})
	require.NoError(t, err)
	s, err := r.Strategy(model.Counterfactual)
	require.NoError(t, err)
	require.Equal(t, int64(2), s.Space())

	first, err := s.Generate(0)
	require.NoError(t, err)
	second, err := s.Generate(1)
	require.NoError(t, err)

	assert.Equal(t, "Bank Run Alpha and Bank Run Beta", first.Answer)
	assert.Equal(t, first.Answer, second.Answer)
	assert.ElementsMatch(t, []string{"crash", "run_a", "run_b"}, first.EntityIDs)
	assert.Equal(t, dedup.Of(first), dedup.Of(second))
}

type tierClassifier map[string]model.SourceType

func (c tierClassifier) Classify(label string) model.SourceType {
	if t, ok := c[label]; ok {
		return t
	}
	return model.SourceTemplate
}

func TestClassifierPicksWeakestTier(t *testing.T) {
	k, err := kb.Seed()
	require.NoError(t, err)
	r, err := NewRegistry(k, templates.Default(), Options{
		Seed:       1,
		Classifier: tierClassifier{"curated": model.SourceGenerated},
	})
	require.NoError(t, err)
	s, _ := r.Strategy(model.DurationEstimation)
	c, err := s.Generate(firstValid(t, s))
	require.NoError(t, err)
	assert.Equal(t, model.SourceGenerated, c.Source)
}

func firstValid(t *testing.T, s Strategy) int64 {
	t.Helper()
	for i := int64(0); i < s.Space(); i++ {
		if c, err := s.Generate(i); err == nil && c.Source != model.SourceTemplate {
			return i
		}
	}
	t.Fatalf("%s produced no candidate", s.Type())
	return -1
}
