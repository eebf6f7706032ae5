package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/chronoqa/internal/answer"
	"github.com/ppiankov/chronoqa/internal/dedup"
	"github.com/ppiankov/chronoqa/internal/errors"
	"github.com/ppiankov/chronoqa/internal/generate"
	"github.com/ppiankov/chronoqa/internal/kb"
	"github.com/ppiankov/chronoqa/internal/model"
	"github.com/ppiankov/chronoqa/internal/score"
	"github.com/ppiankov/chronoqa/internal/templates"
	"github.com/ppiankov/chronoqa/internal/validate"
)

func newTestPipeline(t *testing.T) (*Pipeline, *generate.Registry) {
	t.Helper()
	k, err := kb.Seed()
	require.NoError(t, err)
	registry, err := generate.NewRegistry(k, templates.Default(), generate.Options{
		Seed:       42,
		Classifier: validate.NewProvenanceClassifier(nil),
	})
	require.NoError(t, err)

	index, err := dedup.New(model.DedupConfig{Capacity: 100_000, FalsePositiveRate: 0.001, ExactWindow: 100_000, Shards: 4})
	require.NoError(t, err)

	return NewPipeline(validate.NewValidator(k, 0.7), score.NewScorer(), index, true), registry
}

// firstAccepted returns the first index of s the pipeline accepts
func firstAccepted(t *testing.T, p *Pipeline, s generate.Strategy) (int64, *Result) {
	t.Helper()
	for i := int64(0); i < s.Space(); i++ {
		res, err := p.Process(context.Background(), s, 0, i)
		if err == nil {
			return i, res
		}
		require.True(t, errors.IsRecoverable(err), "%v", err)
	}
	t.Fatalf("%s accepted nothing", s.Type())
	return 0, nil
}

func TestPipeline_Process_Accepts(t *testing.T) {
	p, registry := newTestPipeline(t)
	s, err := registry.Strategy(model.ComparisonEvent)
	require.NoError(t, err)

	_, res := firstAccepted(t, p, s)

	rec := res.Record
	assert.Equal(t, string(model.ComparisonEvent), rec.QuestionType)
	assert.Equal(t, res.Candidate.Question, rec.Question)
	assert.GreaterOrEqual(t, rec.Difficulty, 2)
	assert.LessOrEqual(t, rec.Difficulty, 4)
	assert.GreaterOrEqual(t, rec.ConfidenceScore, 0.7)
	assert.Equal(t, string(model.SourceCurated), rec.SourceType)
	assert.Len(t, rec.ID, 36)
}

func TestPipeline_Process_SameIndexTwiceIsDuplicate(t *testing.T) {
	p, registry := newTestPipeline(t)
	s, err := registry.Strategy(model.TemporalOverlap)
	require.NoError(t, err)

	i, first := firstAccepted(t, p, s)

	_, err = p.Process(context.Background(), s, 1, i)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrDuplicate))
	assert.Equal(t, "duplicate", errors.Reason(err))

	// Identical content yields an identical id
	again := model.NewRecord(first.Candidate, first.Fingerprint[:])
	assert.Equal(t, first.Record.ID, again.ID)
}

func TestPipeline_Process_AcceptedAreDistinct(t *testing.T) {
	p, registry := newTestPipeline(t)

	seen := make(map[dedup.Fingerprint]bool)
	ids := make(map[string]bool)
	for _, qt := range model.AllQuestionTypes() {
		s, err := registry.Strategy(qt)
		require.NoError(t, err)
		for i := int64(0); i < s.Space(); i++ {
			res, err := p.Process(context.Background(), s, 0, i)
			if err != nil {
				require.True(t, errors.IsRecoverable(err), "%s[%d]: %v", qt, i, err)
				continue
			}
			require.False(t, seen[res.Fingerprint], "%s[%d] fingerprint reused", qt, i)
			seen[res.Fingerprint] = true
			require.False(t, ids[res.Record.ID])
			ids[res.Record.ID] = true

			sc := res.Candidate.Score
			assert.True(t, sc.Confidence >= 0 && sc.Confidence <= 1)
			assert.True(t, sc.Complexity >= 0 && sc.Complexity <= 1)
			assert.True(t, sc.Difficulty >= 1 && sc.Difficulty <= 5)
			assert.True(t, res.Record.HopCount >= 1 && res.Record.HopCount <= 10)
		}
	}
	assert.NotEmpty(t, seen)
}

// driftingStrategy answers differently when re-derived
type driftingStrategy struct {
	generate.Strategy
}

func (d driftingStrategy) Derive(model.Derivation) (answer.Answer, error) {
	return answer.Answer{Text: "something else"}, nil
}

func TestPipeline_Process_RejectsDriftingAnswer(t *testing.T) {
	p, registry := newTestPipeline(t)
	s, err := registry.Strategy(model.DurationEstimation)
	require.NoError(t, err)

	rejected := 0
	drifting := driftingStrategy{Strategy: s}
	for i := int64(0); i < s.Space(); i++ {
		_, err := p.Process(context.Background(), drifting, 0, i)
		require.Error(t, err)
		if errors.Is(err, errors.ErrValidationRejected) {
			rejected++
		}
	}
	assert.Positive(t, rejected)
}

func TestPipeline_Process_Cancelled(t *testing.T) {
	p, registry := newTestPipeline(t)
	s, err := registry.Strategy(model.AttributeEvent)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Process(ctx, s, 0, 0)
	assert.True(t, errors.Is(err, context.Canceled))
}
