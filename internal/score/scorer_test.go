package score

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ppiankov/chronoqa/internal/model"
)

func fact(domain string, confidence float64) model.Fact {
	return model.Fact{Subject: "x", Predicate: model.PredBegan, Object: domain, Domain: domain, Confidence: confidence}
}

func TestScorer_Calculate_CuratedSingleHop(t *testing.T) {
	scorer := NewScorer()
	c := &model.Candidate{
		Type:     model.AttributeEvent,
		HopCount: 1,
		Source:   model.SourceCurated,
		Facts:    []model.Fact{fact("military", 1)},
	}

	result := scorer.Calculate(c)

	assert.InDelta(t, 0.95, result.Confidence, 1e-9)
	// 0.4*0.10 + 0 + 0
	assert.InDelta(t, 0.04, result.Complexity, 1e-9)
	assert.Equal(t, 1, result.Difficulty)
	assert.Len(t, result.Signals, 5)
}

func TestScorer_Calculate_Confidence(t *testing.T) {
	scorer := NewScorer()
	tests := []struct {
		desc   string
		source model.SourceType
		facts  []model.Fact
		approx bool
		want   float64
	}{
		{"generated", model.SourceGenerated, []model.Fact{fact("a", 1)}, false, 0.85},
		{"template", model.SourceTemplate, []model.Fact{fact("a", 1)}, false, 0.75},
		{"mean of facts", model.SourceCurated, []model.Fact{fact("a", 1), fact("a", 0.8)}, false, 0.855},
		{"approximate", model.SourceCurated, []model.Fact{fact("a", 1)}, true, 0.855},
		{"unset confidence counts as certain", model.SourceCurated, []model.Fact{fact("a", 0)}, false, 0.95},
		{"no facts", model.SourceCurated, nil, false, 0.95},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			c := &model.Candidate{Type: model.AttributeEvent, HopCount: 1, Source: tt.source, Facts: tt.facts, Approximate: tt.approx}
			assert.InDelta(t, tt.want, scorer.Calculate(c).Confidence, 1e-9)
		})
	}
}

func TestScorer_Calculate_ComplexityAndDifficulty(t *testing.T) {
	scorer := NewScorer()

	// counterfactual: 0.4*0.9 + 0.4*min(1, 3/5) + 0.2*min(1, 2/2) = 0.36 + 0.24 + 0.2
	c := &model.Candidate{
		Type:     model.Counterfactual,
		HopCount: 4,
		Source:   model.SourceCurated,
		Facts:    []model.Fact{fact("military", 1), fact("politics", 1), fact("science", 1), fact("science", 1)},
	}
	result := scorer.Calculate(c)
	assert.InDelta(t, 0.8, result.Complexity, 1e-9)
	assert.Equal(t, 5, result.Difficulty)

	// hops saturate at six
	c.HopCount = 10
	assert.LessOrEqual(t, scorer.Calculate(c).Complexity, 1.0)
}

func TestScorer_DifficultyClampedIntoTypeRange(t *testing.T) {
	scorer := NewScorer()
	tests := []struct {
		qt         model.QuestionType
		complexity float64
		want       int
	}{
		{model.AttributeEvent, 0.95, 3},  // 1..3
		{model.CausalReasoning, 0.0, 4},  // 4..5
		{model.ComparisonEvent, 0.3, 2},  // 2..4, raw 2
		{model.ComparisonEvent, 0.99, 4}, // raw 5
		{model.SequenceOrdering, 0.1, 3}, // raw 1, min 3
	}
	for _, tt := range tests {
		t.Run(string(tt.qt), func(t *testing.T) {
			got := scorer.determineDifficulty(tt.qt, tt.complexity)
			info := tt.qt.Info()
			assert.GreaterOrEqual(t, got, info.DifficultyMin)
			assert.LessOrEqual(t, got, info.DifficultyMax)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScorer_Calculate_BoundsForEveryType(t *testing.T) {
	scorer := NewScorer()
	for _, qt := range model.AllQuestionTypes() {
		for hops := 1; hops <= 10; hops++ {
			c := &model.Candidate{
				Type:        qt,
				HopCount:    hops,
				Source:      model.SourceTemplate,
				Approximate: true,
				Facts:       []model.Fact{fact("a", 0.5), fact("b", 1), fact("c", 1), fact("d", 1)},
			}
			s := scorer.Calculate(c)
			assert.True(t, s.Confidence >= 0 && s.Confidence <= 1)
			assert.True(t, s.Complexity >= 0 && s.Complexity <= 1)
			assert.True(t, s.Difficulty >= 1 && s.Difficulty <= 5)
		}
	}
}

func TestScorer_Calculate_SignalsAreTransparent(t *testing.T) {
	scorer := NewScorer()
	c := &model.Candidate{
		Type:        model.DurationEstimation,
		HopCount:    2,
		Source:      model.SourceGenerated,
		Approximate: true,
		Facts:       []model.Fact{fact("politics", 0.9), fact("politics", 0.9)},
	}
	result := scorer.Calculate(c)

	byType := make(map[model.SignalType]model.Signal)
	for _, sig := range result.Signals {
		byType[sig.Type] = sig
	}
	assert.Equal(t, model.SeverityWarning, byType[model.SignalProvenance].Severity)
	assert.Contains(t, byType, model.SignalApproximate)
	assert.Equal(t, "min(1, (hop_count - 1) / 5)", byType[model.SignalHops].Data["formula"])
	assert.Equal(t, []string{"politics"}, byType[model.SignalDomainSpread].Data["domains"])
}
