// Package score assigns confidence, complexity and difficulty to candidates.
package score

import (
	"fmt"
	"math"
	"sort"

	"github.com/ppiankov/chronoqa/internal/model"
)

// Provenance base confidence per tier
var baseConfidence = map[model.SourceType]float64{
	model.SourceCurated:   0.95,
	model.SourceGenerated: 0.85,
	model.SourceTemplate:  0.75,
}

// approximatePenalty scales confidence of answers that fell back to a
// coarser precision
const approximatePenalty = 0.9

// Scorer computes reproducible scores with transparent signals
type Scorer struct{}

// NewScorer creates a new scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Calculate scores a candidate. The result depends only on the candidate.
func (s *Scorer) Calculate(c *model.Candidate) model.Score {
	var signals []model.Signal

	// 1. Provenance base
	base, provenanceSignal := s.calculateProvenance(c)
	signals = append(signals, provenanceSignal)

	// 2. Mean confidence of the consulted facts
	completeness, completenessSignal := s.calculateCompleteness(c)
	signals = append(signals, completenessSignal)

	confidence := base * completeness

	// 3. Precision fallback
	if c.Approximate {
		confidence *= approximatePenalty
		signals = append(signals, model.Signal{
			Type:        model.SignalApproximate,
			Severity:    model.SeverityWarning,
			Description: "Answer computed at a coarser precision than day",
			Data: map[string]interface{}{
				"penalty": approximatePenalty,
			},
		})
	}

	// 4. Complexity from branching, hops and domain spread
	branching, branchingSignal := s.calculateBranching(c)
	signals = append(signals, branchingSignal)
	hops, hopsSignal := s.calculateHops(c)
	signals = append(signals, hopsSignal)
	spread, spreadSignal := s.calculateDomainSpread(c)
	signals = append(signals, spreadSignal)

	complexity := round3(clamp01(0.4*branching + 0.4*hops + 0.2*spread))

	return model.Score{
		Confidence: round3(clamp01(confidence)),
		Complexity: complexity,
		Difficulty: s.determineDifficulty(c.Type, complexity),
		Signals:    signals,
	}
}

// calculateProvenance returns the base confidence of the candidate's tier
func (s *Scorer) calculateProvenance(c *model.Candidate) (float64, model.Signal) {
	base, ok := baseConfidence[c.Source]
	if !ok {
		base = baseConfidence[model.SourceTemplate]
	}

	severity := model.SeverityInfo
	if c.Source != model.SourceCurated {
		severity = model.SeverityWarning
	}

	return base, model.Signal{
		Type:        model.SignalProvenance,
		Severity:    severity,
		Description: fmt.Sprintf("Weakest source tier: %s", c.Source),
		Data: map[string]interface{}{
			"source_type": string(c.Source),
			"base":        base,
			"formula":     "curated 0.95, generated 0.85, template 0.75",
		},
	}
}

// calculateCompleteness returns the mean confidence of the consulted facts.
// Facts without a confidence count as certain.
func (s *Scorer) calculateCompleteness(c *model.Candidate) (float64, model.Signal) {
	if len(c.Facts) == 0 {
		return 1, model.Signal{
			Type:        model.SignalCompleteness,
			Severity:    model.SeverityWarning,
			Description: "No consulted facts recorded (assuming full confidence)",
			Data:        map[string]interface{}{"facts": 0},
		}
	}

	sum := 0.0
	lowest := 1.0
	for _, f := range c.Facts {
		conf := f.Confidence
		if conf <= 0 {
			conf = 1
		}
		sum += conf
		lowest = math.Min(lowest, conf)
	}
	mean := sum / float64(len(c.Facts))

	severity := model.SeverityInfo
	if mean < 0.8 {
		severity = model.SeverityCritical
	} else if lowest < 0.9 {
		severity = model.SeverityWarning
	}

	return mean, model.Signal{
		Type:        model.SignalCompleteness,
		Severity:    severity,
		Description: fmt.Sprintf("Mean fact confidence: %.2f over %d facts", mean, len(c.Facts)),
		Data: map[string]interface{}{
			"facts":   len(c.Facts),
			"mean":    mean,
			"lowest":  lowest,
			"formula": "sum(fact_confidence) / fact_count",
		},
	}
}

// calculateBranching returns the inherent branching factor of the type
func (s *Scorer) calculateBranching(c *model.Candidate) (float64, model.Signal) {
	b := c.Type.Info().Branching
	return b, model.Signal{
		Type:        model.SignalBranching,
		Severity:    model.SeverityInfo,
		Description: fmt.Sprintf("Branching factor of %s: %.2f", c.Type, b),
		Data: map[string]interface{}{
			"branching": b,
			"weight":    0.4,
		},
	}
}

// calculateHops normalizes the hop count: one hop is trivial, six saturate
func (s *Scorer) calculateHops(c *model.Candidate) (float64, model.Signal) {
	h := math.Min(1, math.Max(0, float64(c.HopCount-1)/5))

	severity := model.SeverityInfo
	if c.HopCount > 6 {
		severity = model.SeverityWarning
	}

	return h, model.Signal{
		Type:        model.SignalHops,
		Severity:    severity,
		Description: fmt.Sprintf("%d facts chained", c.HopCount),
		Data: map[string]interface{}{
			"hop_count": c.HopCount,
			"score":     h,
			"weight":    0.4,
			"formula":   "min(1, (hop_count - 1) / 5)",
		},
	}
}

// calculateDomainSpread counts the distinct domains of the consulted facts
func (s *Scorer) calculateDomainSpread(c *model.Candidate) (float64, model.Signal) {
	set := make(map[string]bool)
	for _, f := range c.Facts {
		if f.Domain != "" {
			set[f.Domain] = true
		}
	}
	if len(set) == 0 && c.Domain != "" {
		set[c.Domain] = true
	}
	domains := make([]string, 0, len(set))
	for d := range set {
		domains = append(domains, d)
	}
	sort.Strings(domains)

	spread := math.Min(1, math.Max(0, float64(len(domains)-1)/2))
	return spread, model.Signal{
		Type:        model.SignalDomainSpread,
		Severity:    model.SeverityInfo,
		Description: fmt.Sprintf("%d domains touched", len(domains)),
		Data: map[string]interface{}{
			"domains": domains,
			"score":   spread,
			"weight":  0.2,
			"formula": "min(1, (domains - 1) / 2)",
		},
	}
}

// determineDifficulty maps complexity onto 1..5 and clamps it into the
// type's difficulty range
func (s *Scorer) determineDifficulty(t model.QuestionType, complexity float64) int {
	d := 1 + int(math.Floor(complexity*5))
	d = min(max(d, 1), 5)

	info := t.Info()
	if info.DifficultyMin > 0 && d < info.DifficultyMin {
		d = info.DifficultyMin
	}
	if info.DifficultyMax > 0 && d > info.DifficultyMax {
		d = info.DifficultyMax
	}
	return d
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}

// round3 keeps scores stable across platforms at the precision they are written
func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
