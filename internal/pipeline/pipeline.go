// Package pipeline turns one enumeration index into an accepted record.
package pipeline

import (
	"context"

	"github.com/ppiankov/chronoqa/internal/dedup"
	"github.com/ppiankov/chronoqa/internal/errors"
	"github.com/ppiankov/chronoqa/internal/generate"
	"github.com/ppiankov/chronoqa/internal/model"
	"github.com/ppiankov/chronoqa/internal/score"
	"github.com/ppiankov/chronoqa/internal/validate"
)

// Pipeline runs the per-candidate stages: generate, validate, score,
// re-derive and deduplicate. It holds no per-run state besides the shared
// dedup index, so one pipeline serves every worker.
type Pipeline struct {
	validator *validate.Validator
	scorer    *score.Scorer
	dedup     *dedup.Index
	verify    bool
}

// NewPipeline creates a pipeline. With verify set, every answer is
// recomputed from its derivation before it is accepted.
func NewPipeline(validator *validate.Validator, scorer *score.Scorer, index *dedup.Index, verify bool) *Pipeline {
	return &Pipeline{
		validator: validator,
		scorer:    scorer,
		dedup:     index,
		verify:    verify,
	}
}

// Result is an accepted candidate and its output record
type Result struct {
	Candidate   *model.Candidate
	Fingerprint dedup.Fingerprint
	Record      model.Record
}

// Process builds the candidate at index. Per-candidate failures come back
// as recoverable errors classified by errors.Reason.
func (p *Pipeline) Process(ctx context.Context, s generate.Strategy, partition int, index int64) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 1. Generate
	c, err := s.Generate(index)
	if err != nil {
		return nil, err
	}
	c.Partition = partition

	// 2. Validate structure and content
	if err := p.validator.Validate(c); err != nil {
		return nil, err
	}

	// 3. Score (never alters content)
	c.Score = p.scorer.Calculate(c)
	if err := p.validator.CheckScore(c); err != nil {
		return nil, err
	}

	// 4. Re-derive the answer from the parameters alone
	if p.verify {
		if err := p.rederive(s, c); err != nil {
			return nil, err
		}
	}

	// 5. Deduplicate last so rejected candidates never occupy the index
	fp := dedup.Of(c)
	if err := p.dedup.Admit(fp); err != nil {
		return nil, err
	}

	return &Result{
		Candidate:   c,
		Fingerprint: fp,
		Record:      model.NewRecord(c, fp[:]),
	}, nil
}

func (p *Pipeline) rederive(s generate.Strategy, c *model.Candidate) error {
	a, err := s.Derive(c.Derivation)
	if err != nil {
		return errors.Mark(errors.Wrapf(err, "re-derive %s[%d]", c.Type, c.Index), errors.ErrValidationRejected)
	}
	if a.Text != c.Answer {
		return errors.Mark(
			errors.Newf("re-derived answer %q differs from %q for %s[%d]", a.Text, c.Answer, c.Type, c.Index),
			errors.ErrValidationRejected,
		)
	}
	return nil
}
