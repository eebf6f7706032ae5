// Package validate checks candidates and configuration before they are accepted.
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/ppiankov/chronoqa/internal/errors"
	"github.com/ppiankov/chronoqa/internal/model"
)

// Content bounds for accepted questions and answers
const (
	MinQuestionLen   = 10
	MaxQuestionLen   = 300
	MaxAnswerLen     = 100
	MinQuestionWords = 5
)

// slot braces left behind by a template that failed to fill
var braces = []string{"{", "}"}

// placeholder words, matched as whole words so names like "Nonesuch Palace" pass
var placeholders = regexp.MustCompile(`(?:^|[^\p{L}\p{N}_])(None|N/A|null)(?:$|[^\p{L}\p{N}_])`)

// sentinel answers that carry no information
var sentinels = map[string]bool{"unknown": true, "none": true, "": true, "0": true}

// Resolver is the part of the knowledge base validation needs
type Resolver interface {
	Has(id string) bool
}

// Validator checks candidates. It never alters content; a candidate either
// passes or is rejected with every reason listed.
type Validator struct {
	structs       *validator.Validate
	kb            Resolver
	minConfidence float64
}

// NewValidator creates a validator over the knowledge base
func NewValidator(kb Resolver, minConfidence float64) *Validator {
	return &Validator{
		structs:       newStructValidator(),
		kb:            kb,
		minConfidence: minConfidence,
	}
}

// newStructValidator registers the chronoqa tags on a fresh validator
func newStructValidator() *validator.Validate {
	v := validator.New()
	// "qtype" accepts one of the 16 question type names
	_ = v.RegisterValidation("qtype", func(fl validator.FieldLevel) bool {
		return model.QuestionType(fl.Field().String()).Valid()
	})
	return v
}

// Validate runs the structural and content checks on an unscored candidate
func (v *Validator) Validate(c *model.Candidate) error {
	var problems []string
	if err := v.structs.Struct(c); err != nil {
		problems = append(problems, fieldProblems(err)...)
	}
	problems = append(problems, contentProblems(c)...)

	if err := c.Range.Validate(); err != nil {
		problems = append(problems, "range: "+err.Error())
	}
	if v.kb != nil {
		for _, id := range c.EntityIDs {
			if id != "" && !v.kb.Has(id) {
				problems = append(problems, fmt.Sprintf("entity %q does not resolve", id))
			}
		}
	}
	return rejected(c, problems)
}

// CheckScore gates a scored candidate on confidence and the score bounds
func (v *Validator) CheckScore(c *model.Candidate) error {
	var problems []string
	s := c.Score
	if s.Confidence < 0 || s.Confidence > 1 {
		problems = append(problems, fmt.Sprintf("confidence %.3f outside [0, 1]", s.Confidence))
	}
	if s.Complexity < 0 || s.Complexity > 1 {
		problems = append(problems, fmt.Sprintf("complexity %.3f outside [0, 1]", s.Complexity))
	}
	if s.Difficulty < 1 || s.Difficulty > 5 {
		problems = append(problems, fmt.Sprintf("difficulty %d outside [1, 5]", s.Difficulty))
	}
	if s.Confidence < v.minConfidence {
		problems = append(problems, fmt.Sprintf("confidence %.3f below minimum %.3f", s.Confidence, v.minConfidence))
	}
	return rejected(c, problems)
}

// contentProblems applies the text rules to question and answer
func contentProblems(c *model.Candidate) []string {
	var problems []string
	q, a := strings.TrimSpace(c.Question), strings.TrimSpace(c.Answer)

	if n := utf8.RuneCountInString(q); n < MinQuestionLen || n > MaxQuestionLen {
		problems = append(problems, fmt.Sprintf("question length %d outside [%d, %d]", n, MinQuestionLen, MaxQuestionLen))
	}
	if n := len(strings.Fields(q)); n < MinQuestionWords {
		problems = append(problems, fmt.Sprintf("question has %d words, need %d", n, MinQuestionWords))
	}
	if n := utf8.RuneCountInString(a); n > MaxAnswerLen {
		problems = append(problems, fmt.Sprintf("answer length %d over %d", n, MaxAnswerLen))
	}
	if sentinels[strings.ToLower(a)] {
		problems = append(problems, fmt.Sprintf("answer %q is a sentinel", a))
	}
	for _, p := range braces {
		if strings.Contains(q, p) {
			problems = append(problems, fmt.Sprintf("question contains placeholder %q", p))
		}
		if strings.Contains(a, p) {
			problems = append(problems, fmt.Sprintf("answer contains placeholder %q", p))
		}
	}
	if m := placeholders.FindStringSubmatch(q); m != nil {
		problems = append(problems, fmt.Sprintf("question contains placeholder %q", m[1]))
	}
	if m := placeholders.FindStringSubmatch(a); m != nil {
		problems = append(problems, fmt.Sprintf("answer contains placeholder %q", m[1]))
	}
	return problems
}

// fieldProblems formats struct tag failures
func fieldProblems(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(verrs))
	for _, e := range verrs {
		out = append(out, formatFieldError(e))
	}
	return out
}

func formatFieldError(e validator.FieldError) string {
	field := strings.ToLower(e.Namespace())
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "gte", "gt", "lte", "lt":
		return fmt.Sprintf("%s must be %s %s", field, e.Tag(), e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "qtype":
		return fmt.Sprintf("%s: unknown question type %q", field, e.Value())
	case "required_if":
		return fmt.Sprintf("%s is required when %s", field, e.Param())
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, e.Tag())
	}
}

func rejected(c *model.Candidate, problems []string) error {
	if len(problems) == 0 {
		return nil
	}
	return errors.Mark(
		errors.Newf("%s[%d] rejected: %s", c.Type, c.Index, strings.Join(problems, "; ")),
		errors.ErrValidationRejected,
	)
}
