package model

// Derivation holds the parameters an answer was computed from. Feeding it
// back to the owning strategy recomputes the answer without the rendered text.
type Derivation struct {
	Aspect      string         `json:"aspect"`
	EntityIDs   []string       `json:"entity_ids,omitempty"` // ordered parameters
	Range       *TemporalRange `json:"range,omitempty"`
	Domain      string         `json:"domain,omitempty"`
	Predicate   string         `json:"predicate,omitempty"`
	Granularity Granularity    `json:"granularity,omitempty"`
}

// Candidate is a generated, not-yet-accepted question-answer instance
type Candidate struct {
	Type                QuestionType  `json:"question_type" validate:"required,qtype"`
	Aspect              string        `json:"aspect" validate:"required"`
	Question            string        `json:"question" validate:"required"`
	Answer              string        `json:"answer" validate:"required"`
	EntityIDs           []string      `json:"entity_ids" validate:"required,min=1,dive,required"`
	EntityNames         []string      `json:"entity_names"`
	Countries           []string      `json:"countries"`
	HopCount            int           `json:"hop_count" validate:"min=1,max=10"`
	Range               TemporalRange `json:"range"`
	Domain              string        `json:"domain" validate:"required"`
	Source              SourceType    `json:"source_type" validate:"required,oneof=curated generated template"`
	RequiresCalculation bool          `json:"requires_calculation"`
	Approximate         bool          `json:"approximate"`
	Facts               []Fact        `json:"-" validate:"-"`
	Derivation          Derivation    `json:"derivation" validate:"-"`

	// Enumeration position, for checkpointing and diagnostics
	Partition int   `json:"partition"`
	Index     int64 `json:"index"`

	Score Score `json:"score" validate:"-"`
}

// Score is the scoring breakdown attached by the score engine
type Score struct {
	Confidence float64  `json:"confidence"` // [0, 1]
	Complexity float64  `json:"complexity"` // [0, 1]
	Difficulty int      `json:"difficulty"` // [1, 5]
	Signals    []Signal `json:"signals"`
}

// Signal is a scoring input with its transparent data
type Signal struct {
	Type        SignalType             `json:"type"`
	Severity    SignalSeverity         `json:"severity"`
	Description string                 `json:"description"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// SignalType classifies a scoring signal
type SignalType string

const (
	SignalProvenance   SignalType = "provenance"    // source tier of consulted facts
	SignalCompleteness SignalType = "completeness"  // mean confidence of consulted facts
	SignalApproximate  SignalType = "approximate"   // answer fell back to a coarser precision
	SignalHops         SignalType = "hops"          // number of facts chained
	SignalBranching    SignalType = "branching"     // inherent branching of the type
	SignalDomainSpread SignalType = "domain_spread" // distinct domains touched
)

// SignalSeverity indicates the importance of the signal
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)
