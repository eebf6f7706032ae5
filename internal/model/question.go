package model

import "fmt"

// QuestionType enumerates the 16 temporal reasoning categories
type QuestionType string

const (
	AttributeEvent     QuestionType = "attribute_event"
	AttributeEntity    QuestionType = "attribute_entity"
	AttributeTime      QuestionType = "attribute_time"
	ComparisonEvent    QuestionType = "comparison_event"
	ComparisonEntity   QuestionType = "comparison_entity"
	ComparisonTime     QuestionType = "comparison_time"
	CountingEvent      QuestionType = "counting_event"
	CountingEntity     QuestionType = "counting_entity"
	CausalReasoning    QuestionType = "causal_reasoning"
	DurationEstimation QuestionType = "duration_estimation"
	SequenceOrdering   QuestionType = "sequence_ordering"
	CrossDomain        QuestionType = "cross_domain"
	TemporalClustering QuestionType = "temporal_clustering"
	MultiGranular      QuestionType = "multi_granular"
	Counterfactual     QuestionType = "counterfactual"
	TemporalOverlap    QuestionType = "temporal_overlap"
)

var questionTypes = []QuestionType{
	AttributeEvent, AttributeEntity, AttributeTime,
	ComparisonEvent, ComparisonEntity, ComparisonTime,
	CountingEvent, CountingEntity,
	CausalReasoning, DurationEstimation, SequenceOrdering, CrossDomain,
	TemporalClustering, MultiGranular, Counterfactual, TemporalOverlap,
}

// AllQuestionTypes returns the 16 types in canonical order
func AllQuestionTypes() []QuestionType {
	out := make([]QuestionType, len(questionTypes))
	copy(out, questionTypes)
	return out
}

// ParseQuestionType parses a type name
func ParseQuestionType(s string) (QuestionType, error) {
	q := QuestionType(s)
	if !q.Valid() {
		return "", fmt.Errorf("unknown question type %q", s)
	}
	return q, nil
}

// Valid reports whether q is one of the 16 types
func (q QuestionType) Valid() bool {
	_, ok := typeInfo[q]
	return ok
}

// TypeInfo is the static metadata of a question type
type TypeInfo struct {
	Description   string
	DifficultyMin int
	DifficultyMax int
	Branching     float64 // inherent branching factor in [0, 1]
}

var typeInfo = map[QuestionType]TypeInfo{
	AttributeEvent:     {"Event attributes (when, where)", 1, 3, 0.10},
	AttributeEntity:    {"Person and organization attributes", 1, 3, 0.10},
	AttributeTime:      {"Which event happened at a given time", 1, 3, 0.25},
	ComparisonEvent:    {"Which of two events came first or last", 2, 4, 0.35},
	ComparisonEntity:   {"Which of two entities is older", 2, 4, 0.35},
	ComparisonTime:     {"Time elapsed between two events", 2, 4, 0.45},
	CountingEvent:      {"Number of events in a domain and period", 3, 4, 0.50},
	CountingEntity:     {"Number of entities with a dated attribute in a period", 3, 4, 0.50},
	CausalReasoning:    {"Cause and effect relations", 4, 5, 0.70},
	DurationEstimation: {"How long an event lasted", 2, 4, 0.40},
	SequenceOrdering:   {"Chronological order of several events", 3, 5, 0.60},
	CrossDomain:        {"Influence across domains", 3, 5, 0.70},
	TemporalClustering: {"Events sharing a decade or century", 3, 5, 0.60},
	MultiGranular:      {"Dates at decade or century granularity", 2, 4, 0.40},
	Counterfactual:     {"What would not have followed without an event", 4, 5, 0.90},
	TemporalOverlap:    {"Whether two events overlapped in time", 2, 4, 0.45},
}

// Info returns the metadata of q
func (q QuestionType) Info() TypeInfo {
	return typeInfo[q]
}

// SourceType is the provenance tier of a candidate
type SourceType string

const (
	SourceCurated   SourceType = "curated"
	SourceGenerated SourceType = "generated"
	SourceTemplate  SourceType = "template"
)

// Rank orders provenance tiers; higher is more trusted
func (s SourceType) Rank() int {
	switch s {
	case SourceCurated:
		return 3
	case SourceGenerated:
		return 2
	case SourceTemplate:
		return 1
	default:
		return 0
	}
}

// WeakerSource returns the less trusted of two tiers
func WeakerSource(a, b SourceType) SourceType {
	if a.Rank() <= b.Rank() {
		return a
	}
	return b
}
