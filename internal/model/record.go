package model

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// RecordNamespace scopes record ids so identical fingerprints map to identical ids across runs
var RecordNamespace = uuid.MustParse("6f1d5a8e-3c2b-5e47-9a0d-1b7c4e2f8a93")

// Record is one row of the emitted corpus
type Record struct {
	ID                  string   `json:"id"`
	Question            string   `json:"question"`
	Answer              string   `json:"answer"`
	QuestionType        string   `json:"question_type"`
	Difficulty          int      `json:"difficulty"`
	TemporalGranularity string   `json:"temporal_granularity"`
	TimeSpanStart       string   `json:"time_span_start"`
	TimeSpanEnd         string   `json:"time_span_end"`
	EntitiesQuestion    []string `json:"entities_question"`
	CountriesQuestion   []string `json:"countries_question"`
	HopCount            int      `json:"hop_count"`
	ConfidenceScore     float64  `json:"confidence_score"`
	Domain              string   `json:"domain"`
	RequiresCalculation bool     `json:"requires_calculation"`
	ComplexityScore     float64  `json:"complexity_score"`
	SourceType          string   `json:"source_type"`
	BatchID             int      `json:"batch_id"`
}

// RecordHeader is the column order of CSV output
var RecordHeader = []string{
	"id", "question", "answer", "question_type", "difficulty",
	"temporal_granularity", "time_span_start", "time_span_end",
	"entities_question", "countries_question", "hop_count",
	"confidence_score", "domain", "requires_calculation",
	"complexity_score", "source_type", "batch_id",
}

// NewRecord converts an accepted, scored candidate into an output record.
// BatchID is assigned later by the batcher.
func NewRecord(c *Candidate, fingerprint []byte) Record {
	names := c.EntityNames
	if names == nil {
		names = []string{}
	}
	countries := c.Countries
	if countries == nil {
		countries = []string{}
	}
	return Record{
		ID:                  uuid.NewSHA1(RecordNamespace, fingerprint).String(),
		Question:            c.Question,
		Answer:              c.Answer,
		QuestionType:        string(c.Type),
		Difficulty:          c.Score.Difficulty,
		TemporalGranularity: string(c.Range.Granularity),
		TimeSpanStart:       c.Range.SpanStart(),
		TimeSpanEnd:         c.Range.SpanEnd(),
		EntitiesQuestion:    names,
		CountriesQuestion:   countries,
		HopCount:            c.HopCount,
		ConfidenceScore:     c.Score.Confidence,
		Domain:              c.Domain,
		RequiresCalculation: c.RequiresCalculation,
		ComplexityScore:     c.Score.Complexity,
		SourceType:          string(c.Source),
		BatchID:             0,
	}
}

// Row renders the record in RecordHeader order. Lists are joined with "|".
func (r Record) Row() []string {
	return []string{
		r.ID,
		r.Question,
		r.Answer,
		r.QuestionType,
		strconv.Itoa(r.Difficulty),
		r.TemporalGranularity,
		r.TimeSpanStart,
		r.TimeSpanEnd,
		strings.Join(r.EntitiesQuestion, "|"),
		strings.Join(r.CountriesQuestion, "|"),
		strconv.Itoa(r.HopCount),
		strconv.FormatFloat(r.ConfidenceScore, 'f', 3, 64),
		r.Domain,
		strconv.FormatBool(r.RequiresCalculation),
		strconv.FormatFloat(r.ComplexityScore, 'f', 3, 64),
		r.SourceType,
		strconv.Itoa(r.BatchID),
	}
}
