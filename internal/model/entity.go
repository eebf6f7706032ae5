package model

import (
	"fmt"
	"strconv"
)

// Predicates understood by the generators
const (
	PredBegan      = "began"
	PredEnded      = "ended"
	PredBorn       = "born"
	PredDied       = "died"
	PredFounded    = "founded"
	PredDissolved  = "dissolved"
	PredLocatedIn  = "located_in"
	PredCountry    = "country"
	PredField      = "field"
	PredCasualties = "casualties"
	PredCaused     = "caused"     // subject caused object (entity)
	PredInfluenced = "influenced" // subject influenced object (entity)
)

// EntityType classifies an entity
type EntityType string

const (
	EntityPerson       EntityType = "person"
	EntityOrganization EntityType = "organization"
	EntityNation       EntityType = "nation"
	EntityConcept      EntityType = "concept"
	EntityEvent        EntityType = "event"
)

// Valid reports whether t is a known entity type
func (t EntityType) Valid() bool {
	switch t {
	case EntityPerson, EntityOrganization, EntityNation, EntityConcept, EntityEvent:
		return true
	}
	return false
}

// ObjectKind says how to read a Fact's object
type ObjectKind string

const (
	ObjectEntity ObjectKind = "entity"
	ObjectDate   ObjectKind = "date"
	ObjectScalar ObjectKind = "scalar"
	ObjectText   ObjectKind = "text"
)

// Fact is an atomic subject-predicate-object statement. Immutable once loaded.
type Fact struct {
	Subject    string     `json:"subject" yaml:"subject"`
	Predicate  string     `json:"predicate" yaml:"predicate"`
	Object     string     `json:"object" yaml:"object"`
	Kind       ObjectKind `json:"kind" yaml:"kind"`
	Date       Date       `json:"date,omitempty" yaml:"-"` // set when Kind is date
	Country    string     `json:"country,omitempty" yaml:"country,omitempty"`
	Domain     string     `json:"domain,omitempty" yaml:"domain,omitempty"`
	Source     string     `json:"source,omitempty" yaml:"source,omitempty"`         // provenance label, e.g. "curated"
	Confidence float64    `json:"confidence,omitempty" yaml:"confidence,omitempty"` // confidence of source in [0, 1]
}

// Key identifies a fact for hop counting
func (f Fact) Key() string {
	return f.Subject + "\x1f" + f.Predicate + "\x1f" + f.Object
}

// Scalar parses a scalar object
func (f Fact) Scalar() (int64, error) {
	if f.Kind != ObjectScalar {
		return 0, fmt.Errorf("fact %s/%s is %s, not scalar", f.Subject, f.Predicate, f.Kind)
	}
	return strconv.ParseInt(f.Object, 10, 64)
}

func (f Fact) String() string {
	return fmt.Sprintf("<%s, %s, %s>", f.Subject, f.Predicate, f.Object)
}

// Entity is a named thing with facts attached. Entities never mutate after load.
type Entity struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Type      EntityType `json:"type"`
	Domain    string     `json:"domain,omitempty"`
	Countries []string   `json:"countries,omitempty"`
	Facts     []Fact     `json:"-"`
}

// Fact returns the first fact with the given predicate
func (e *Entity) Fact(predicate string) (Fact, bool) {
	for _, f := range e.Facts {
		if f.Predicate == predicate {
			return f, true
		}
	}
	return Fact{}, false
}

// Event is an entity anchored in time. End is nil for open-ended events.
type Event struct {
	*Entity
	Start     Date
	End       *Date
	StartFact Fact
	EndFact   *Fact
}

// OpenEnded reports whether the event has no known end
func (e *Event) OpenEnded() bool {
	return e.End == nil
}

// Range returns the event's span. Open-ended events span to their start.
func (e *Event) Range() TemporalRange {
	if e.End == nil {
		return NewRange(e.Start, e.Start)
	}
	return NewRange(e.Start, *e.End)
}

// ActiveRange returns the span used for overlap tests; open-ended events
// are ongoing and extend to the end of the calendar.
func (e *Event) ActiveRange() TemporalRange {
	if e.End == nil {
		return TemporalRange{Start: e.Start, End: DayDate(9999, 12, 31), Granularity: GranularityCentury}
	}
	return e.Range()
}
