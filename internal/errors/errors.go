// Package errors provides error handling for chronoqa.
//
// It re-exports github.com/cockroachdb/errors and declares the generation
// error taxonomy. Domain errors are created with Mark so that errors.Is
// classifies them while the message stays descriptive:
//
//	return errors.Mark(errors.Newf("entity %q not found", id), errors.ErrLookup)
//
// Per-candidate errors (lookup, incomparable, undefined duration, insufficient
// data, validation, duplicate) are recoverable. ErrTemplate and ErrConfig are
// fatal at startup.
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	Mark         = crdb.Mark
)

// User-facing messages and details
var (
	WithHint      = crdb.WithHint
	WithHintf     = crdb.WithHintf
	WithDetail    = crdb.WithDetail
	WithDetailf   = crdb.WithDetailf
	GetAllHints   = crdb.GetAllHints
	GetAllDetails = crdb.GetAllDetails
)

// Error inspection
var (
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
)

// Generation taxonomy.
var (
	// ErrLookup marks a missing entity or fact reference.
	ErrLookup = New("lookup failed")

	// ErrIncomparable marks an answer that cannot be derived because an
	// attribute is missing, values tie, or no relation exists.
	ErrIncomparable = New("incomparable")

	// ErrUndefinedDuration marks a duration that cannot be computed
	// (open-ended event, or a unit finer than the data precision).
	ErrUndefinedDuration = New("undefined duration")

	// ErrTemplate marks a misconfigured template catalog.
	ErrTemplate = New("template error")

	// ErrInsufficientData marks a strategy that cannot supply a candidate
	// for the requested index, or whose space is empty.
	ErrInsufficientData = New("insufficient data")

	// ErrValidationRejected marks a candidate that failed validation or scoring.
	ErrValidationRejected = New("validation rejected")

	// ErrDuplicate marks a candidate whose fingerprint was already recorded.
	ErrDuplicate = New("duplicate")

	// ErrConfig marks an invalid configuration.
	ErrConfig = New("invalid configuration")
)

// Reason returns a short, stable label for a per-candidate error, used for
// rejection counters and logs.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case Is(err, ErrDuplicate):
		return "duplicate"
	case Is(err, ErrValidationRejected):
		return "validation"
	case Is(err, ErrUndefinedDuration):
		return "undefined_duration"
	case Is(err, ErrIncomparable):
		return "incomparable"
	case Is(err, ErrLookup):
		return "lookup"
	case Is(err, ErrInsufficientData):
		return "insufficient_data"
	case Is(err, ErrTemplate):
		return "template"
	default:
		return "other"
	}
}

// IsRecoverable reports whether err only affects a single candidate.
func IsRecoverable(err error) bool {
	return IsAny(err,
		ErrLookup,
		ErrIncomparable,
		ErrUndefinedDuration,
		ErrInsufficientData,
		ErrValidationRejected,
		ErrDuplicate,
	)
}
