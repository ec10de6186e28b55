package domain

import "errors"

var (
	// ErrMalformedSchedule means no schedule rows survived normalization.
	// Fatal to the pipeline run; nothing is persisted.
	ErrMalformedSchedule = errors.New("no valid schedule content after filtering")

	// ErrInvalidTimeFormat means a field could not be parsed as a time or
	// CLOSED after all repair steps. Fatal for that row only.
	ErrInvalidTimeFormat = errors.New("invalid time format")

	// ErrBaselineUnavailable means the routine schedule could not be read.
	// Difference flagging degrades to all-false; never aborts a run.
	ErrBaselineUnavailable = errors.New("baseline schedule unavailable")

	// ErrScheduleNotFound means no schedule is loaded for the requested
	// date and direction.
	ErrScheduleNotFound = errors.New("no schedule loaded for date")
)

// InvalidQueryError reports a trip query that violates the caller contract.
// The message names the violated constraint.
type InvalidQueryError struct {
	Constraint string
}

func (e *InvalidQueryError) Error() string {
	return "invalid query: " + e.Constraint
}
