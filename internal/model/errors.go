package model

import "errors"

// Programmer errors, input errors, and I/O errors are the three kinds that
// ever surface as a Go error. Domain rejections (adjudication
// REJECTED, qualification FAIL) are ordinary return values, never errors.
var (
	// ErrUnknownEnum is an input error: a DSL enum literal did not match any
	// member of its closed set.
	ErrUnknownEnum = errors.New("unknown enum value")

	// ErrMissingField is an input error: a required DSL field was absent,
	// or a boolean or ISO-8601 date field value was malformed.
	ErrMissingField = errors.New("missing required field")

	// ErrNotFound is an input error: a lookup referenced an unknown entity id.
	ErrNotFound = errors.New("entity not found")

	// ErrProgrammerMisuse marks a violation of an internal contract (e.g.
	// requesting a trace for a REJECTED adjudication). Never caught inside
	// the core; callers that trigger it have a bug.
	ErrProgrammerMisuse = errors.New("programmer error")
)
