// =============================================================================
// GSTR-2B to Tally Masters - Shared Types
// =============================================================================
//
// This package contains the error taxonomy shared across modules. It has no
// dependencies on other internal packages so that every stage can report
// failures the same way without import cycles. Types defined here are used by:
//   - report     (MalformedSource, InvalidFieldValue)
//   - invoice    (MalformedSource, InvalidFieldValue)
//   - validation (InvalidFieldValue)
//   - xmlwriter  (RenderFailure)
//   - converter  (all of them, wrapped in StageError)
//
// =============================================================================

package types

import (
	"errors"
	"fmt"
)

// =============================================================================
// ERROR TAXONOMY
// =============================================================================

var (
	// ErrSourceUnavailable means the input document cannot be located or read.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrMalformedSource means the input is readable but does not have the
	// expected shape (not JSON, or a required nested path is missing).
	ErrMalformedSource = errors.New("malformed source")

	// ErrInvalidFieldValue means a numeric field is present but not numeric.
	ErrInvalidFieldValue = errors.New("invalid field value")

	// ErrRenderFailure means the output document cannot be built or written.
	ErrRenderFailure = errors.New("render failure")
)

// =============================================================================
// STAGE ERRORS
// =============================================================================

// Stage names a step of the conversion pipeline.
type Stage string

const (
	StageRead      Stage = "read"
	StageNormalize Stage = "normalize"
	StageDerive    Stage = "derive"
	StageRender    Stage = "render"
	StageWrite     Stage = "write"
)

// StageError identifies which stage failed for which source.
// The wrapped error carries one of the taxonomy sentinels above.
type StageError struct {
	// Stage is the pipeline step that failed.
	Stage Stage

	// Source is the input location being processed.
	Source string

	// Err is the underlying error.
	Err error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed for %s: %v", e.Stage, e.Source, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// NewStageError wraps err with stage attribution. A nil err yields nil.
func NewStageError(stage Stage, source string, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Source: source, Err: err}
}

// StageOf returns the stage recorded in err, or "" if err carries none.
func StageOf(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}

// KindOf returns the first taxonomy sentinel err matches, or nil.
func KindOf(err error) error {
	for _, kind := range []error{ErrSourceUnavailable, ErrMalformedSource, ErrInvalidFieldValue, ErrRenderFailure} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
