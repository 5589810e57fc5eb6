// Package scanerr holds the error kinds a scan can end with.
package scanerr

import (
	"errors"
	"fmt"
)

// IngestionError: the photo could not be read or re-fetched. Nothing was sent.
type IngestionError struct {
	Ref string
	Err error
}

func (e *IngestionError) Error() string {
	if e.Ref == "" {
		return fmt.Sprintf("ingest: %v", e.Err)
	}
	return fmt.Sprintf("ingest %s: %v", e.Ref, e.Err)
}

func (e *IngestionError) Unwrap() error { return e.Err }

// AnalysisTransportError: the analysis request failed and produced no response.
type AnalysisTransportError struct {
	Engine string
	Status int // HTTP status when known
	Err    error
}

func (e *AnalysisTransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s analyze %d: %v", e.Engine, e.Status, e.Err)
	}
	return fmt.Sprintf("%s analyze: %v", e.Engine, e.Err)
}

func (e *AnalysisTransportError) Unwrap() error { return e.Err }

// AnalysisParseError: a response arrived but does not match the output schema.
// Index is the offending dish (-1 for scan-level problems).
type AnalysisParseError struct {
	Index int
	Field string
	Err   error
}

func (e *AnalysisParseError) Error() string {
	switch {
	case e.Index >= 0 && e.Field != "":
		return fmt.Sprintf("analysis parse: dishes[%d].%s: %v", e.Index, e.Field, e.Err)
	case e.Field != "":
		return fmt.Sprintf("analysis parse: %s: %v", e.Field, e.Err)
	default:
		return fmt.Sprintf("analysis parse: %v", e.Err)
	}
}

func (e *AnalysisParseError) Unwrap() error { return e.Err }

// SaveConsistencyWarning: toggle-save referenced an id no collection knows.
// Non-fatal; callers log it and carry on.
type SaveConsistencyWarning struct {
	DishID string
}

func (e *SaveConsistencyWarning) Error() string {
	return fmt.Sprintf("save: dish %q not found in current results or history", e.DishID)
}

// ErrStale is returned when a scan finished after it stopped being the live one.
var ErrStale = errors.New("scan superseded or cancelled")

// Kind names the error class for status messages and HTTP mapping.
func Kind(err error) string {
	var (
		ie *IngestionError
		te *AnalysisTransportError
		pe *AnalysisParseError
		sw *SaveConsistencyWarning
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrStale):
		return "stale"
	case errors.As(err, &ie):
		return "ingestion"
	case errors.As(err, &te):
		return "transport"
	case errors.As(err, &pe):
		return "parse"
	case errors.As(err, &sw):
		return "save_consistency"
	default:
		return "internal"
	}
}

// StatusText is the short user-facing line shown while the progress
// indicator sits in its errored state.
func StatusText(err error) string {
	switch Kind(err) {
	case "ingestion":
		return "Couldn't read that photo. Please try another one."
	case "transport":
		return "The analysis service didn't answer. Please try again."
	case "parse":
		return "Couldn't make sense of the analysis. Please try again."
	default:
		return "Something went wrong. Please try again."
	}
}
