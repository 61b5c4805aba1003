package types

import (
	"errors"
	"fmt"
)

// Pipeline errors. Callers match them with errors.Is through StageError.
var (
	ErrFetch             = errors.New("fetch failed")
	ErrParse             = errors.New("malformed source markup")
	ErrStoreCorrupt      = errors.New("category store is corrupt")
	ErrDuplicateIdentity = errors.New("duplicate game id")
	ErrNotFound          = errors.New("not found")
	ErrConfigInvalid     = errors.New("invalid configuration")
)

// Pipeline stage names used in StageError.
const (
	StageFetch     = "fetch"
	StageParse     = "parse"
	StageLoadStore = "load store"
	StageReconcile = "reconcile"
	StageMerge     = "merge"
	StageSaveStore = "save store"
	StageWrite     = "write"
	StageReport    = "report"
)

// StageError ties a failure to the stage and the source file or endpoint
// that caused it.
type StageError struct {
	Stage  string
	Source string
	Err    error
}

// NewStageError wraps err. A nil err yields nil.
func NewStageError(stage, source string, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Source: source, Err: err}
}

func (e *StageError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Stage, e.Source, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
