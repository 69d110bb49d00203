package core

import (
	"errors"
	"fmt"
)

// Sentinel errors for pipeline operations.
var (
	ErrNoContent       = errors.New("no content container found")
	ErrMissingArtifact = errors.New("expected stage artifact not found")
	ErrChunkOrder      = errors.New("chunk markers out of sequence")
	ErrEmptyDocument   = errors.New("document HTML is empty")
	ErrHeaderMismatch  = errors.New("CSV headers do not match")
)

// Stage names used in StageError.
const (
	StageFetch     = "fetch"
	StageExtract   = "extract"
	StageAnnotate  = "annotate"
	StageSegment   = "segment"
	StageEmbed     = "embed-code"
	StageNormalize = "normalize"
	StageRefine    = "refine"
	StageParse     = "parse"
	StageMap       = "map"
	StageRender    = "render"
)

// StageError reports a failure inside one pipeline stage.
// Chunk is the 1-based chunk index, or 0 when the failure is not tied to a chunk.
type StageError struct {
	Stage string
	Chunk int
	Path  string
	Err   error
}

func (e *StageError) Error() string {
	msg := e.Stage
	if e.Chunk > 0 {
		msg += fmt.Sprintf(" (chunk #%d)", e.Chunk)
	}
	if e.Path != "" {
		msg += fmt.Sprintf(" [%s]", e.Path)
	}
	return msg + ": " + e.Err.Error()
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// NewStageError wraps err with stage context. A nil err yields nil.
func NewStageError(stage string, chunk int, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Chunk: chunk, Err: err}
}
