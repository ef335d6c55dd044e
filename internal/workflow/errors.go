package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrNoFiles is returned when a run is requested with an empty selection.
	ErrNoFiles = errors.New("no input files selected")

	// ErrAlreadyRunning is returned when a run is requested while another is
	// in progress.
	ErrAlreadyRunning = errors.New("a workflow run is already in progress")

	// ErrMissingFunction is returned when a script does not define the
	// function its stage needs.
	ErrMissingFunction = errors.New("script does not define the required function")
)

// StageError wraps a failure inside the extract or merge stage.
type StageError struct {
	Stage string
	// Index is the file position for extract failures, -1 otherwise.
	Index int
	File  string
	Err   error
}

func (e *StageError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s failed for %s (file %d): %v", e.Stage, e.File, e.Index, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// ResultTypeError is returned when a merge result is neither a blob nor text.
type ResultTypeError struct {
	Type string
}

func (e *ResultTypeError) Error() string {
	return fmt.Sprintf("merge returned %s, want splice.Blob, []byte or string", e.Type)
}
