package pipeline

import (
	"errors"
	"fmt"
)

// ErrUpToDate is returned by a step whose output already exists while
// rebuild is off. Pipeline records the step as skipped and moves on.
var ErrUpToDate = errors.New("output already exists")

// ErrDuplicateSite is recorded on a batch run whose host was already queued.
var ErrDuplicateSite = errors.New("site already in batch")

// ErrPrerequisite matches every PrerequisiteError with errors.Is.
var ErrPrerequisite = errors.New("missing prerequisite")

// PrerequisiteError reports that a step's input artifact is missing.
type PrerequisiteError struct {
	// Step is the step that could not run.
	Step string

	// Missing describes the absent artifact.
	Missing string

	// RunFirst names the step that produces it.
	RunFirst string
}

func (e *PrerequisiteError) Error() string {
	return fmt.Sprintf("%s not found: run %s first", e.Missing, e.RunFirst)
}

// Unwrap makes errors.Is(err, ErrPrerequisite) hold.
func (e *PrerequisiteError) Unwrap() error {
	return ErrPrerequisite
}
