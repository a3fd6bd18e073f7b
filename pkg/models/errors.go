package models

import (
	"errors"
	"fmt"
)

// Error kinds produced by the analysis pipeline.
var (
	ErrNotFound         = errors.New("file not found")
	ErrUnreadable       = errors.New("file could not be read")
	ErrEmpty            = errors.New("file is empty")
	ErrInvalidStructure = errors.New("invalid structure")
)

// AnalysisError attaches a path to one of the error kinds above.
type AnalysisError struct {
	Kind error
	Path string
	Err  error
}

// NewAnalysisError builds an AnalysisError of kind for path.
func NewAnalysisError(kind error, path string, cause error) *AnalysisError {
	return &AnalysisError{Kind: kind, Path: path, Err: cause}
}

func (e *AnalysisError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v: %v", e.Path, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Kind)
}

// Unwrap exposes both the kind and the cause to errors.Is.
func (e *AnalysisError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}
