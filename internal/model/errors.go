package model

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownModel indicates a reference that names no file and no built-in model.
	ErrUnknownModel = errors.New("model: unknown model")

	// ErrUnknownKind indicates a description whose type has no registered system.
	ErrUnknownKind = errors.New("model: unknown model type")

	// ErrInvalidDescription indicates a description that failed to parse or validate.
	ErrInvalidDescription = errors.New("model: invalid description")

	ErrVFSFull      = errors.New("model: virtual file system is full")
	ErrRepeatedName = errors.New("model: file name already present")
)

// LoadError reports a model reference that could not be turned into a
// description or a simulation.
type LoadError struct {
	Ref string
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("model: load %q: %v", e.Ref, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
