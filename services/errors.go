package services

import (
	"errors"
	"fmt"
)

// Store error kinds. Match them with errors.Is.
var (
	ErrAlreadyExists = errors.New("already exists")
	ErrNotFound      = errors.New("not found")
	ErrCorruptData   = errors.New("corrupt data")
	ErrIOFailure     = errors.New("io failure")
	ErrInvalidRecord = errors.New("invalid record")
)

// StoreError describes a failed collection store operation
type StoreError struct {
	Op    string // operation, e.g. "import"
	DirID int    // -1 for data root operations
	Path  string
	Kind  error // one of the Err* kinds above
	Err   error
}

func (e *StoreError) Error() string {
	msg := e.Op
	if e.DirID >= 0 {
		msg += fmt.Sprintf(" collection %d", e.DirID)
	}
	if e.Path != "" {
		msg += fmt.Sprintf(" (%s)", e.Path)
	}
	msg += ": " + e.Kind.Error()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the underlying cause.
func (e *StoreError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func storeErr(op string, dirID int, path string, kind, err error) error {
	return &StoreError{Op: op, DirID: dirID, Path: path, Kind: kind, Err: err}
}
