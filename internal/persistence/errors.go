package persistence

import (
	"errors"
	"fmt"
)

var (
	// ErrStoreRead classifies failures while loading a collection.
	ErrStoreRead = errors.New("persistence: store read failed")
	// ErrStoreWrite classifies failures while replacing a collection.
	ErrStoreWrite = errors.New("persistence: store write failed")
)

// Operation names used by StoreError.
const (
	OpRead  = "read"
	OpWrite = "write"
)

// StoreError wraps an I/O or encoding failure raised by a Store adapter.
type StoreError struct {
	Op    string
	Store string
	Err   error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("persistence: %s %q: %v", e.Op, e.Store, e.Err)
}

// Unwrap exposes the adapter error.
func (e *StoreError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches the ErrStoreRead and ErrStoreWrite classes.
func (e *StoreError) Is(target error) bool {
	if e == nil {
		return false
	}
	switch target {
	case ErrStoreRead:
		return e.Op == OpRead
	case ErrStoreWrite:
		return e.Op == OpWrite
	}
	return false
}

// ReadError builds a StoreError for a failed read.
func ReadError(store string, err error) error {
	return &StoreError{Op: OpRead, Store: store, Err: err}
}

// WriteError builds a StoreError for a failed write.
func WriteError(store string, err error) error {
	return &StoreError{Op: OpWrite, Store: store, Err: err}
}
