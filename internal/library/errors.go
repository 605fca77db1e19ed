package library

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a record id is not in the store.
	ErrNotFound = errors.New("record not found")
	// ErrRecordBusy is returned when a record already has a mutation in flight.
	ErrRecordBusy = errors.New("record is being updated")
	// ErrInvalidStatus is returned for statuses outside TO_READ, READ, ABANDONED.
	ErrInvalidStatus = errors.New("invalid status")
	// ErrInvalidRating is returned for ratings outside [0,5] or off the half step.
	ErrInvalidRating = errors.New("invalid rating")
	// ErrAlreadyCommitted is returned when a Mutation is committed twice.
	ErrAlreadyCommitted = errors.New("mutation already committed")
)

// FetchError reports that the library could not be loaded. The store keeps
// whatever it held before.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("load library: %v", e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Op names the mutation that failed.
type Op string

const (
	OpAdd    Op = "add"
	OpStatus Op = "status"
	OpRating Op = "rating"
)

// MutationError reports a failed add, status change, or rating change. For
// status and rating changes the touched field has already been restored when
// RolledBack is true; it is false only when a later write had replaced the
// optimistic value.
type MutationError struct {
	Op         Op
	RecordID   string
	RolledBack bool
	Err        error
}

func (e *MutationError) Error() string {
	switch e.Op {
	case OpAdd:
		return fmt.Sprintf("add to library: %v", e.Err)
	default:
		return fmt.Sprintf("update %s of record %s: %v", e.Op, e.RecordID, e.Err)
	}
}

func (e *MutationError) Unwrap() error {
	return e.Err
}

// Message returns a short sentence suitable for a status line.
func (e *MutationError) Message() string {
	switch e.Op {
	case OpAdd:
		return "Could not add the book to your library. Please try again."
	case OpStatus:
		return "Could not move the book. Its shelf was restored."
	case OpRating:
		return "Could not save the rating. The previous rating was restored."
	default:
		return "Update failed."
	}
}
