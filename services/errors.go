package services

import "fmt"

// ValidationError rejects malformed or missing input before any mutation.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ConflictError rejects an illegal state transition. Guard names the exact
// check that failed so admin tooling can show it.
type ConflictError struct {
	Guard string
}

func (e *ConflictError) Error() string { return e.Guard }

// TransientError wraps failures worth retrying: gateway/network/database
// unavailability and lost optimistic-concurrency races.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *TransientError) Unwrap() error { return e.Err }
