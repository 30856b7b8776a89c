package apperrors

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyUpdating is returned by the single-flight guard when a
	// cycle is already in progress. Callers back off until the next tick.
	ErrAlreadyUpdating = errors.New("update already in progress")

	ErrSourceUnavailable = errors.New("log source unavailable")
	ErrSourceTimeout     = errors.New("log source timed out")

	// ErrTransactionAborted means the commit transaction failed and the
	// watermark was not advanced; the next cycle reprocesses the batch.
	ErrTransactionAborted = errors.New("commit transaction aborted")

	ErrNotFound = errors.New("not found")

	ErrMalformedBugRule = errors.New("malformed bug rule")
)

// CycleState identifies the update-cycle step an error occurred in.
type CycleState string

const (
	StateIdle          CycleState = "idle"
	StateFetching      CycleState = "fetching"
	StateNormalizing   CycleState = "normalizing"
	StateMerging       CycleState = "merging"
	StateCommitting    CycleState = "committing"
	StateRankRecompute CycleState = "rank_recompute"
	StateCacheRefresh  CycleState = "cache_refresh"
)

// CycleError wraps a failure with the state the cycle died in.
type CycleError struct {
	State CycleState
	Err   error
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("update cycle failed during %s: %v", e.State, e.Err)
}

func (e *CycleError) Unwrap() error { return e.Err }

func NewCycleError(state CycleState, err error) *CycleError {
	return &CycleError{State: state, Err: err}
}
