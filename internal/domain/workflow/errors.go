package workflow

import "errors"

var (
	// ErrInvalidTransition means no transition exists for the trigger in the current state
	ErrInvalidTransition = errors.New("invalid state transition")
	// ErrGuardFailed means every candidate transition was rejected by its guard
	ErrGuardFailed = errors.New("guard condition failed")
)
