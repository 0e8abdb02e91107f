package workflow

import "context"

// StateMachine tracks the current state and applies permitted transitions.
// It is not safe for concurrent use; callers hold their own lock.
type StateMachine interface {
	State() State
	// CanFire reports whether any transition exists for trigger, guards aside
	CanFire(trigger Trigger) bool
	Fire(ctx context.Context, trigger Trigger) error
	PermittedTriggers() []Trigger
}
