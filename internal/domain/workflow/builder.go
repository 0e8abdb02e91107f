package workflow

import (
	"context"
	"fmt"
)

// GuardFunc decides at fire time whether a transition may be taken
type GuardFunc func(ctx context.Context) bool

// StateMachineBuilder collects transitions and builds machines from them
type StateMachineBuilder interface {
	Configure(state State) StateConfiguration
	Build(initialState State) StateMachine
}

// StateConfiguration adds the transitions leaving one state
type StateConfiguration interface {
	Permit(trigger Trigger, toState State) StateConfiguration
	PermitIf(trigger Trigger, toState State, guard GuardFunc) StateConfiguration
}

type transition struct {
	to    State
	guard GuardFunc
}

// table maps a source state and trigger to its candidate transitions, tried in order
type table map[State]map[Trigger][]transition

func (t table) clone() table {
	out := make(table, len(t))
	for from, byTrigger := range t {
		copied := make(map[Trigger][]transition, len(byTrigger))
		for trigger, candidates := range byTrigger {
			copied[trigger] = append([]transition(nil), candidates...)
		}
		out[from] = copied
	}
	return out
}

type builder struct {
	table table
}

type stateRules struct {
	from  State
	table table
}

// NewBuilder returns an empty builder. Invalid states panic at configuration time.
func NewBuilder() StateMachineBuilder {
	return &builder{table: table{}}
}

func (b *builder) Configure(state State) StateConfiguration {
	if !state.IsValid() {
		panic(fmt.Sprintf("invalid state: %s", state))
	}
	if _, ok := b.table[state]; !ok {
		b.table[state] = map[Trigger][]transition{}
	}
	return &stateRules{from: state, table: b.table}
}

// Build freezes the transitions configured so far into a new machine. Later
// Configure calls do not affect machines already built.
func (b *builder) Build(initialState State) StateMachine {
	if !initialState.IsValid() {
		panic(fmt.Sprintf("invalid initial state: %s", initialState))
	}
	return &machine{current: initialState, table: b.table.clone()}
}

func (r *stateRules) Permit(trigger Trigger, toState State) StateConfiguration {
	return r.PermitIf(trigger, toState, nil)
}

func (r *stateRules) PermitIf(trigger Trigger, toState State, guard GuardFunc) StateConfiguration {
	if !toState.IsValid() {
		panic(fmt.Sprintf("invalid target state: %s", toState))
	}
	r.table[r.from][trigger] = append(r.table[r.from][trigger], transition{to: toState, guard: guard})
	return r
}

type machine struct {
	current State
	table   table
}

func (m *machine) State() State {
	return m.current
}

// CanFire ignores guards since they need a context
func (m *machine) CanFire(trigger Trigger) bool {
	return len(m.table[m.current][trigger]) > 0
}

func (m *machine) Fire(ctx context.Context, trigger Trigger) error {
	candidates := m.table[m.current][trigger]
	if len(candidates) == 0 {
		return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, trigger, m.current)
	}

	for _, t := range candidates {
		if t.guard == nil || t.guard(ctx) {
			m.current = t.to
			return nil
		}
	}
	return fmt.Errorf("%w: %s from %s", ErrGuardFailed, trigger, m.current)
}

func (m *machine) PermittedTriggers() []Trigger {
	byTrigger := m.table[m.current]
	triggers := make([]Trigger, 0, len(byTrigger))
	for trigger := range byTrigger {
		triggers = append(triggers, trigger)
	}
	return triggers
}
