package workflow

// State represents the edit state of one section of an invoice
type State string

const (
	StateViewing State = "VIEWING"
	StateEditing State = "EDITING"
	StateSaving  State = "SAVING"
)

var validStates = map[State]bool{
	StateViewing: true,
	StateEditing: true,
	StateSaving:  true,
}

var inputStates = map[State]bool{
	StateEditing: true,
	StateSaving:  true,
}

// RendersInputs returns true while the section shows its fields as inputs
func (s State) RendersInputs() bool {
	return inputStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a valid section state
func (s State) IsValid() bool {
	return validStates[s]
}
