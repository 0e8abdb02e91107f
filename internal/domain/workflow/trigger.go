package workflow

// Trigger represents an event that can cause a state transition
type Trigger string

const (
	TriggerToggleOn      Trigger = "TOGGLE_ON"
	TriggerCancel        Trigger = "CANCEL"
	TriggerSave          Trigger = "SAVE"
	TriggerSaveSucceeded Trigger = "SAVE_SUCCEEDED"
	TriggerSaveFailed    Trigger = "SAVE_FAILED"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
