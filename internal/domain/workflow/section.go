package workflow

// NewSectionMachine builds the edit lifecycle of a single section:
//
//	VIEWING --TOGGLE_ON--> EDITING --SAVE--> SAVING --SAVE_SUCCEEDED--> VIEWING
//	EDITING --CANCEL--> VIEWING              SAVING --SAVE_FAILED--> EDITING
//
// canEdit guards TOGGLE_ON; a nil guard always permits it.
func NewSectionMachine(canEdit GuardFunc) StateMachine {
	builder := NewBuilder()

	builder.Configure(StateViewing).
		PermitIf(TriggerToggleOn, StateEditing, canEdit)

	builder.Configure(StateEditing).
		Permit(TriggerCancel, StateViewing).
		Permit(TriggerSave, StateSaving)

	builder.Configure(StateSaving).
		Permit(TriggerSaveSucceeded, StateViewing).
		Permit(TriggerSaveFailed, StateEditing)

	return builder.Build(StateViewing)
}
