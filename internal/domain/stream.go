package domain

import "fmt"

// Stream is one independently debounced, independently persisted channel of
// the editor. Each stream owns a disjoint set of fields in the stored
// appraisal record.
type Stream string

const (
	StreamSections     Stream = "sections"
	StreamAdjustments  Stream = "adjustments"
	StreamEffectiveAge Stream = "effectiveAge"
)

// Streams lists every save stream in a stable order.
func Streams() []Stream {
	return []Stream{StreamSections, StreamAdjustments, StreamEffectiveAge}
}

type SaveState string

const (
	SaveSaved   SaveState = "saved"
	SaveUnsaved SaveState = "unsaved"
	SaveSaving  SaveState = "saving"
)

// saveTransitions lists the allowed moves of the autosave state machine.
// A failed commit returns to Unsaved; there is no separate error state.
var saveTransitions = map[SaveState]map[SaveState]bool{
	SaveSaved:   {SaveUnsaved: true},
	SaveUnsaved: {SaveUnsaved: true, SaveSaving: true},
	SaveSaving:  {SaveSaved: true, SaveUnsaved: true},
}

// Transition validates a move from s to next.
func (s SaveState) Transition(next SaveState) (SaveState, error) {
	if !saveTransitions[s][next] {
		return s, fmt.Errorf("invalid save state transition %s -> %s", s, next)
	}
	return next, nil
}
