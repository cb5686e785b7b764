// ============================================================================
// voicekey - Push-to-Talk Dictation
// ============================================================================
//
// Package:     controller
// Description: Recording lifecycle states and transition table
// License:     MIT
// ============================================================================

package controller

// State is the recording lifecycle state
type State int

const (
	// StateIdle means no session is active
	StateIdle State = iota

	// StateModelLoading means a start was requested while the engine
	// was not ready; recording begins when loading finishes
	StateModelLoading

	// StateRecording means audio is being captured
	StateRecording

	// StateProcessing means transcription or delivery is in flight
	StateProcessing

	// StateCancelled is the transient pass-through on the way back to
	// idle after a cancel; observers see it so the UI can flash it
	StateCancelled
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateModelLoading:
		return "model_loading"
	case StateRecording:
		return "recording"
	case StateProcessing:
		return "processing"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// validTransitions is the total transition table. Anything not listed
// is rejected, which catches controller bugs early.
var validTransitions = map[State][]State{
	StateIdle:         {StateModelLoading, StateRecording},
	StateModelLoading: {StateRecording, StateIdle, StateCancelled},
	StateRecording:    {StateProcessing, StateIdle, StateCancelled},
	StateProcessing:   {StateIdle, StateCancelled},
	StateCancelled:    {StateIdle},
}

// canTransition reports whether from -> to is allowed
func canTransition(from, to State) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Observer is notified after every state change, with a short reason
// string ("" for ordinary transitions, otherwise e.g. "cancelled",
// "silence_timeout", "audio_error"). Resource failures that leave the
// state where it was still notify, with from == to, so a UI can
// surface the error. Calls come from the controller's event loop and
// must return quickly.
type Observer interface {
	StateChanged(from, to State, reason string)
}

// ObserverFunc adapts a function to the Observer interface
type ObserverFunc func(from, to State, reason string)

// StateChanged calls the function
func (f ObserverFunc) StateChanged(from, to State, reason string) {
	f(from, to, reason)
}
