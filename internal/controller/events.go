// ============================================================================
// voicekey - Push-to-Talk Dictation
// ============================================================================
//
// Package:     controller
// Description: Internal event types for the controller loop
// License:     MIT
// ============================================================================

package controller

// eventKind discriminates controller events. Every producer (hotkey
// edges, audio frames, timers, the transcription worker) funnels into
// the one event channel; the loop goroutine is the only place state
// changes.
type eventKind int

const (
	// evStart asks for a new recording session
	evStart eventKind = iota

	// evStop asks the running recording to finish normally
	evStop

	// evCancel aborts whatever is active and discards it
	evCancel

	// evFrame carries one captured audio frame
	evFrame

	// evMaxDuration fires when a recording hits the hard ceiling
	evMaxDuration

	// evModelReady reports the engine finished loading
	evModelReady

	// evModelFailed reports the engine could not load
	evModelFailed

	// evResult carries a finished transcription
	evResult

	// evResultFailed reports a failed transcription
	evResultFailed

	// evShutdown stops the loop
	evShutdown
)

// String returns the event name for logs
func (k eventKind) String() string {
	switch k {
	case evStart:
		return "start"
	case evStop:
		return "stop"
	case evCancel:
		return "cancel"
	case evFrame:
		return "frame"
	case evMaxDuration:
		return "max_duration"
	case evModelReady:
		return "model_ready"
	case evModelFailed:
		return "model_failed"
	case evResult:
		return "result"
	case evResultFailed:
		return "result_failed"
	case evShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// event is one message to the controller loop. session carries the
// originating session id for everything produced on behalf of a
// session, so stale events are dropped with a single comparison.
type event struct {
	kind    eventKind
	session uint64

	// evStart
	commandMode bool

	// evStop
	autoEnter bool

	// evFrame
	frame []float32

	// evResult / evModelFailed / evResultFailed
	text string
	err  error
}
