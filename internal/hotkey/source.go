// ============================================================================
// voicekey - Push-to-Talk Dictation
// ============================================================================
//
// Package:     hotkey
// Description: Backend-neutral hotkey event source
// License:     MIT
// ============================================================================

package hotkey

import (
	"fmt"

	"voicekey/pkg/core/logging"
)

// EventType discriminates source events
type EventType int

const (
	// ChordPressed means the full chord of a binding went down
	ChordPressed EventType = iota

	// ModifierReleased means a guard modifier's key-up edge arrived
	ModifierReleased
)

// Event is one edge from the hotkey backend
type Event struct {
	Type EventType

	// Role is set for ChordPressed events
	Role Role

	// Modifier is set for ModifierReleased events
	Modifier string
}

// Source delivers hotkey edges for a binding set. Start registers the
// bindings with the OS and begins pushing events; it returns an error
// when any chord cannot be grabbed. Stop unregisters everything and
// stops the stream.
type Source interface {
	Start(set *BindingSet, events chan<- Event) error
	Stop()
}

// NewSource returns the backend selected by name
func NewSource(backend string, log *logging.Logger) (Source, error) {
	switch backend {
	case "gohook":
		return NewGohookSource(log), nil
	case "xhotkey":
		return NewXHotkeySource(log), nil
	default:
		return nil, fmt.Errorf("unknown hotkey backend %q", backend)
	}
}

// String returns the event type name for logs
func (t EventType) String() string {
	switch t {
	case ChordPressed:
		return "chord_pressed"
	case ModifierReleased:
		return "modifier_released"
	default:
		return "unknown"
	}
}
