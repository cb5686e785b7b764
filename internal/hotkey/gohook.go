// ============================================================================
// voicekey - Push-to-Talk Dictation
// ============================================================================
//
// Package:     hotkey
// Description: Raw keyboard hook backend (robotn/gohook)
// License:     MIT
// ============================================================================

package hotkey

import (
	"sync"

	hook "github.com/robotn/gohook"

	"voicekey/pkg/core/logging"
)

// gohook key name differences from our chord vocabulary
var gohookKeyNames = map[string]string{
	"escape": "esc",
	"return": "enter",
}

func gohookName(key string) string {
	if n, ok := gohookKeyNames[key]; ok {
		return n
	}
	return key
}

// GohookSource registers chords on the global keyboard hook. It sees
// raw key-up edges, so guard modifiers report their real release
// instead of an approximation.
type GohookSource struct {
	log *logging.Logger

	mu      sync.Mutex
	running bool
	done    chan bool
}

// NewGohookSource creates the raw hook backend
func NewGohookSource(log *logging.Logger) *GohookSource {
	return &GohookSource{log: log}
}

// Start registers all chords and guard modifiers and starts the hook.
// Callbacks run on the hook's own goroutine; events that do not fit the
// channel are dropped rather than stalling the hook.
func (s *GohookSource) Start(set *BindingSet, events chan<- Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range set.Bindings() {
		role := b.Role
		keys := make([]string, 0, len(b.Chord.Modifiers)+1)
		for _, m := range b.Chord.Modifiers {
			keys = append(keys, gohookName(m))
		}
		keys = append(keys, gohookName(b.Chord.Key))

		hook.Register(hook.KeyDown, keys, func(e hook.Event) {
			s.emit(events, Event{Type: ChordPressed, Role: role})
		})
	}

	for _, mod := range set.GuardModifiers() {
		mod := mod
		hook.Register(hook.KeyUp, []string{gohookName(mod)}, func(e hook.Event) {
			s.emit(events, Event{Type: ModifierReleased, Modifier: mod})
		})
	}

	evChan := hook.Start()
	s.done = hook.Process(evChan)
	s.running = true
	s.log.Debug("keyboard hook started", "bindings", len(set.Bindings()))
	return nil
}

// Stop ends the hook and waits for its processor to drain
func (s *GohookSource) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	hook.End()
	if s.done != nil {
		<-s.done
	}
	s.running = false
}

func (s *GohookSource) emit(events chan<- Event, ev Event) {
	select {
	case events <- ev:
	default:
		s.log.Warn("hotkey event dropped, dispatcher backlogged",
			"type", ev.Type, "role", ev.Role)
	}
}
