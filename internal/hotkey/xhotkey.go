// ============================================================================
// voicekey - Push-to-Talk Dictation
// ============================================================================
//
// Package:     hotkey
// Description: Per-chord registration backend (golang.design/x/hotkey)
// License:     MIT
// ============================================================================

package hotkey

import (
	"fmt"
	"sync"

	xhotkey "golang.design/x/hotkey"

	"voicekey/pkg/core/logging"
)

var xModifiers = map[string]xhotkey.Modifier{
	"ctrl":  xhotkey.ModCtrl,
	"shift": xhotkey.ModShift,
	"alt":   xhotkey.Mod1,
	"cmd":   xhotkey.Mod4,
}

var xKeys = map[string]xhotkey.Key{
	"space":  xhotkey.KeySpace,
	"return": xhotkey.KeyReturn,
	"enter":  xhotkey.KeyReturn,
	"escape": xhotkey.KeyEscape,
	"esc":    xhotkey.KeyEscape,
	"a":      xhotkey.KeyA, "b": xhotkey.KeyB, "c": xhotkey.KeyC,
	"d": xhotkey.KeyD, "e": xhotkey.KeyE, "f": xhotkey.KeyF,
	"g": xhotkey.KeyG, "h": xhotkey.KeyH, "i": xhotkey.KeyI,
	"j": xhotkey.KeyJ, "k": xhotkey.KeyK, "l": xhotkey.KeyL,
	"m": xhotkey.KeyM, "n": xhotkey.KeyN, "o": xhotkey.KeyO,
	"p": xhotkey.KeyP, "q": xhotkey.KeyQ, "r": xhotkey.KeyR,
	"s": xhotkey.KeyS, "t": xhotkey.KeyT, "u": xhotkey.KeyU,
	"v": xhotkey.KeyV, "w": xhotkey.KeyW, "x": xhotkey.KeyX,
	"y": xhotkey.KeyY, "z": xhotkey.KeyZ,
}

// XHotkeySource registers each chord through the desktop's hotkey API.
// It never sees raw key edges, so a chord's own key-up stands in for
// the first-modifier release. The watchdog covers the cases where that
// approximation is wrong.
type XHotkeySource struct {
	log *logging.Logger

	mu   sync.Mutex
	keys []*xhotkey.Hotkey
	done chan struct{}
	wg   sync.WaitGroup
}

// NewXHotkeySource creates the per-chord registration backend
func NewXHotkeySource(log *logging.Logger) *XHotkeySource {
	return &XHotkeySource{log: log}
}

// Start registers every binding's chord. A chord already grabbed by
// another application fails registration and aborts startup.
func (s *XHotkeySource) Start(set *BindingSet, events chan<- Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.done = make(chan struct{})

	for _, b := range set.Bindings() {
		mods := make([]xhotkey.Modifier, 0, len(b.Chord.Modifiers))
		for _, m := range b.Chord.Modifiers {
			xm, ok := xModifiers[m]
			if !ok {
				s.unregisterLocked()
				return fmt.Errorf("binding %s: modifier %q not supported by this backend", b.Role, m)
			}
			mods = append(mods, xm)
		}
		key, ok := xKeys[b.Chord.Key]
		if !ok {
			s.unregisterLocked()
			return fmt.Errorf("binding %s: key %q not supported by this backend", b.Role, b.Chord.Key)
		}

		hk := xhotkey.New(mods, key)
		if err := hk.Register(); err != nil {
			s.unregisterLocked()
			return fmt.Errorf("registering %s chord %q: %w", b.Role, b.Chord, err)
		}
		s.keys = append(s.keys, hk)

		s.wg.Add(1)
		go s.watch(hk, b, events)
	}
	return nil
}

// Stop unregisters every chord and stops the watch goroutines
func (s *XHotkeySource) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done == nil {
		return
	}
	close(s.done)
	s.unregisterLocked()
	s.wg.Wait()
	s.done = nil
}

func (s *XHotkeySource) unregisterLocked() {
	for _, hk := range s.keys {
		hk.Unregister()
	}
	s.keys = nil
}

func (s *XHotkeySource) watch(hk *xhotkey.Hotkey, b Binding, events chan<- Event) {
	defer s.wg.Done()
	mod := b.Chord.FirstModifier()
	for {
		select {
		case <-s.done:
			return
		case <-hk.Keydown():
			s.emit(events, Event{Type: ChordPressed, Role: b.Role})
		case <-hk.Keyup():
			if mod != "" {
				s.emit(events, Event{Type: ModifierReleased, Modifier: mod})
			}
		}
	}
}

func (s *XHotkeySource) emit(events chan<- Event, ev Event) {
	select {
	case events <- ev:
	case <-s.done:
	}
}
