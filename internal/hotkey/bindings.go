// ============================================================================
// voicekey - Push-to-Talk Dictation
// ============================================================================
//
// Package:     hotkey
// Description: Hotkey binding roles, chord parsing and validation
// License:     MIT
// ============================================================================

package hotkey

import (
	"fmt"
	"sort"
	"strings"
)

// Role identifies what a binding does when its chord is pressed
type Role int

const (
	// RoleToggle starts a dictation recording, or stops it when one is
	// already running
	RoleToggle Role = iota

	// RoleStopEnter stops a running recording and requests auto-enter
	// after delivery. Pressed while idle it does nothing.
	RoleStopEnter

	// RoleCancel aborts the current recording or in-flight processing
	// and discards everything
	RoleCancel

	// RoleCommand starts a command-mode recording whose transcript is
	// matched against the voice-command table instead of being typed
	RoleCommand
)

// String returns the role name used in logs and errors
func (r Role) String() string {
	switch r {
	case RoleToggle:
		return "toggle"
	case RoleStopEnter:
		return "stop_enter"
	case RoleCancel:
		return "cancel"
	case RoleCommand:
		return "command"
	default:
		return "unknown"
	}
}

// modifier name normalization, platform aliases included
var modifierAliases = map[string]string{
	"ctrl":    "ctrl",
	"control": "ctrl",
	"shift":   "shift",
	"alt":     "alt",
	"option":  "alt",
	"opt":     "alt",
	"cmd":     "cmd",
	"command": "cmd",
	"super":   "cmd",
	"win":     "cmd",
	"meta":    "cmd",
}

// Chord is a parsed key combination: zero or more modifiers in the order
// the user wrote them, plus one terminal key.
type Chord struct {
	Modifiers []string
	Key       string
}

// ParseChord parses a chord string like "ctrl+shift+space". Modifier
// order is preserved; the last non-modifier token is the key.
func ParseChord(s string) (Chord, error) {
	var c Chord

	tokens := strings.Split(s, "+")
	for i, tok := range tokens {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if tok == "" {
			return c, fmt.Errorf("empty token in chord %q", s)
		}
		if canonical, isMod := modifierAliases[tok]; isMod && i < len(tokens)-1 {
			c.Modifiers = append(c.Modifiers, canonical)
			continue
		}
		if c.Key != "" {
			return c, fmt.Errorf("chord %q has more than one non-modifier key", s)
		}
		c.Key = tok
	}
	if c.Key == "" {
		return c, fmt.Errorf("chord %q has no key", s)
	}
	return c, nil
}

// FirstModifier returns the guard key for this chord: the first
// modifier in declaration order. A chord that is a lone modifier key
// ("ctrl" as a stop-only binding) guards on that key itself, so a held
// or repeating modifier cannot refire and the chord shares a guard with
// any combination starting on the same physical key. Only a chord with
// no modifier anywhere ("f9") returns "".
func (c Chord) FirstModifier() string {
	if len(c.Modifiers) > 0 {
		return c.Modifiers[0]
	}
	if canonical, ok := modifierAliases[c.Key]; ok {
		return canonical
	}
	return ""
}

// Canonical returns an order-independent identity for duplicate
// detection. "shift+ctrl+space" and "ctrl+shift+space" collide.
func (c Chord) Canonical() string {
	mods := make([]string, len(c.Modifiers))
	copy(mods, c.Modifiers)
	sort.Strings(mods)
	return strings.Join(append(mods, c.Key), "+")
}

// String renders the chord back in declaration order
func (c Chord) String() string {
	return strings.Join(append(append([]string{}, c.Modifiers...), c.Key), "+")
}

// Keys returns all chord members with the modifiers first, the form the
// raw hook backend registers.
func (c Chord) Keys() []string {
	return append(append([]string{}, c.Modifiers...), c.Key)
}

// Binding pairs a role with its chord
type Binding struct {
	Role  Role
	Chord Chord
}

// SharesModifierWith reports whether two bindings compete for the same
// guard, i.e. have the same first modifier.
func (b Binding) SharesModifierWith(other Binding) bool {
	m := b.Chord.FirstModifier()
	return m != "" && m == other.Chord.FirstModifier()
}

// Spec holds the configured chord strings per role. Empty strings
// disable the binding; Toggle is required.
type Spec struct {
	Toggle    string
	StopEnter string
	Cancel    string
	Command   string
}

// BindingSet is the validated set of active bindings in registration
// order. Registration order decides guard ownership when chords share a
// first modifier.
type BindingSet struct {
	bindings []Binding
}

// NewBindingSet parses and validates the configured chords. Two roles
// bound to the same chord is a configuration error and fatal at startup.
func NewBindingSet(spec Spec) (*BindingSet, error) {
	if strings.TrimSpace(spec.Toggle) == "" {
		return nil, fmt.Errorf("toggle chord must be configured")
	}

	roles := []struct {
		role  Role
		chord string
	}{
		{RoleToggle, spec.Toggle},
		{RoleStopEnter, spec.StopEnter},
		{RoleCancel, spec.Cancel},
		{RoleCommand, spec.Command},
	}

	set := &BindingSet{}
	seen := make(map[string]Role)
	for _, r := range roles {
		if strings.TrimSpace(r.chord) == "" {
			continue
		}
		chord, err := ParseChord(r.chord)
		if err != nil {
			return nil, fmt.Errorf("binding %s: %w", r.role, err)
		}
		if prev, dup := seen[chord.Canonical()]; dup {
			return nil, fmt.Errorf("bindings %s and %s share chord %q", prev, r.role, chord)
		}
		seen[chord.Canonical()] = r.role
		set.bindings = append(set.bindings, Binding{Role: r.role, Chord: chord})
	}
	return set, nil
}

// Bindings returns the active bindings in registration order
func (s *BindingSet) Bindings() []Binding {
	return s.bindings
}

// GuardModifiers returns the distinct first modifiers across the set,
// in registration order. These are the release edges the raw backend
// must watch.
func (s *BindingSet) GuardModifiers() []string {
	var mods []string
	seen := make(map[string]bool)
	for _, b := range s.bindings {
		m := b.Chord.FirstModifier()
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		mods = append(mods, m)
	}
	return mods
}
