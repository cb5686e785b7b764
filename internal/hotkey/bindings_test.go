// ============================================================================
// voicekey - Push-to-Talk Dictation
// ============================================================================
//
// Package:     hotkey
// Description: Chord parsing and binding set tests
// License:     MIT
// ============================================================================

package hotkey

import (
	"strings"
	"testing"
)

func TestParseChord(t *testing.T) {
	tests := []struct {
		input    string
		wantMods []string
		wantKey  string
		wantErr  bool
	}{
		{"ctrl+shift+space", []string{"ctrl", "shift"}, "space", false},
		{"Alt+Space", []string{"alt"}, "space", false},
		{"super+d", []string{"cmd"}, "d", false},
		{"space", nil, "space", false},
		{"ctrl+shift+", nil, "", true},
		{"ctrl+a+b", nil, "", true},
		{"", nil, "", true},
	}

	for _, tt := range tests {
		c, err := ParseChord(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseChord(%q): expected error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseChord(%q): %v", tt.input, err)
			continue
		}
		if c.Key != tt.wantKey {
			t.Errorf("ParseChord(%q) key = %q, want %q", tt.input, c.Key, tt.wantKey)
		}
		if len(c.Modifiers) != len(tt.wantMods) {
			t.Errorf("ParseChord(%q) modifiers = %v, want %v", tt.input, c.Modifiers, tt.wantMods)
			continue
		}
		for i, m := range tt.wantMods {
			if c.Modifiers[i] != m {
				t.Errorf("ParseChord(%q) modifiers = %v, want %v", tt.input, c.Modifiers, tt.wantMods)
			}
		}
	}
}

func TestFirstModifier(t *testing.T) {
	c, err := ParseChord("shift+ctrl+space")
	if err != nil {
		t.Fatal(err)
	}
	if got := c.FirstModifier(); got != "shift" {
		t.Errorf("FirstModifier = %q, want shift (declaration order)", got)
	}

	bare, _ := ParseChord("f9")
	if got := bare.FirstModifier(); got != "" {
		t.Errorf("FirstModifier of unmodified chord = %q, want empty", got)
	}

	// A lone modifier chord guards on itself.
	lone, _ := ParseChord("ctrl")
	if got := lone.FirstModifier(); got != "ctrl" {
		t.Errorf("FirstModifier of bare modifier = %q, want ctrl", got)
	}
	loneAlias, _ := ParseChord("win")
	if got := loneAlias.FirstModifier(); got != "cmd" {
		t.Errorf("FirstModifier of bare aliased modifier = %q, want cmd", got)
	}
}

func TestNewBindingSet(t *testing.T) {
	set, err := NewBindingSet(Spec{
		Toggle:    "ctrl+shift+space",
		StopEnter: "ctrl+shift+return",
		Cancel:    "ctrl+shift+escape",
	})
	if err != nil {
		t.Fatalf("NewBindingSet: %v", err)
	}
	if len(set.Bindings()) != 3 {
		t.Errorf("got %d bindings, want 3", len(set.Bindings()))
	}
	if set.Bindings()[0].Role != RoleToggle {
		t.Errorf("first binding = %v, want toggle", set.Bindings()[0].Role)
	}
}

func TestBindingSetRequiresToggle(t *testing.T) {
	_, err := NewBindingSet(Spec{Cancel: "ctrl+escape"})
	if err == nil || !strings.Contains(err.Error(), "toggle") {
		t.Errorf("expected toggle-required error, got %v", err)
	}
}

func TestDuplicateChordIsFatal(t *testing.T) {
	_, err := NewBindingSet(Spec{
		Toggle: "ctrl+shift+space",
		Cancel: "shift+ctrl+space",
	})
	if err == nil {
		t.Fatal("expected duplicate chord error")
	}
	if !strings.Contains(err.Error(), "share chord") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestGuardModifiers(t *testing.T) {
	set, err := NewBindingSet(Spec{
		Toggle:    "ctrl+shift+space",
		StopEnter: "ctrl+return",
		Cancel:    "alt+escape",
	})
	if err != nil {
		t.Fatal(err)
	}

	mods := set.GuardModifiers()
	if len(mods) != 2 {
		t.Fatalf("guard modifiers = %v, want [ctrl alt]", mods)
	}
	if mods[0] != "ctrl" || mods[1] != "alt" {
		t.Errorf("guard modifiers = %v, want [ctrl alt]", mods)
	}

	b := set.Bindings()
	if !b[0].SharesModifierWith(b[1]) {
		t.Error("toggle and stop_enter share ctrl but SharesModifierWith is false")
	}
	if b[0].SharesModifierWith(b[2]) {
		t.Error("toggle and cancel do not share a first modifier")
	}
}
