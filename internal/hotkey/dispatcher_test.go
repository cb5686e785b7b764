// ============================================================================
// voicekey - Push-to-Talk Dictation
// ============================================================================
//
// Package:     hotkey
// Description: Dispatcher and modifier guard tests
// License:     MIT
// ============================================================================

package hotkey

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"voicekey/pkg/core/logging"
)

// fakeSource lets tests inject edges as if the OS delivered them
type fakeSource struct {
	events chan<- Event
}

func (f *fakeSource) Start(set *BindingSet, events chan<- Event) error {
	f.events = events
	return nil
}

func (f *fakeSource) Stop() {}

func (f *fakeSource) press(role Role) {
	f.events <- Event{Type: ChordPressed, Role: role}
}

func (f *fakeSource) release(mod string) {
	f.events <- Event{Type: ModifierReleased, Modifier: mod}
}

// fakeSink records dispatched intents in order
type fakeSink struct {
	calls chan string
}

func (s *fakeSink) Start(commandMode bool) { s.calls <- fmt.Sprintf("start:%v", commandMode) }
func (s *fakeSink) Stop(autoEnter bool)    { s.calls <- fmt.Sprintf("stop:%v", autoEnter) }
func (s *fakeSink) Cancel()                { s.calls <- "cancel" }

type fakeActivity struct {
	recording atomic.Bool
	busy      atomic.Bool
}

func (a *fakeActivity) IsRecording() bool { return a.recording.Load() }
func (a *fakeActivity) IsBusy() bool      { return a.busy.Load() }

func newTestDispatcher(t *testing.T, spec Spec, watchdog time.Duration) (*Dispatcher, *fakeSource, *fakeSink, *fakeActivity) {
	t.Helper()

	set, err := NewBindingSet(spec)
	if err != nil {
		t.Fatalf("NewBindingSet: %v", err)
	}

	source := &fakeSource{}
	sink := &fakeSink{calls: make(chan string, 16)}
	activity := &fakeActivity{}

	d := NewDispatcher(source, set, sink, activity, watchdog, logging.Nop())
	if err := d.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(d.Stop)

	return d, source, sink, activity
}

func expectCall(t *testing.T, sink *fakeSink, want string) {
	t.Helper()
	select {
	case got := <-sink.calls:
		if got != want {
			t.Fatalf("dispatched %q, want %q", got, want)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for %q", want)
	}
}

func expectNoCall(t *testing.T, sink *fakeSink) {
	t.Helper()
	select {
	case got := <-sink.calls:
		t.Fatalf("unexpected dispatch %q", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestToggleStartsAndStops(t *testing.T) {
	_, source, sink, activity := newTestDispatcher(t, Spec{
		Toggle: "ctrl+shift+space",
	}, time.Second)

	source.press(RoleToggle)
	expectCall(t, sink, "start:false")

	activity.recording.Store(true)
	source.release("ctrl")
	source.press(RoleToggle)
	expectCall(t, sink, "stop:false")
}

func TestStopEnterIgnoredWhileIdle(t *testing.T) {
	_, source, sink, activity := newTestDispatcher(t, Spec{
		Toggle:    "ctrl+shift+space",
		StopEnter: "alt+return",
	}, time.Second)

	source.press(RoleStopEnter)
	expectNoCall(t, sink)

	activity.recording.Store(true)
	source.release("alt")
	source.press(RoleStopEnter)
	expectCall(t, sink, "stop:true")
}

func TestCommandModeStart(t *testing.T) {
	_, source, sink, _ := newTestDispatcher(t, Spec{
		Toggle:  "ctrl+shift+space",
		Command: "alt+space",
	}, time.Second)

	source.press(RoleCommand)
	expectCall(t, sink, "start:true")
}

func TestCancelOnlyWhenActive(t *testing.T) {
	_, source, sink, activity := newTestDispatcher(t, Spec{
		Toggle: "ctrl+shift+space",
		Cancel: "alt+escape",
	}, time.Second)

	source.press(RoleCancel)
	expectNoCall(t, sink)

	activity.busy.Store(true)
	source.release("alt")
	source.press(RoleCancel)
	expectCall(t, sink, "cancel")
}

// A second press of a chord whose first modifier is still held must be
// suppressed until the release edge arrives.
func TestGuardSuppressesHeldModifier(t *testing.T) {
	_, source, sink, activity := newTestDispatcher(t, Spec{
		Toggle: "ctrl+shift+space",
	}, time.Minute)

	source.press(RoleToggle)
	expectCall(t, sink, "start:false")
	activity.recording.Store(true)

	// OS key repeat fires the chord again while ctrl is still down.
	source.press(RoleToggle)
	source.press(RoleToggle)
	expectNoCall(t, sink)

	source.release("ctrl")
	source.press(RoleToggle)
	expectCall(t, sink, "stop:false")
}

// Chords sharing a first modifier share one guard: firing one binding
// blocks the others until the modifier comes up.
func TestGuardSharedAcrossBindings(t *testing.T) {
	_, source, sink, activity := newTestDispatcher(t, Spec{
		Toggle:    "ctrl+shift+space",
		StopEnter: "ctrl+return",
	}, time.Minute)

	source.press(RoleToggle)
	expectCall(t, sink, "start:false")
	activity.recording.Store(true)

	source.press(RoleStopEnter)
	expectNoCall(t, sink)

	source.release("ctrl")
	source.press(RoleStopEnter)
	expectCall(t, sink, "stop:true")
}

// Bindings with distinct first modifiers never block each other
func TestGuardIndependentModifiers(t *testing.T) {
	_, source, sink, activity := newTestDispatcher(t, Spec{
		Toggle: "ctrl+shift+space",
		Cancel: "alt+escape",
	}, time.Minute)

	source.press(RoleToggle)
	expectCall(t, sink, "start:false")
	activity.recording.Store(true)

	source.press(RoleCancel)
	expectCall(t, sink, "cancel")
}

// A stop-only binding that is a single bare modifier guards on that
// key: a held or repeating modifier cannot refire the stop, and it
// shares the guard with a toggle chord starting on the same key.
func TestBareModifierChordGuards(t *testing.T) {
	_, source, sink, activity := newTestDispatcher(t, Spec{
		Toggle:    "ctrl+win",
		StopEnter: "ctrl",
	}, time.Minute)

	source.press(RoleToggle)
	expectCall(t, sink, "start:false")
	activity.recording.Store(true)

	// Ctrl is still physically down from the toggle press.
	source.press(RoleStopEnter)
	expectNoCall(t, sink)

	source.release("ctrl")
	source.press(RoleStopEnter)
	expectCall(t, sink, "stop:true")
	activity.recording.Store(true)

	// Key repeat on the held bare modifier must not refire.
	source.press(RoleStopEnter)
	source.press(RoleStopEnter)
	expectNoCall(t, sink)

	source.release("ctrl")
	source.press(RoleStopEnter)
	expectCall(t, sink, "stop:true")
}

// A lost release edge must not permanently deaden the binding
func TestWatchdogForceClears(t *testing.T) {
	_, source, sink, activity := newTestDispatcher(t, Spec{
		Toggle: "ctrl+shift+space",
	}, 30*time.Millisecond)

	source.press(RoleToggle)
	expectCall(t, sink, "start:false")
	activity.recording.Store(true)

	// No release edge arrives; the watchdog clears the guard.
	time.Sleep(80 * time.Millisecond)

	source.press(RoleToggle)
	expectCall(t, sink, "stop:false")
}

// A release for a modifier with no armed guard is a no-op
func TestSpuriousReleaseIgnored(t *testing.T) {
	_, source, sink, _ := newTestDispatcher(t, Spec{
		Toggle: "ctrl+shift+space",
	}, time.Second)

	source.release("ctrl")
	source.release("shift")
	expectNoCall(t, sink)

	source.press(RoleToggle)
	expectCall(t, sink, "start:false")
}
