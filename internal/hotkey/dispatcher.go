// ============================================================================
// voicekey - Push-to-Talk Dictation
// ============================================================================
//
// Package:     hotkey
// Description: Edge dispatch with modifier release debounce
// License:     MIT
// ============================================================================

package hotkey

import (
	"fmt"
	"sync"
	"time"

	"voicekey/pkg/core/logging"
)

// Sink receives the dispatched intents. The recording controller
// implements this; calls arrive from the dispatcher goroutine and must
// not block.
type Sink interface {
	// Start requests a new recording session. commandMode selects
	// voice-command matching over text delivery for the transcript.
	Start(commandMode bool)

	// Stop requests the running recording to stop. autoEnter requests a
	// synthetic Enter keypress after the text is delivered.
	Stop(autoEnter bool)

	// Cancel aborts the current recording or processing and discards
	// its result.
	Cancel()
}

// Activity exposes the controller state the dispatcher needs to turn
// chord presses into start/stop intents.
type Activity interface {
	// IsRecording reports whether a recording session is active
	IsRecording() bool

	// IsBusy reports whether transcription or delivery is in flight
	IsBusy() bool
}

// guard tracks one first-modifier debounce. While armed, chord presses
// sharing the modifier are suppressed until its release edge arrives or
// the watchdog clears it.
type guard struct {
	armed    bool
	owner    Role
	watchdog *time.Timer
}

// Dispatcher drains a Source and translates chord edges into Sink
// calls, enforcing the modifier release protocol: after a chord fires,
// its first modifier must come back up before any chord sharing that
// modifier may fire again.
type Dispatcher struct {
	source   Source
	set      *BindingSet
	sink     Sink
	activity Activity
	watchdog time.Duration
	log      *logging.Logger

	mu     sync.Mutex
	guards map[string]*guard

	events chan Event
	done   chan struct{}
	wg     sync.WaitGroup
}

// NewDispatcher wires a source to a sink. The watchdog duration bounds
// how long a guard can stay armed when its release edge is lost (focus
// change, keyboard grab).
func NewDispatcher(source Source, set *BindingSet, sink Sink, activity Activity, watchdog time.Duration, log *logging.Logger) *Dispatcher {
	return &Dispatcher{
		source:   source,
		set:      set,
		sink:     sink,
		activity: activity,
		watchdog: watchdog,
		log:      log,
		guards:   make(map[string]*guard),
		events:   make(chan Event, 16),
		done:     make(chan struct{}),
	}
}

// Start registers the bindings and begins dispatching
func (d *Dispatcher) Start() error {
	if err := d.source.Start(d.set, d.events); err != nil {
		return fmt.Errorf("starting hotkey source: %w", err)
	}

	for _, b := range d.set.Bindings() {
		d.log.Info("binding registered",
			"role", b.Role,
			"chord", b.Chord,
			"guard", b.Chord.FirstModifier())
	}

	d.wg.Add(1)
	go d.loop()
	return nil
}

// Stop unregisters the bindings and stops the dispatch loop
func (d *Dispatcher) Stop() {
	d.source.Stop()
	close(d.done)
	d.wg.Wait()

	d.mu.Lock()
	for _, g := range d.guards {
		if g.watchdog != nil {
			g.watchdog.Stop()
		}
	}
	d.mu.Unlock()
}

func (d *Dispatcher) loop() {
	defer d.wg.Done()
	for {
		select {
		case <-d.done:
			return
		case ev := <-d.events:
			d.handle(ev)
		}
	}
}

func (d *Dispatcher) handle(ev Event) {
	switch ev.Type {
	case ChordPressed:
		d.chordPressed(ev.Role)
	case ModifierReleased:
		d.modifierReleased(ev.Modifier)
	}
}

func (d *Dispatcher) chordPressed(role Role) {
	binding, ok := d.binding(role)
	if !ok {
		return
	}

	mod := binding.Chord.FirstModifier()
	if mod != "" && !d.arm(mod, role) {
		d.log.Debug("chord suppressed, awaiting modifier release",
			"role", role, "modifier", mod)
		return
	}

	switch role {
	case RoleToggle:
		if d.activity.IsRecording() {
			d.sink.Stop(false)
		} else {
			d.sink.Start(false)
		}
	case RoleStopEnter:
		// Stop-only: does nothing unless a recording is running.
		if d.activity.IsRecording() {
			d.sink.Stop(true)
		}
	case RoleCancel:
		if d.activity.IsRecording() || d.activity.IsBusy() {
			d.sink.Cancel()
		}
	case RoleCommand:
		if d.activity.IsRecording() {
			d.sink.Stop(false)
		} else {
			d.sink.Start(true)
		}
	}
}

// arm takes the guard for mod. It returns false when the guard is
// already armed, which suppresses the press.
func (d *Dispatcher) arm(mod string, role Role) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	g := d.guards[mod]
	if g == nil {
		g = &guard{}
		d.guards[mod] = g
	}
	if g.armed {
		return false
	}

	g.armed = true
	g.owner = role
	if g.watchdog != nil {
		g.watchdog.Stop()
	}
	g.watchdog = time.AfterFunc(d.watchdog, func() {
		d.forceClear(mod)
	})
	return true
}

func (d *Dispatcher) modifierReleased(mod string) {
	d.mu.Lock()
	g := d.guards[mod]
	if g == nil || !g.armed {
		d.mu.Unlock()
		return
	}
	g.armed = false
	if g.watchdog != nil {
		g.watchdog.Stop()
		g.watchdog = nil
	}
	owner := g.owner
	d.mu.Unlock()

	d.log.Debug("guard cleared", "modifier", mod, "owner", owner)
}

// forceClear releases a guard whose key-up edge never arrived. Without
// this a missed release would deaden every chord on the modifier.
func (d *Dispatcher) forceClear(mod string) {
	d.mu.Lock()
	g := d.guards[mod]
	if g == nil || !g.armed {
		d.mu.Unlock()
		return
	}
	g.armed = false
	g.watchdog = nil
	d.mu.Unlock()

	d.log.Warn("guard force-cleared by watchdog", "modifier", mod, "timeout", d.watchdog)
}

func (d *Dispatcher) binding(role Role) (Binding, bool) {
	for _, b := range d.set.Bindings() {
		if b.Role == role {
			return b, true
		}
	}
	return Binding{}, false
}
