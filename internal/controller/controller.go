// ============================================================================
// voicekey - Push-to-Talk Dictation
// ============================================================================
//
// Package:     controller
// Description: Recording lifecycle controller
// License:     MIT
// ============================================================================

package controller

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"voicekey/internal/audio"
	"voicekey/internal/history"
	"voicekey/internal/stt"
	"voicekey/internal/vad"
	"voicekey/pkg/core/logging"
)

// AudioSource supplies microphone frames. audio.Capture implements it;
// tests substitute fakes.
type AudioSource interface {
	Start(ctx context.Context) error
	Stop() error
	Frames() <-chan []float32
}

// TextSink delivers a transcript to the focused window
type TextSink interface {
	Deliver(text string, autoEnter bool) error
}

// CommandSink resolves and runs a command-mode transcript. It reports
// whether anything matched.
type CommandSink interface {
	Dispatch(transcript string) bool
}

// HistoryStore records finished dictations
type HistoryStore interface {
	Add(e history.Entry) error
}

// Feedback plays audible state cues
type Feedback interface {
	Play(tone audio.Tone)
}

// Config holds the controller's timing and VAD settings
type Config struct {
	SampleRate int

	// FrameDuration is the wall time one capture frame represents
	FrameDuration time.Duration

	// VADEnabled turns on silence auto-stop and the short-clip precheck
	VADEnabled bool

	SilenceTimeout time.Duration
	MinSpeech      time.Duration

	// PrecheckMax is the clip length at or below which a fully silent
	// recording is discarded without transcription
	PrecheckMax time.Duration

	// MaxDuration is the hard recording ceiling
	MaxDuration time.Duration
}

// DefaultConfig returns standard timings for 30ms frames at 16kHz
func DefaultConfig() Config {
	return Config{
		SampleRate:     16000,
		FrameDuration:  30 * time.Millisecond,
		VADEnabled:     true,
		SilenceTimeout: 1500 * time.Millisecond,
		MinSpeech:      500 * time.Millisecond,
		PrecheckMax:    1200 * time.Millisecond,
		MaxDuration:    60 * time.Second,
	}
}

// Controller owns the recording lifecycle. All state lives in one
// goroutine draining one event channel; hotkeys, audio frames, timers
// and the transcription worker only ever enqueue events. That single
// serialization point is what makes rapid hotkey mashing safe.
//
// Controller implements the hotkey package's Sink and Activity
// interfaces.
type Controller struct {
	cfg      Config
	source   AudioSource
	engine   stt.Engine
	detector vad.Detector
	text     TextSink
	commands CommandSink
	store    HistoryStore
	feedback Feedback
	log      *logging.Logger

	events chan event
	wg     sync.WaitGroup

	state  atomic.Int32
	closed atomic.Bool

	// Everything below is loop-goroutine private.
	nextID        uint64
	cur           *session
	captureCancel context.CancelFunc
	observers     []Observer
	vadWarned     bool
}

// Options carries the optional collaborators
type Options struct {
	// Detector enables VAD; nil disables silence handling entirely
	Detector vad.Detector

	// Commands enables command mode dispatch; nil makes command-mode
	// transcripts log-and-discard
	Commands CommandSink

	// Store persists history when non-nil
	Store HistoryStore

	// Feedback plays tones when non-nil
	Feedback Feedback
}

// New creates a controller. Register observers before calling Run.
func New(cfg Config, source AudioSource, engine stt.Engine, text TextSink, opts Options, log *logging.Logger) *Controller {
	if cfg.FrameDuration == 0 {
		cfg.FrameDuration = 30 * time.Millisecond
	}
	c := &Controller{
		cfg:      cfg,
		source:   source,
		engine:   engine,
		detector: opts.Detector,
		text:     text,
		commands: opts.Commands,
		store:    opts.Store,
		feedback: opts.Feedback,
		log:      log,
		events:   make(chan event, 128),
	}
	c.state.Store(int32(StateIdle))
	return c
}

// AddObserver registers a state change observer. Not safe to call after
// Run.
func (c *Controller) AddObserver(o Observer) {
	c.observers = append(c.observers, o)
}

// Run starts the event loop
func (c *Controller) Run() {
	c.wg.Add(1)
	go c.loop()
}

// Close stops the loop, discarding any active session
func (c *Controller) Close() {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}
	c.events <- event{kind: evShutdown}
	c.wg.Wait()
}

// State returns the current lifecycle state
func (c *Controller) State() State {
	return State(c.state.Load())
}

// --- hotkey.Sink ---

// Start requests a new recording session
func (c *Controller) Start(commandMode bool) {
	c.enqueue(event{kind: evStart, commandMode: commandMode})
}

// Stop requests the running recording to finish
func (c *Controller) Stop(autoEnter bool) {
	c.enqueue(event{kind: evStop, autoEnter: autoEnter})
}

// Cancel aborts the active session
func (c *Controller) Cancel() {
	c.enqueue(event{kind: evCancel})
}

// --- hotkey.Activity ---

// IsRecording reports whether a session is capturing or about to
func (c *Controller) IsRecording() bool {
	s := c.State()
	return s == StateRecording || s == StateModelLoading
}

// IsBusy reports whether transcription or delivery is in flight
func (c *Controller) IsBusy() bool {
	return c.State() == StateProcessing
}

func (c *Controller) enqueue(ev event) {
	select {
	case c.events <- ev:
	default:
		// The loop wedged or flooded; losing an event beats blocking a
		// producer like the audio pump.
		c.log.Warn("controller event dropped", "kind", ev.kind)
	}
}

// --- event loop ---

func (c *Controller) loop() {
	defer c.wg.Done()
	for ev := range c.events {
		if ev.kind == evShutdown {
			c.shutdown()
			return
		}
		c.handle(ev)
	}
}

func (c *Controller) handle(ev event) {
	// Session-scoped events from a previous session are stale; a single
	// id comparison disposes of them.
	switch ev.kind {
	case evFrame, evMaxDuration, evResult, evResultFailed, evModelReady, evModelFailed:
		if c.cur == nil || ev.session != c.cur.id {
			if ev.kind == evResult || ev.kind == evResultFailed {
				c.log.Debug("stale result discarded", "session", ev.session)
			}
			return
		}
	}

	switch ev.kind {
	case evStart:
		c.handleStart(ev)
	case evStop:
		c.handleStop(ev)
	case evCancel:
		c.handleCancel()
	case evFrame:
		c.handleFrame(ev)
	case evMaxDuration:
		c.handleMaxDuration()
	case evModelReady:
		c.handleModelReady()
	case evModelFailed:
		c.handleModelFailed(ev)
	case evResult:
		c.handleResult(ev)
	case evResultFailed:
		c.handleResultFailed(ev)
	}
}

func (c *Controller) handleStart(ev event) {
	if c.State() != StateIdle {
		// Pressing start mid-session is a no-op, not an error; the
		// toggle binding already maps the press to stop when recording.
		c.log.Debug("start ignored", "state", c.State())
		return
	}

	c.nextID++
	c.vadWarned = false
	sess := newSession(c.nextID, ev.commandMode, vad.TrackerConfig{
		FrameDuration:  c.cfg.FrameDuration,
		SilenceTimeout: c.cfg.SilenceTimeout,
		MinSpeech:      c.cfg.MinSpeech,
	})
	c.cur = sess

	if !c.engine.Ready() {
		c.transition(StateModelLoading, "")
		c.log.Info("engine not ready, loading", "session", sess.id, "trace", sess.traceID)
		go c.loadEngine(sess.id)
		return
	}
	c.beginCapture(sess)
}

func (c *Controller) loadEngine(sessionID uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := c.engine.Load(ctx); err != nil {
		c.enqueue(event{kind: evModelFailed, session: sessionID, err: err})
		return
	}
	c.enqueue(event{kind: evModelReady, session: sessionID})
}

func (c *Controller) handleModelReady() {
	c.beginCapture(c.cur)
}

func (c *Controller) handleModelFailed(ev event) {
	c.log.Error("engine load failed", "session", c.cur.id, "error", ev.err)
	c.playTone(audio.ToneError)
	c.cur = nil
	c.transition(StateIdle, "model_load_failed")
}

func (c *Controller) beginCapture(sess *session) {
	// The source's frame channel outlives sessions; anything still queued
	// belongs to a dead one and must not leak into this clip.
	c.drainFrames()

	ctx, cancel := context.WithCancel(context.Background())
	if err := c.source.Start(ctx); err != nil {
		cancel()
		c.log.Error("audio capture failed to start", "session", sess.id, "error", err)
		c.playTone(audio.ToneError)
		c.cur = nil
		// From idle this is a same-state notification; the reason is
		// what carries the error to the UI.
		c.transition(StateIdle, "audio_error")
		return
	}
	c.captureCancel = cancel

	id := sess.id
	c.wg.Add(1)
	go c.pump(ctx, id)

	sess.maxTimer = time.AfterFunc(c.cfg.MaxDuration, func() {
		c.enqueue(event{kind: evMaxDuration, session: id})
	})

	c.transition(StateRecording, "")
	c.playTone(audio.ToneStart)
	c.log.Info("recording started",
		"session", sess.id,
		"trace", sess.traceID,
		"command_mode", sess.commandMode)
}

// pump forwards capture frames into the event channel, tagged with the
// session id so frames from a dead session are dropped by the loop.
func (c *Controller) pump(ctx context.Context, sessionID uint64) {
	defer c.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-c.source.Frames():
			if !ok {
				return
			}
			c.enqueue(event{kind: evFrame, session: sessionID, frame: frame})
		}
	}
}

func (c *Controller) handleFrame(ev event) {
	if c.State() != StateRecording {
		return
	}
	sess := c.cur
	sess.buffer.Append(ev.frame)

	if !c.cfg.VADEnabled || c.detector == nil {
		return
	}

	voiced, err := c.detector.IsSpeech(ev.frame)
	if err != nil {
		// A broken VAD must never eat recordings: assume speech.
		voiced = true
		if !c.vadWarned {
			c.vadWarned = true
			c.log.Warn("vad failed, assuming speech from here on", "error", err)
		}
	}
	sess.tracker.Update(voiced)

	if sess.tracker.ShouldStop() {
		c.log.Info("silence timeout, stopping",
			"session", sess.id,
			"speech", sess.tracker.SpeechDuration(),
			"silence", sess.tracker.TrailingSilence())
		c.finishRecording(false, "silence_timeout")
	}
}

func (c *Controller) handleStop(ev event) {
	switch c.State() {
	case StateRecording:
		c.finishRecording(ev.autoEnter, "")
	case StateModelLoading:
		// User gave up waiting; abandon before capture ever starts.
		c.log.Info("recording abandoned during model load", "session", c.cur.id)
		c.cur = nil
		c.transition(StateIdle, "abandoned")
	default:
		c.log.Debug("stop ignored", "state", c.State())
	}
}

func (c *Controller) handleMaxDuration() {
	if c.State() != StateRecording {
		return
	}
	c.log.Warn("max recording duration reached",
		"session", c.cur.id, "limit", c.cfg.MaxDuration)
	c.finishRecording(false, "max_duration")
}

// finishRecording stops capture and hands the clip to transcription,
// or discards it when the short-clip precheck finds only silence.
func (c *Controller) finishRecording(autoEnter bool, reason string) {
	sess := c.cur
	sess.stopTimers()
	c.stopCapture()

	clip := sess.buffer.Duration(c.cfg.SampleRate)

	if c.shouldDiscardSilent(sess, clip) {
		c.log.Info("silent clip discarded", "session", sess.id, "duration", clip)
		c.playTone(audio.ToneCancel)
		c.cur = nil
		c.transition(StateIdle, "silent_discard")
		return
	}

	sess.autoEnter = autoEnter
	c.transition(StateProcessing, reason)
	c.playTone(audio.ToneStop)
	c.log.Info("transcribing", "session", sess.id, "duration", clip)

	ctx, cancel := context.WithCancel(context.Background())
	sess.cancelWork = cancel
	samples := sess.buffer.Samples()
	id := sess.id

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()
		res, err := c.engine.Transcribe(ctx, samples, c.cfg.SampleRate)
		if err != nil {
			c.enqueue(event{kind: evResultFailed, session: id, err: err})
			return
		}
		c.enqueue(event{kind: evResult, session: id, text: res.Text})
	}()
}

// shouldDiscardSilent applies the short-clip silence precheck. Long
// clips always transcribe; a broken detector also always transcribes.
func (c *Controller) shouldDiscardSilent(sess *session, clip time.Duration) bool {
	if !c.cfg.VADEnabled || c.detector == nil || clip > c.cfg.PrecheckMax {
		return false
	}
	if sess.tracker.HasValidSpeech() {
		return false
	}
	voiced, err := c.detector.IsSpeech(sess.buffer.Samples())
	if err != nil {
		return false
	}
	return !voiced
}

func (c *Controller) handleResult(ev event) {
	sess := c.cur
	sess.cancelWork = nil

	if ev.text == "" {
		c.log.Info("empty transcript", "session", sess.id)
		c.cur = nil
		c.transition(StateIdle, "empty_transcript")
		return
	}

	if sess.commandMode {
		c.dispatchCommand(sess, ev.text)
	} else {
		c.deliverText(sess, ev.text)
	}

	c.cur = nil
	c.transition(StateIdle, "")
}

func (c *Controller) dispatchCommand(sess *session, text string) {
	if c.commands == nil {
		c.log.Warn("command mode without a command table", "session", sess.id, "text", text)
		return
	}
	matched := c.commands.Dispatch(text)
	if !matched {
		c.log.Info("no command matched", "session", sess.id, "text", text)
		c.playTone(audio.ToneError)
	}
	c.record(sess, text)
}

// deliverText injects the transcript exactly once, synchronously,
// before the controller returns to idle. A new recording cannot start
// until delivery finished.
func (c *Controller) deliverText(sess *session, text string) {
	if err := c.text.Deliver(text, sess.autoEnter); err != nil {
		c.log.Error("delivery failed", "session", sess.id, "error", err)
		c.playTone(audio.ToneError)
		return
	}
	c.record(sess, text)
}

func (c *Controller) record(sess *session, text string) {
	if c.store == nil {
		return
	}
	err := c.store.Add(history.Entry{
		SessionID:     sess.traceID,
		Text:          text,
		Mode:          sess.mode(),
		AudioDuration: sess.buffer.Duration(c.cfg.SampleRate),
	})
	if err != nil {
		// History is best-effort; a broken disk must not break dictation.
		c.log.Warn("history write failed", "session", sess.id, "error", err)
	}
}

func (c *Controller) handleResultFailed(ev event) {
	c.log.Error("transcription failed", "session", c.cur.id, "error", ev.err)
	c.playTone(audio.ToneError)
	c.cur.cancelWork = nil
	c.cur = nil
	c.transition(StateIdle, "transcription_failed")
}

func (c *Controller) handleCancel() {
	sess := c.cur
	switch c.State() {
	case StateRecording:
		sess.stopTimers()
		c.stopCapture()
	case StateProcessing:
		sess.abortWork()
	case StateModelLoading:
		// Nothing to tear down; the load result will arrive stale.
	default:
		c.log.Debug("cancel ignored", "state", c.State())
		return
	}

	c.log.Info("session cancelled", "session", sess.id, "state", c.State())
	c.cur = nil
	c.transition(StateCancelled, "cancelled")
	c.playTone(audio.ToneCancel)
	c.transition(StateIdle, "")
}

func (c *Controller) stopCapture() {
	if c.captureCancel != nil {
		c.captureCancel()
		c.captureCancel = nil
	}
	if err := c.source.Stop(); err != nil {
		c.log.Warn("audio capture stop failed", "error", err)
	}
	c.drainFrames()
}

// drainFrames discards frames the source queued before it stopped
func (c *Controller) drainFrames() {
	for {
		select {
		case _, ok := <-c.source.Frames():
			if !ok {
				return
			}
		default:
			return
		}
	}
}

func (c *Controller) shutdown() {
	if c.cur != nil {
		c.cur.stopTimers()
		c.cur.abortWork()
		if c.State() == StateRecording {
			c.stopCapture()
		}
		c.cur = nil
	}
}

// transition moves to the new state and notifies observers. A non-empty
// reason forces notification even when the state does not change, which
// is how resource errors reach the UI from idle.
func (c *Controller) transition(to State, reason string) {
	from := c.State()
	if from == to && reason == "" {
		return
	}
	if from != to && !canTransition(from, to) {
		// A rejected transition is a controller bug; log loudly and
		// refuse rather than corrupt the lifecycle.
		c.log.Error("invalid state transition", "from", from, "to", to)
		return
	}
	c.state.Store(int32(to))
	c.log.Debug("state changed", "from", from, "to", to, "reason", reason)
	for _, o := range c.observers {
		o.StateChanged(from, to, reason)
	}
}

func (c *Controller) playTone(tone audio.Tone) {
	if c.feedback != nil {
		c.feedback.Play(tone)
	}
}
