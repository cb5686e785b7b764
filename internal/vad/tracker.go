// ============================================================================
// voicekey - Push-to-Talk Dictation
// ============================================================================
//
// Package:     vad
// Description: Speech/silence tracking across a recording
// License:     MIT
// ============================================================================

package vad

import (
	"time"
)

// TrackerConfig holds the silence and speech thresholds
type TrackerConfig struct {
	// FrameDuration is the duration each Update call represents
	FrameDuration time.Duration

	// SilenceTimeout is the trailing silence after speech that should
	// end the recording
	SilenceTimeout time.Duration

	// MinSpeech is the least accumulated speech for the recording to be
	// worth transcribing
	MinSpeech time.Duration
}

// DefaultTrackerConfig returns the standard thresholds for 30ms frames
func DefaultTrackerConfig() TrackerConfig {
	return TrackerConfig{
		FrameDuration:  30 * time.Millisecond,
		SilenceTimeout: 1500 * time.Millisecond,
		MinSpeech:      500 * time.Millisecond,
	}
}

// Tracker accumulates per-frame VAD verdicts for one recording. Time
// advances by frame count, not the wall clock, so the verdicts are
// deterministic for a given frame sequence. Not safe for concurrent
// use; the controller owns one tracker per session.
type Tracker struct {
	cfg TrackerConfig

	speech   time.Duration
	trailing time.Duration
	started  bool
}

// NewTracker creates a tracker for a fresh recording
func NewTracker(cfg TrackerConfig) *Tracker {
	if cfg.FrameDuration == 0 {
		cfg.FrameDuration = 30 * time.Millisecond
	}
	return &Tracker{cfg: cfg}
}

// Update records one frame's verdict
func (t *Tracker) Update(isSpeech bool) {
	if isSpeech {
		t.started = true
		t.speech += t.cfg.FrameDuration
		t.trailing = 0
		return
	}
	if t.started {
		t.trailing += t.cfg.FrameDuration
	}
}

// ShouldStop reports whether trailing silence after real speech has
// crossed the timeout. It never fires before any speech was heard, so a
// recording that starts with a long pause keeps running.
func (t *Tracker) ShouldStop() bool {
	return t.started &&
		t.trailing >= t.cfg.SilenceTimeout &&
		t.speech >= t.cfg.MinSpeech
}

// HasValidSpeech reports whether enough speech accumulated to bother
// the transcriber
func (t *Tracker) HasValidSpeech() bool {
	return t.speech >= t.cfg.MinSpeech
}

// SpeechDuration returns the accumulated speech time
func (t *Tracker) SpeechDuration() time.Duration {
	return t.speech
}

// TrailingSilence returns the silence since the last voiced frame
func (t *Tracker) TrailingSilence() time.Duration {
	return t.trailing
}

// Reset clears the tracker for reuse
func (t *Tracker) Reset() {
	t.speech = 0
	t.trailing = 0
	t.started = false
}
