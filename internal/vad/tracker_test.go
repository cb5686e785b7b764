// ============================================================================
// voicekey - Push-to-Talk Dictation
// ============================================================================
//
// Package:     vad
// Description: Speech tracker tests
// License:     MIT
// ============================================================================

package vad

import (
	"testing"
	"time"
)

func newTracker() *Tracker {
	return NewTracker(TrackerConfig{
		FrameDuration:  10 * time.Millisecond,
		SilenceTimeout: 100 * time.Millisecond,
		MinSpeech:      50 * time.Millisecond,
	})
}

func feed(t *Tracker, isSpeech bool, frames int) {
	for i := 0; i < frames; i++ {
		t.Update(isSpeech)
	}
}

func TestSilenceBeforeSpeechNeverStops(t *testing.T) {
	tr := newTracker()

	// A minute of leading silence: the user is thinking, not done.
	feed(tr, false, 6000)
	if tr.ShouldStop() {
		t.Error("ShouldStop fired before any speech")
	}
}

func TestStopsAfterTrailingSilence(t *testing.T) {
	tr := newTracker()

	feed(tr, true, 10) // 100ms speech
	feed(tr, false, 9) // 90ms silence, below timeout
	if tr.ShouldStop() {
		t.Error("ShouldStop fired before the silence timeout")
	}

	feed(tr, false, 1) // crosses 100ms
	if !tr.ShouldStop() {
		t.Error("ShouldStop did not fire after the silence timeout")
	}
}

func TestSpeechResetsTrailingSilence(t *testing.T) {
	tr := newTracker()

	feed(tr, true, 10)
	feed(tr, false, 9)
	feed(tr, true, 1) // voice again: silence counter restarts
	feed(tr, false, 9)

	if tr.ShouldStop() {
		t.Error("trailing silence not reset by renewed speech")
	}
	if tr.TrailingSilence() != 90*time.Millisecond {
		t.Errorf("TrailingSilence = %s, want 90ms", tr.TrailingSilence())
	}
}

func TestMinSpeechGate(t *testing.T) {
	tr := newTracker()

	// A single cough: 20ms of "speech", then plenty of silence.
	feed(tr, true, 2)
	feed(tr, false, 50)

	if tr.ShouldStop() {
		t.Error("ShouldStop fired without the minimum speech duration")
	}
	if tr.HasValidSpeech() {
		t.Error("HasValidSpeech true for 20ms of speech")
	}

	feed(tr, true, 4) // total 60ms speech
	if !tr.HasValidSpeech() {
		t.Error("HasValidSpeech false for 60ms of speech")
	}
}

func TestReset(t *testing.T) {
	tr := newTracker()

	feed(tr, true, 10)
	feed(tr, false, 20)
	tr.Reset()

	if tr.SpeechDuration() != 0 || tr.TrailingSilence() != 0 {
		t.Error("Reset did not clear accumulated durations")
	}
	if tr.ShouldStop() {
		t.Error("ShouldStop true after Reset")
	}
}
