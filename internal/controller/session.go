// ============================================================================
// voicekey - Push-to-Talk Dictation
// ============================================================================
//
// Package:     controller
// Description: Recording session state
// License:     MIT
// ============================================================================

package controller

import (
	"context"
	"time"

	"github.com/google/uuid"

	"voicekey/internal/audio"
	"voicekey/internal/vad"
)

// session is one recording from start to delivery or discard. The id is
// a monotonically increasing counter; every asynchronous product of the
// session (frames, timers, transcription results) carries it, and the
// loop drops anything whose id is not the current session's.
//
// commandMode and autoEnter are fixed at creation and stop time
// respectively; nothing mutates a session from outside the loop.
type session struct {
	id      uint64
	traceID string

	commandMode bool
	autoEnter   bool

	buffer  *audio.Buffer
	tracker *vad.Tracker

	startedAt time.Time
	maxTimer  *time.Timer

	// cancelWork aborts the transcription run for this session
	cancelWork context.CancelFunc
}

func newSession(id uint64, commandMode bool, trackerCfg vad.TrackerConfig) *session {
	return &session{
		id:          id,
		traceID:     uuid.NewString(),
		commandMode: commandMode,
		buffer:      audio.NewBuffer(),
		tracker:     vad.NewTracker(trackerCfg),
		startedAt:   time.Now(),
	}
}

// stopTimers stops the max-duration timer
func (s *session) stopTimers() {
	if s.maxTimer != nil {
		s.maxTimer.Stop()
		s.maxTimer = nil
	}
}

// abortWork cancels an in-flight transcription
func (s *session) abortWork() {
	if s.cancelWork != nil {
		s.cancelWork()
		s.cancelWork = nil
	}
}

// mode returns the history label for the session
func (s *session) mode() string {
	if s.commandMode {
		return "command"
	}
	return "dictation"
}
