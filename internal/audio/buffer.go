// ============================================================================
// voicekey - Push-to-Talk Dictation
// ============================================================================
//
// Package:     audio
// Description: Per-session sample buffer
// License:     MIT
// ============================================================================

package audio

import (
	"sync"
	"time"
)

// Buffer accumulates the samples of one recording session. Each session
// owns its buffer exclusively; a new session gets a new buffer, so a
// stale transcription can never read a later session's audio.
type Buffer struct {
	mu      sync.RWMutex
	samples []float32
}

// NewBuffer creates a buffer sized for about ten seconds of 16kHz audio
func NewBuffer() *Buffer {
	return &Buffer{samples: make([]float32, 0, 16000*10)}
}

// Append adds a frame of samples
func (b *Buffer) Append(frame []float32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.samples = append(b.samples, frame...)
}

// Samples returns a copy of everything recorded so far
func (b *Buffer) Samples() []float32 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]float32, len(b.samples))
	copy(out, b.samples)
	return out
}

// Len returns the number of samples
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.samples)
}

// Duration returns the recorded duration at the given sample rate
func (b *Buffer) Duration(sampleRate int) time.Duration {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(b.samples)) / float64(sampleRate) * float64(time.Second))
}

// Clear drops all samples but keeps the allocation
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.samples = b.samples[:0]
}
