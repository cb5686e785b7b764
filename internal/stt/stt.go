// ============================================================================
// voicekey - Push-to-Talk Dictation
// ============================================================================
//
// Package:     stt
// Description: Speech-to-text engine interface
// License:     MIT
// ============================================================================

package stt

import (
	"context"
	"time"
)

// Engine converts recorded audio to text. Engines may load their model
// lazily; callers check Ready and call Load before the first
// transcription.
type Engine interface {
	// Ready reports whether the engine can transcribe now
	Ready() bool

	// Load prepares the engine (locates binaries, loads the model).
	// Safe to call more than once; subsequent calls are no-ops.
	Load(ctx context.Context) error

	// Transcribe converts samples at the given rate to text
	Transcribe(ctx context.Context, samples []float32, sampleRate int) (Result, error)

	// Close releases engine resources
	Close() error
}

// Result is a finished transcription
type Result struct {
	// Text is the cleaned transcript
	Text string

	// Language is the language the engine was told to use
	Language string

	// Elapsed is how long transcription took
	Elapsed time.Duration
}

// Config holds engine settings
type Config struct {
	// Binary is the transcriber executable; empty means discover it
	Binary string

	// ModelPath is the model file, required
	ModelPath string

	// Language is the transcription language code
	Language string

	// Threads is the worker thread count passed to the engine
	Threads int
}

// DefaultConfig returns the standard engine settings
func DefaultConfig() Config {
	return Config{
		Language: "en",
		Threads:  4,
	}
}
