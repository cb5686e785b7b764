// ============================================================================
// voicekey - Push-to-Talk Dictation
// ============================================================================
//
// Package:     audio
// Description: Short feedback tones for recording state changes
// License:     MIT
// ============================================================================

package audio

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
)

const (
	toneSampleRate = 48000
	toneDuration   = 0.12
	fadeSamples    = 240
)

// Tone identifies a feedback sound
type Tone int

const (
	// ToneStart plays when a recording begins
	ToneStart Tone = iota

	// ToneStop plays when a recording ends normally
	ToneStop

	// ToneCancel plays when a recording is discarded
	ToneCancel

	// ToneError plays on a failed transcription or delivery
	ToneError
)

var toneFreqs = map[Tone]float64{
	ToneStart:  880,
	ToneStop:   660,
	ToneCancel: 440,
	ToneError:  220,
}

// Feedback plays short sine beeps on the default output device. Tones
// are pre-rendered at construction; Play is asynchronous and never
// blocks the caller.
type Feedback struct {
	enabled bool
	tones   map[Tone][]float32

	mu      sync.Mutex
	playing bool
}

// NewFeedback pre-renders the tone set. With enabled false every Play
// call is a no-op, so callers need no conditionals.
func NewFeedback(enabled bool) *Feedback {
	f := &Feedback{enabled: enabled, tones: make(map[Tone][]float32)}
	if enabled {
		for tone, freq := range toneFreqs {
			f.tones[tone] = renderTone(freq)
		}
	}
	return f
}

func renderTone(freq float64) []float32 {
	n := int(toneSampleRate * toneDuration)
	samples := make([]float32, n)
	for i := range samples {
		v := 0.25 * math.Sin(2*math.Pi*freq*float64(i)/toneSampleRate)
		// Linear fade at both ends avoids clicks.
		if i < fadeSamples {
			v *= float64(i) / fadeSamples
		}
		if n-i < fadeSamples {
			v *= float64(n-i) / fadeSamples
		}
		samples[i] = float32(v)
	}
	return samples
}

// Play queues a tone. Overlapping requests are dropped; a beep that
// never plays is better than a backlog of them.
func (f *Feedback) Play(tone Tone) {
	if !f.enabled {
		return
	}

	f.mu.Lock()
	if f.playing {
		f.mu.Unlock()
		return
	}
	f.playing = true
	f.mu.Unlock()

	go func() {
		defer func() {
			f.mu.Lock()
			f.playing = false
			f.mu.Unlock()
		}()
		f.play(f.tones[tone])
	}()
}

func (f *Feedback) play(samples []float32) error {
	if len(samples) == 0 {
		return nil
	}

	pos := 0
	stream, err := portaudio.OpenDefaultStream(0, 1, toneSampleRate, 256,
		func(out []float32) {
			for i := range out {
				if pos < len(samples) {
					out[i] = samples[pos]
					pos++
				} else {
					out[i] = 0
				}
			}
		})
	if err != nil {
		return fmt.Errorf("opening output stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("starting output stream: %w", err)
	}
	defer stream.Stop()

	// The callback drains the samples; sleep past the tone length so
	// the tail is not cut off by Stop.
	time.Sleep(time.Duration((toneDuration+0.05)*1000) * time.Millisecond)
	return nil
}
