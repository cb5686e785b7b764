// ============================================================================
// voicekey - Push-to-Talk Dictation
// ============================================================================
//
// Package:     vad
// Description: WebRTC voice activity detector
// License:     MIT
// ============================================================================

package vad

import (
	"fmt"

	webrtcvad "github.com/maxhawkins/go-webrtcvad"
)

// Detector reports whether audio frames contain speech. Implemented by
// the WebRTC detector; tests substitute fakes.
type Detector interface {
	// IsSpeech reports whether the frame contains speech. The frame
	// must be a whole number of 10ms windows.
	IsSpeech(samples []float32) (bool, error)

	// Close releases detector resources
	Close() error
}

// WebRTC wraps the WebRTC VAD for float32 frames
type WebRTC struct {
	vad        *webrtcvad.VAD
	sampleRate int
	frameSize  int
}

// NewWebRTC creates a detector at the given aggressiveness (0-3,
// clamped) and sample rate (must be 8, 16, 32 or 48 kHz).
func NewWebRTC(mode, sampleRate int) (*WebRTC, error) {
	switch sampleRate {
	case 8000, 16000, 32000, 48000:
	default:
		return nil, fmt.Errorf("unsupported sample rate %d", sampleRate)
	}

	v, err := webrtcvad.New()
	if err != nil {
		return nil, fmt.Errorf("creating webrtc vad: %w", err)
	}

	if mode < 0 {
		mode = 0
	}
	if mode > 3 {
		mode = 3
	}
	if err := v.SetMode(mode); err != nil {
		return nil, fmt.Errorf("setting vad mode %d: %w", mode, err)
	}

	return &WebRTC{
		vad:        v,
		sampleRate: sampleRate,
		frameSize:  sampleRate / 100,
	}, nil
}

// IsSpeech splits the input into 10ms windows and reports speech if any
// window is voiced. Input shorter than one window is zero-padded.
func (w *WebRTC) IsSpeech(samples []float32) (bool, error) {
	pcm := toInt16(samples)

	if len(pcm) < w.frameSize {
		padded := make([]int16, w.frameSize)
		copy(padded, pcm)
		pcm = padded
	}

	for i := 0; i+w.frameSize <= len(pcm); i += w.frameSize {
		frame := int16ToBytes(pcm[i : i+w.frameSize])
		voiced, err := w.vad.Process(w.sampleRate, frame)
		if err != nil {
			return false, fmt.Errorf("vad process: %w", err)
		}
		if voiced {
			return true, nil
		}
	}
	return false, nil
}

// Close releases the detector
func (w *WebRTC) Close() error {
	w.vad = nil
	return nil
}

func toInt16(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		if s > 1 {
			s = 1
		}
		if s < -1 {
			s = -1
		}
		out[i] = int16(s * 32767)
	}
	return out
}

func int16ToBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		out[i*2] = byte(s)
		out[i*2+1] = byte(s >> 8)
	}
	return out
}
