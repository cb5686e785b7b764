// ============================================================================
// voicekey - Push-to-Talk Dictation
// ============================================================================
//
// Package:     audio
// Description: WAV encoding for transcription handoff
// License:     MIT
// ============================================================================

package audio

import (
	"fmt"
	"os"

	"github.com/youpy/go-wav"
)

// WriteWAV encodes float32 samples as 16-bit mono PCM into a WAV file
func WriteWAV(path string, samples []float32, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating wav file: %w", err)
	}
	defer f.Close()

	writer := wav.NewWriter(f, uint32(len(samples)), 1, uint32(sampleRate), 16)

	out := make([]wav.Sample, len(samples))
	for i, s := range samples {
		out[i].Values[0] = int(clampSample(s) * 32767)
	}
	if err := writer.WriteSamples(out); err != nil {
		return fmt.Errorf("writing wav samples: %w", err)
	}
	return nil
}

// WriteTempWAV writes samples to a temp file and returns its path. The
// caller removes the file when transcription is done.
func WriteTempWAV(samples []float32, sampleRate int) (string, error) {
	f, err := os.CreateTemp("", "voicekey-*.wav")
	if err != nil {
		return "", fmt.Errorf("creating temp wav: %w", err)
	}
	path := f.Name()
	f.Close()

	if err := WriteWAV(path, samples, sampleRate); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

func clampSample(s float32) float32 {
	if s > 1 {
		return 1
	}
	if s < -1 {
		return -1
	}
	return s
}

// ToPCM16 converts float32 samples to little-endian 16-bit PCM bytes,
// the frame format the VAD consumes.
func ToPCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		v := int16(clampSample(s) * 32767)
		out[i*2] = byte(v)
		out[i*2+1] = byte(v >> 8)
	}
	return out
}
