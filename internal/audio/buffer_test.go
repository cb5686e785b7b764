// ============================================================================
// voicekey - Push-to-Talk Dictation
// ============================================================================
//
// Package:     audio
// Description: Buffer and conversion tests
// License:     MIT
// ============================================================================

package audio

import (
	"testing"
	"time"
)

func TestBufferAppendAndSamples(t *testing.T) {
	b := NewBuffer()

	b.Append([]float32{0.1, 0.2})
	b.Append([]float32{0.3})

	if b.Len() != 3 {
		t.Errorf("Len = %d, want 3", b.Len())
	}

	got := b.Samples()
	want := []float32{0.1, 0.2, 0.3}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Samples[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	// The returned slice is a copy; mutating it must not touch the buffer.
	got[0] = 9
	if b.Samples()[0] != 0.1 {
		t.Error("Samples returned the internal slice, not a copy")
	}
}

func TestBufferDuration(t *testing.T) {
	b := NewBuffer()
	b.Append(make([]float32, 16000))

	if d := b.Duration(16000); d != time.Second {
		t.Errorf("Duration = %s, want 1s", d)
	}
	if d := b.Duration(0); d != 0 {
		t.Errorf("Duration with zero rate = %s, want 0", d)
	}
}

func TestBufferClear(t *testing.T) {
	b := NewBuffer()
	b.Append(make([]float32, 100))
	b.Clear()

	if b.Len() != 0 {
		t.Errorf("Len after Clear = %d, want 0", b.Len())
	}
}

func TestToPCM16(t *testing.T) {
	pcm := ToPCM16([]float32{0, 1, -1, 2})

	if len(pcm) != 8 {
		t.Fatalf("len = %d, want 8", len(pcm))
	}

	read := func(i int) int16 {
		return int16(pcm[i*2]) | int16(pcm[i*2+1])<<8
	}
	if read(0) != 0 {
		t.Errorf("sample 0 = %d, want 0", read(0))
	}
	if read(1) != 32767 {
		t.Errorf("sample 1 = %d, want 32767", read(1))
	}
	if read(2) != -32767 {
		t.Errorf("sample 2 = %d, want -32767", read(2))
	}
	// Out-of-range input clamps instead of wrapping.
	if read(3) != 32767 {
		t.Errorf("sample 3 = %d, want clamped 32767", read(3))
	}
}
