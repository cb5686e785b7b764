// ============================================================================
// voicekey - Push-to-Talk Dictation
// ============================================================================
//
// Package:     stt
// Description: whisper.cpp CLI engine
// License:     MIT
// ============================================================================

package stt

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"voicekey/internal/audio"
)

// whisper binary names and locations checked during discovery
var whisperNames = []string{"whisper-cli", "whisper-cpp", "whisper"}

var whisperLocations = []string{
	"/usr/local/bin/whisper-cli",
	"/usr/local/bin/whisper",
	"/usr/bin/whisper-cli",
	"/usr/bin/whisper",
	"/opt/homebrew/bin/whisper-cli",
	"/opt/homebrew/bin/whisper",
}

// WhisperCLI transcribes by shelling out to a whisper.cpp binary. Load
// discovers the binary and verifies the model; until then Ready is
// false and the controller holds recordings in its loading state.
type WhisperCLI struct {
	cfg Config

	mu     sync.RWMutex
	binary string
	ready  bool
}

// NewWhisperCLI creates an unloaded engine
func NewWhisperCLI(cfg Config) *WhisperCLI {
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	if cfg.Threads == 0 {
		cfg.Threads = 4
	}
	return &WhisperCLI{cfg: cfg}
}

// Ready reports whether Load has completed
func (w *WhisperCLI) Ready() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.ready
}

// Load locates the binary and checks the model file
func (w *WhisperCLI) Load(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.ready {
		return nil
	}

	binary := w.cfg.Binary
	if binary == "" {
		binary = discoverWhisper()
	}
	if binary == "" {
		return fmt.Errorf("whisper binary not found; set stt.binary in the config")
	}
	if _, err := os.Stat(binary); err != nil {
		return fmt.Errorf("whisper binary %s: %w", binary, err)
	}

	if w.cfg.ModelPath == "" {
		return fmt.Errorf("stt.model_path is required")
	}
	if _, err := os.Stat(w.cfg.ModelPath); err != nil {
		return fmt.Errorf("model file %s: %w", w.cfg.ModelPath, err)
	}

	w.binary = binary
	w.ready = true
	return nil
}

func discoverWhisper() string {
	for _, name := range whisperNames {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	for _, loc := range whisperLocations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}
	return ""
}

// Transcribe writes the samples to a temp WAV and runs the binary
func (w *WhisperCLI) Transcribe(ctx context.Context, samples []float32, sampleRate int) (Result, error) {
	w.mu.RLock()
	binary, ready := w.binary, w.ready
	w.mu.RUnlock()
	if !ready {
		return Result{}, fmt.Errorf("engine not loaded")
	}

	wavPath, err := audio.WriteTempWAV(samples, sampleRate)
	if err != nil {
		return Result{}, err
	}
	defer os.Remove(wavPath)

	start := time.Now()

	args := []string{
		"--model", w.cfg.ModelPath,
		"--language", w.cfg.Language,
		"--threads", fmt.Sprint(w.cfg.Threads),
		"--no-prints",
		"--no-timestamps",
		wavPath,
	}
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		// Older builds only understand the short flags.
		stdout.Reset()
		stderr.Reset()
		fallback := exec.CommandContext(ctx, binary,
			"-m", w.cfg.ModelPath,
			"-l", w.cfg.Language,
			"-t", fmt.Sprint(w.cfg.Threads),
			"-np",
			wavPath,
		)
		fallback.Stdout = &stdout
		fallback.Stderr = &stderr
		if err2 := fallback.Run(); err2 != nil {
			if ctx.Err() != nil {
				return Result{}, ctx.Err()
			}
			return Result{}, fmt.Errorf("whisper failed: %w (stderr: %s)",
				err2, strings.TrimSpace(stderr.String()))
		}
	}

	return Result{
		Text:     CleanTranscript(stdout.String()),
		Language: w.cfg.Language,
		Elapsed:  time.Since(start),
	}, nil
}

// Close releases nothing; the binary is external
func (w *WhisperCLI) Close() error {
	return nil
}

// CleanTranscript strips timestamps and noise annotations from whisper
// output and collapses it to one line.
func CleanTranscript(raw string) string {
	var parts []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		// "[00:00:00.000 --> 00:00:02.000]  text"
		if strings.HasPrefix(line, "[") && strings.Contains(line, "-->") {
			if idx := strings.Index(line, "]"); idx != -1 {
				line = strings.TrimSpace(line[idx+1:])
			}
		}
		// Annotations like [BLANK_AUDIO] or (wind blowing)
		if isAnnotation(line) {
			continue
		}
		if line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, " ")
}

func isAnnotation(line string) bool {
	return (strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]")) ||
		(strings.HasPrefix(line, "(") && strings.HasSuffix(line, ")"))
}
