// ============================================================================
// voicekey - Push-to-Talk Dictation
// ============================================================================
//
// Package:     config
// Description: Configuration tests
// License:     MIT
// ============================================================================

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	if cfg.Hotkeys.Toggle == "" {
		t.Error("default toggle chord is empty")
	}
	if cfg.Hotkeys.Backend != "gohook" {
		t.Errorf("default backend = %q, want gohook", cfg.Hotkeys.Backend)
	}
	if cfg.Audio.SampleRate != 16000 {
		t.Errorf("default sample rate = %d, want 16000", cfg.Audio.SampleRate)
	}
	if cfg.VAD.MaxDuration.Duration != 60*time.Second {
		t.Errorf("default max duration = %s, want 60s", cfg.VAD.MaxDuration.Duration)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config does not validate: %v", err)
	}
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
[general]
log_level = "debug"

[hotkeys]
toggle = "alt+space"
cancel = "alt+escape"
guard_watchdog = "5s"

[vad]
enabled = true
mode = 3
silence_timeout = "2s"

[delivery]
method = "paste"
trailing_space = true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.General.LogLevel != "debug" {
		t.Errorf("log_level = %q, want debug", cfg.General.LogLevel)
	}
	if cfg.Hotkeys.Toggle != "alt+space" {
		t.Errorf("toggle = %q, want alt+space", cfg.Hotkeys.Toggle)
	}
	if cfg.Hotkeys.GuardWatchdog.Duration != 5*time.Second {
		t.Errorf("guard_watchdog = %s, want 5s", cfg.Hotkeys.GuardWatchdog.Duration)
	}
	if cfg.VAD.Mode != 3 {
		t.Errorf("vad mode = %d, want 3", cfg.VAD.Mode)
	}
	if cfg.VAD.SilenceTimeout.Duration != 2*time.Second {
		t.Errorf("silence_timeout = %s, want 2s", cfg.VAD.SilenceTimeout.Duration)
	}
	if cfg.Delivery.Method != "paste" {
		t.Errorf("delivery method = %q, want paste", cfg.Delivery.Method)
	}
	if !cfg.Delivery.TrailingSpace {
		t.Error("trailing_space not set")
	}

	// Defaults fill sections the file omits.
	if cfg.Audio.SampleRate != 16000 {
		t.Errorf("sample rate default not applied: %d", cfg.Audio.SampleRate)
	}
	if cfg.STT.Threads != 4 {
		t.Errorf("stt threads default not applied: %d", cfg.STT.Threads)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadBadDuration(t *testing.T) {
	path := writeConfig(t, `
[vad]
silence_timeout = "fast"
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error for bad duration")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{
			name:   "bad backend",
			mutate: func(c *Config) { c.Hotkeys.Backend = "evdev" },
			want:   "hotkeys.backend",
		},
		{
			name:   "bad delivery method",
			mutate: func(c *Config) { c.Delivery.Method = "osc" },
			want:   "delivery.method",
		},
		{
			name:   "vad mode out of range",
			mutate: func(c *Config) { c.VAD.Mode = 7 },
			want:   "vad.mode",
		},
		{
			name:   "unsupported sample rate",
			mutate: func(c *Config) { c.Audio.SampleRate = 44100 },
			want:   "sample_rate",
		},
		{
			name: "min speech above ceiling",
			mutate: func(c *Config) {
				c.VAD.MinSpeech.Duration = 2 * time.Minute
			},
			want: "min_speech",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestEnvExpansion(t *testing.T) {
	t.Setenv("VK_MODEL_DIR", "/opt/models")
	path := writeConfig(t, `
[stt]
model_path = "$VK_MODEL_DIR/ggml-base.bin"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.STT.ModelPath != "/opt/models/ggml-base.bin" {
		t.Errorf("model_path = %q, env not expanded", cfg.STT.ModelPath)
	}
}
