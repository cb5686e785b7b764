// ============================================================================
// voicekey - Push-to-Talk Dictation
// ============================================================================
//
// Package:     config
// Description: Application configuration (TOML)
// License:     MIT
// ============================================================================

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds the complete application configuration
type Config struct {
	General  GeneralConfig  `toml:"general"`
	Hotkeys  HotkeysConfig  `toml:"hotkeys"`
	Audio    AudioConfig    `toml:"audio"`
	VAD      VADConfig      `toml:"vad"`
	STT      STTConfig      `toml:"stt"`
	Delivery DeliveryConfig `toml:"delivery"`
	Commands CommandsConfig `toml:"commands"`
	History  HistoryConfig  `toml:"history"`
}

// GeneralConfig holds general application settings
type GeneralConfig struct {
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
}

// HotkeysConfig holds the hotkey chords per binding role.
// An empty chord disables that binding; the toggle chord is mandatory.
type HotkeysConfig struct {
	Toggle    string `toml:"toggle"`
	StopEnter string `toml:"stop_enter"`
	Cancel    string `toml:"cancel"`
	Command   string `toml:"command"`

	// Backend selects the hotkey source: "gohook" (raw edge stream,
	// required for the modifier debounce) or "xhotkey" (per-chord
	// registration, no raw modifier edges).
	Backend string `toml:"backend"`

	// GuardWatchdog force-clears a modifier guard whose release edge was
	// never delivered (focus loss, grabbed keyboard).
	GuardWatchdog Duration `toml:"guard_watchdog"`
}

// AudioConfig holds audio capture settings
type AudioConfig struct {
	InputDevice     string `toml:"input_device"`
	SampleRate      int    `toml:"sample_rate"`
	FramesPerBuffer int    `toml:"frames_per_buffer"`
	FeedbackSounds  bool   `toml:"feedback_sounds"`
}

// VADConfig holds voice activity detection settings
type VADConfig struct {
	Enabled bool `toml:"enabled"`

	// Mode is the WebRTC VAD aggressiveness (0-3)
	Mode int `toml:"mode"`

	// SilenceTimeout is the trailing silence that auto-stops a recording
	SilenceTimeout Duration `toml:"silence_timeout"`

	// MinSpeech is the minimum speech duration for a valid recording
	MinSpeech Duration `toml:"min_speech"`

	// PrecheckMax is the recording length below which the one-shot
	// silence pre-check runs before transcription
	PrecheckMax Duration `toml:"precheck_max"`

	// MaxDuration is the hard recording ceiling, VAD or not
	MaxDuration Duration `toml:"max_duration"`
}

// STTConfig holds transcription engine settings
type STTConfig struct {
	Binary    string `toml:"binary"`
	ModelPath string `toml:"model_path"`
	Language  string `toml:"language"`
	Threads   int    `toml:"threads"`
}

// DeliveryConfig holds text delivery settings
type DeliveryConfig struct {
	// Method is "type" (character injection) or "paste" (clipboard+paste)
	Method string `toml:"method"`

	// TrailingSpace appends a space after the delivered text
	TrailingSpace bool `toml:"trailing_space"`

	// KeyDelay is the pause before injection so the hotkey's own keys
	// are released first
	KeyDelay Duration `toml:"key_delay"`
}

// CommandsConfig holds voice-command settings
type CommandsConfig struct {
	Enabled bool   `toml:"enabled"`
	File    string `toml:"file"`
}

// HistoryConfig holds dictation history settings
type HistoryConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Duration wraps time.Duration for TOML parsing
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the default configuration
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load loads configuration from a TOML file
func Load(path string) (*Config, error) {
	path = os.ExpandEnv(path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	cfg.expandPaths()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadOrDefault loads the config from the default locations, falling back
// to defaults when no file exists. A present-but-broken file is an error.
func LoadOrDefault() (*Config, error) {
	path := os.Getenv("VOICEKEY_CONFIG")
	if path == "" {
		for _, p := range defaultPaths() {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

func defaultPaths() []string {
	home, _ := os.UserHomeDir()
	return []string{
		"./voicekey.toml",
		filepath.Join(home, ".config", "voicekey", "config.toml"),
	}
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	if c.General.LogLevel == "" {
		c.General.LogLevel = "info"
	}
	if c.General.LogFormat == "" {
		c.General.LogFormat = "text"
	}

	if c.Hotkeys.Toggle == "" {
		c.Hotkeys.Toggle = "ctrl+shift+space"
	}
	if c.Hotkeys.Backend == "" {
		c.Hotkeys.Backend = "gohook"
	}
	if c.Hotkeys.GuardWatchdog.Duration == 0 {
		c.Hotkeys.GuardWatchdog.Duration = 3 * time.Second
	}

	if c.Audio.InputDevice == "" {
		c.Audio.InputDevice = "default"
	}
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = 16000
	}
	if c.Audio.FramesPerBuffer == 0 {
		// 30ms at 16kHz, a multiple of the 10ms WebRTC VAD frame
		c.Audio.FramesPerBuffer = 480
	}

	if c.VAD.Mode == 0 {
		c.VAD.Mode = 2
	}
	if c.VAD.SilenceTimeout.Duration == 0 {
		c.VAD.SilenceTimeout.Duration = 1500 * time.Millisecond
	}
	if c.VAD.MinSpeech.Duration == 0 {
		c.VAD.MinSpeech.Duration = 500 * time.Millisecond
	}
	if c.VAD.PrecheckMax.Duration == 0 {
		c.VAD.PrecheckMax.Duration = 1200 * time.Millisecond
	}
	if c.VAD.MaxDuration.Duration == 0 {
		c.VAD.MaxDuration.Duration = 60 * time.Second
	}

	if c.STT.Language == "" {
		c.STT.Language = "en"
	}
	if c.STT.Threads == 0 {
		c.STT.Threads = 4
	}

	if c.Delivery.Method == "" {
		c.Delivery.Method = "type"
	}
	if c.Delivery.KeyDelay.Duration == 0 {
		c.Delivery.KeyDelay.Duration = 200 * time.Millisecond
	}

	home, _ := os.UserHomeDir()
	if c.Commands.File == "" {
		c.Commands.File = filepath.Join(home, ".config", "voicekey", "commands.yaml")
	}
	if c.History.Path == "" {
		c.History.Path = filepath.Join(home, ".config", "voicekey", "history.db")
	}
}

// expandPaths expands environment variables in path-valued fields
func (c *Config) expandPaths() {
	c.STT.Binary = os.ExpandEnv(c.STT.Binary)
	c.STT.ModelPath = os.ExpandEnv(c.STT.ModelPath)
	c.Commands.File = os.ExpandEnv(c.Commands.File)
	c.History.Path = os.ExpandEnv(c.History.Path)
}

// Validate checks settings that would otherwise fail deep inside a
// collaborator. Chord syntax and duplicate chords are checked by the
// hotkey package when the binding set is built; both happen before the
// controller accepts any events.
func (c *Config) Validate() error {
	if c.Hotkeys.Toggle == "" {
		return fmt.Errorf("hotkeys.toggle must be set")
	}
	switch c.Hotkeys.Backend {
	case "gohook", "xhotkey":
	default:
		return fmt.Errorf("hotkeys.backend must be \"gohook\" or \"xhotkey\", got %q", c.Hotkeys.Backend)
	}
	switch c.Delivery.Method {
	case "type", "paste":
	default:
		return fmt.Errorf("delivery.method must be \"type\" or \"paste\", got %q", c.Delivery.Method)
	}
	if c.VAD.Mode < 0 || c.VAD.Mode > 3 {
		return fmt.Errorf("vad.mode must be between 0 and 3, got %d", c.VAD.Mode)
	}
	switch c.Audio.SampleRate {
	case 8000, 16000, 32000, 48000:
	default:
		return fmt.Errorf("audio.sample_rate must be 8000, 16000, 32000 or 48000, got %d", c.Audio.SampleRate)
	}
	if c.VAD.MinSpeech.Duration > c.VAD.MaxDuration.Duration {
		return fmt.Errorf("vad.min_speech (%s) exceeds vad.max_duration (%s)",
			c.VAD.MinSpeech.Duration, c.VAD.MaxDuration.Duration)
	}
	return nil
}
