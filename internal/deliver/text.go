// ============================================================================
// voicekey - Push-to-Talk Dictation
// ============================================================================
//
// Package:     deliver
// Description: Transcript delivery into the focused application
// License:     MIT
// ============================================================================

package deliver

import (
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/go-vgo/robotgo"

	"voicekey/pkg/core/logging"
)

// TextSink delivers a finished transcript to the focused window. The
// controller calls it exactly once per successful dictation, before
// returning to idle.
type TextSink interface {
	Deliver(text string, autoEnter bool) error
}

// TextConfig holds delivery settings
type TextConfig struct {
	// Method is "type" (synthetic keystrokes) or "paste" (clipboard
	// plus a paste chord)
	Method string

	// TrailingSpace appends one space so consecutive dictations do not
	// run together
	TrailingSpace bool

	// KeyDelay waits before injecting so the user's hotkey keys are up;
	// a held modifier would corrupt the synthetic keystrokes.
	KeyDelay time.Duration
}

// Injector types or pastes text via the OS input layer
type Injector struct {
	cfg TextConfig
	log *logging.Logger
}

// NewInjector creates the text sink
func NewInjector(cfg TextConfig, log *logging.Logger) *Injector {
	if cfg.Method == "" {
		cfg.Method = "type"
	}
	return &Injector{cfg: cfg, log: log}
}

// Deliver injects the text into the focused application. Empty text
// after normalization delivers nothing and is not an error.
func (i *Injector) Deliver(text string, autoEnter bool) error {
	text = Normalize(text, i.cfg.TrailingSpace)
	if text == "" {
		i.log.Debug("empty transcript, nothing to deliver")
		return nil
	}

	if i.cfg.KeyDelay > 0 {
		time.Sleep(i.cfg.KeyDelay)
	}

	switch i.cfg.Method {
	case "paste":
		if err := clipboard.WriteAll(text); err != nil {
			return fmt.Errorf("writing clipboard: %w", err)
		}
		robotgo.KeyTap("v", "ctrl")
	default:
		robotgo.TypeStr(text)
	}

	if autoEnter {
		robotgo.KeyTap("enter")
	}

	i.log.Info("text delivered",
		"chars", len(text),
		"method", i.cfg.Method,
		"auto_enter", autoEnter)
	return nil
}

// Normalize trims the transcript and optionally appends one trailing
// space. Internal whitespace runs collapse to single spaces.
func Normalize(text string, trailingSpace bool) string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return ""
	}
	if trailingSpace {
		text += " "
	}
	return text
}
