// ============================================================================
// voicekey - Push-to-Talk Dictation
// ============================================================================
//
// Package:     cmd
// Description: Root CLI command
// License:     MIT
// ============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"voicekey/internal/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "voicekey",
	Short: "voicekey - push-to-talk dictation for the desktop",
	Long: `voicekey turns a global hotkey into system-wide dictation.

Press the toggle chord, speak, press it again (or just stop talking):
the recording is transcribed locally with whisper.cpp and typed into
whatever window has focus. A second chord runs voice commands instead
of typing.

Commands:
  run      - start the dictation service (tray icon + hotkeys)
  devices  - list audio input devices
  history  - show past dictations
  version  - print version information`,
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/voicekey/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// loadConfig resolves the effective configuration for a subcommand
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
	} else {
		cfg, err = config.LoadOrDefault()
	}
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.General.LogLevel = "debug"
	}
	return cfg, nil
}

func printError(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
}
