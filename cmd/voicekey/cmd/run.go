// ============================================================================
// voicekey - Push-to-Talk Dictation
// ============================================================================
//
// Package:     cmd
// Description: The run subcommand: tray, hotkeys and the controller
// License:     MIT
// ============================================================================

package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"voicekey/internal/audio"
	"voicekey/internal/config"
	"voicekey/internal/controller"
	"voicekey/internal/deliver"
	"voicekey/internal/history"
	"voicekey/internal/hotkey"
	"voicekey/internal/stt"
	"voicekey/internal/ui"
	"voicekey/internal/vad"
	"voicekey/pkg/core/logging"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the dictation service",
	Long: `Starts voicekey: registers the hotkeys, shows the tray icon and
waits for dictation. Runs until SIGINT/SIGTERM or Quit from the tray
menu.`,
	RunE: runService,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runService(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		printError("loading config", err)
		return err
	}

	log := logging.NewWithConfig(logging.Config{
		Level:  logging.ParseLevel(cfg.General.LogLevel),
		Format: logging.ParseFormat(cfg.General.LogFormat),
		Name:   "voicekey",
	})

	// Chord parsing and duplicate detection happen here, before any
	// event can flow; a bad hotkey table never reaches the controller.
	bindings, err := hotkey.NewBindingSet(hotkey.Spec{
		Toggle:    cfg.Hotkeys.Toggle,
		StopEnter: cfg.Hotkeys.StopEnter,
		Cancel:    cfg.Hotkeys.Cancel,
		Command:   cfg.Hotkeys.Command,
	})
	if err != nil {
		printError("hotkey configuration", err)
		return err
	}

	capture, err := audio.NewCapture(audio.CaptureConfig{
		SampleRate:      cfg.Audio.SampleRate,
		FramesPerBuffer: cfg.Audio.FramesPerBuffer,
		DeviceName:      cfg.Audio.InputDevice,
	})
	if err != nil {
		printError("audio", err)
		return err
	}
	defer capture.Close()

	engine := stt.NewWhisperCLI(stt.Config{
		Binary:    cfg.STT.Binary,
		ModelPath: cfg.STT.ModelPath,
		Language:  cfg.STT.Language,
		Threads:   cfg.STT.Threads,
	})
	defer engine.Close()

	// Warm load in the background; a failure here is not fatal, the
	// controller retries per recording and surfaces it then.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := engine.Load(ctx); err != nil {
			log.Warn("engine warm load failed", "error", err)
		}
	}()

	opts := controller.Options{
		Feedback: audio.NewFeedback(cfg.Audio.FeedbackSounds),
	}

	if cfg.VAD.Enabled {
		detector, err := vad.NewWebRTC(cfg.VAD.Mode, cfg.Audio.SampleRate)
		if err != nil {
			log.Warn("vad unavailable, silence handling disabled", "error", err)
		} else {
			opts.Detector = detector
			defer detector.Close()
		}
	}

	if cfg.Commands.Enabled {
		commands, err := deliver.LoadCommands(cfg.Commands.File)
		if err != nil {
			printError("command table", err)
			return err
		}
		opts.Commands = deliver.NewCommandSink(commands, log.Named("commands"))
		log.Info("voice commands loaded", "count", len(commands), "file", cfg.Commands.File)
	}

	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			log.Warn("history disabled", "error", err)
		} else {
			opts.Store = store
			defer store.Close()
		}
	}

	injector := deliver.NewInjector(deliver.TextConfig{
		Method:        cfg.Delivery.Method,
		TrailingSpace: cfg.Delivery.TrailingSpace,
		KeyDelay:      cfg.Delivery.KeyDelay.Duration,
	}, log.Named("deliver"))

	frameDur := time.Duration(cfg.Audio.FramesPerBuffer) * time.Second /
		time.Duration(cfg.Audio.SampleRate)

	ctrl := controller.New(controller.Config{
		SampleRate:     cfg.Audio.SampleRate,
		FrameDuration:  frameDur,
		VADEnabled:     cfg.VAD.Enabled,
		SilenceTimeout: cfg.VAD.SilenceTimeout.Duration,
		MinSpeech:      cfg.VAD.MinSpeech.Duration,
		PrecheckMax:    cfg.VAD.PrecheckMax.Duration,
		MaxDuration:    cfg.VAD.MaxDuration.Duration,
	}, capture, engine, injector, opts, log.Named("controller"))

	source, err := hotkey.NewSource(cfg.Hotkeys.Backend, log.Named("hotkey"))
	if err != nil {
		printError("hotkey backend", err)
		return err
	}

	dispatcher := hotkey.NewDispatcher(source, bindings, ctrl, ctrl,
		cfg.Hotkeys.GuardWatchdog.Duration, log.Named("hotkey"))

	tray := ui.NewTray(ui.Callbacks{
		OnToggle: func() {
			if ctrl.IsRecording() {
				ctrl.Stop(false)
			} else {
				ctrl.Start(false)
			}
		},
		OnCommand: func() {
			if !ctrl.IsRecording() && !ctrl.IsBusy() {
				ctrl.Start(true)
			}
		},
	})
	ctrl.AddObserver(tray)

	ctrl.Run()
	if err := dispatcher.Start(); err != nil {
		printError("hotkeys", err)
		ctrl.Close()
		return err
	}

	log.Info("voicekey running",
		"toggle", cfg.Hotkeys.Toggle,
		"backend", cfg.Hotkeys.Backend,
		"vad", cfg.VAD.Enabled)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sig
		log.Info("shutting down", "signal", s)
		tray.Quit()
	}()

	// Blocks until Quit; systray wants the main goroutine.
	tray.Run()

	dispatcher.Stop()
	ctrl.Close()
	log.Info("stopped")
	return nil
}
