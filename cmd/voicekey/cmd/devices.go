// ============================================================================
// voicekey - Push-to-Talk Dictation
// ============================================================================
//
// Package:     cmd
// Description: The devices subcommand
// License:     MIT
// ============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"voicekey/internal/audio"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio input devices",
	Long: `Lists the PortAudio input devices. Put one of these names into
audio.input_device in the config to record from it instead of the
system default.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := audio.InputDevices()
		if err != nil {
			printError("listing devices", err)
			return err
		}
		if len(names) == 0 {
			fmt.Println("no input devices found")
			return nil
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}
