// ============================================================================
// voicekey - Push-to-Talk Dictation
// ============================================================================
//
// Package:     cmd
// Description: The history subcommand
// License:     MIT
// ============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"voicekey/internal/history"
)

var (
	historyLimit  int
	historySearch string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past dictations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			printError("loading config", err)
			return err
		}

		store, err := history.Open(cfg.History.Path)
		if err != nil {
			printError("opening history", err)
			return err
		}
		defer store.Close()

		var entries []history.Entry
		if historySearch != "" {
			entries, err = store.Search(historySearch, historyLimit)
		} else {
			entries, err = store.Recent(historyLimit)
		}
		if err != nil {
			printError("reading history", err)
			return err
		}

		if len(entries) == 0 {
			fmt.Println("no dictations recorded")
			return nil
		}
		for _, e := range entries {
			fmt.Printf("%s  [%s]  %s\n",
				e.CreatedAt.Format("2006-01-02 15:04:05"), e.Mode, e.Text)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of entries")
	historyCmd.Flags().StringVarP(&historySearch, "search", "s", "", "filter by text")
	rootCmd.AddCommand(historyCmd)
}
