package main

import (
	"os"

	"voicekey/cmd/voicekey/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
