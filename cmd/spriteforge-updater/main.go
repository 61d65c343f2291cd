package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"

	"github.com/spriteforge/updater/internal/cmd"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// fang overrides rootCmd.Version, so pass it via WithVersion.
	err := fang.Execute(
		context.Background(),
		cmd.New(version),
		fang.WithVersion(fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)),
		fang.WithNotifySignal(os.Interrupt),
	)
	if err != nil {
		os.Exit(1)
	}
}
