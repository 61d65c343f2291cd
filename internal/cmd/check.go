package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/spriteforge/updater/internal/config"
	"github.com/spriteforge/updater/internal/interactive"
	"github.com/spriteforge/updater/internal/output"
)

func newCheckCmd() *cobra.Command {
	var install, yes bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check whether a newer release is available",
		Long: `Compare the installed version against the release repository's
version marker.

Examples:
  spriteforge-updater check             # Report whether an update exists
  spriteforge-updater check -o json     # Machine-readable result
  spriteforge-updater check --install   # Install when one is available`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(install, yes)
		},
	}

	cmd.Flags().BoolVar(&install, "install", false, "Install the update when one is available")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

func runCheck(install, yes bool) error {
	cfg, err := config.Resolve(configPath)
	if err != nil {
		return err
	}

	current := ""
	if root, err := resolveRoot(cfg); err == nil {
		current = installedVersion(root, cfg.VersionFile)
	}

	result, err := newChecker(cfg, current).Check()
	if err != nil {
		return fmt.Errorf("failed to check for updates: %w", err)
	}

	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return err
	}
	if err := output.Write(os.Stdout, format, result); err != nil {
		return err
	}

	if !result.Available || !install {
		return nil
	}

	if !yes {
		if !interactive.IsTerminal() {
			return errors.New("refusing to install without confirmation; pass --yes")
		}
		if !interactive.NewPrompter().Confirm("Install version %s now?", result.LatestVersion) {
			return nil
		}
	}

	return runUpdate(cfg, updateFlags{noGUI: true, autoRestart: yes})
}
