package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/spriteforge/updater/internal/config"
)

func newUpdateCmd() *cobra.Command {
	var fl updateFlags

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Download and install the latest release",
		Long: `Update the SpriteForge install to the latest release.

Source installs are merged in place, or pulled when the install is a
git checkout. With --exe the packaged executable is staged next to the
live one and swapped by a replacement script after both processes exit.

Examples:
  spriteforge-updater update                    # Source update, progress window on a TTY
  spriteforge-updater update --no-gui           # Log to stderr instead
  spriteforge-updater update --exe ./SpriteForge.exe
  spriteforge-updater update --wait 60          # Allow the app a minute to close`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Resolve(configPath)
			if err != nil {
				return err
			}
			// The application usually launches the updater and then
			// exits; give it a head start before touching its files.
			if fl.waitSeconds > 0 {
				time.Sleep(time.Duration(fl.waitSeconds) * time.Second)
			}
			return runUpdate(cfg, fl)
		},
	}

	cmd.Flags().StringVar(&fl.exePath, "exe", "", "Path to the packaged executable to replace")
	cmd.Flags().BoolVar(&fl.exeMode, "exe-mode", false, "Run the packaged-executable flow")
	cmd.Flags().BoolVar(&fl.noGUI, "no-gui", false, "Disable the progress window")
	cmd.Flags().IntVar(&fl.waitSeconds, "wait", 0, "Seconds to wait before starting the update")
	cmd.Flags().BoolVar(&fl.autoRestart, "restart", false, "Restart the application without prompting")

	return cmd
}
