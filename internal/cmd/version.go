package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the updater version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("spriteforge-updater version %s\n", version)
			return nil
		},
	}
}
