// Package cli implements muse-cli, a developer tool for poking at the
// stylist endpoint and the helpers the workers share.
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

// NewRootCommand builds a fresh command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "muse-cli",
		Short:         "Developer utilities for the Muse workers",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newExtractCommand(), newAskCommand(), newShopURLCommand())
	return root
}

func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
