package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"muse-workers/internal/common/resilient"
)

func newExtractCommand() *cobra.Command {
	var balanced bool

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract the JSON object from model text read on stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
			text := string(raw)
			if balanced {
				fmt.Fprintln(cmd.OutOrStdout(), resilient.ExtractBalancedJSON(text))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), resilient.ExtractJSON(text))
			return nil
		},
	}
	cmd.Flags().BoolVar(&balanced, "balanced", false, "Stop at the first balanced object instead of the last closing brace")
	return cmd
}
