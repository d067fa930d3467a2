package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"muse-workers/internal/common/retail"
	"muse-workers/internal/models"
)

func newShopURLCommand() *cobra.Command {
	var (
		gender  string
		baseURL string
	)

	cmd := &cobra.Command{
		Use:   "shop-url <query>",
		Short: "Print the storefront search URL for a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g := models.Gender(gender)
			if gender != "" && !g.Valid() {
				return fmt.Errorf("gender must be Men, Women or Unisex, got %q", gender)
			}
			fmt.Fprintln(cmd.OutOrStdout(), retail.NewLinkBuilder(baseURL).ShopURL(strings.Join(args, " "), g))
			return nil
		},
	}
	cmd.Flags().StringVar(&gender, "gender", "", "Men, Women or Unisex")
	cmd.Flags().StringVar(&baseURL, "base-url", retail.DefaultBaseURL, "Storefront base URL")
	return cmd
}
