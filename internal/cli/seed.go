package cli

import (
	"github.com/spf13/cobra"

	"chartink-gateway/internal/app"
)

var (
	seedCount int
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert mock open trades for monitor testing",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.SeedOptions{
			Count: seedCount,
		}
		return getApp().Seed(cmd.Context(), opts)
	},
}

func init() {
	seedCmd.Flags().IntVar(&seedCount, "count", 100, "Number of mock trades to insert")
}
