package cli

import (
	"github.com/spf13/cobra"
)

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete every row from the open trades table",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Purge(cmd.Context())
	},
}
