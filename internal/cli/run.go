package cli

import (
	"github.com/spf13/cobra"

	"chartink-gateway/internal/app"
)

var (
	runPort     int
	runAlertLog string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the webhook gateway",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.RunOptions{
			Port:     runPort,
			AlertLog: runAlertLog,
		}
		return getApp().Run(cmd.Context(), opts)
	},
}

func init() {
	runCmd.Flags().IntVar(&runPort, "port", 0, "Listen port (overrides config and PORT)")
	runCmd.Flags().StringVar(&runAlertLog, "alert-log", "", "Alert journal path (overrides config)")
}
