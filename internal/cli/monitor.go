package cli

import (
	"time"

	"github.com/spf13/cobra"

	"chartink-gateway/internal/app"
)

var (
	monitorInterval time.Duration
	monitorOnce     bool
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Watch open trades and exit on stop loss or target",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.MonitorOptions{
			Interval: monitorInterval,
			Once:     monitorOnce,
		}
		return getApp().RunMonitor(cmd.Context(), opts)
	},
}

func init() {
	monitorCmd.Flags().DurationVar(&monitorInterval, "interval", 0, "Check interval (overrides config)")
	monitorCmd.Flags().BoolVar(&monitorOnce, "once", false, "Run a single check cycle and exit")
}
