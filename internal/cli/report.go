package cli

import (
	"github.com/spf13/cobra"

	"chartink-gateway/internal/app"
)

var (
	reportPerfPath  string
	reportCSVPath   string
	reportPNGPath   string
	reportMaxPoints int
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize exit monitor cycles as table, CSV or PNG chart",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.ReportOptions{
			PerfPath:  reportPerfPath,
			CSVPath:   reportCSVPath,
			PNGPath:   reportPNGPath,
			MaxPoints: reportMaxPoints,
		}
		return getApp().Report(cmd.Context(), opts)
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportPerfPath, "perf", "", "Performance log path (defaults to config)")
	reportCmd.Flags().StringVar(&reportCSVPath, "csv", "", "Path to write CSV data")
	reportCmd.Flags().StringVar(&reportPNGPath, "png", "", "Path to write PNG chart")
	reportCmd.Flags().IntVar(&reportMaxPoints, "max-points", 0, "Maximum data points to report")
}
