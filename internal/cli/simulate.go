package cli

import (
	"github.com/spf13/cobra"

	"chartink-gateway/internal/app"
)

var (
	simulateScan     string
	simulateStocks   []string
	simulateAlertLog string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate-alert",
	Short: "模拟一次 Chartink 告警并写入日志",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.SimulateOptions{
			ScanName: simulateScan,
			Stocks:   simulateStocks,
			AlertLog: simulateAlertLog,
		}
		return getApp().SimulateAlert(cmd.Context(), opts)
	},
}

func init() {
	simulateCmd.Flags().StringVar(&simulateScan, "scan", "", "扫描名称，为空时使用内置示例")
	simulateCmd.Flags().StringArrayVar(&simulateStocks, "stock", nil, "股票条目 NAME[:PRICE[:VOLUME]]，可重复")
	simulateCmd.Flags().StringVar(&simulateAlertLog, "alert-log", "", "Alert journal path (overrides config)")
}
