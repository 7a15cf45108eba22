package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"chartink-gateway/internal/alert"
	"chartink-gateway/internal/journal"
	"chartink-gateway/internal/service"
)

// SimulateAlert 用合成的股票批次模拟一次告警处理流程，不会真实下单。
func (a *App) SimulateAlert(ctx context.Context, opts SimulateOptions) error {
	scan := opts.ScanName
	if scan == "" {
		scan = "Simulated Scan"
	}

	stocks, err := parseStockSpecs(opts.Stocks)
	if err != nil {
		return err
	}
	if len(stocks) == 0 {
		stocks = sampleStocks()
	}

	batch := alert.Batch{ScanName: &scan, Stocks: stocks}

	logPath := a.Config.ResolveAlertLog(opts.AlertLog)
	if err := ensureDir(logPath); err != nil {
		return fmt.Errorf("prepare alert journal directory: %w", err)
	}

	jrnl := journal.New(logPath)
	svc := service.New(jrnl, nil, a.newSizer(), nil, false, a.Logger)

	received, err := svc.Process(ctx, &batch)
	if err != nil {
		return err
	}

	a.Logger.Info().
		Int("received", received).
		Str("journal", jrnl.Path()).
		Msg("simulated alert processed")
	return nil
}

// parseStockSpecs turns CLI specs of the form NAME, NAME:PRICE or
// NAME:PRICE:VOLUME into stock entries.
func parseStockSpecs(specs []string) ([]alert.StockEntry, error) {
	entries := make([]alert.StockEntry, 0, len(specs))
	for _, spec := range specs {
		parts := strings.SplitN(spec, ":", 3)
		name := strings.TrimSpace(parts[0])
		if name == "" {
			return nil, fmt.Errorf("stock spec %q has no symbol", spec)
		}

		entry := alert.StockEntry{Name: &name}
		if len(parts) > 1 {
			price, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
			if err != nil {
				return nil, fmt.Errorf("stock spec %q has a bad price: %w", spec, err)
			}
			entry.Price = &price
		}
		if len(parts) > 2 {
			volume, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
			if err != nil {
				return nil, fmt.Errorf("stock spec %q has a bad volume: %w", spec, err)
			}
			entry.Volume = &volume
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func sampleStocks() []alert.StockEntry {
	names := []string{"TCS", "RELIANCE", "INFY"}
	prices := []float64{3512.4, 2890.15, 1495.6}
	volumes := []float64{182000, 441000, 263500}

	entries := make([]alert.StockEntry, 0, len(names))
	for i := range names {
		entries = append(entries, alert.StockEntry{
			Name:   &names[i],
			Price:  &prices[i],
			Volume: &volumes[i],
		})
	}
	return entries
}
