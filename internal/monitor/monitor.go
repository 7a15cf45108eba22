package monitor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"chartink-gateway/internal/broker"
	"chartink-gateway/internal/quotes"
	"chartink-gateway/internal/storage"
)

var dec100 = decimal.NewFromInt(100)

// Options parameterise the exit monitor.
type Options struct {
	StopLossPct     float64
	TargetPct       float64
	Workers         int
	PerformancePath string
}

// Monitor walks open trades each cycle and exits positions whose move
// since entry crosses the stop loss or the target.
type Monitor struct {
	store    storage.TradeStore
	quotes   quotes.Source
	placer   broker.OrderPlacer
	perf     *perfLog
	logger   zerolog.Logger
	stopLoss decimal.Decimal
	target   decimal.Decimal
	workers  int
}

// New constructs the monitor. A nil placer simulates exits: rows are
// still deleted so dry runs drain the table the way live runs do.
func New(opts Options, store storage.TradeStore, src quotes.Source, placer broker.OrderPlacer, logger zerolog.Logger) *Monitor {
	workers := opts.Workers
	if workers <= 0 {
		workers = 20
	}

	var perf *perfLog
	if opts.PerformancePath != "" {
		perf = &perfLog{path: opts.PerformancePath}
	}

	return &Monitor{
		store:    store,
		quotes:   src,
		placer:   placer,
		perf:     perf,
		logger:   logger.With().Str("component", "monitor").Logger(),
		stopLoss: decimal.NewFromFloat(opts.StopLossPct),
		target:   decimal.NewFromFloat(opts.TargetPct),
		workers:  workers,
	}
}

// Tick runs one monitoring cycle: list, fan out price checks, record a
// performance sample.
func (m *Monitor) Tick(ctx context.Context, at time.Time) error {
	trades, err := m.store.ListOpenTrades(ctx)
	if err != nil {
		return fmt.Errorf("list open trades: %w", err)
	}
	if len(trades) == 0 {
		m.logger.Debug().Msg("no open trades to monitor")
		return nil
	}

	m.logger.Info().Int("trades", len(trades)).Msg("checking open trades")
	start := time.Now()

	jobs := make(chan storage.OpenTrade)
	var wg sync.WaitGroup
	var exits int64

	workers := m.workers
	if workers > len(trades) {
		workers = len(trades)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for trade := range jobs {
				if m.check(ctx, trade) {
					atomic.AddInt64(&exits, 1)
				}
			}
		}()
	}
	for _, trade := range trades {
		jobs <- trade
	}
	close(jobs)
	wg.Wait()

	duration := time.Since(start)
	m.logger.Info().
		Int("trades", len(trades)).
		Int64("exits", exits).
		Dur("duration", duration).
		Msg("批次检查完成")

	if m.perf != nil {
		sample := PerformanceSample{
			Timestamp:  at.Format("2006-01-02 15:04:05"),
			Trades:     len(trades),
			DurationMS: duration.Milliseconds(),
			Exits:      int(exits),
		}
		if err := m.perf.append(sample); err != nil {
			m.logger.Error().Err(err).Msg("failed to append performance sample")
		}
	}
	return nil
}

// check evaluates one trade and reports whether it was exited. Sell
// failures keep the row so the next cycle retries the exit.
func (m *Monitor) check(ctx context.Context, trade storage.OpenTrade) bool {
	if trade.BuyPrice.IsZero() {
		m.logger.Warn().Str("symbol", trade.Symbol).Msg("skip trade with zero buy price")
		return false
	}

	ltp, err := m.quotes.LTP(ctx, trade.Symbol)
	if err != nil {
		m.logger.Error().Err(err).Str("symbol", trade.Symbol).Msg("failed to fetch ltp")
		return false
	}

	changePct := ltp.Sub(trade.BuyPrice).Div(trade.BuyPrice).Mul(dec100)
	if changePct.GreaterThan(m.stopLoss) && changePct.LessThan(m.target) {
		m.logger.Debug().
			Str("symbol", trade.Symbol).
			Str("ltp", ltp.String()).
			Str("change_pct", changePct.StringFixed(2)).
			Msg("holding")
		return false
	}

	m.logger.Info().
		Str("symbol", trade.Symbol).
		Str("change_pct", changePct.StringFixed(2)).
		Msg("exit condition met")

	if m.placer != nil {
		order := broker.MarketSell(broker.TradeSymbol(trade.Symbol), trade.Qty)
		if _, err := m.placer.PlaceOrder(ctx, order); err != nil {
			m.logger.Error().Err(err).Str("symbol", trade.Symbol).Msg("failed to place sell order")
			return false
		}
	}

	if err := m.store.DeleteOpenTrade(ctx, trade.ID); err != nil {
		m.logger.Error().Err(err).Int64("trade_id", trade.ID).Msg("failed to delete open trade")
		return false
	}

	m.logger.Info().Str("symbol", trade.Symbol).Int64("trade_id", trade.ID).Msg("平仓完成, 记录已删除")
	return true
}
