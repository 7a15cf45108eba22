package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"chartink-gateway/internal/alert"
	"chartink-gateway/internal/broker"
	"chartink-gateway/internal/journal"
	"chartink-gateway/internal/storage"
)

// Service processes inbound alert batches: console notices and the
// journal append first, then order dispatch when trading is on.
type Service struct {
	journal   *journal.Journal
	placer    broker.OrderPlacer
	sizer     broker.Sizer
	store     storage.TradeStore
	logger    zerolog.Logger
	tradingOn bool
}

// New constructs the alert processing service. placer and store may be
// nil; dispatch degrades to journal-only operation.
func New(jrnl *journal.Journal, placer broker.OrderPlacer, sizer broker.Sizer, store storage.TradeStore, tradingOn bool, logger zerolog.Logger) *Service {
	return &Service{
		journal:   jrnl,
		placer:    placer,
		sizer:     sizer,
		store:     store,
		logger:    logger.With().Str("component", "service").Logger(),
		tradingOn: tradingOn,
	}
}

// Process handles one validated batch and returns the record count. The
// journal append happens before any order leaves the process; an append
// failure aborts the batch and surfaces to the caller.
func (s *Service) Process(ctx context.Context, batch *alert.Batch) (int, error) {
	now := time.Now()
	records := batch.Records(now)

	s.logger.Info().Msg(fmt.Sprintf("=== Chartink Alert @ %s ===", now.Format(alert.TimestampLayout)))
	for _, record := range records {
		evt := s.logger.Info().
			Str("scan", record.ScanName).
			Str("nse_code", record.NSECode)
		if record.StockName != nil {
			evt = evt.Str("stock", *record.StockName)
		}
		if record.Price != nil {
			evt = evt.Float64("price", *record.Price)
		}
		if record.Volume != nil {
			evt = evt.Float64("volume", *record.Volume)
		}
		evt.Msg("stock alert")
	}

	if err := s.journal.Append(records); err != nil {
		return 0, err
	}

	if s.tradingOn && s.placer != nil {
		s.dispatch(ctx, batch)
	}

	return len(records), nil
}

// dispatch places one market buy per named stock. Failures are logged
// per order so one rejected symbol never blocks the rest of the batch
// or the webhook acknowledgment.
func (s *Service) dispatch(ctx context.Context, batch *alert.Batch) {
	for _, entry := range batch.Stocks {
		symbol := entry.Symbol()
		if symbol == "" {
			s.logger.Warn().Msg("skip order for unnamed stock")
			continue
		}

		price := decimal.NewFromFloat(entry.TriggerPrice())
		qty := s.sizer.QtyFor(price)

		if _, err := s.placer.PlaceOrder(ctx, broker.MarketBuy(broker.TradeSymbol(symbol), qty)); err != nil {
			s.logger.Error().Err(err).Str("symbol", symbol).Msg("failed to place order")
			continue
		}

		if s.store != nil {
			trade := storage.OpenTrade{
				Symbol:   symbol,
				BuyPrice: price,
				Qty:      qty,
				BuyTime:  time.Now(),
			}
			if _, err := s.store.InsertOpenTrade(ctx, trade); err != nil {
				s.logger.Error().Err(err).Str("symbol", symbol).Msg("failed to persist open trade")
			}
		}
	}
}
