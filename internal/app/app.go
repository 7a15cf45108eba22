package app

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"chartink-gateway/internal/broker"
	"chartink-gateway/internal/config"
	"chartink-gateway/internal/journal"
	"chartink-gateway/internal/quotes"
	"chartink-gateway/internal/scheduler"
	"chartink-gateway/internal/server"
	"chartink-gateway/internal/service"
	"chartink-gateway/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newBroker() *broker.Client {
	if !a.Config.Trading.Enabled {
		return nil
	}
	return broker.NewClient(broker.Options{
		BaseURL:     a.Config.Trading.BaseURL,
		ClientID:    a.Config.Trading.ClientID,
		AccessToken: a.Config.Trading.AccessToken,
		Timeout:     a.Config.Trading.RequestTimeout,
	}, a.Logger)
}

func (a *App) newRefresher(client *broker.Client) *broker.Refresher {
	if client == nil || a.Config.Trading.RefreshToken == "" {
		return nil
	}
	return broker.NewRefresher(broker.RefresherOptions{
		BaseURL:      a.Config.Trading.BaseURL,
		AppIDHash:    a.Config.Trading.AppIDHash,
		RefreshToken: a.Config.Trading.RefreshToken,
		Timeout:      a.Config.Trading.RequestTimeout,
	}, client.SetToken, a.Logger)
}

func (a *App) newQuotes() quotes.Source {
	if a.Config.Quotes.Simulate {
		return quotes.NewSimulator(0)
	}
	return quotes.NewClient(quotes.Options{
		BaseURL: a.Config.Quotes.BaseURL,
		Timeout: a.Config.Quotes.RequestTimeout,
	}, a.Logger)
}

func (a *App) newSizer() broker.Sizer {
	s := a.Config.Trading.Sizing
	return broker.NewSizer(broker.SizingRules{
		LowPriceLimit: s.LowPriceLimit,
		MidPriceLimit: s.MidPriceLimit,
		LowQty:        s.LowQty,
		HighQty:       s.HighQty,
	})
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

// Run executes the long-running webhook gateway.
func (a *App) Run(ctx context.Context, opts RunOptions) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		a.Logger.Warn().Msg("database.dsn not configured; open trades persistence disabled")
	} else {
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		open, err := store.CountOpenTrades(ctx)
		if err != nil {
			return err
		}
		a.Logger.Info().Int64("open_trades", open).Msg("database ready")
	}
	if closeStore != nil {
		defer closeStore()
	}

	logPath := a.Config.ResolveAlertLog(opts.AlertLog)
	if err := ensureDir(logPath); err != nil {
		return fmt.Errorf("prepare alert journal directory: %w", err)
	}

	client := a.newBroker()
	refresher := a.newRefresher(client)

	var placer broker.OrderPlacer
	if client != nil {
		placer = client
	}
	var tradeStore storage.TradeStore
	if store != nil {
		tradeStore = store
	}

	jrnl := journal.New(logPath)
	svc := service.New(jrnl, placer, a.newSizer(), tradeStore, a.Config.Trading.Enabled, a.Logger)

	var refresh func(ctx context.Context) error
	if refresher != nil {
		refresh = refresher.Refresh
	}

	addr := fmt.Sprintf("%s:%d", a.Config.Server.Host, a.Config.ResolvePort(opts.Port))
	srv := server.New(server.Options{
		Addr:         addr,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
	}, svc, refresh, a.Logger)

	if refresher != nil {
		sched := scheduler.New(scheduler.Options{
			Interval:  a.Config.Trading.RefreshInterval,
			Immediate: true,
		}, a.Logger)
		go func() {
			err := sched.Run(ctx, func(ctx context.Context, _ time.Time) error {
				return refresher.Refresh(ctx)
			})
			if err != nil && !contextCanceled(err) {
				a.Logger.Error().Err(err).Msg("token refresh loop stopped")
			}
		}()
	}

	a.Logger.Info().Str("journal", jrnl.Path()).Msg("starting webhook gateway")

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			a.Logger.Error().Err(err).Msg("gateway terminated with error")
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.Logger.Error().Err(err).Msg("shutdown did not complete cleanly")
		return err
	}

	a.Logger.Info().Msg("gateway stopped")
	return nil
}

// RunOptions carry CLI overrides for the run command.
type RunOptions struct {
	Port     int
	AlertLog string
}

// MonitorOptions carry CLI overrides for the monitor command.
type MonitorOptions struct {
	Interval time.Duration
	Once     bool
}

// SimulateOptions configure a synthetic alert delivery.
type SimulateOptions struct {
	ScanName string
	Stocks   []string
	AlertLog string
}

// SeedOptions configure mock trade insertion.
type SeedOptions struct {
	Count int
}

// ReportOptions configure the performance report export.
type ReportOptions struct {
	PerfPath  string
	CSVPath   string
	PNGPath   string
	MaxPoints int
}

func contextCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}
