package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"chartink-gateway/internal/broker"
	"chartink-gateway/internal/monitor"
	"chartink-gateway/internal/scheduler"
)

// RunMonitor watches open trades and exits positions that hit the
// configured stop loss or target。
func (a *App) RunMonitor(ctx context.Context, opts MonitorOptions) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database.dsn 未配置，无法巡检持仓")
	}
	defer closeStore()

	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}

	var placer broker.OrderPlacer
	if client := a.newBroker(); client != nil {
		placer = client
	} else {
		a.Logger.Warn().Msg("trading disabled; exits will be simulated")
	}

	mon := monitor.New(monitor.Options{
		StopLossPct:     a.Config.Monitor.StopLossPct,
		TargetPct:       a.Config.Monitor.TargetPct,
		Workers:         a.Config.Monitor.Workers,
		PerformancePath: a.Config.Monitor.PerformancePath,
	}, store, a.newQuotes(), placer, a.Logger)

	if opts.Once {
		return mon.Tick(ctx, time.Now())
	}

	interval := a.Config.Monitor.Interval
	if opts.Interval > 0 {
		interval = opts.Interval
	}

	sched := scheduler.New(scheduler.Options{
		Interval:  interval,
		Immediate: true,
	}, a.Logger)

	a.Logger.Info().Dur("interval", interval).Msg("starting exit monitor")

	if err := sched.Run(ctx, mon.Tick); err != nil && !contextCanceled(err) {
		return err
	}

	a.Logger.Info().Msg("exit monitor stopped")
	return nil
}
