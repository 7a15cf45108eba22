package monitor

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"chartink-gateway/internal/broker"
	"chartink-gateway/internal/storage"
)

func noopLogger() zerolog.Logger {
	return zerolog.Nop()
}

type fakeStore struct {
	storage.TradeStore

	mu      sync.Mutex
	trades  []storage.OpenTrade
	deleted []int64
}

func (f *fakeStore) ListOpenTrades(context.Context) ([]storage.OpenTrade, error) {
	return f.trades, nil
}

func (f *fakeStore) DeleteOpenTrade(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

type fixedQuotes struct {
	prices map[string]float64
}

func (f fixedQuotes) LTP(_ context.Context, symbol string) (decimal.Decimal, error) {
	price, ok := f.prices[symbol]
	if !ok {
		return decimal.Decimal{}, errors.New("no quote")
	}
	return decimal.NewFromFloat(price), nil
}

type fakePlacer struct {
	mu     sync.Mutex
	orders []broker.Order
	err    error
}

func (f *fakePlacer) PlaceOrder(_ context.Context, order broker.Order) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = append(f.orders, order)
	return "sell-1", nil
}

func defaultOptions(perfPath string) Options {
	return Options{StopLossPct: -0.5, TargetPct: 4, Workers: 4, PerformancePath: perfPath}
}

func trade(id int64, symbol string, buy float64, qty int) storage.OpenTrade {
	return storage.OpenTrade{ID: id, Symbol: symbol, BuyPrice: decimal.NewFromFloat(buy), Qty: qty, BuyTime: time.Now()}
}

func TestTickExitsOnTarget(t *testing.T) {
	store := &fakeStore{trades: []storage.OpenTrade{trade(1, "TCS", 100, 10)}}
	placer := &fakePlacer{}
	m := New(defaultOptions(""), store, fixedQuotes{prices: map[string]float64{"TCS": 104}}, placer, noopLogger())

	if err := m.Tick(context.Background(), time.Now()); err != nil {
		t.Fatalf("巡检失败: %v", err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != 1 {
		t.Fatalf("达到目标价应删除记录, 实际 %v", store.deleted)
	}
	if len(placer.orders) != 1 || placer.orders[0].Symbol != "NSE:TCS-EQ" || placer.orders[0].Side != -1 || placer.orders[0].Qty != 10 {
		t.Fatalf("卖单不正确: %+v", placer.orders)
	}
}

func TestTickExitsOnStopLoss(t *testing.T) {
	store := &fakeStore{trades: []storage.OpenTrade{trade(2, "INFY", 100, 5)}}
	m := New(defaultOptions(""), store, fixedQuotes{prices: map[string]float64{"INFY": 99.5}}, nil, noopLogger())

	if err := m.Tick(context.Background(), time.Now()); err != nil {
		t.Fatalf("巡检失败: %v", err)
	}
	if len(store.deleted) != 1 {
		t.Fatalf("触及止损应删除记录, 实际 %v", store.deleted)
	}
}

func TestTickHoldsInsideBand(t *testing.T) {
	store := &fakeStore{trades: []storage.OpenTrade{trade(3, "SBIN", 100, 5)}}
	placer := &fakePlacer{}
	m := New(defaultOptions(""), store, fixedQuotes{prices: map[string]float64{"SBIN": 101.2}}, placer, noopLogger())

	if err := m.Tick(context.Background(), time.Now()); err != nil {
		t.Fatalf("巡检失败: %v", err)
	}
	if len(store.deleted) != 0 || len(placer.orders) != 0 {
		t.Fatalf("区间内持仓不应被平仓")
	}
}

func TestTickSimulatesExitWithoutPlacer(t *testing.T) {
	store := &fakeStore{trades: []storage.OpenTrade{trade(4, "TCS", 100, 10)}}
	m := New(defaultOptions(""), store, fixedQuotes{prices: map[string]float64{"TCS": 110}}, nil, noopLogger())

	if err := m.Tick(context.Background(), time.Now()); err != nil {
		t.Fatalf("巡检失败: %v", err)
	}
	if len(store.deleted) != 1 {
		t.Fatalf("模拟模式也应删除记录, 实际 %v", store.deleted)
	}
}

func TestTickKeepsTradeWhenSellFails(t *testing.T) {
	store := &fakeStore{trades: []storage.OpenTrade{trade(5, "TCS", 100, 10)}}
	placer := &fakePlacer{err: errors.New("rejected")}
	m := New(defaultOptions(""), store, fixedQuotes{prices: map[string]float64{"TCS": 110}}, placer, noopLogger())

	if err := m.Tick(context.Background(), time.Now()); err != nil {
		t.Fatalf("巡检失败: %v", err)
	}
	if len(store.deleted) != 0 {
		t.Fatalf("卖出失败应保留记录, 实际 %v", store.deleted)
	}
}

func TestTickSkipsZeroBuyPrice(t *testing.T) {
	store := &fakeStore{trades: []storage.OpenTrade{trade(6, "TCS", 0, 10)}}
	m := New(defaultOptions(""), store, fixedQuotes{prices: map[string]float64{"TCS": 110}}, nil, noopLogger())

	if err := m.Tick(context.Background(), time.Now()); err != nil {
		t.Fatalf("巡检失败: %v", err)
	}
	if len(store.deleted) != 0 {
		t.Fatalf("零成本价应跳过, 实际 %v", store.deleted)
	}
}

func TestTickAppendsPerformanceSample(t *testing.T) {
	perfPath := filepath.Join(t.TempDir(), "perf.log")
	store := &fakeStore{trades: []storage.OpenTrade{
		trade(7, "TCS", 100, 10),
		trade(8, "INFY", 100, 5),
	}}
	quotesSrc := fixedQuotes{prices: map[string]float64{"TCS": 105, "INFY": 101}}
	m := New(defaultOptions(perfPath), store, quotesSrc, nil, noopLogger())

	at := time.Date(2024, 4, 2, 9, 31, 0, 0, time.Local)
	if err := m.Tick(context.Background(), at); err != nil {
		t.Fatalf("巡检失败: %v", err)
	}

	samples, err := ReadSamples(perfPath)
	if err != nil {
		t.Fatalf("读取性能日志失败: %v", err)
	}
	if len(samples) != 1 {
		t.Fatalf("期望 1 条样本, 实际 %d", len(samples))
	}
	if samples[0].Trades != 2 || samples[0].Exits != 1 {
		t.Fatalf("样本内容不正确: %+v", samples[0])
	}
	if samples[0].Timestamp != "2024-04-02 09:31:00" {
		t.Fatalf("样本时间戳不正确: %q", samples[0].Timestamp)
	}
}

func TestTickCreatesPerformanceLogDirectory(t *testing.T) {
	perfPath := filepath.Join(t.TempDir(), "data", "perf.log")
	store := &fakeStore{trades: []storage.OpenTrade{trade(9, "TCS", 100, 10)}}
	m := New(defaultOptions(perfPath), store, fixedQuotes{prices: map[string]float64{"TCS": 101}}, nil, noopLogger())

	if err := m.Tick(context.Background(), time.Now()); err != nil {
		t.Fatalf("巡检失败: %v", err)
	}

	samples, err := ReadSamples(perfPath)
	if err != nil {
		t.Fatalf("性能日志目录应自动创建: %v", err)
	}
	if len(samples) != 1 {
		t.Fatalf("期望 1 条样本, 实际 %d", len(samples))
	}
	if samples[0].Trades != 1 || samples[0].Exits != 0 {
		t.Fatalf("样本内容不正确: %+v", samples[0])
	}
}
