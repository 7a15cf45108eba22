package app

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"chartink-gateway/internal/storage"
)

// nseSymbols is the pool the seeder draws mock positions from.
var nseSymbols = []string{
	"RELIANCE", "HDFCBANK", "INFY", "TCS", "ICICIBANK", "SBIN", "AXISBANK", "KOTAKBANK", "ITC", "LT",
	"BHARTIARTL", "MARUTI", "SUNPHARMA", "HINDUNILVR", "ASIANPAINT", "TITAN", "BAJFINANCE", "ULTRACEMCO", "NTPC", "POWERGRID",
	"ONGC", "COALINDIA", "TATAMOTORS", "M&M", "HCLTECH", "WIPRO", "NESTLEIND", "TECHM", "TATASTEEL", "ADANIENT",
	"ADANIPORTS", "GRASIM", "HDFCLIFE", "SBILIFE", "BRITANNIA", "BAJAJFINSV", "CIPLA", "EICHERMOT", "HEROMOTOCO", "DIVISLAB",
	"DRREDDY", "UPL", "JSWSTEEL", "BPCL", "HINDALCO", "TATACONSUM", "APOLLOHOSP", "BAJAJ-AUTO", "ICICIPRULI", "INDUSINDBK",
	"DLF", "PIDILITIND", "SHREECEM", "BEL", "SIEMENS", "IRCTC", "BANKBARODA", "TRENT", "TVSMOTOR", "PNB",
	"INDIGO", "DMART", "ZOMATO", "PAYTM", "TATAPOWER", "ABB", "TATACHEM", "HAL", "GAIL", "COLPAL",
	"AMBUJACEM", "HAVELLS", "VEDL", "TORNTPHARM", "ADANIGREEN", "ADANITRANS", "BANDHANBNK", "LTIM", "LICI", "POLYCAB",
	"BOSCHLTD", "GLAND", "DALBHARAT", "MOTHERSON", "LODHA", "BERGEPAINT", "BHEL", "GODREJCP", "UBL", "YESBANK",
	"IDFCFIRSTB", "RECLTD", "ICICIGI", "ABBOTINDIA", "CONCOR", "OFSS", "SRF", "MCDOWELL-N", "PAGEIND", "IRFC",
}

var seedQtyChoices = []int{5, 10, 15, 20}

// Seed fills open_trades with randomized mock positions so the exit
// monitor can be exercised without live alerts.
func (a *App) Seed(ctx context.Context, opts SeedOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database.dsn 未配置，无法写入模拟持仓")
	}
	defer closeStore()

	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}

	count := opts.Count
	if count <= 0 || count > len(nseSymbols) {
		count = len(nseSymbols)
	}

	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	symbols := append([]string(nil), nseSymbols...)
	rnd.Shuffle(len(symbols), func(i, j int) {
		symbols[i], symbols[j] = symbols[j], symbols[i]
	})

	now := time.Now()
	for _, symbol := range symbols[:count] {
		trade := storage.OpenTrade{
			Symbol:   symbol,
			BuyPrice: decimal.NewFromFloat(100 + rnd.Float64()*900).Round(2),
			Qty:      seedQtyChoices[rnd.Intn(len(seedQtyChoices))],
			BuyTime:  now,
		}

		id, err := store.InsertOpenTrade(ctx, trade)
		if err != nil {
			return err
		}
		a.Logger.Debug().
			Int64("id", id).
			Str("symbol", trade.Symbol).
			Str("buy_price", trade.BuyPrice.String()).
			Int("qty", trade.Qty).
			Msg("seeded open trade")
	}

	a.Logger.Info().Int("count", count).Msg("模拟持仓已写入")
	return nil
}

// Purge removes every row from open_trades.
func (a *App) Purge(ctx context.Context) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database.dsn 未配置，无法清理持仓")
	}
	defer closeStore()

	deleted, err := store.PurgeOpenTrades(ctx)
	if err != nil {
		return err
	}

	a.Logger.Info().Int64("deleted", deleted).Msg("持仓表已清空")
	return nil
}
