package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	createOpenTradesSQL = `CREATE TABLE IF NOT EXISTS open_trades (
        id SERIAL PRIMARY KEY,
        symbol VARCHAR(20),
        buy_price FLOAT,
        qty INT,
        buy_time TIMESTAMP
    );`

	insertOpenTradeSQL = `INSERT INTO open_trades (
        symbol,
        buy_price,
        qty,
        buy_time
    ) VALUES (
        $1,$2,$3,$4
    )
    RETURNING id;`

	listOpenTradesSQL = `SELECT
        id,
        symbol,
        buy_price,
        qty,
        buy_time
    FROM open_trades
    ORDER BY id;`

	deleteOpenTradeSQL = `DELETE FROM open_trades WHERE id = $1;`

	purgeOpenTradesSQL = `DELETE FROM open_trades;`

	countOpenTradesSQL = `SELECT COUNT(*) FROM open_trades;`
)

// TradeStore defines operations for open trade persistence.
type TradeStore interface {
	EnsureSchema(ctx context.Context) error
	InsertOpenTrade(ctx context.Context, trade OpenTrade) (int64, error)
	ListOpenTrades(ctx context.Context) ([]OpenTrade, error)
	DeleteOpenTrade(ctx context.Context, id int64) error
	PurgeOpenTrades(ctx context.Context) (int64, error)
	CountOpenTrades(ctx context.Context) (int64, error)
}

// Store aggregates access to open trades.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// EnsureSchema creates the open_trades table when it does not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, createOpenTradesSQL); execErr != nil {
		return fmt.Errorf("ensure open_trades schema: %w", execErr)
	}
	return nil
}

// InsertOpenTrade persists a filled buy and returns its row id.
func (s *Store) InsertOpenTrade(ctx context.Context, trade OpenTrade) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}

	buyTime := trade.BuyTime
	if buyTime.IsZero() {
		buyTime = time.Now()
	}

	var id int64
	if scanErr := pool.QueryRow(ctx, insertOpenTradeSQL,
		trade.Symbol,
		trade.BuyPrice.InexactFloat64(),
		trade.Qty,
		buyTime,
	).Scan(&id); scanErr != nil {
		return 0, fmt.Errorf("insert open trade: %w", scanErr)
	}
	return id, nil
}

// ListOpenTrades returns every open trade ordered by insertion.
func (s *Store) ListOpenTrades(ctx context.Context) ([]OpenTrade, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listOpenTradesSQL)
	if queryErr != nil {
		return nil, fmt.Errorf("list open trades: %w", queryErr)
	}
	defer rows.Close()

	trades := make([]OpenTrade, 0)
	for rows.Next() {
		trade, scanErr := scanOpenTrade(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		trades = append(trades, trade)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return trades, nil
}

// DeleteOpenTrade removes a single trade after a confirmed exit.
func (s *Store) DeleteOpenTrade(ctx context.Context, id int64) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	cmdTag, execErr := pool.Exec(ctx, deleteOpenTradeSQL, id)
	if execErr != nil {
		return fmt.Errorf("delete open trade: %w", execErr)
	}
	if cmdTag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// PurgeOpenTrades wipes the table and reports how many rows went away.
func (s *Store) PurgeOpenTrades(ctx context.Context) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	cmdTag, execErr := pool.Exec(ctx, purgeOpenTradesSQL)
	if execErr != nil {
		return 0, fmt.Errorf("purge open trades: %w", execErr)
	}
	return cmdTag.RowsAffected(), nil
}

// CountOpenTrades counts stored trades.
func (s *Store) CountOpenTrades(ctx context.Context) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	var count int64
	if scanErr := pool.QueryRow(ctx, countOpenTradesSQL).Scan(&count); scanErr != nil {
		return 0, fmt.Errorf("count open trades: %w", scanErr)
	}
	return count, nil
}

func scanOpenTrade(rows pgx.Rows) (OpenTrade, error) {
	var (
		id       int64
		symbol   string
		buyPrice float64
		qty      int
		buyTime  time.Time
	)

	if err := rows.Scan(&id, &symbol, &buyPrice, &qty, &buyTime); err != nil {
		return OpenTrade{}, err
	}

	return OpenTrade{
		ID:       id,
		Symbol:   symbol,
		BuyPrice: decimal.NewFromFloat(buyPrice),
		Qty:      qty,
		BuyTime:  buyTime,
	}, nil
}

var _ TradeStore = (*Store)(nil)
