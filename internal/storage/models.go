package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

// OpenTrade represents a filled intraday buy awaiting an exit.
type OpenTrade struct {
	ID       int64
	Symbol   string
	BuyPrice decimal.Decimal
	Qty      int
	BuyTime  time.Time
}
