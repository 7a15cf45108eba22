package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	orderTypeMarket = 2
	sideBuy         = 1
	sideSell        = -1
	productIntraday = "INTRADAY"
	validityDay     = "DAY"

	ordersPath = "/orders/sync"
)

// Order 封装一笔提交给券商的订单。
type Order struct {
	Symbol       string  `json:"symbol"`
	Qty          int     `json:"qty"`
	Type         int     `json:"type"`
	Side         int     `json:"side"`
	ProductType  string  `json:"productType"`
	LimitPrice   float64 `json:"limitPrice"`
	StopPrice    float64 `json:"stopPrice"`
	DisclosedQty int     `json:"disclosedQty"`
	Validity     string  `json:"validity"`
	OfflineOrder string  `json:"offlineOrder"`
}

// OrderPlacer 定义下单接口。
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, order Order) (string, error)
}

// TradeSymbol renders a bare stock name in broker symbol form.
func TradeSymbol(name string) string {
	return fmt.Sprintf("NSE:%s-EQ", name)
}

// MarketBuy builds an intraday market buy.
func MarketBuy(symbol string, qty int) Order {
	return Order{
		Symbol:       symbol,
		Qty:          qty,
		Type:         orderTypeMarket,
		Side:         sideBuy,
		ProductType:  productIntraday,
		Validity:     validityDay,
		OfflineOrder: "False",
	}
}

// MarketSell builds an intraday market sell.
func MarketSell(symbol string, qty int) Order {
	order := MarketBuy(symbol, qty)
	order.Side = sideSell
	return order
}

// Options parameterise the broker client.
type Options struct {
	BaseURL     string
	ClientID    string
	AccessToken string
	Timeout     time.Duration
}

// Client 通过 Fyers REST API 提交订单。
type Client struct {
	baseURL  string
	clientID string
	client   *http.Client
	logger   zerolog.Logger

	mu    sync.RWMutex
	token string
}

// NewClient constructs a broker client.
func NewClient(opts Options, logger zerolog.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api-t1.fyers.in/api/v3"
	}

	return &Client{
		baseURL:  baseURL,
		clientID: opts.ClientID,
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With().Str("component", "broker").Logger(),
		token:    opts.AccessToken,
	}
}

// SetToken swaps the bearer token after a refresh.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) authHeader() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.clientID + ":" + c.token
}

// PlaceOrder 提交订单并返回券商订单号。
func (c *Client) PlaceOrder(ctx context.Context, order Order) (string, error) {
	body, err := json.Marshal(order)
	if err != nil {
		return "", fmt.Errorf("marshal order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+ordersPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create order request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.authHeader())

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send order request: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		Status  string `json:"s"`
		Code    int    `json:"code"`
		Message string `json:"message"`
		ID      string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode order response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || result.Status != "ok" {
		return "", fmt.Errorf("券商拒绝订单 (%d): %s", resp.StatusCode, result.Message)
	}

	c.logger.Info().
		Str("symbol", order.Symbol).
		Int("qty", order.Qty).
		Str("order_id", result.ID).
		Msg("订单已提交")
	return result.ID, nil
}

var _ OrderPlacer = (*Client)(nil)
