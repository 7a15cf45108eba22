package quotes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const quotePath = "/quotes"

// Source supplies the last traded price for an NSE symbol.
type Source interface {
	LTP(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// Options parameterise the HTTP quote client.
type Options struct {
	BaseURL string
	Timeout time.Duration
}

// Client fetches last traded prices from a market data HTTP API.
type Client struct {
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewClient constructs a quote client.
func NewClient(opts Options, logger zerolog.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		logger:  logger.With().Str("component", "quotes").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
	}
}

// LTP retrieves the last traded price for one symbol.
func (c *Client) LTP(ctx context.Context, symbol string) (decimal.Decimal, error) {
	if symbol == "" {
		return decimal.Decimal{}, errors.New("symbol required")
	}
	if c.baseURL == "" {
		return decimal.Decimal{}, errors.New("quotes base url not configured")
	}

	endpoint := fmt.Sprintf("%s%s?exchange=NSE&symbol=%s", c.baseURL, quotePath, url.QueryEscape(symbol))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Decimal{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return decimal.Decimal{}, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return decimal.Decimal{}, fmt.Errorf("quote api error (%d): %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var res quoteResponse
	if err := json.Unmarshal(payload, &res); err != nil {
		return decimal.Decimal{}, err
	}
	if !strings.Contains(res.Status, "Success") || len(res.Success) == 0 {
		return decimal.Decimal{}, fmt.Errorf("no ltp data for %s", symbol)
	}

	ltp := decimal.NewFromFloat(res.Success[0].LTP)
	if !ltp.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("non-positive ltp for %s", symbol)
	}
	return ltp, nil
}

type quoteResponse struct {
	Status  string `json:"Status"`
	Success []struct {
		LTP float64 `json:"ltp"`
	} `json:"Success"`
}

// Simulator emulates market movement for dry runs without a data feed.
// Prices land near 100 with a mild upward drift so both exit branches
// fire over a few cycles.
type Simulator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSimulator seeds a simulator; seed 0 picks the current time.
func NewSimulator(seed int64) *Simulator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Simulator{rnd: rand.New(rand.NewSource(seed))}
}

// LTP returns a simulated price. The mutex guards the shared rand state
// because monitor workers call concurrently.
func (s *Simulator) LTP(_ context.Context, _ string) (decimal.Decimal, error) {
	s.mu.Lock()
	v := 100 + s.rnd.Float64()*9 - 3
	s.mu.Unlock()
	return decimal.NewFromFloat(v).Round(2), nil
}

var (
	_ Source = (*Client)(nil)
	_ Source = (*Simulator)(nil)
)
