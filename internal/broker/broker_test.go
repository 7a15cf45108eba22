package broker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func noopLogger() zerolog.Logger {
	return zerolog.Nop()
}

func TestPlaceOrderSuccess(t *testing.T) {
	var got Order
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/orders/sync" {
			t.Fatalf("路径不正确: %s", r.URL.Path)
		}
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("解析订单失败: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"s": "ok", "id": "24052000001"})
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, ClientID: "APP-100", AccessToken: "tok", Timeout: time.Second}, noopLogger())
	id, err := c.PlaceOrder(context.Background(), MarketBuy(TradeSymbol("TCS"), 10))
	if err != nil {
		t.Fatalf("下单应成功: %v", err)
	}
	if id != "24052000001" {
		t.Fatalf("订单号不正确: %q", id)
	}
	if auth != "APP-100:tok" {
		t.Fatalf("Authorization 头不正确: %q", auth)
	}
	if got.Symbol != "NSE:TCS-EQ" || got.Qty != 10 || got.Type != 2 || got.Side != 1 {
		t.Fatalf("订单字段不正确: %+v", got)
	}
	if got.ProductType != "INTRADAY" || got.Validity != "DAY" || got.OfflineOrder != "False" {
		t.Fatalf("订单默认值不正确: %+v", got)
	}
}

func TestPlaceOrderRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{"s": "error", "message": "invalid symbol"})
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, ClientID: "APP-100", AccessToken: "tok", Timeout: time.Second}, noopLogger())
	if _, err := c.PlaceOrder(context.Background(), MarketBuy("NSE:BAD-EQ", 5)); err == nil {
		t.Fatal("被拒绝的订单应报错")
	}
}

func TestSetTokenAppliesToNextOrder(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(map[string]any{"s": "ok", "id": "1"})
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, ClientID: "APP-100", AccessToken: "old", Timeout: time.Second}, noopLogger())
	c.SetToken("fresh")
	if _, err := c.PlaceOrder(context.Background(), MarketBuy("NSE:TCS-EQ", 1)); err != nil {
		t.Fatalf("下单应成功: %v", err)
	}
	if auth != "APP-100:fresh" {
		t.Fatalf("刷新后的 token 未生效: %q", auth)
	}
}

func TestMarketSellFlipsSide(t *testing.T) {
	sell := MarketSell("NSE:TCS-EQ", 3)
	if sell.Side != -1 {
		t.Fatalf("卖单 side 应为 -1, 实际 %d", sell.Side)
	}
	if sell.Type != 2 || sell.Qty != 3 {
		t.Fatalf("卖单字段不正确: %+v", sell)
	}
}
