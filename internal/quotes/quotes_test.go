package quotes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

func noopLogger() zerolog.Logger {
	return zerolog.Nop()
}

func TestClientLTPSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("symbol"); got != "TCS" {
			t.Fatalf("symbol 查询参数不正确: %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"Status":  "Success",
			"Success": []map[string]float64{{"ltp": 3512.4}},
		})
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, Timeout: time.Second}, noopLogger())
	ltp, err := c.LTP(context.Background(), "TCS")
	if err != nil {
		t.Fatalf("成功响应不应报错: %v", err)
	}
	if ltp.Cmp(decimal.NewFromFloat(3512.4)) != 0 {
		t.Fatalf("期望 LTP 3512.4, 实际 %s", ltp.String())
	}
}

func TestClientLTPHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, Timeout: time.Second}, noopLogger())
	if _, err := c.LTP(context.Background(), "TCS"); err == nil {
		t.Fatal("HTTP 500 应返回错误")
	}
}

func TestClientLTPNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"Status": "Error", "Success": []any{}})
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, Timeout: time.Second}, noopLogger())
	if _, err := c.LTP(context.Background(), "TCS"); err == nil {
		t.Fatal("无行情数据应返回错误")
	}
}

func TestClientLTPRequiresSymbol(t *testing.T) {
	c := NewClient(Options{BaseURL: "http://localhost"}, noopLogger())
	if _, err := c.LTP(context.Background(), ""); err == nil {
		t.Fatal("缺少 symbol 应报错")
	}
}

func TestSimulatorStaysInRange(t *testing.T) {
	sim := NewSimulator(42)
	low := decimal.NewFromInt(97)
	high := decimal.NewFromInt(107)

	for i := 0; i < 200; i++ {
		ltp, err := sim.LTP(context.Background(), "TCS")
		if err != nil {
			t.Fatalf("模拟行情不应报错: %v", err)
		}
		if ltp.LessThan(low) || ltp.GreaterThan(high) {
			t.Fatalf("模拟价格超出范围: %s", ltp.String())
		}
	}
}
