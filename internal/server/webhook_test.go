package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"chartink-gateway/internal/broker"
	"chartink-gateway/internal/journal"
	"chartink-gateway/internal/service"
)

func newTestServer(journalPath string, refresh func(ctx context.Context) error) *Server {
	sizer := broker.NewSizer(broker.SizingRules{LowPriceLimit: 200, MidPriceLimit: 600, LowQty: 10, HighQty: 5})
	svc := service.New(journal.New(journalPath), nil, sizer, nil, false, zerolog.Nop())
	return New(Options{Addr: ":0"}, svc, refresh, zerolog.Nop())
}

func postChartink(srv *Server, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/chartink", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestChartinkAcceptsBatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alerts.log")
	srv := newTestServer(path, nil)

	rec := postChartink(srv, `{"scan_name":"Momentum","stocks":[{"name":"TCS","price":3500,"volume":1200}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("期望 200, 实际 %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"status":"success","received":1}` {
		t.Fatalf("响应体不正确: %s", got)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("读取日志失败: %v", err)
	}
	line := strings.TrimSpace(string(data))
	var record map[string]any
	if err := json.Unmarshal([]byte(line), &record); err != nil {
		t.Fatalf("日志行不是合法 JSON: %v", err)
	}
	if record["scan_name"] != "Momentum" || record["stock_name"] != "TCS" || record["nse_code"] != "TCS.NS" {
		t.Fatalf("日志字段不正确: %s", line)
	}
	if record["price"].(float64) != 3500 || record["volume"].(float64) != 1200 {
		t.Fatalf("price/volume 不正确: %s", line)
	}
}

func TestChartinkRejectsEmptyObject(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alerts.log")
	srv := newTestServer(path, nil)

	rec := postChartink(srv, "{}")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("期望 400, 实际 %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"error":"Invalid or empty payload"}` {
		t.Fatalf("错误响应体不正确: %s", got)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("被拒绝的请求不应创建日志文件")
	}
}

func TestChartinkRejectsMalformedBodies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alerts.log")
	srv := newTestServer(path, nil)

	for _, body := range []string{"not json", "null", "[]", `"text"`, "42"} {
		rec := postChartink(srv, body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("载荷 %q 期望 400, 实际 %d", body, rec.Code)
		}
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("被拒绝的请求不应创建日志文件")
	}
}

func TestChartinkEmptyStocksList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alerts.log")
	srv := newTestServer(path, nil)

	rec := postChartink(srv, `{"stocks":[]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("期望 200, 实际 %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"status":"success","received":0}` {
		t.Fatalf("响应体不正确: %s", got)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("合法批次应触达日志文件: %v", err)
	}
	if len(data) != 0 {
		t.Fatalf("空 stocks 不应追加任何行: %q", data)
	}
}

func TestChartinkMissingStocksList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alerts.log")
	srv := newTestServer(path, nil)

	rec := postChartink(srv, `{"scan_name":"Momentum"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("期望 200, 实际 %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"status":"success","received":0}` {
		t.Fatalf("响应体不正确: %s", got)
	}
}

func TestChartinkDuplicateDeliveriesAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alerts.log")
	srv := newTestServer(path, nil)

	body := `{"scan_name":"Momentum","stocks":[{"name":"TCS","price":3500}]}`
	for i := 0; i < 2; i++ {
		if rec := postChartink(srv, body); rec.Code != http.StatusOK {
			t.Fatalf("第 %d 次投递失败: %d", i+1, rec.Code)
		}
	}

	data, _ := os.ReadFile(path)
	if n := strings.Count(string(data), "\n"); n != 2 {
		t.Fatalf("重复投递应追加重复行, 期望 2 行, 实际 %d", n)
	}
}

func TestChartinkAppendFailureReturns500(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "alerts.log")
	srv := newTestServer(path, nil)

	rec := postChartink(srv, `{"stocks":[{"name":"TCS"}]}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("写入失败期望 500, 实际 %d", rec.Code)
	}
}

func TestChartinkRejectsWrongMethod(t *testing.T) {
	srv := newTestServer(filepath.Join(t.TempDir(), "alerts.log"), nil)

	req := httptest.NewRequest(http.MethodGet, "/chartink", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET 期望 405, 实际 %d", rec.Code)
	}
}

func TestRootReportsRunning(t *testing.T) {
	srv := newTestServer(filepath.Join(t.TempDir(), "alerts.log"), nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("期望 200, 实际 %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("解析健康检查响应失败: %v", err)
	}
	if body["status"] != "running" {
		t.Fatalf("status 应为 running, 实际 %q", body["status"])
	}
}

func TestRefreshTokenEndpoint(t *testing.T) {
	get := func(srv *Server) map[string]string {
		req := httptest.NewRequest(http.MethodGet, "/refresh_token", nil)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		var body map[string]string
		_ = json.Unmarshal(rec.Body.Bytes(), &body)
		return body
	}

	dir := t.TempDir()
	if body := get(newTestServer(filepath.Join(dir, "a.log"), nil)); body["status"] != "failed" {
		t.Fatalf("未配置刷新时应返回 failed, 实际 %q", body["status"])
	}

	ok := func(context.Context) error { return nil }
	if body := get(newTestServer(filepath.Join(dir, "b.log"), ok)); body["status"] != "ok" {
		t.Fatalf("刷新成功应返回 ok, 实际 %q", body["status"])
	}

	bad := func(context.Context) error { return errors.New("boom") }
	if body := get(newTestServer(filepath.Join(dir, "c.log"), bad)); body["status"] != "failed" {
		t.Fatalf("刷新失败应返回 failed, 实际 %q", body["status"])
	}
}
