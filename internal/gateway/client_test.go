package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestAuthStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/iserver/auth/status" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"authenticated":true,"connected":true,"competing":false}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "DU000001")
	status, err := c.AuthStatus(context.Background())
	if err != nil {
		t.Fatalf("AuthStatus failed: %v", err)
	}
	if !status.Authenticated || !status.Connected {
		t.Errorf("status = %+v, want authenticated and connected", status)
	}
}

func TestTickle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tickle" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"session":"abc123","ssoExpires":420000,"iserver":{"authStatus":{"authenticated":true}}}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "DU000001")
	resp, err := c.Tickle(context.Background())
	if err != nil {
		t.Fatalf("Tickle failed: %v", err)
	}
	if resp.Session != "abc123" {
		t.Errorf("Session = %q, want abc123", resp.Session)
	}
	if !resp.IServer.AuthStatus.Authenticated {
		t.Error("tickle reported unauthenticated session")
	}
}

func TestFutures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("symbols"); got != "ZT,ZN" {
			t.Errorf("symbols = %q, want ZT,ZN", got)
		}
		w.Write([]byte(`{
			"ZT": [{"symbol":"ZT","conid":101,"expirationDate":20250630,"ltd":20250627}],
			"ZN": [{"symbol":"ZN","conid":102,"expirationDate":20250630,"ltd":20250627}]
		}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "DU000001")
	chains, err := c.Futures(context.Background(), []string{"ZT", "ZN"})
	if err != nil {
		t.Fatalf("Futures failed: %v", err)
	}
	if len(chains["ZT"]) != 1 || chains["ZT"][0].ConID != 101 {
		t.Errorf("ZT chain = %+v", chains["ZT"])
	}
	want := time.Date(2025, 6, 27, 0, 0, 0, 0, time.UTC)
	if got := chains["ZT"][0].ExpiryTime(); !got.Equal(want) {
		t.Errorf("ExpiryTime = %v, want %v", got, want)
	}
}

func TestSnapshot(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if got := q.Get("conids"); got != "101,102" {
			t.Errorf("conids = %q, want 101,102", got)
		}
		if got := q.Get("fields"); got != "31,84,86,87" {
			t.Errorf("fields = %q, want default set", got)
		}
		w.Write([]byte(`[
			{"conid":101,"31":"102'16.5","84":"102'16","86":"102'17","87":"92.2K"},
			{"conid":102,"31":"C110'08","87":"1.5M"}
		]`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "DU000001")
	rows, err := c.Snapshot(context.Background(), []int64{101, 102}, nil)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].LastPrice != "102'16.5" || rows[0].Volume != "92.2K" {
		t.Errorf("row 0 = %+v", rows[0])
	}
	if rows[1].LastPrice != "C110'08" {
		t.Errorf("row 1 last = %q, want prior-close string", rows[1].LastPrice)
	}
}

func TestHistory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("conid") != "101" || q.Get("period") != "1m" || q.Get("bar") != "1d" {
			t.Errorf("query = %v", q)
		}
		w.Write([]byte(`{"symbol":"ZT","data":[
			{"o":102.1,"c":102.2,"h":102.3,"l":102.0,"t":1740700800000},
			{"o":102.2,"c":102.4,"h":102.5,"l":102.1,"t":1740787200000}
		]}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "DU000001")
	hist, err := c.History(context.Background(), 101, "1m", "1d")
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	closes := hist.Closes()
	if len(closes) != 2 || closes[0] != 102.2 || closes[1] != 102.4 {
		t.Errorf("Closes = %v, want [102.2 102.4]", closes)
	}
}

func TestNetLiquidation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/portfolio/DU000001/summary" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{
			"netliquidation": {"amount": 1250000.50, "currency": "USD"},
			"availablefunds": {"amount": 900000, "currency": "USD"}
		}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "DU000001")
	nl, err := c.NetLiquidation(context.Background())
	if err != nil {
		t.Fatalf("NetLiquidation failed: %v", err)
	}
	if nl != 1250000.50 {
		t.Errorf("NetLiquidation = %v, want 1250000.50", nl)
	}
}

func TestPnL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/iserver/account/pnl/partitioned" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"upnl":{"DU000001.Core":{"dpl":-1520.25,"nl":1250000.50}}}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "DU000001")
	pnl, err := c.PnL(context.Background())
	if err != nil {
		t.Fatalf("PnL failed: %v", err)
	}
	row, ok := pnl.UPnL["DU000001.Core"]
	if !ok {
		t.Fatalf("PnL rows = %+v, want DU000001.Core", pnl.UPnL)
	}
	if row.NetLiq != 1250000.50 || row.DailyPnL != -1520.25 {
		t.Errorf("Core row = %+v", row)
	}
}

func TestNetLiquidationPnLFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/portfolio/DU000001/summary":
			w.Write([]byte(`{"availablefunds": {"amount": 900000, "currency": "USD"}}`))
		case "/iserver/account/pnl/partitioned":
			w.Write([]byte(`{"upnl":{"DU000001.Core":{"dpl":0,"nl":987654.25}}}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	c := NewClient(server.URL, "DU000001")
	nl, err := c.NetLiquidation(context.Background())
	if err != nil {
		t.Fatalf("NetLiquidation failed: %v", err)
	}
	if nl != 987654.25 {
		t.Errorf("NetLiquidation = %v, want the Core partition value", nl)
	}
}

func TestRetryOnServerError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"authenticated":true,"connected":true}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "DU000001", WithRetries(3, 10*time.Millisecond))
	status, err := c.AuthStatus(context.Background())
	if err != nil {
		t.Fatalf("AuthStatus failed after retries: %v", err)
	}
	if !status.Authenticated {
		t.Error("status not authenticated")
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestNoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := NewClient(server.URL, "DU000001", WithRetries(3, 10*time.Millisecond))
	_, err := c.AuthStatus(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", apiErr.StatusCode)
	}
	if apiErr.IsRetryable() {
		t.Error("404 reported retryable")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1 (no retry)", got)
	}
}

func TestRetryExhausted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewClient(server.URL, "DU000001", WithRetries(2, time.Millisecond))
	_, err := c.AuthStatus(context.Background())
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error chain missing *APIError: %v", err)
	}
	if apiErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d, want 500", apiErr.StatusCode)
	}
}

type countingLimiter struct {
	waits atomic.Int32
}

func (l *countingLimiter) Wait(ctx context.Context) error {
	l.waits.Add(1)
	return ctx.Err()
}

func TestRateLimiterInvoked(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"authenticated":true}`))
	}))
	defer server.Close()

	limiter := &countingLimiter{}
	c := NewClient(server.URL, "DU000001", WithRateLimiter(limiter))

	for i := 0; i < 4; i++ {
		if _, err := c.AuthStatus(context.Background()); err != nil {
			t.Fatalf("AuthStatus failed: %v", err)
		}
	}
	if got := limiter.waits.Load(); got != 4 {
		t.Errorf("limiter waits = %d, want 4", got)
	}
}

func TestKeepaliveLifecycle(t *testing.T) {
	var tickles atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/tickle" {
			tickles.Add(1)
		}
		w.Write([]byte(`{"session":"s","iserver":{"authStatus":{"authenticated":true}}}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "DU000001")
	k := NewKeepalive(c, 20*time.Millisecond, nil)

	if err := k.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	time.Sleep(70 * time.Millisecond)

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := k.Stop(stopCtx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	if got := tickles.Load(); got < 2 {
		t.Errorf("tickles = %d, want at least 2", got)
	}
}
