package stream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

type staticSession string

func (s staticSession) Session(ctx context.Context) (string, error) {
	return string(s), nil
}

func TestHandleMessage(t *testing.T) {
	c := NewClient(DefaultConfig(), staticSession("s"), nil)
	now := time.Now()

	c.handleMessage([]byte(`{"topic":"smd+101","conid":101,"31":"102'16","87":"1.2K"}`), now)
	c.handleMessage([]byte(`{"topic":"system","hb":1}`), now) // no conid, ignored
	c.handleMessage([]byte(`not json`), now)                  // undecodable, ignored

	updates := c.Drain()
	if len(updates) != 1 {
		t.Fatalf("updates = %d, want 1", len(updates))
	}
	u := updates[0]
	if u.ConID != 101 || u.LastPrice != "102'16" || u.Volume != "1.2K" {
		t.Errorf("update = %+v", u)
	}
	if !u.ReceivedAt.Equal(now) {
		t.Errorf("ReceivedAt = %v, want %v", u.ReceivedAt, now)
	}
}

func TestStreamEndToEnd(t *testing.T) {
	upgrader := websocket.Upgrader{}
	subscribed := make(chan string, 4)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Cookie"); got != "api=session-token" {
			t.Errorf("Cookie = %q, want session cookie", got)
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		// Expect the subscription, then push one update.
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		subscribed <- string(msg)

		conn.WriteMessage(websocket.TextMessage,
			[]byte(`{"topic":"smd+101","conid":101,"31":"102'16.5","84":"102'16","86":"102'17"}`))

		// Hold the connection open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	cfg := DefaultConfig()
	cfg.URL = "ws" + strings.TrimPrefix(server.URL, "http")

	c := NewClient(cfg, staticSession("session-token"), nil)
	c.Subscribe([]int64{101})

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		c.Stop(ctx)
	}()

	select {
	case msg := <-subscribed:
		if !strings.HasPrefix(msg, "smd+101+") {
			t.Errorf("subscription = %q, want smd+101+ prefix", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no subscription received")
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if updates := c.Drain(); len(updates) > 0 {
			if updates[0].ConID != 101 || updates[0].LastPrice != "102'16.5" {
				t.Errorf("update = %+v", updates[0])
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("no update drained")
}
