package stream

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// QuoteUpdate is one streamed market-data tick. Price and volume fields
// keep the gateway's display strings; marketdata parsing applies when
// the update is folded into a snapshot.
type QuoteUpdate struct {
	Topic      string `json:"topic"`
	ConID      int64  `json:"conid"`
	LastPrice  string `json:"31"`
	BidPrice   string `json:"84"`
	AskPrice   string `json:"86"`
	Volume     string `json:"87"`
	ReceivedAt time.Time
}

// SessionProvider supplies the gateway session token the socket
// authenticates with. Satisfied by gateway.Client via Tickle.
type SessionProvider interface {
	Session(ctx context.Context) (string, error)
}

// Config configures the stream client.
type Config struct {
	URL                string        // wss endpoint, e.g. wss://localhost:5000/v1/api/ws
	PingInterval       time.Duration // keepalive send interval
	ReadTimeout        time.Duration // max silence before the read loop gives up
	ReconnectBaseDelay time.Duration
	ReconnectMaxDelay  time.Duration
	BufferSize         int
	InsecureSkipVerify bool
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		PingInterval:       30 * time.Second,
		ReadTimeout:        90 * time.Second,
		ReconnectBaseDelay: time.Second,
		ReconnectMaxDelay:  time.Minute,
		BufferSize:         4096,
	}
}

// Client maintains one websocket to the gateway, resubscribing after
// every reconnect and buffering updates for the poller to drain.
type Client struct {
	cfg     Config
	session SessionProvider
	logger  *slog.Logger
	buffer  *Buffer[QuoteUpdate]

	mu     sync.RWMutex
	conids []int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewClient creates a stream Client.
func NewClient(cfg Config, session SessionProvider, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = def.PingInterval
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = def.ReadTimeout
	}
	if cfg.ReconnectBaseDelay <= 0 {
		cfg.ReconnectBaseDelay = def.ReconnectBaseDelay
	}
	if cfg.ReconnectMaxDelay <= 0 {
		cfg.ReconnectMaxDelay = def.ReconnectMaxDelay
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = def.BufferSize
	}
	return &Client{
		cfg:     cfg,
		session: session,
		logger:  logger,
		buffer:  NewBuffer[QuoteUpdate](cfg.BufferSize),
	}
}

// Subscribe sets the contracts to stream. Takes effect on the next
// (re)connect.
func (c *Client) Subscribe(conids []int64) {
	c.mu.Lock()
	c.conids = append([]int64(nil), conids...)
	c.mu.Unlock()
}

// Drain returns the buffered updates since the last drain.
func (c *Client) Drain() []QuoteUpdate {
	return c.buffer.Drain()
}

// Stats reports buffer counters.
func (c *Client) Stats() BufferStats {
	return c.buffer.Stats()
}

// Start launches the connect/read/reconnect loop.
func (c *Client) Start(ctx context.Context) error {
	c.ctx, c.cancel = context.WithCancel(ctx)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.run()
	}()

	c.logger.Info("stream client started", "url", c.cfg.URL)
	return nil
}

// Stop shuts the stream down and closes the buffer.
func (c *Client) Stop(ctx context.Context) error {
	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.buffer.Close()
		c.logger.Info("stream client stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run reconnects with exponential backoff until the context ends.
func (c *Client) run() {
	delay := c.cfg.ReconnectBaseDelay

	for {
		if c.ctx.Err() != nil {
			return
		}

		err := c.connectAndRead()
		if c.ctx.Err() != nil {
			return
		}
		c.logger.Warn("stream disconnected", "err", err, "reconnect_in", delay)

		select {
		case <-c.ctx.Done():
			return
		case <-time.After(delay):
		}

		delay *= 2
		if delay > c.cfg.ReconnectMaxDelay {
			delay = c.cfg.ReconnectMaxDelay
		}
	}
}

// connectAndRead dials, subscribes, and reads until the connection
// fails. A healthy session resets future backoff via the caller.
func (c *Client) connectAndRead() error {
	ctx, cancel := context.WithTimeout(c.ctx, 15*time.Second)
	session, err := c.session.Session(ctx)
	cancel()
	if err != nil {
		return fmt.Errorf("session: %w", err)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	if c.cfg.InsecureSkipVerify {
		dialer.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	header := http.Header{}
	header.Set("Cookie", "api="+session)

	conn, _, err := dialer.DialContext(c.ctx, c.cfg.URL, header)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	if err := c.subscribeAll(conn); err != nil {
		return err
	}

	stopPing := make(chan struct{})
	defer close(stopPing)
	go c.pingLoop(conn, stopPing)

	for {
		conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		c.handleMessage(data, time.Now())
	}
}

// subscribeAll sends one smd subscription per contract.
func (c *Client) subscribeAll(conn *websocket.Conn) error {
	c.mu.RLock()
	conids := append([]int64(nil), c.conids...)
	c.mu.RUnlock()

	for _, id := range conids {
		msg := fmt.Sprintf(`smd+%d+{"fields":["31","84","86","87"]}`, id)
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			return fmt.Errorf("subscribe %d: %w", id, err)
		}
	}
	c.logger.Debug("stream subscriptions sent", "contracts", len(conids))
	return nil
}

// pingLoop sends the gateway's text keepalive on an interval.
func (c *Client) pingLoop(conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, []byte("tic")); err != nil {
				c.logger.Debug("stream keepalive failed", "err", err)
				return
			}
		}
	}
}

// handleMessage decodes one frame, buffering market-data updates and
// ignoring the gateway's control chatter.
func (c *Client) handleMessage(data []byte, receivedAt time.Time) {
	var update QuoteUpdate
	if err := json.Unmarshal(data, &update); err != nil {
		c.logger.Debug("undecodable stream frame", "len", len(data))
		return
	}
	if update.ConID == 0 {
		return
	}
	update.ReceivedAt = receivedAt

	if !c.buffer.Push(update) {
		c.logger.Warn("stream buffer closed, dropping update")
	}
}
