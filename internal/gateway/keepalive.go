package gateway

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Keepalive tickles the gateway session on an interval so it does not
// expire between poll cycles.
type Keepalive struct {
	client   *Client
	interval time.Duration
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewKeepalive creates a Keepalive. A zero interval defaults to one
// minute, comfortably inside the gateway's idle timeout.
func NewKeepalive(client *Client, interval time.Duration, logger *slog.Logger) *Keepalive {
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Keepalive{
		client:   client,
		interval: interval,
		logger:   logger,
	}
}

// Start begins the tickle loop.
func (k *Keepalive) Start(ctx context.Context) error {
	k.ctx, k.cancel = context.WithCancel(ctx)

	k.wg.Add(1)
	go k.run()

	k.logger.Info("session keepalive started", "interval", k.interval)
	return nil
}

// Stop gracefully shuts down the tickle loop.
func (k *Keepalive) Stop(ctx context.Context) error {
	if k.cancel != nil {
		k.cancel()
	}

	done := make(chan struct{})
	go func() {
		k.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		k.logger.Info("session keepalive stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (k *Keepalive) run() {
	defer k.wg.Done()

	ticker := time.NewTicker(k.interval)
	defer ticker.Stop()

	for {
		select {
		case <-k.ctx.Done():
			return
		case <-ticker.C:
			k.tickle()
		}
	}
}

func (k *Keepalive) tickle() {
	ctx, cancel := context.WithTimeout(k.ctx, 10*time.Second)
	defer cancel()

	resp, err := k.client.Tickle(ctx)
	if err != nil {
		k.logger.Warn("session tickle failed", "err", err)
		return
	}

	if !resp.IServer.AuthStatus.Authenticated {
		k.logger.Error("gateway session no longer authenticated",
			"competing", resp.IServer.AuthStatus.Competing,
			"message", resp.IServer.AuthStatus.Message,
		)
	}
}
