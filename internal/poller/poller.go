package poller

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/basislab/ustbasis/internal/model"
)

// SnapshotSource builds the market snapshot for one run.
type SnapshotSource interface {
	Build(ctx context.Context) (*model.Snapshot, error)
}

// Runner executes the pipeline over one snapshot.
type Runner interface {
	Run(snap *model.Snapshot) model.Result
}

// RunHandler receives completed pipeline results.
type RunHandler interface {
	HandleRun(res model.Result) error
}

// RunHandlerFunc is a function adapter for RunHandler.
type RunHandlerFunc func(model.Result) error

func (f RunHandlerFunc) HandleRun(res model.Result) error {
	return f(res)
}

// Config holds poller configuration.
type Config struct {
	Interval   time.Duration // run interval (default: 5m)
	RunTimeout time.Duration // per-run snapshot timeout (default: 2m)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval:   5 * time.Minute,
		RunTimeout: 2 * time.Minute,
	}
}

// Stats are poller counters.
type Stats struct {
	Runs      int64
	Errors    int64
	LastRunAt time.Time
}

// Poller drives the pipeline on an interval: build a snapshot, run the
// engine, hand the result to the handler.
type Poller struct {
	cfg     Config
	source  SnapshotSource
	engine  Runner
	handler RunHandler
	logger  *slog.Logger

	runs   atomic.Int64
	errs   atomic.Int64
	lastMu sync.Mutex
	lastAt time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Poller.
func New(cfg Config, source SnapshotSource, engine Runner, handler RunHandler, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = def.RunTimeout
	}
	return &Poller{
		cfg:     cfg,
		source:  source,
		engine:  engine,
		handler: handler,
		logger:  logger,
	}
}

// Start begins the run loop.
func (p *Poller) Start(ctx context.Context) error {
	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.run()

	p.logger.Info("pipeline poller started", "interval", p.cfg.Interval)
	return nil
}

// Stop gracefully shuts down the poller.
func (p *Poller) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("pipeline poller stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns run counters.
func (p *Poller) Stats() Stats {
	p.lastMu.Lock()
	last := p.lastAt
	p.lastMu.Unlock()
	return Stats{
		Runs:      p.runs.Load(),
		Errors:    p.errs.Load(),
		LastRunAt: last,
	}
}

func (p *Poller) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	// Run immediately on start.
	p.runOnce()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.runOnce()
		}
	}
}

// runOnce builds a snapshot and runs the pipeline over it. Failures are
// counted and logged; the loop keeps going.
func (p *Poller) runOnce() {
	ctx, cancel := context.WithTimeout(p.ctx, p.cfg.RunTimeout)
	defer cancel()

	p.lastMu.Lock()
	p.lastAt = time.Now()
	p.lastMu.Unlock()

	snap, err := p.source.Build(ctx)
	if err != nil {
		p.errs.Add(1)
		p.logger.Error("snapshot build failed", "err", err)
		return
	}

	res := p.engine.Run(snap)
	p.runs.Add(1)

	if p.handler != nil {
		if err := p.handler.HandleRun(res); err != nil {
			p.errs.Add(1)
			p.logger.Error("run handler failed", "run_id", res.RunID, "err", err)
		}
	}
}
