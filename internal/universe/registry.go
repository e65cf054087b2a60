package universe

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/basislab/ustbasis/internal/gateway"
	"github.com/basislab/ustbasis/internal/refdata"
)

// Future is one resolved futures contract in the scan universe.
type Future struct {
	ConID      int64
	Series     string
	Code       string
	Expiry     time.Time
	Multiplier float64
	Increment  float64
	Exchange   string
}

// Change signals a series rolling to a new front contract.
type Change struct {
	Series   string
	OldFront string
	NewFront string
}

// Gateway is the slice of the REST client the registry needs.
type Gateway interface {
	Futures(ctx context.Context, symbols []string) (map[string][]gateway.FutureContract, error)
}

// Config holds registry configuration.
type Config struct {
	Symbols           []string
	DeliverablesPath  string
	ReconcileInterval time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Symbols:           []string{"ZT", "ZF", "ZN", "TN", "Z3N"},
		ReconcileInterval: time.Hour,
	}
}

// Registry caches the futures chains and deliverable baskets.
type Registry struct {
	cfg    Config
	gw     Gateway
	logger *slog.Logger

	mu      sync.RWMutex
	futures []Future
	bonds   []Bond
	fronts  map[string]string // series -> front contract code

	changes chan Change

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRegistry creates a Registry.
func NewRegistry(cfg Config, gw Gateway, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ReconcileInterval <= 0 {
		cfg.ReconcileInterval = DefaultConfig().ReconcileInterval
	}
	return &Registry{
		cfg:     cfg,
		gw:      gw,
		logger:  logger,
		fronts:  make(map[string]string),
		changes: make(chan Change, 16),
	}
}

// Start loads the deliverable list, runs the initial chain sync, and
// begins background reconciliation.
func (r *Registry) Start(ctx context.Context) error {
	r.ctx, r.cancel = context.WithCancel(ctx)

	if r.cfg.DeliverablesPath != "" {
		bonds, err := LoadDeliverables(r.cfg.DeliverablesPath)
		if err != nil {
			r.cancel()
			return err
		}
		r.mu.Lock()
		r.bonds = bonds
		r.mu.Unlock()
	}

	if err := r.sync(r.ctx); err != nil {
		r.cancel()
		return fmt.Errorf("initial universe sync: %w", err)
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.reconcileLoop(r.ctx)
	}()

	r.mu.RLock()
	r.logger.Info("universe registry started",
		"futures", len(r.futures),
		"bonds", len(r.bonds),
	)
	r.mu.RUnlock()

	return nil
}

// Stop gracefully shuts down.
func (r *Registry) Stop(ctx context.Context) error {
	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("universe registry stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Futures returns a copy of the resolved contracts, ordered by series
// then expiry.
func (r *Registry) Futures() []Future {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Future, len(r.futures))
	copy(out, r.futures)
	return out
}

// Bonds returns a copy of the deliverable list with factors filled.
func (r *Registry) Bonds() []Bond {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Bond, len(r.bonds))
	for i, b := range r.bonds {
		factors := make(map[string]float64, len(b.Factors))
		for k, v := range b.Factors {
			factors[k] = v
		}
		b.Factors = factors
		out[i] = b
	}
	return out
}

// SubscribeChanges returns the roll-notification channel.
func (r *Registry) SubscribeChanges() <-chan Change {
	return r.changes
}

func (r *Registry) reconcileLoop(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.ReconcileInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.sync(ctx); err != nil {
				r.logger.Error("universe reconcile failed", "err", err)
			}
		}
	}
}

// sync resolves the futures chains and refreshes the cached universe.
func (r *Registry) sync(ctx context.Context) error {
	start := time.Now()

	chains, err := r.gw.Futures(ctx, r.cfg.Symbols)
	if err != nil {
		return err
	}

	var futures []Future
	for _, series := range r.cfg.Symbols {
		spec, ok := Specs[series]
		if !ok {
			r.logger.Warn("no contract spec for series", "series", series)
			continue
		}
		for _, fc := range chains[series] {
			expiry := fc.ExpiryTime()
			if expiry.IsZero() {
				continue
			}
			futures = append(futures, Future{
				ConID:      fc.ConID,
				Series:     series,
				Code:       ContractCode(series, expiry),
				Expiry:     expiry,
				Multiplier: spec.Multiplier,
				Increment:  spec.Increment,
				Exchange:   spec.Exchange,
			})
		}
	}

	sort.Slice(futures, func(i, j int) bool {
		if futures[i].Series != futures[j].Series {
			return futures[i].Series < futures[j].Series
		}
		return futures[i].Expiry.Before(futures[j].Expiry)
	})

	r.mu.Lock()
	r.futures = futures
	r.fillFactorsLocked()
	r.detectRollsLocked()
	r.mu.Unlock()

	r.logger.Debug("universe sync complete",
		"futures", len(futures),
		"duration", time.Since(start),
	)
	return nil
}

// fillFactorsLocked computes conversion factors the deliverables file
// left blank. Caller holds mu.
func (r *Registry) fillFactorsLocked() {
	byCode := make(map[string]Future, len(r.futures))
	for _, f := range r.futures {
		byCode[f.Code] = f
	}

	for i := range r.bonds {
		b := &r.bonds[i]
		for code, factor := range b.Factors {
			if factor != 0 {
				continue
			}
			fut, ok := byCode[code]
			if !ok {
				continue
			}
			prev, next := refdata.CouponBounds(b.Maturity, fut.Expiry)
			if cf, ok := refdata.ConversionFactor(b.Coupon, prev, next, b.Maturity); ok {
				b.Factors[code] = cf
			} else {
				r.logger.Warn("conversion factor degenerate",
					"cusip", b.CUSIP,
					"code", code,
				)
			}
		}
	}
}

// detectRollsLocked compares front contracts against the previous sync
// and notifies on change. Caller holds mu.
func (r *Registry) detectRollsLocked() {
	front := make(map[string]string)
	for _, f := range r.futures {
		if _, seen := front[f.Series]; !seen {
			front[f.Series] = f.Code // futures sorted by expiry within series
		}
	}

	for series, code := range front {
		old, seen := r.fronts[series]
		if seen && old != code {
			r.logger.Info("series rolled", "series", series, "old", old, "new", code)
			select {
			case r.changes <- Change{Series: series, OldFront: old, NewFront: code}:
			default:
			}
		}
		r.fronts[series] = code
	}
}
