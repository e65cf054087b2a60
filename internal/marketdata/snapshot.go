package marketdata

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/basislab/ustbasis/internal/gateway"
	"github.com/basislab/ustbasis/internal/model"
	"github.com/basislab/ustbasis/internal/universe"
)

// Source provides the contract universe to snapshot.
type Source interface {
	Futures() []universe.Future
	Bonds() []universe.Bond
}

// Client is the slice of the gateway client the builder needs.
type Client interface {
	Snapshot(ctx context.Context, conids []int64, fields []string) ([]gateway.SnapshotRow, error)
	History(ctx context.Context, conid int64, period, bar string) (*gateway.HistoryResponse, error)
	NetLiquidation(ctx context.Context) (float64, error)
}

// Builder assembles one model.Snapshot from live gateway data.
type Builder struct {
	client Client
	source Source
	logger *slog.Logger

	historyDays int
	concurrency int
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithHistoryDays sets how many trailing daily closes to fetch.
func WithHistoryDays(days int) BuilderOption {
	return func(b *Builder) {
		b.historyDays = days
	}
}

// WithConcurrency bounds the history fan-out.
func WithConcurrency(n int) BuilderOption {
	return func(b *Builder) {
		b.concurrency = n
	}
}

// NewBuilder creates a Builder.
func NewBuilder(client Client, source Source, logger *slog.Logger, opts ...BuilderOption) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Builder{
		client:      client,
		source:      source,
		logger:      logger,
		historyDays: 30,
		concurrency: 8,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build fetches futures quotes, deliverable-bond quotes, trailing closes,
// and the account value, concurrently, into an immutable snapshot.
func (b *Builder) Build(ctx context.Context) (*model.Snapshot, error) {
	start := time.Now()

	futs := b.source.Futures()
	bonds := b.source.Bonds()

	futIDs := make([]int64, len(futs))
	for i, f := range futs {
		futIDs[i] = f.ConID
	}
	bondIDs := make([]int64, len(bonds))
	for i, bd := range bonds {
		bondIDs[i] = bd.ConID
	}

	var (
		futRows  []gateway.SnapshotRow
		bondRows []gateway.SnapshotRow
		netLiq   float64

		closesMu sync.Mutex
		closes   = make(map[int64][]float64, len(futs))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	g.Go(func() error {
		rows, err := b.client.Snapshot(gctx, futIDs, nil)
		if err != nil {
			return fmt.Errorf("futures snapshot: %w", err)
		}
		futRows = rows
		return nil
	})

	if len(bondIDs) > 0 {
		g.Go(func() error {
			rows, err := b.client.Snapshot(gctx, bondIDs, nil)
			if err != nil {
				return fmt.Errorf("bond snapshot: %w", err)
			}
			bondRows = rows
			return nil
		})
	}

	g.Go(func() error {
		nl, err := b.client.NetLiquidation(gctx)
		if err != nil {
			return fmt.Errorf("net liquidation: %w", err)
		}
		netLiq = nl
		return nil
	})

	period := fmt.Sprintf("%dd", b.historyDays)
	for _, id := range futIDs {
		id := id
		g.Go(func() error {
			hist, err := b.client.History(gctx, id, period, "1d")
			if err != nil {
				// History is advisory: volatility degrades to zero.
				b.logger.Warn("history fetch failed", "conid", id, "err", err)
				return nil
			}
			closesMu.Lock()
			closes[id] = hist.Closes()
			closesMu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap := &model.Snapshot{
		TakenAt:        time.Now().UTC(),
		Futures:        b.buildQuotes(futs, futRows),
		Bonds:          b.buildBonds(bonds, bondRows),
		Closes:         closes,
		NetLiquidation: netLiq,
	}

	b.logger.Info("snapshot built",
		"futures", len(snap.Futures),
		"bonds", len(snap.Bonds),
		"net_liquidation", netLiq,
		"duration", time.Since(start),
	)
	return snap, nil
}

// buildQuotes joins the snapshot rows back onto the universe contracts.
func (b *Builder) buildQuotes(futs []universe.Future, rows []gateway.SnapshotRow) []model.Quote {
	byID := make(map[int64]gateway.SnapshotRow, len(rows))
	for _, r := range rows {
		byID[r.ConID] = r
	}

	out := make([]model.Quote, 0, len(futs))
	for _, f := range futs {
		row, ok := byID[f.ConID]
		if !ok {
			continue
		}

		q := model.Quote{
			ConID:      f.ConID,
			Series:     f.Series,
			Code:       f.Code,
			Expiry:     f.Expiry,
			Multiplier: f.Multiplier,
			Increment:  f.Increment,
			Exchange:   f.Exchange,
		}
		if v, closed, ok := ParsePrice(row.LastPrice); ok {
			q.Last = model.Float64(v)
			q.Closed = closed
		}
		if v, _, ok := ParsePrice(row.BidPrice); ok {
			q.Bid = model.Float64(v)
		}
		if v, _, ok := ParsePrice(row.AskPrice); ok {
			q.Ask = model.Float64(v)
		}
		if v, ok := ParseVolume(row.Volume); ok {
			q.Volume = model.Float64(v)
		}
		out = append(out, q)
	}
	return out
}

// buildBonds expands each deliverable's quote row into per-side legs:
// the CTD search evaluates bid and ask independently when both sides
// are quoted.
func (b *Builder) buildBonds(bonds []universe.Bond, rows []gateway.SnapshotRow) []model.DeliverableBond {
	byID := make(map[int64]gateway.SnapshotRow, len(rows))
	for _, r := range rows {
		byID[r.ConID] = r
	}

	var out []model.DeliverableBond
	for _, bd := range bonds {
		row, ok := byID[bd.ConID]
		if !ok {
			continue
		}

		base := model.DeliverableBond{
			CUSIP:    bd.CUSIP,
			ConID:    bd.ConID,
			Coupon:   bd.Coupon,
			Maturity: bd.Maturity,
			Factors:  bd.Factors,
		}

		var legs []model.DeliverableBond
		if v, _, ok := ParsePrice(row.BidPrice); ok {
			leg := base
			leg.Price = model.Float64(v)
			leg.Side = "bid"
			legs = append(legs, leg)
		}
		if v, _, ok := ParsePrice(row.AskPrice); ok {
			leg := base
			leg.Price = model.Float64(v)
			leg.Side = "ask"
			legs = append(legs, leg)
		}
		if len(legs) == 0 {
			if v, _, ok := ParsePrice(row.LastPrice); ok {
				leg := base
				leg.Price = model.Float64(v)
				leg.Side = "last"
				legs = append(legs, leg)
			}
		}
		out = append(out, legs...)
	}
	return out
}
