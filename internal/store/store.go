package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/basislab/ustbasis/internal/model"
)

// WriterConfig controls batching behavior.
type WriterConfig struct {
	BatchSize     int           // Flush when this many candidate rows accumulate
	FlushInterval time.Duration // Flush at least this often
}

// DefaultWriterConfig returns batching parameters suited to the run cadence.
// One run produces a handful of rows, so the interval drives most flushes.
func DefaultWriterConfig() WriterConfig {
	return WriterConfig{
		BatchSize:     64,
		FlushInterval: 10 * time.Second,
	}
}

// WriterMetrics tracks insert outcomes.
type WriterMetrics struct {
	Inserts   int64
	Conflicts int64
	Flushes   int64
	Errors    int64
}

type runRow struct {
	RunID           string
	SnapshotAt      time.Time
	StartedAt       time.Time
	ElapsedUs       int64
	Assignments     int
	Basis           int
	Candidates      int
	Recommendations int
	Skipped         model.SkipCounts
}

type candidateRow struct {
	RunID         string
	Rank          int
	FrontConID    int64
	BackConID     int64
	FrontCode     string
	BackCode      string
	FrontSide     string
	BackSide      string
	Score         float64
	AdjNetBasis   float64
	QtyFront      int
	QtyBack       int
	LotFront      int
	LotBack       int
	Notional      float64
	LotNotional   float64
	LimitBasis    float64
	Breached      bool
	FrontVol      float64
	BackVol       float64
	ValueAtRisk   float64
	PositionRisk  float64
	NetNotional   float64
	DurationRisk  bool
	ConvexityRisk bool
}

// Store persists pipeline results to Postgres. It implements the run handler
// contract: HandleRun enqueues rows, and a background flusher batches them
// into the runs and candidates tables.
type Store struct {
	cfg    WriterConfig
	logger *slog.Logger

	db *pgxpool.Pool

	runs        []runRow
	cands       []candidateRow
	batchMu     sync.Mutex
	flushTicker *time.Ticker

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	metrics WriterMetrics
}

// New creates a Store writing to db.
func New(cfg WriterConfig, db *pgxpool.Pool, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultWriterConfig().BatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DefaultWriterConfig().FlushInterval
	}
	return &Store{
		cfg:    cfg,
		db:     db,
		logger: logger,
		runs:   make([]runRow, 0, 8),
		cands:  make([]candidateRow, 0, cfg.BatchSize),
	}
}

// Start launches the flush loop.
func (s *Store) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.flushTicker = time.NewTicker(s.cfg.FlushInterval)

	s.wg.Add(1)
	go s.flushLoop()

	s.logger.Info("store started",
		"batch_size", s.cfg.BatchSize,
		"flush_interval", s.cfg.FlushInterval,
	)
	return nil
}

// Stop halts the flush loop and writes any remaining rows.
func (s *Store) Stop(ctx context.Context) error {
	s.logger.Info("stopping store")

	if s.cancel != nil {
		s.cancel()
	}
	if s.flushTicker != nil {
		s.flushTicker.Stop()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("store stopped")
	case <-ctx.Done():
		s.logger.Warn("store stop timed out")
	}

	// Final flush
	s.flush(context.Background())

	return nil
}

// Stats returns current metrics.
func (s *Store) Stats() WriterMetrics {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	return s.metrics
}

// HandleRun enqueues one pipeline result for persistence.
func (s *Store) HandleRun(res model.Result) error {
	run, cands := transform(res)

	s.batchMu.Lock()
	s.runs = append(s.runs, run)
	s.cands = append(s.cands, cands...)
	shouldFlush := len(s.cands) >= s.cfg.BatchSize
	s.batchMu.Unlock()

	if shouldFlush {
		s.flush(s.ctx)
	}
	return nil
}

// transform converts a result into one run row plus its candidate rows.
func transform(res model.Result) (runRow, []candidateRow) {
	run := runRow{
		RunID:           res.RunID.String(),
		SnapshotAt:      res.SnapshotAt,
		StartedAt:       res.StartedAt,
		ElapsedUs:       res.Elapsed.Microseconds(),
		Assignments:     len(res.Assignments),
		Basis:           len(res.Basis),
		Candidates:      len(res.Candidates),
		Recommendations: len(res.Recommendations),
		Skipped:         res.Skipped,
	}

	cands := make([]candidateRow, 0, len(res.Recommendations))
	for i, rec := range res.Recommendations {
		o := rec.Order
		cands = append(cands, candidateRow{
			RunID:         run.RunID,
			Rank:          i + 1,
			FrontConID:    o.Candidate.Front.FuturesConID,
			BackConID:     o.Candidate.Back.FuturesConID,
			FrontCode:     o.Candidate.Front.Code,
			BackCode:      o.Candidate.Back.Code,
			FrontSide:     string(o.FrontSide),
			BackSide:      string(o.BackSide),
			Score:         o.Candidate.Score,
			AdjNetBasis:   o.Candidate.AdjNetBasis,
			QtyFront:      o.QtyFront,
			QtyBack:       o.QtyBack,
			LotFront:      o.LotFront,
			LotBack:       o.LotBack,
			Notional:      o.Notional,
			LotNotional:   o.LotNotional,
			LimitBasis:    o.LimitBasis,
			Breached:      rec.Risk.Breached,
			FrontVol:      rec.Risk.FrontVol,
			BackVol:       rec.Risk.BackVol,
			ValueAtRisk:   rec.Risk.ValueAtRisk,
			PositionRisk:  rec.Risk.PositionRisk,
			NetNotional:   rec.Risk.NetNotional,
			DurationRisk:  rec.Risk.DurationRisk,
			ConvexityRisk: rec.Risk.ConvexityRisk,
		})
	}
	return run, cands
}

// flushLoop periodically flushes pending rows.
func (s *Store) flushLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.flushTicker.C:
			s.flush(s.ctx)
		}
	}
}

// flush writes the pending rows to the database.
func (s *Store) flush(ctx context.Context) {
	s.batchMu.Lock()
	if len(s.runs) == 0 && len(s.cands) == 0 {
		s.batchMu.Unlock()
		return
	}

	// Take ownership of the pending rows
	runs := s.runs
	cands := s.cands
	s.runs = make([]runRow, 0, 8)
	s.cands = make([]candidateRow, 0, s.cfg.BatchSize)
	s.batchMu.Unlock()

	start := time.Now()

	conflicts, err := s.batchInsert(ctx, runs, cands)
	if err != nil {
		s.logger.Error("batch insert failed",
			"error", err,
			"runs", len(runs),
			"candidates", len(cands),
		)
		s.batchMu.Lock()
		s.metrics.Errors++
		s.batchMu.Unlock()
		return
	}

	total := len(runs) + len(cands)
	s.batchMu.Lock()
	s.metrics.Inserts += int64(total - conflicts)
	s.metrics.Conflicts += int64(conflicts)
	s.metrics.Flushes++
	s.batchMu.Unlock()

	s.logger.Debug("flushed results",
		"runs", len(runs),
		"candidates", len(cands),
		"conflicts", conflicts,
		"duration", time.Since(start),
	)
}

// batchInsert inserts rows using pgx.Batch with ON CONFLICT DO NOTHING.
func (s *Store) batchInsert(ctx context.Context, runs []runRow, cands []candidateRow) (conflicts int, err error) {
	batch := &pgx.Batch{}
	for _, r := range runs {
		batch.Queue(`
			INSERT INTO runs (run_id, snapshot_at, started_at, elapsed_us, assignments, basis, candidates, recommendations, skip_futures_no_price, skip_bonds_no_price, skip_bonds_no_factor, skip_no_eligible_bond, skip_pairs_no_volume, skip_orders_unsizable)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			ON CONFLICT (run_id) DO NOTHING
		`, r.RunID, r.SnapshotAt, r.StartedAt, r.ElapsedUs, r.Assignments, r.Basis, r.Candidates, r.Recommendations,
			r.Skipped.FuturesNoPrice, r.Skipped.BondsNoPrice, r.Skipped.BondsNoFactor,
			r.Skipped.NoEligibleBond, r.Skipped.PairsNoVolume, r.Skipped.OrdersUnsizable)
	}
	for _, c := range cands {
		batch.Queue(`
			INSERT INTO candidates (run_id, rank, front_conid, back_conid, front_code, back_code, front_side, back_side, score, adj_net_basis, qty_front, qty_back, lot_front, lot_back, notional, lot_notional, limit_basis, breached, front_vol, back_vol, value_at_risk, position_risk, net_notional, duration_risk, convexity_risk)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)
			ON CONFLICT (run_id, rank) DO NOTHING
		`, c.RunID, c.Rank, c.FrontConID, c.BackConID, c.FrontCode, c.BackCode, c.FrontSide, c.BackSide,
			c.Score, c.AdjNetBasis, c.QtyFront, c.QtyBack, c.LotFront, c.LotBack,
			c.Notional, c.LotNotional, c.LimitBasis, c.Breached,
			c.FrontVol, c.BackVol, c.ValueAtRisk, c.PositionRisk, c.NetNotional,
			c.DurationRisk, c.ConvexityRisk)
	}

	results := s.db.SendBatch(ctx, batch)
	defer results.Close()

	total := len(runs) + len(cands)
	for i := 0; i < total; i++ {
		ct, err := results.Exec()
		if err != nil {
			return 0, err
		}
		if ct.RowsAffected() == 0 {
			conflicts++
		}
	}

	return conflicts, nil
}
