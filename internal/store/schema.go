package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		run_id          UUID PRIMARY KEY,
		snapshot_at     TIMESTAMPTZ NOT NULL,
		started_at      TIMESTAMPTZ NOT NULL,
		elapsed_us      BIGINT NOT NULL,
		assignments     INT NOT NULL,
		basis           INT NOT NULL,
		candidates      INT NOT NULL,
		recommendations INT NOT NULL,
		skip_futures_no_price  INT NOT NULL,
		skip_bonds_no_price    INT NOT NULL,
		skip_bonds_no_factor   INT NOT NULL,
		skip_no_eligible_bond  INT NOT NULL,
		skip_pairs_no_volume   INT NOT NULL,
		skip_orders_unsizable  INT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS candidates (
		run_id        UUID NOT NULL,
		rank          INT NOT NULL,
		front_conid   BIGINT NOT NULL,
		back_conid    BIGINT NOT NULL,
		front_code    TEXT NOT NULL,
		back_code     TEXT NOT NULL,
		front_side    TEXT NOT NULL,
		back_side     TEXT NOT NULL,
		score         DOUBLE PRECISION NOT NULL,
		adj_net_basis DOUBLE PRECISION NOT NULL,
		qty_front     INT NOT NULL,
		qty_back      INT NOT NULL,
		lot_front     INT NOT NULL,
		lot_back      INT NOT NULL,
		notional      DOUBLE PRECISION NOT NULL,
		lot_notional  DOUBLE PRECISION NOT NULL,
		limit_basis   DOUBLE PRECISION NOT NULL,
		breached      BOOLEAN NOT NULL,
		front_vol     DOUBLE PRECISION NOT NULL,
		back_vol      DOUBLE PRECISION NOT NULL,
		value_at_risk DOUBLE PRECISION NOT NULL,
		position_risk DOUBLE PRECISION NOT NULL,
		net_notional  DOUBLE PRECISION NOT NULL,
		duration_risk BOOLEAN NOT NULL,
		convexity_risk BOOLEAN NOT NULL,
		PRIMARY KEY (run_id, rank)
	)`,
	`CREATE INDEX IF NOT EXISTS candidates_run_idx ON candidates (run_id)`,
}

// EnsureSchema creates the tables the writers insert into.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
