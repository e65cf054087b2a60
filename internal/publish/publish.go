package publish

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/basislab/ustbasis/internal/config"
	"github.com/basislab/ustbasis/internal/model"
)

// candidateMessage is the wire payload for one recommendation.
type candidateMessage struct {
	RunID      string    `json:"run_id"`
	SnapshotAt time.Time `json:"snapshot_at"`
	Rank       int       `json:"rank"`

	FrontCode  string `json:"front_code"`
	BackCode   string `json:"back_code"`
	FrontConID int64  `json:"front_conid"`
	BackConID  int64  `json:"back_conid"`
	FrontSide  string `json:"front_side"`
	BackSide   string `json:"back_side"`

	QtyFront int `json:"qty_front"`
	QtyBack  int `json:"qty_back"`
	LotFront int `json:"lot_front"`
	LotBack  int `json:"lot_back"`

	Score       float64 `json:"score"`
	AdjNetBasis float64 `json:"adj_net_basis"`
	LimitBasis  float64 `json:"limit_basis"`
	Notional    float64 `json:"notional"`

	Breached    bool    `json:"breached"`
	ValueAtRisk float64 `json:"value_at_risk"`
	NetNotional float64 `json:"net_notional"`
}

// Publisher emits sized candidates to NATS, one message per recommendation
// on <prefix>.candidates.<runID>.
type Publisher struct {
	conn   *nats.Conn
	prefix string
	logger *slog.Logger
}

// Connect dials the NATS server in cfg and returns a Publisher.
func Connect(cfg config.NATSConfig, logger *slog.Logger) (*Publisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	name := cfg.Name
	if name == "" {
		name = "ustbasis"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	conn, err := nats.Connect(cfg.URL,
		nats.Name(name),
		nats.Timeout(timeout),
		nats.MaxReconnects(10),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	prefix := cfg.SubjectPrefix
	if prefix == "" {
		prefix = "ustbasis"
	}

	logger.Info("nats connected", "url", cfg.URL, "subject_prefix", prefix)
	return &Publisher{conn: conn, prefix: prefix, logger: logger}, nil
}

// HandleRun publishes every recommendation in the result.
func (p *Publisher) HandleRun(res model.Result) error {
	subject := fmt.Sprintf("%s.candidates.%s", p.prefix, res.RunID)

	for i, rec := range res.Recommendations {
		payload, err := json.Marshal(toMessage(res, i, rec))
		if err != nil {
			return fmt.Errorf("marshal candidate %d: %w", i+1, err)
		}
		if err := p.conn.Publish(subject, payload); err != nil {
			return fmt.Errorf("publish candidate %d: %w", i+1, err)
		}
	}

	if len(res.Recommendations) > 0 {
		p.logger.Debug("published candidates",
			"subject", subject,
			"count", len(res.Recommendations),
		)
	}
	return nil
}

// Close flushes outstanding messages and drains the connection.
func (p *Publisher) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Drain()
}

func toMessage(res model.Result, i int, rec model.Recommendation) candidateMessage {
	o := rec.Order
	return candidateMessage{
		RunID:       res.RunID.String(),
		SnapshotAt:  res.SnapshotAt,
		Rank:        i + 1,
		FrontCode:   o.Candidate.Front.Code,
		BackCode:    o.Candidate.Back.Code,
		FrontConID:  o.Candidate.Front.FuturesConID,
		BackConID:   o.Candidate.Back.FuturesConID,
		FrontSide:   string(o.FrontSide),
		BackSide:    string(o.BackSide),
		QtyFront:    o.QtyFront,
		QtyBack:     o.QtyBack,
		LotFront:    o.LotFront,
		LotBack:     o.LotBack,
		Score:       o.Candidate.Score,
		AdjNetBasis: o.Candidate.AdjNetBasis,
		LimitBasis:  o.LimitBasis,
		Notional:    o.Notional,
		Breached:    rec.Risk.Breached,
		ValueAtRisk: rec.Risk.ValueAtRisk,
		NetNotional: rec.Risk.NetNotional,
	}
}
