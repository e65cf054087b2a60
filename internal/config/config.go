package config

import (
	"log/slog"
	"strings"
	"time"
)

// Config is the root configuration for a basisd instance.
type Config struct {
	Instance InstanceConfig `yaml:"instance"`
	Gateway  GatewayConfig  `yaml:"gateway"`
	Universe UniverseConfig `yaml:"universe"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Poller   PollerConfig   `yaml:"poller"`
	Stream   StreamConfig   `yaml:"stream"`
	Database DatabaseConfig `yaml:"database"`
	NATS     NATSConfig     `yaml:"nats"`
	Writers  WritersConfig  `yaml:"writers"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// InstanceConfig identifies this basisd.
type InstanceConfig struct {
	ID       string `yaml:"id"`
	LogLevel string `yaml:"log_level"`
}

// SlogLevel maps the configured level name onto slog. Unset or unknown
// names fall back to info; Validate rejects unknown names up front.
func (i InstanceConfig) SlogLevel() slog.Level {
	switch strings.ToLower(i.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// GatewayConfig holds brokerage gateway settings. The gateway is a local
// Client Portal process serving HTTPS with a self-signed certificate.
type GatewayConfig struct {
	BaseURL            string        `yaml:"base_url"`
	AccountID          string        `yaml:"account_id"`
	Timeout            time.Duration `yaml:"timeout"`
	MaxRetries         int           `yaml:"max_retries"`
	InsecureSkipVerify bool          `yaml:"insecure_skip_verify"`
	RequestsPerSecond  int           `yaml:"requests_per_second"`
	TickleInterval     time.Duration `yaml:"tickle_interval"`
}

// UniverseConfig holds contract universe settings.
type UniverseConfig struct {
	Symbols           []string      `yaml:"symbols"`
	DeliverablesPath  string        `yaml:"deliverables_path"`
	ReconcileInterval time.Duration `yaml:"reconcile_interval"`
}

// OffsetConfig bounds one series' deliverable-maturity window, in years
// past contract expiry.
type OffsetConfig struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// PipelineConfig holds the tunables of the quantitative pipeline.
type PipelineConfig struct {
	// VolumeScale divides the log-volume liquidity weight; larger values
	// reduce volume sensitivity.
	VolumeScale float64 `yaml:"volume_scale"`
	// TopN ranked candidates to emit per run.
	TopN int `yaml:"top_n"`
	// Offsets per futures series; empty uses the built-in table.
	Offsets map[string]OffsetConfig `yaml:"offsets"`
	// Shocks is the stress ladder in yield-rate units.
	Shocks []float64 `yaml:"shocks"`
	// Leverage approximates the reg-T margin multiple on net liquidation.
	Leverage float64 `yaml:"leverage"`
	// MarginFraction of the levered margin usable for sizing.
	MarginFraction float64 `yaml:"margin_fraction"`
	// HistoryDays of trailing closes to request for volatility.
	HistoryDays int `yaml:"history_days"`
	// CommissionVolume is the trailing monthly volume for the fee tier.
	CommissionVolume float64 `yaml:"commission_volume"`
}

// PollerConfig holds run loop settings.
type PollerConfig struct {
	Interval   time.Duration `yaml:"interval"`
	RunTimeout time.Duration `yaml:"run_timeout"`
}

// StreamConfig holds gateway WebSocket settings. Streaming is optional;
// REST polling is the baseline path.
type StreamConfig struct {
	Enabled            bool          `yaml:"enabled"`
	URL                string        `yaml:"url"`
	ReconnectBaseDelay time.Duration `yaml:"reconnect_base_delay"`
	ReconnectMaxDelay  time.Duration `yaml:"reconnect_max_delay"`
	PingInterval       time.Duration `yaml:"ping_interval"`
	ReadTimeout        time.Duration `yaml:"read_timeout"`
	BufferSize         int           `yaml:"buffer_size"`
}

// DatabaseConfig holds the Postgres connection for run persistence.
// Persistence is optional: an empty host disables it.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// Enabled reports whether persistence is configured.
func (db DatabaseConfig) Enabled() bool { return db.Host != "" }

// NATSConfig holds candidate emission settings. Emission is optional: an
// empty URL disables it.
type NATSConfig struct {
	URL           string        `yaml:"url"`
	SubjectPrefix string        `yaml:"subject_prefix"`
	Name          string        `yaml:"name"`
	Timeout       time.Duration `yaml:"timeout"`
}

// Enabled reports whether emission is configured.
func (n NATSConfig) Enabled() bool { return n.URL != "" }

// WritersConfig holds batch writer settings.
type WritersConfig struct {
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}
