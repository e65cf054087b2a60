package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultLogLevel = "info"

	DefaultGatewayURL        = "https://localhost:5000/v1/api"
	DefaultGatewayTimeout    = 30 * time.Second
	DefaultMaxRetries        = 3
	DefaultRequestsPerSecond = 10
	DefaultTickleInterval    = 60 * time.Second

	DefaultReconcileInterval = 30 * time.Minute

	DefaultVolumeScale      = 8.0
	DefaultTopN             = 5
	DefaultLeverage         = 4.0
	DefaultMarginFraction   = 0.95
	DefaultHistoryDays      = 30
	DefaultCommissionVolume = 1.0

	DefaultPollInterval = 5 * time.Minute
	DefaultRunTimeout   = 2 * time.Minute

	DefaultReconnectBaseDelay = 1 * time.Second
	DefaultReconnectMaxDelay  = 60 * time.Second
	DefaultPingInterval       = 15 * time.Second
	DefaultReadTimeout        = 30 * time.Second
	DefaultStreamBufferSize   = 4096

	DefaultDBPort    = 5432
	DefaultDBSSLMode = "prefer"
	DefaultMaxConns  = 10
	DefaultMinConns  = 2

	DefaultBatchSize     = 500
	DefaultFlushInterval = 1 * time.Second

	DefaultNATSSubjectPrefix = "ustbasis"
	DefaultNATSTimeout       = 5 * time.Second

	DefaultMetricsPort = 9090
	DefaultMetricsPath = "/metrics"
)

// DefaultSymbols are the Treasury futures series scanned when none are
// configured.
var DefaultSymbols = []string{"ZT", "ZF", "ZN", "TN", "Z3N"}

// DefaultShocks is the default stress ladder in yield-rate units.
var DefaultShocks = []float64{0.005, -0.005, 0.05, -0.05, 0.5, -0.5}

func (c *Config) applyDefaults() {
	if c.Instance.LogLevel == "" {
		c.Instance.LogLevel = DefaultLogLevel
	}

	// Gateway defaults
	if c.Gateway.BaseURL == "" {
		c.Gateway.BaseURL = DefaultGatewayURL
	}
	if c.Gateway.Timeout == 0 {
		c.Gateway.Timeout = DefaultGatewayTimeout
	}
	if c.Gateway.MaxRetries == 0 {
		c.Gateway.MaxRetries = DefaultMaxRetries
	}
	if c.Gateway.RequestsPerSecond == 0 {
		c.Gateway.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if c.Gateway.TickleInterval == 0 {
		c.Gateway.TickleInterval = DefaultTickleInterval
	}

	// Universe defaults
	if len(c.Universe.Symbols) == 0 {
		c.Universe.Symbols = append([]string(nil), DefaultSymbols...)
	}
	if c.Universe.ReconcileInterval == 0 {
		c.Universe.ReconcileInterval = DefaultReconcileInterval
	}

	// Pipeline defaults
	if c.Pipeline.VolumeScale == 0 {
		c.Pipeline.VolumeScale = DefaultVolumeScale
	}
	if c.Pipeline.TopN == 0 {
		c.Pipeline.TopN = DefaultTopN
	}
	if len(c.Pipeline.Shocks) == 0 {
		c.Pipeline.Shocks = append([]float64(nil), DefaultShocks...)
	}
	if c.Pipeline.Leverage == 0 {
		c.Pipeline.Leverage = DefaultLeverage
	}
	if c.Pipeline.MarginFraction == 0 {
		c.Pipeline.MarginFraction = DefaultMarginFraction
	}
	if c.Pipeline.HistoryDays == 0 {
		c.Pipeline.HistoryDays = DefaultHistoryDays
	}
	if c.Pipeline.CommissionVolume == 0 {
		c.Pipeline.CommissionVolume = DefaultCommissionVolume
	}

	// Poller defaults
	if c.Poller.Interval == 0 {
		c.Poller.Interval = DefaultPollInterval
	}
	if c.Poller.RunTimeout == 0 {
		c.Poller.RunTimeout = DefaultRunTimeout
	}

	// Stream defaults
	if c.Stream.ReconnectBaseDelay == 0 {
		c.Stream.ReconnectBaseDelay = DefaultReconnectBaseDelay
	}
	if c.Stream.ReconnectMaxDelay == 0 {
		c.Stream.ReconnectMaxDelay = DefaultReconnectMaxDelay
	}
	if c.Stream.PingInterval == 0 {
		c.Stream.PingInterval = DefaultPingInterval
	}
	if c.Stream.ReadTimeout == 0 {
		c.Stream.ReadTimeout = DefaultReadTimeout
	}
	if c.Stream.BufferSize == 0 {
		c.Stream.BufferSize = DefaultStreamBufferSize
	}

	// Database defaults
	if c.Database.Port == 0 {
		c.Database.Port = DefaultDBPort
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = DefaultDBSSLMode
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = DefaultMaxConns
	}
	if c.Database.MinConns == 0 {
		c.Database.MinConns = DefaultMinConns
	}

	// NATS defaults
	if c.NATS.SubjectPrefix == "" {
		c.NATS.SubjectPrefix = DefaultNATSSubjectPrefix
	}
	if c.NATS.Timeout == 0 {
		c.NATS.Timeout = DefaultNATSTimeout
	}

	// Writers defaults
	if c.Writers.BatchSize == 0 {
		c.Writers.BatchSize = DefaultBatchSize
	}
	if c.Writers.FlushInterval == 0 {
		c.Writers.FlushInterval = DefaultFlushInterval
	}

	// Metrics defaults
	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
}
