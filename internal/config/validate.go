package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}
	switch strings.ToLower(c.Instance.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("instance.log_level must be debug, info, warn or error, got %q", c.Instance.LogLevel)
	}

	if c.Gateway.BaseURL == "" {
		return errors.New("gateway.base_url is required")
	}
	if c.Gateway.RequestsPerSecond < 1 {
		return errors.New("gateway.requests_per_second must be >= 1")
	}

	if len(c.Universe.Symbols) == 0 {
		return errors.New("universe.symbols must not be empty")
	}

	if err := c.Pipeline.validate("pipeline"); err != nil {
		return err
	}

	if c.Database.Enabled() {
		if err := c.Database.validate("database"); err != nil {
			return err
		}
	}

	if c.Writers.BatchSize < 1 {
		return errors.New("writers.batch_size must be >= 1")
	}

	if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
		return fmt.Errorf("metrics.port must be between 1 and 65535, got %d", c.Metrics.Port)
	}

	return nil
}

func (p *PipelineConfig) validate(prefix string) error {
	if p.VolumeScale <= 0 {
		return fmt.Errorf("%s.volume_scale must be > 0", prefix)
	}
	if p.TopN < 1 || p.TopN > 10 {
		return fmt.Errorf("%s.top_n must be between 1 and 10, got %d", prefix, p.TopN)
	}
	if p.MarginFraction <= 0 || p.MarginFraction > 1 {
		return fmt.Errorf("%s.margin_fraction must be in (0, 1], got %v", prefix, p.MarginFraction)
	}
	if p.Leverage <= 0 {
		return fmt.Errorf("%s.leverage must be > 0", prefix)
	}
	for series, off := range p.Offsets {
		if off.Min >= off.Max {
			return fmt.Errorf("%s.offsets.%s: min %v must be below max %v", prefix, series, off.Min, off.Max)
		}
	}
	for _, s := range p.Shocks {
		if s == 0 {
			return fmt.Errorf("%s.shocks must not contain zero", prefix)
		}
	}
	return nil
}

func (db *DatabaseConfig) validate(prefix string) error {
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns must not exceed max_conns", prefix)
	}
	return nil
}
