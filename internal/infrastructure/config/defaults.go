package config

import "time"

// SetDefaults sets default values for all configuration fields
func SetDefaults(cfg *Config) {
	// Database defaults
	if cfg.Database.Type == "" {
		cfg.Database.Type = "sqlite"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "trader"
	}
	if cfg.Database.Name == "" {
		cfg.Database.Name = "trader"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/trader.db"
	}
	if cfg.Database.Pool.MaxOpen == 0 {
		cfg.Database.Pool.MaxOpen = 25
	}
	if cfg.Database.Pool.MaxIdle == 0 {
		cfg.Database.Pool.MaxIdle = 5
	}
	if cfg.Database.Pool.MaxLifetime == 0 {
		cfg.Database.Pool.MaxLifetime = 5 * time.Minute
	}

	// Redis defaults
	if cfg.Redis.Address == "" {
		cfg.Redis.Address = "localhost:6379"
	}
	if cfg.Redis.Timeout == 0 {
		cfg.Redis.Timeout = 5 * time.Second
	}

	// Gamma API defaults
	if cfg.Gamma.BaseURL == "" {
		cfg.Gamma.BaseURL = "https://gamma-api.polymarket.com"
	}
	if cfg.Gamma.Timeout == 0 {
		cfg.Gamma.Timeout = 30 * time.Second
	}
	if cfg.Gamma.RateLimit.Requests == 0 {
		cfg.Gamma.RateLimit.Requests = 2
	}
	if cfg.Gamma.RateLimit.Burst == 0 {
		cfg.Gamma.RateLimit.Burst = 5
	}
	if cfg.Gamma.Retry.MaxAttempts == 0 {
		cfg.Gamma.Retry.MaxAttempts = 3
	}
	if cfg.Gamma.Retry.BackoffBase == 0 {
		cfg.Gamma.Retry.BackoffBase = 1 * time.Second
	}

	// Daemon defaults
	if cfg.Daemon.PIDFile == "" {
		cfg.Daemon.PIDFile = "/tmp/traderd.pid"
	}
	if cfg.Daemon.DataDir == "" {
		cfg.Daemon.DataDir = "data"
	}
	if cfg.Daemon.ShutdownTimeout == 0 {
		cfg.Daemon.ShutdownTimeout = 30 * time.Second
	}

	// Metrics defaults
	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = "localhost:9090"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}
