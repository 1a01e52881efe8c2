package config

import "time"

// GammaConfig holds the Polymarket Gamma API client configuration
type GammaConfig struct {
	BaseURL string        `mapstructure:"base_url" validate:"required,url"`
	Timeout time.Duration `mapstructure:"timeout"`

	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Retry     RetryConfig     `mapstructure:"retry"`
}

// RateLimitConfig holds client-side rate limiting settings
type RateLimitConfig struct {
	// Requests per second
	Requests float64 `mapstructure:"requests" validate:"min=0"`
	Burst    int     `mapstructure:"burst" validate:"min=0"`
}

// RetryConfig holds retry/backoff settings for transient API failures
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts" validate:"min=1"`
	BackoffBase time.Duration `mapstructure:"backoff_base"`
}
