package config

import "time"

// RedisConfig holds the KV store connection configuration. When the server
// is unreachable at boot the daemon degrades to an in-process store.
type RedisConfig struct {
	Address  string        `mapstructure:"address" validate:"required"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db" validate:"min=0,max=15"`
	Timeout  time.Duration `mapstructure:"timeout"`
}
