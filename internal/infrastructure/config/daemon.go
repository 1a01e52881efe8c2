package config

import "time"

// DaemonConfig holds daemon runtime configuration
type DaemonConfig struct {
	// PIDFile guards against concurrent daemon instances
	PIDFile string `mapstructure:"pid_file"`

	// DataDir is the root for filesystem-mirrored state (config, feed cache)
	DataDir string `mapstructure:"data_dir"`

	// WalletAddress is the wallet the DEX pipeline analyses
	WalletAddress string `mapstructure:"wallet_address"`

	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}
