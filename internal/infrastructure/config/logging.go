package config

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	// Level: debug, info, warning, error
	Level string `mapstructure:"level" validate:"omitempty,oneof=debug info warning error"`

	// Output: stdout, stderr, or a file path
	Output string `mapstructure:"output"`
}
