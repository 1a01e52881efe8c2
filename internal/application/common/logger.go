package common

import "context"

// EventLogger provides structured event logging for manager operations
type EventLogger interface {
	Log(level, message string, metadata map[string]interface{})
}

// Context keys for passing logger through context
type contextKey int

const (
	loggerKey contextKey = iota
)

// WithLogger adds a logger to the context
func WithLogger(ctx context.Context, logger EventLogger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// LoggerFromContext extracts the logger from context, or returns a no-op logger if not found
func LoggerFromContext(ctx context.Context) EventLogger {
	if logger, ok := ctx.Value(loggerKey).(EventLogger); ok {
		return logger
	}
	return &noOpLogger{}
}

// noOpLogger is a logger that does nothing (fallback when no logger in context)
type noOpLogger struct{}

func (l *noOpLogger) Log(level, message string, metadata map[string]interface{}) {
	// Do nothing
}

// MultiLogger fans one event out to several loggers
type MultiLogger []EventLogger

func (m MultiLogger) Log(level, message string, metadata map[string]interface{}) {
	for _, l := range m {
		if l != nil {
			l.Log(level, message, metadata)
		}
	}
}

// LoggerFunc adapts a function to the EventLogger interface
type LoggerFunc func(level, message string, metadata map[string]interface{})

func (f LoggerFunc) Log(level, message string, metadata map[string]interface{}) {
	f(level, message, metadata)
}
