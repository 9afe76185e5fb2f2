package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Hook is called for each log entry. Useful for test capture, alerting
// and metrics.
type Hook func(entry zapcore.Entry) error

// hookCore wraps a zapcore.Core and calls hooks on each log entry.
type hookCore struct {
	zapcore.Core
	hooks []Hook
}

// Check implements zapcore.Core.
func (c *hookCore) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return ce.AddCore(entry, c)
	}
	return ce
}

// Write implements zapcore.Core.
func (c *hookCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	for _, hook := range c.hooks {
		// Hook errors must not break logging.
		_ = hook(entry)
	}
	return c.Core.Write(entry, fields)
}

// With implements zapcore.Core.
func (c *hookCore) With(fields []zapcore.Field) zapcore.Core {
	return &hookCore{
		Core:  c.Core.With(fields),
		hooks: c.hooks,
	}
}

// WithHooks creates a new Logger with the given hooks attached.
func WithHooks(logger Logger, hooks ...Hook) Logger {
	if len(hooks) == 0 {
		return logger
	}

	core := &hookCore{
		Core:  logger.Zap().Core(),
		hooks: hooks,
	}
	return newZapLogger(zap.New(core))
}
