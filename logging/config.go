package logging

import (
	"strings"

	"go.uber.org/zap/zapcore"
)

// Config represents the logger configuration.
type Config struct {
	// Directory is where log files are stored.
	Directory string `mapstructure:"directory" json:"directory" yaml:"directory"`

	// Level is the minimum log level (debug, info, warn, error).
	Level string `mapstructure:"level" json:"level" yaml:"level"`

	// Format is the log format (json or console).
	Format string `mapstructure:"format" json:"format" yaml:"format"`

	// TimeFormat is the time format string (Go reference layout).
	TimeFormat string `mapstructure:"time-format" json:"timeFormat" yaml:"time-format"`

	// LogInTerminal enables logging to stdout in addition to file.
	LogInTerminal bool `mapstructure:"log-in-terminal" json:"logInTerminal" yaml:"log-in-terminal"`

	// LogToFile enables the rotating file sink.
	LogToFile bool `mapstructure:"log-to-file" json:"logToFile" yaml:"log-to-file"`

	// MaxAge is the maximum number of days to retain old log files.
	MaxAge int `mapstructure:"max-age" json:"maxAge" yaml:"max-age"`

	// MaxSize is the maximum size in megabytes before rotation.
	MaxSize int `mapstructure:"max-size" json:"maxSize" yaml:"max-size"`

	// MaxBackups is the maximum number of rotated files to retain.
	MaxBackups int `mapstructure:"max-backups" json:"maxBackups" yaml:"max-backups"`

	// Compress gzips rotated files.
	Compress bool `mapstructure:"compress" json:"compress" yaml:"compress"`

	// ShowCaller adds caller information to log entries.
	ShowCaller bool `mapstructure:"show-caller" json:"showCaller" yaml:"show-caller"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Directory:     "logs",
		Level:         "info",
		Format:        "console",
		TimeFormat:    "2006/01/02 - 15:04:05",
		LogInTerminal: true,
		LogToFile:     false,
		MaxAge:        7,
		MaxSize:       100,
		MaxBackups:    10,
		Compress:      true,
	}
}

// TransportLevel converts the string level to zapcore.Level.
func (c Config) TransportLevel() zapcore.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// applyDefaults applies default values to empty fields.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()

	if c.Directory == "" {
		c.Directory = defaults.Directory
	}
	if c.Level == "" {
		c.Level = defaults.Level
	}
	if c.Format == "" {
		c.Format = defaults.Format
	}
	if c.TimeFormat == "" {
		c.TimeFormat = defaults.TimeFormat
	}
	if c.MaxAge == 0 {
		c.MaxAge = defaults.MaxAge
	}
	if c.MaxSize == 0 {
		c.MaxSize = defaults.MaxSize
	}
	if c.MaxBackups == 0 {
		c.MaxBackups = defaults.MaxBackups
	}
}
