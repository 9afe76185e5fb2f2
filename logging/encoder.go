package logging

import (
	"time"

	"go.uber.org/zap/zapcore"
)

// timeEncoder formats timestamps with the configured layout.
func timeEncoder(config Config) zapcore.TimeEncoder {
	return func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.Format(config.TimeFormat))
	}
}

// getEncoder returns a zapcore.Encoder based on the config format.
func getEncoder(config Config) zapcore.Encoder {
	encoderConfig := zapcore.EncoderConfig{
		MessageKey:     "message",
		LevelKey:       "level",
		TimeKey:        "time",
		NameKey:        "logger",
		CallerKey:      "caller",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     timeEncoder(config),
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeName:     zapcore.FullNameEncoder,
	}
	if config.Format == "json" {
		return zapcore.NewJSONEncoder(encoderConfig)
	}
	return zapcore.NewConsoleEncoder(encoderConfig)
}

// buildCores creates the zap cores for the configured sinks.
func buildCores(config Config) []zapcore.Core {
	enabler := zapcore.LevelEnabler(config.TransportLevel())
	encoder := getEncoder(config)

	var cores []zapcore.Core
	if config.LogToFile {
		cores = append(cores, zapcore.NewCore(encoder, fileSyncer(config), enabler))
	}
	if config.LogInTerminal || len(cores) == 0 {
		cores = append(cores, zapcore.NewCore(encoder, stdoutSyncer(), enabler))
	}
	return cores
}
