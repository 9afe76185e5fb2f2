package logging

import (
	"os"
	"path/filepath"

	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// fileSyncer returns a rotating file sink for the configured directory.
func fileSyncer(config Config) zapcore.WriteSyncer {
	_ = os.MkdirAll(config.Directory, 0o755)

	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   filepath.Join(config.Directory, "tonika.log"),
		MaxSize:    config.MaxSize,
		MaxBackups: config.MaxBackups,
		MaxAge:     config.MaxAge,
		Compress:   config.Compress,
		LocalTime:  true,
	})
}

// stdoutSyncer returns the terminal sink.
func stdoutSyncer() zapcore.WriteSyncer {
	return zapcore.AddSync(os.Stdout)
}
