package logging

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerConfig controls the CLI logger.
type LoggerConfig struct {
	IsDebug       bool
	Output        io.Writer
	InitialFields []zap.Field
}

// New builds a console logger writing to cfg.Output. Info level by default,
// debug when cfg.IsDebug is set.
func New(cfg LoggerConfig) *zap.Logger {
	if cfg.Output == nil {
		cfg.Output = io.Discard
	}

	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	if cfg.IsDebug {
		level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(GetEncoderConfig()),
		zapcore.Lock(zapcore.AddSync(cfg.Output)),
		level,
	)

	return zap.New(core, zap.Fields(cfg.InitialFields...))
}

// GetEncoderConfig returns the console encoder layout used by the CLI.
func GetEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "",
		LevelKey:       "level",
		MessageKey:     "message",
		NameKey:        "logger",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeName:     zapcore.FullNameEncoder,
	}
}
