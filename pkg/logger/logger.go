package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerConfig controls the level of loggers built by NewLogger.
type LoggerConfig struct {
	Debug bool
}

// NewLogger builds a JSON zap logger writing to stderr. Debug enables the
// debug level and development stack traces on warnings.
func NewLogger(c *LoggerConfig, options ...zap.Option) (*zap.Logger, error) {
	if c == nil {
		c = &LoggerConfig{}
	}

	level := zapcore.InfoLevel
	if c.Debug {
		level = zapcore.DebugLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      c.Debug,
		Encoding:         "json",
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	mergedOptions := append([]zap.Option{zap.AddCaller()}, options...)
	return cfg.Build(mergedOptions...)
}
