package config

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the root logger for the configured level and mode.
func NewLogger(c LogConfig) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if c.Level != "" {
		var err error
		level, err = zapcore.ParseLevel(c.Level)
		if err != nil {
			return nil, fmt.Errorf("LOG_LEVEL: %w", err)
		}
	}

	zc := zap.NewProductionConfig()
	if c.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("zc.Build: %w", err)
	}

	return logger.Named("dbxquery"), nil
}
