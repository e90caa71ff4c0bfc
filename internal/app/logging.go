package app

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/madeeasy/weave/internal/config"
)

// NewLogger builds the process logger from the log configuration.
func NewLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	zcfg := zap.NewProductionConfig()
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}
