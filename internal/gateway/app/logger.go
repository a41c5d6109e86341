package app

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"codenote/internal/gateway/config"
)

// NewLogger returns a console logger for local runs and JSON elsewhere.
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.IsLocal() {
		zc = zap.NewDevelopmentConfig()
	}
	if lvl := strings.TrimSpace(cfg.LogLevel); lvl != "" {
		parsed, err := zapcore.ParseLevel(lvl)
		if err != nil {
			return nil, err
		}
		zc.Level = zap.NewAtomicLevelAt(parsed)
	}
	return zc.Build()
}
