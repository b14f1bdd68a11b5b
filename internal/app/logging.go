package app

import (
	"go.uber.org/zap"

	"github.com/dshills/foldlayer/internal/config"
)

// NewLogger builds the zap logger described by cfg. Development loggers
// write human-readable console output; production loggers write JSON.
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	var zc zap.Config
	if cfg.Logging.Development {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(cfg.LogLevel())
	zc.OutputPaths = []string{"stderr"}
	return zc.Build()
}
