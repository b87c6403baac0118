package app

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/oggyb/run-together/internal/cache"
	"github.com/oggyb/run-together/internal/config"
	"github.com/oggyb/run-together/internal/matching"
)

// AppContext holds shared dependencies (Config, DB, Redis, Logger, etc.)
type AppContext struct {
	Config     *config.Config
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Logger     *slog.Logger

	// Weights are the default scoring weights, built once from Config.
	Weights matching.Weights
}

// New creates a new AppContext
func New(cfg *config.Config, db *gorm.DB, rdb *cache.RedisCache, logger *slog.Logger) *AppContext {
	w := matching.DefaultWeights()
	if cfg != nil {
		fromCfg := matching.Weights{
			Time:  cfg.Match.WeightTime,
			Level: cfg.Match.WeightLevel,
			City:  cfg.Match.WeightCity,
		}
		if fromCfg.Valid() {
			w = fromCfg
		}
	}
	return &AppContext{
		Config:     cfg,
		DB:         db,
		RedisCache: rdb,
		Logger:     logger,
		Weights:    w,
	}
}
