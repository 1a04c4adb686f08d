package cache

import (
	"os"

	"fetchit-auth/config"

	"github.com/umakantv/go-utils/cache"
	"github.com/umakantv/go-utils/logger"
	"go.uber.org/zap"
)

// InitializeCache connects the cache backing the authorization-code ledger.
// Returns nil when CACHE_TYPE is "none", which disables replay detection.
func InitializeCache(cfg config.ServerConfig) cache.Cache {
	if !cfg.LedgerEnabled() {
		logger.Info("Cache disabled, authorization-code replay detection is off")
		return nil
	}

	c, err := cache.New(cache.Config{
		Type:          cfg.CacheType,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
	})
	if err != nil {
		logger.Error("Failed to initialize cache:", zap.Error(err))
		os.Exit(1)
	}
	return c
}
