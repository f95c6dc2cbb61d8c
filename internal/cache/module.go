package cache

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/orderdesk/backoffice/internal/config"
	"github.com/orderdesk/backoffice/internal/domain/repository"
	"github.com/orderdesk/backoffice/internal/storage/postgres"
)

// Module provides the product cache and the cached catalog repository.
var Module = fx.Options(
	fx.Provide(newProductCache),
	fx.Provide(func(cfg *config.Config, storage *postgres.Storage, c ProductCache, logger *slog.Logger) repository.ProductCatalog {
		return NewCachedCatalog(storage.Catalog(), c, cfg.CatalogCacheTTL, logger)
	}),
)

func newProductCache(lc fx.Lifecycle, cfg *config.Config, logger *slog.Logger) ProductCache {
	if cfg.RedisAddress == "" {
		return NoopProductCache{}
	}

	redisCache := NewRedisProductCache(cfg.RedisAddress, cfg.RedisPassword, cfg.RedisDB)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := redisCache.Ping(ctx); err != nil {
				logger.Warn("redis unreachable, catalog caching degraded", slog.String("error", err.Error()))
			}
			return nil
		},
		OnStop: func(context.Context) error {
			return redisCache.Close()
		},
	})
	return redisCache
}
