package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/orderdesk/backoffice/internal/domain/model"
	"github.com/orderdesk/backoffice/internal/domain/repository"
)

// CachedCatalog is a read-through decorator over a product catalog. Cache
// failures are logged and degrade to the inner catalog, never to an error.
type CachedCatalog struct {
	inner  repository.ProductCatalog
	cache  ProductCache
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedCatalog wraps a catalog with a cache.
func NewCachedCatalog(inner repository.ProductCatalog, cache ProductCache, ttl time.Duration, logger *slog.Logger) *CachedCatalog {
	return &CachedCatalog{inner: inner, cache: cache, ttl: ttl, logger: logger}
}

func catalogKey(ownerCompany, mappingCode string) string {
	return "catalog:" + ownerCompany + ":" + mappingCode
}

// Resolve serves from cache when possible, otherwise asks the inner catalog
// and remembers the answer. Misses in the inner catalog are not cached so a
// freshly registered product becomes visible immediately.
func (c *CachedCatalog) Resolve(ctx context.Context, ownerCompany, mappingCode string) (*model.Product, error) {
	key := catalogKey(ownerCompany, mappingCode)

	if cached, hit, err := c.cache.Get(ctx, key); err != nil {
		c.logger.Warn("catalog cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	} else if hit {
		return cached, nil
	}

	product, err := c.inner.Resolve(ctx, ownerCompany, mappingCode)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, key, product, c.ttl); err != nil {
		c.logger.Warn("catalog cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}

	return product, nil
}
