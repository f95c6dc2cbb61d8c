package cache

import (
	"context"
	"time"

	"github.com/orderdesk/backoffice/internal/domain/model"
)

// ProductCache stores resolved catalog entries keyed by owner and mapping code.
type ProductCache interface {
	Get(ctx context.Context, key string) (*model.Product, bool, error)
	Set(ctx context.Context, key string, value *model.Product, ttl time.Duration) error
}

// NoopProductCache is used when no Redis address is configured.
type NoopProductCache struct{}

func (NoopProductCache) Get(_ context.Context, _ string) (*model.Product, bool, error) {
	return nil, false, nil
}

func (NoopProductCache) Set(_ context.Context, _ string, _ *model.Product, _ time.Duration) error {
	return nil
}
