package ports

import (
	"context"

	"github.com/samirrijal/districtmap/internal/core/domain"
)

// EventPublisher publishes map events to a message broker.
type EventPublisher interface {
	PublishDatasetUpdated(ctx context.Context, u *domain.DatasetUpdate) error
	PublishMapUpdated(ctx context.Context, u *domain.MapUpdate) error
}

// EventSubscriber subscribes to map events from a message broker.
type EventSubscriber interface {
	SubscribeDatasetUpdates(ctx context.Context, handler func(ctx context.Context, u *domain.DatasetUpdate) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
