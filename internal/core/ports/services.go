package ports

import (
	"context"

	"github.com/samirrijal/dropspots/internal/core/domain"
)

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishSpotSubmitted(ctx context.Context, event *domain.SpotEvent) error
	PublishSpotReviewed(ctx context.Context, event *domain.SpotEvent) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribeSpotSubmitted(ctx context.Context, handler func(ctx context.Context, event *domain.SpotEvent) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// NotificationService sends notifications (push, email, etc.).
type NotificationService interface {
	SendPush(ctx context.Context, userID, title, body string) error
}
