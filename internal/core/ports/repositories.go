package ports

import (
	"context"
	"time"

	"github.com/samirrijal/dropspots/internal/core/domain"
)

// SpotRepository persists spots.
type SpotRepository interface {
	Create(ctx context.Context, spot *domain.Spot) error
	GetByID(ctx context.Context, id string) (*domain.Spot, error)
	// FindNearby returns spots in the given status within radiusMeters, nearest first.
	FindNearby(ctx context.Context, lat, lon, radiusMeters float64, status domain.SpotStatus, limit int) ([]domain.Spot, error)
	SetStatus(ctx context.Context, id string, status domain.SpotStatus) error
}

// UserRepository persists accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// DeviceRepository persists push registrations.
type DeviceRepository interface {
	Upsert(ctx context.Context, device *domain.Device) error
	ListByUser(ctx context.Context, userID string) ([]domain.Device, error)
	DeleteTokens(ctx context.Context, tokens []string) error
}

// RefreshTokenStore keeps outstanding refresh tokens keyed by their hash.
type RefreshTokenStore interface {
	Save(ctx context.Context, tokenHash string, rec domain.RefreshRecord, ttl time.Duration) error
	// Take returns and removes the record, so each refresh token is single-use.
	Take(ctx context.Context, tokenHash string) (*domain.RefreshRecord, error)
	RevokeSession(ctx context.Context, sessionID string) error
}
