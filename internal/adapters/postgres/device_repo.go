package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/dropspots/internal/core/domain"
)

// DeviceRepo implements ports.DeviceRepository with pgx.
type DeviceRepo struct {
	db *DB
}

// NewDeviceRepo creates a new DeviceRepo.
func NewDeviceRepo(db *DB) *DeviceRepo {
	return &DeviceRepo{db: db}
}

// Upsert registers a push token. A token that moves to another user is
// reassigned.
func (r *DeviceRepo) Upsert(ctx context.Context, d *domain.Device) error {
	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO devices (token, user_id, platform)
		VALUES ($1, $2, NULLIF($3, ''))
		ON CONFLICT (token) DO UPDATE
		SET user_id = EXCLUDED.user_id, platform = EXCLUDED.platform, updated_at = now()
		RETURNING created_at
	`, d.Token, d.UserID, d.Platform).Scan(&d.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert device: %w", err)
	}
	return nil
}

// ListByUser returns every device registered to a user.
func (r *DeviceRepo) ListByUser(ctx context.Context, userID string) ([]domain.Device, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT user_id, token, COALESCE(platform, ''), created_at
		FROM devices WHERE user_id = $1
		ORDER BY created_at
	`, userID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Device, error) {
		var d domain.Device
		err := row.Scan(&d.UserID, &d.Token, &d.Platform, &d.CreatedAt)
		return d, err
	})
}

// DeleteTokens removes tokens the push provider reported as dead.
func (r *DeviceRepo) DeleteTokens(ctx context.Context, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	if _, err := r.db.Pool.Exec(ctx, `DELETE FROM devices WHERE token = ANY($1)`, tokens); err != nil {
		return fmt.Errorf("delete device tokens: %w", err)
	}
	return nil
}
