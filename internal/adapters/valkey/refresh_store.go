package valkey

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/samirrijal/dropspots/internal/core/domain"
)

const (
	refreshPrefix = "refresh:"
	sessionPrefix = "session:"
)

// RefreshStore implements ports.RefreshTokenStore. Each outstanding token
// lives under refresh:<hash>, and session:<id> points at the current hash so
// a session can be revoked without knowing its token.
type RefreshStore struct {
	client valkey.Client
}

// NewRefreshStore shares the connection of an existing Cache.
func NewRefreshStore(c *Cache) *RefreshStore {
	return &RefreshStore{client: c.client}
}

// Save records a refresh token for ttl.
func (s *RefreshStore) Save(ctx context.Context, tokenHash string, rec domain.RefreshRecord, ttl time.Duration) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode refresh record: %w", err)
	}

	b := s.client.B()
	results := s.client.DoMulti(ctx,
		b.Set().Key(refreshPrefix+tokenHash).Value(valkey.BinaryString(data)).Ex(ttl).Build(),
		b.Set().Key(sessionPrefix+rec.SessionID).Value(tokenHash).Ex(ttl).Build(),
	)
	for _, r := range results {
		if err := r.Error(); err != nil {
			return fmt.Errorf("save refresh token: %w", err)
		}
	}
	return nil
}

// Take atomically removes and returns the record for tokenHash. It returns
// nil, nil when the token is unknown, expired, or already used.
func (s *RefreshStore) Take(ctx context.Context, tokenHash string) (*domain.RefreshRecord, error) {
	data, err := s.client.Do(ctx, s.client.B().Getdel().Key(refreshPrefix+tokenHash).Build()).AsBytes()
	if valkey.IsValkeyNil(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("take refresh token: %w", err)
	}

	var rec domain.RefreshRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode refresh record: %w", err)
	}
	return &rec, nil
}

// RevokeSession deletes the outstanding refresh token of a session, if any.
func (s *RefreshStore) RevokeSession(ctx context.Context, sessionID string) error {
	hash, err := s.client.Do(ctx, s.client.B().Getdel().Key(sessionPrefix+sessionID).Build()).ToString()
	if valkey.IsValkeyNil(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	if err := s.client.Do(ctx, s.client.B().Del().Key(refreshPrefix+hash).Build()).Error(); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}
