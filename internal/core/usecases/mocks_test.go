package usecases_test

import (
	"context"
	"sync"
	"time"

	"github.com/samirrijal/dropspots/internal/core/domain"
)

// --- Mock UserRepository ---

type mockUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User

	createFn func(ctx context.Context, u *domain.User) error
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*domain.User)}
}

func (m *mockUserRepo) Create(ctx context.Context, u *domain.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, u)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return domain.ErrDuplicate
		}
	}
	u.ID = "user-" + u.Email
	u.CreatedAt = time.Now()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

// --- Mock RefreshTokenStore ---

type mockRefreshStore struct {
	mu       sync.Mutex
	records  map[string]domain.RefreshRecord
	sessions map[string]string
}

func newMockRefreshStore() *mockRefreshStore {
	return &mockRefreshStore{records: map[string]domain.RefreshRecord{}, sessions: map[string]string{}}
}

func (m *mockRefreshStore) Save(ctx context.Context, hash string, rec domain.RefreshRecord, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[hash] = rec
	m.sessions[rec.SessionID] = hash
	return nil
}

func (m *mockRefreshStore) Take(ctx context.Context, hash string) (*domain.RefreshRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[hash]
	if !ok {
		return nil, nil
	}
	delete(m.records, hash)
	return &rec, nil
}

func (m *mockRefreshStore) RevokeSession(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if hash, ok := m.sessions[sessionID]; ok {
		delete(m.records, hash)
		delete(m.sessions, sessionID)
	}
	return nil
}

// --- Mock SpotRepository ---

type mockSpotRepo struct {
	createFn     func(ctx context.Context, s *domain.Spot) error
	getByIDFn    func(ctx context.Context, id string) (*domain.Spot, error)
	findNearbyFn func(ctx context.Context, lat, lon, radius float64, status domain.SpotStatus, limit int) ([]domain.Spot, error)
	setStatusFn  func(ctx context.Context, id string, status domain.SpotStatus) error
}

func (m *mockSpotRepo) Create(ctx context.Context, s *domain.Spot) error {
	if m.createFn != nil {
		return m.createFn(ctx, s)
	}
	s.ID = "spot-1"
	return nil
}

func (m *mockSpotRepo) GetByID(ctx context.Context, id string) (*domain.Spot, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockSpotRepo) FindNearby(ctx context.Context, lat, lon, radius float64, status domain.SpotStatus, limit int) ([]domain.Spot, error) {
	if m.findNearbyFn != nil {
		return m.findNearbyFn(ctx, lat, lon, radius, status, limit)
	}
	return nil, nil
}

func (m *mockSpotRepo) SetStatus(ctx context.Context, id string, status domain.SpotStatus) error {
	if m.setStatusFn != nil {
		return m.setStatusFn(ctx, id, status)
	}
	return nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	mu        sync.Mutex
	submitted []*domain.SpotEvent
	reviewed  []*domain.SpotEvent
	err       error
}

func (m *mockPublisher) PublishSpotSubmitted(ctx context.Context, e *domain.SpotEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submitted = append(m.submitted, e)
	return m.err
}

func (m *mockPublisher) PublishSpotReviewed(ctx context.Context, e *domain.SpotEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reviewed = append(m.reviewed, e)
	return m.err
}

// --- Mock CacheService ---

type mockCache struct {
	data map[string][]byte
}

func newMockCache() *mockCache { return &mockCache{data: map[string][]byte{}} }

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttl int) error {
	m.data[key] = value
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

// --- Mock DeviceRepository ---

type mockDeviceRepo struct {
	upsertFn func(ctx context.Context, d *domain.Device) error
}

func (m *mockDeviceRepo) Upsert(ctx context.Context, d *domain.Device) error {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, d)
	}
	return nil
}

func (m *mockDeviceRepo) ListByUser(ctx context.Context, userID string) ([]domain.Device, error) {
	return nil, nil
}

func (m *mockDeviceRepo) DeleteTokens(ctx context.Context, tokens []string) error { return nil }
