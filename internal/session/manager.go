package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/samirrijal/dropspots/internal/core/domain"
)

var (
	// ErrNoSession means there is no usable session; the caller is anonymous.
	ErrNoSession = errors.New("session: not signed in")
	// ErrNoRefreshToken means a refresh was requested without a stored refresh token.
	ErrNoRefreshToken = errors.New("session: no refresh token")
	// ErrRefreshFailed means the auth service rejected or failed the refresh.
	// The session has been cleared when it is returned.
	ErrRefreshFailed = errors.New("session: refresh failed")
	// ErrUnconfigured is returned by a Remote that has no base URL.
	ErrUnconfigured = errors.New("session: auth endpoint not configured")
)

// State is the lifecycle position of the local session.
type State int

const (
	Anonymous State = iota
	Authenticated
	Stale
)

func (s State) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	case Stale:
		return "stale"
	default:
		return "anonymous"
	}
}

// Remote is the auth service as seen from the client.
type Remote interface {
	Refresh(ctx context.Context, refreshToken string) (domain.SessionTokens, error)
	SignOut(ctx context.Context, accessToken string) error
}

// Manager owns the stored session: it validates, refreshes and clears tokens.
// One Manager is created at startup and passed to whatever needs it.
type Manager struct {
	log       *slog.Logger
	store     Store
	remote    Remote
	now       func() time.Time
	onSignOut func(ctx context.Context)

	refreshes singleflight.Group
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithSignOutHook registers a callback run after every sign-out,
// explicit or forced by a failed refresh.
func WithSignOutHook(fn func(ctx context.Context)) Option {
	return func(m *Manager) { m.onSignOut = fn }
}

// NewManager creates a Manager over store and remote.
func NewManager(log *slog.Logger, store Store, remote Remote, opts ...Option) *Manager {
	if log == nil {
		log = slog.Default()
	}
	m := &Manager{
		log:    log.With("component", "session"),
		store:  store,
		remote: remote,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Check classifies an access token against the manager's clock.
func (m *Manager) Check(token string) TokenState {
	return CheckToken(token, m.now())
}

// IsExpired reports whether token must be refreshed before use.
// Malformed tokens count as expired.
func (m *Manager) IsExpired(token string) bool {
	return m.Check(token) != TokenValid
}

// Save persists a freshly issued session. user may be nil.
func (m *Manager) Save(ctx context.Context, tokens domain.SessionTokens, user *domain.User) error {
	if err := m.persist(ctx, tokens); err != nil {
		return err
	}
	if user == nil {
		return nil
	}
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if err := m.store.Set(ctx, KeyUserData, string(raw)); err != nil {
		return fmt.Errorf("store user: %w", err)
	}
	return nil
}

// User returns the stored profile, or nil when none is stored.
func (m *Manager) User(ctx context.Context) (*domain.User, error) {
	raw, err := m.store.Get(ctx, KeyUserData)
	if err != nil {
		return nil, fmt.Errorf("read user: %w", err)
	}
	if raw == "" {
		return nil, nil
	}
	var u domain.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return &u, nil
}

// State reports the session state from storage alone, without network calls.
func (m *Manager) State(ctx context.Context) (State, error) {
	access, err := m.store.Get(ctx, KeyAccessToken)
	if err != nil {
		return Anonymous, fmt.Errorf("read access token: %w", err)
	}
	if access == "" {
		refresh, err := m.store.Get(ctx, KeyRefreshToken)
		if err != nil {
			return Anonymous, fmt.Errorf("read refresh token: %w", err)
		}
		if refresh == "" {
			return Anonymous, nil
		}
		return Stale, nil
	}
	if m.IsExpired(access) {
		return Stale, nil
	}
	return Authenticated, nil
}

// Restore brings a previously stored session back at startup, refreshing it
// if it went stale. A session that cannot be refreshed ends up Anonymous.
func (m *Manager) Restore(ctx context.Context) (State, error) {
	st, err := m.State(ctx)
	if err != nil || st != Stale {
		return st, err
	}

	_, err = m.Refresh(ctx)
	switch {
	case err == nil:
		return Authenticated, nil
	case errors.Is(err, ErrNoRefreshToken), errors.Is(err, ErrRefreshFailed):
		m.log.Info("stored session could not be restored", "error", err)
		return Anonymous, nil
	default:
		return Stale, err
	}
}

// AccessToken returns a usable access token, refreshing the stored one when it
// is stale. It returns ErrNoSession when there is nothing to refresh.
func (m *Manager) AccessToken(ctx context.Context) (string, error) {
	access, err := m.store.Get(ctx, KeyAccessToken)
	if err != nil {
		return "", fmt.Errorf("read access token: %w", err)
	}
	if access != "" && !m.IsExpired(access) {
		return access, nil
	}

	token, err := m.Refresh(ctx)
	if errors.Is(err, ErrNoRefreshToken) {
		return "", ErrNoSession
	}
	return token, err
}

// Refresh exchanges the stored refresh token for a new pair and returns the
// new access token. Concurrent callers share a single remote call. On failure
// the session is cleared and ErrRefreshFailed is returned.
func (m *Manager) Refresh(ctx context.Context) (string, error) {
	ch := m.refreshes.DoChan("refresh", func() (any, error) {
		// The shared call outlives any single caller's cancellation.
		return m.refresh(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (m *Manager) refresh(ctx context.Context) (string, error) {
	refreshToken, err := m.store.Get(ctx, KeyRefreshToken)
	if err != nil {
		return "", fmt.Errorf("read refresh token: %w", err)
	}
	if refreshToken == "" {
		return "", ErrNoRefreshToken
	}

	tokens, err := m.remote.Refresh(ctx, refreshToken)
	if errors.Is(err, ErrUnconfigured) {
		m.log.Warn("refresh skipped, auth endpoint not configured")
		return "", ErrNoRefreshToken
	}
	if err == nil && (tokens.AccessToken == "" || tokens.RefreshToken == "") {
		err = errors.New("incomplete token pair")
	}
	if err == nil {
		err = m.persist(ctx, tokens)
	}
	if err != nil {
		m.log.Warn("token refresh failed, clearing session", "error", err)
		if cerr := m.clear(ctx); cerr != nil {
			m.log.Error("clear session", "error", cerr)
		}
		return "", fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	m.log.Debug("token refreshed", "expires_at", tokens.ExpiresAt)
	return tokens.AccessToken, nil
}

// SignOut notifies the auth service, then clears local state regardless of
// the outcome and runs the sign-out hook. Only a local storage failure is
// returned.
func (m *Manager) SignOut(ctx context.Context) error {
	access, err := m.store.Get(ctx, KeyAccessToken)
	if err != nil {
		m.log.Warn("read access token for sign-out", "error", err)
	}
	if access != "" {
		if err := m.remote.SignOut(ctx, access); err != nil && !errors.Is(err, ErrUnconfigured) {
			m.log.Warn("remote sign-out failed", "error", err)
		}
	}

	err = m.clear(ctx)
	if m.onSignOut != nil {
		m.onSignOut(ctx)
	}
	return err
}

func (m *Manager) persist(ctx context.Context, tokens domain.SessionTokens) error {
	if err := m.store.Set(ctx, KeyAccessToken, tokens.AccessToken); err != nil {
		return fmt.Errorf("store access token: %w", err)
	}
	if err := m.store.Set(ctx, KeyRefreshToken, tokens.RefreshToken); err != nil {
		return fmt.Errorf("store refresh token: %w", err)
	}
	return nil
}

func (m *Manager) clear(ctx context.Context) error {
	return errors.Join(
		m.store.Set(ctx, KeyAccessToken, ""),
		m.store.Set(ctx, KeyRefreshToken, ""),
		m.store.Set(ctx, KeyUserData, ""),
	)
}
