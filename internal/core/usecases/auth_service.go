package usecases

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/samirrijal/dropspots/internal/core/domain"
	"github.com/samirrijal/dropspots/internal/core/ports"
	"github.com/samirrijal/dropspots/internal/pkg/metrics"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidRefresh     = errors.New("refresh token is invalid or expired")
	ErrInvalidAccess      = errors.New("access token is invalid")
)

const (
	refreshTokenBytes = 48
	minPasswordLen    = 8
	maxPasswordLen    = 72 // bcrypt ignores anything longer
)

// AuthConfig configures token issuing.
type AuthConfig struct {
	Secret     []byte
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	BcryptCost int
}

type accessClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// AuthService issues, rotates and revokes sessions.
type AuthService struct {
	users   ports.UserRepository
	refresh ports.RefreshTokenStore
	cfg     AuthConfig
	now     func() time.Time

	dummyHash func() []byte
}

// NewAuthService creates a new AuthService.
func NewAuthService(users ports.UserRepository, refresh ports.RefreshTokenStore, cfg AuthConfig) *AuthService {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	s := &AuthService{users: users, refresh: refresh, cfg: cfg, now: time.Now}
	// Compared against for unknown emails so both paths cost one bcrypt.
	s.dummyHash = sync.OnceValue(func() []byte {
		h, _ := bcrypt.GenerateFromPassword([]byte("dropspots-dummy-password"), cfg.BcryptCost)
		return h
	})
	return s
}

// SignUp registers an account and opens its first session.
func (s *AuthService) SignUp(ctx context.Context, email, password, name string) (*domain.User, domain.SessionTokens, error) {
	user, tokens, err := s.signUp(ctx, email, password, name)
	metrics.AuthAttempts.WithLabelValues("signup", metrics.Result(err)).Inc()
	return user, tokens, err
}

func (s *AuthService) signUp(ctx context.Context, email, password, name string) (*domain.User, domain.SessionTokens, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil || addr.Address != strings.TrimSpace(email) {
		return nil, domain.SessionTokens{}, fmt.Errorf("%w: email is not valid", ErrInvalidInput)
	}
	if len(password) < minPasswordLen || len(password) > maxPasswordLen {
		return nil, domain.SessionTokens{}, fmt.Errorf("%w: password must be %d-%d characters", ErrInvalidInput, minPasswordLen, maxPasswordLen)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return nil, domain.SessionTokens{}, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{Email: addr.Address, Name: strings.TrimSpace(name), PasswordHash: hash}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, domain.SessionTokens{}, ErrUserExists
		}
		return nil, domain.SessionTokens{}, fmt.Errorf("create user: %w", err)
	}

	tokens, err := s.issue(ctx, user.ID, uuid.NewString())
	if err != nil {
		return nil, domain.SessionTokens{}, err
	}
	slog.InfoContext(ctx, "user signed up", "user_id", user.ID)
	return user, tokens, nil
}

// SignIn checks a password and opens a new session.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*domain.User, domain.SessionTokens, error) {
	user, tokens, err := s.signIn(ctx, email, password)
	metrics.AuthAttempts.WithLabelValues("signin", metrics.Result(err)).Inc()
	return user, tokens, err
}

func (s *AuthService) signIn(ctx context.Context, email, password string) (*domain.User, domain.SessionTokens, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash(), []byte(password))
		return nil, domain.SessionTokens{}, ErrInvalidCredentials
	}
	if err != nil {
		return nil, domain.SessionTokens{}, fmt.Errorf("find user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return nil, domain.SessionTokens{}, ErrInvalidCredentials
	}

	tokens, err := s.issue(ctx, user.ID, uuid.NewString())
	if err != nil {
		return nil, domain.SessionTokens{}, err
	}
	return user, tokens, nil
}

// Refresh rotates a refresh token: the presented token is consumed and a new
// pair for the same session is returned. Reusing a token fails.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (domain.SessionTokens, error) {
	tokens, err := s.rotate(ctx, refreshToken)
	metrics.TokenRefreshes.WithLabelValues(metrics.Result(err)).Inc()
	return tokens, err
}

func (s *AuthService) rotate(ctx context.Context, refreshToken string) (domain.SessionTokens, error) {
	if refreshToken == "" {
		return domain.SessionTokens{}, ErrInvalidRefresh
	}
	rec, err := s.refresh.Take(ctx, hashToken(refreshToken))
	if err != nil {
		return domain.SessionTokens{}, fmt.Errorf("load refresh token: %w", err)
	}
	if rec == nil {
		return domain.SessionTokens{}, ErrInvalidRefresh
	}
	return s.issue(ctx, rec.UserID, rec.SessionID)
}

// SignOut revokes the session's outstanding refresh token. The access token
// stays valid until it expires.
func (s *AuthService) SignOut(ctx context.Context, claims *domain.AccessClaims) error {
	err := s.refresh.RevokeSession(ctx, claims.SessionID)
	metrics.AuthAttempts.WithLabelValues("signout", metrics.Result(err)).Inc()
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// ValidateAccess verifies an access token's signature, issuer and expiry.
func (s *AuthService) ValidateAccess(token string) (*domain.AccessClaims, error) {
	var claims accessClaims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return s.cfg.Secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAccess, err)
	}
	if claims.Subject == "" || claims.SessionID == "" {
		return nil, ErrInvalidAccess
	}
	return &domain.AccessClaims{
		UserID:    claims.Subject,
		SessionID: claims.SessionID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// User returns the account behind a validated session.
func (s *AuthService) User(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *AuthService) issue(ctx context.Context, userID, sessionID string) (domain.SessionTokens, error) {
	now := s.now()
	exp := now.Add(s.cfg.AccessTTL)

	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}).SignedString(s.cfg.Secret)
	if err != nil {
		return domain.SessionTokens{}, fmt.Errorf("sign access token: %w", err)
	}

	raw := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return domain.SessionTokens{}, fmt.Errorf("generate refresh token: %w", err)
	}
	refresh := base64.RawURLEncoding.EncodeToString(raw)

	rec := domain.RefreshRecord{UserID: userID, SessionID: sessionID, IssuedAt: now}
	if err := s.refresh.Save(ctx, hashToken(refresh), rec, s.cfg.RefreshTTL); err != nil {
		return domain.SessionTokens{}, fmt.Errorf("store refresh token: %w", err)
	}

	return domain.SessionTokens{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    exp.Unix(),
	}, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
