package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/samirrijal/dropspots/internal/core/domain"
	"github.com/samirrijal/dropspots/internal/session"
)

// envelope is the response body of the auth endpoints.
type envelope[T any] struct {
	Success bool `json:"success"`
	Data    *T   `json:"data,omitempty"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type sessionData struct {
	Session domain.SessionTokens `json:"session"`
	User    *domain.User         `json:"user,omitempty"`
}

// AuthAPI calls the auth endpoints. It implements session.Remote.
//
// The http.Client given to AuthAPI must not carry a session.Transport,
// since refreshing is what that transport would trigger.
type AuthAPI struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewAuthAPI creates an AuthAPI. An empty baseURL makes every call return
// session.ErrUnconfigured.
func NewAuthAPI(baseURL, apiKey string, hc *http.Client) *AuthAPI {
	return &AuthAPI{baseURL: baseURL, apiKey: apiKey, http: defaultHTTPClient(hc)}
}

// Refresh exchanges refreshToken for a new token pair.
func (a *AuthAPI) Refresh(ctx context.Context, refreshToken string) (domain.SessionTokens, error) {
	data, err := a.post(ctx, "/refresh", "", map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return domain.SessionTokens{}, fmt.Errorf("refresh: %w", err)
	}
	return data.Session, nil
}

// SignOut tells the server to revoke the session behind accessToken.
func (a *AuthAPI) SignOut(ctx context.Context, accessToken string) error {
	if a.baseURL == "" {
		return session.ErrUnconfigured
	}
	req, err := newJSONRequest(ctx, http.MethodPost, a.baseURL, "/signout", nil)
	if err != nil {
		return err
	}
	a.authorize(req, accessToken)

	resp, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("signout: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("signout: %w", decodeError(resp))
	}
	return nil
}

// SignIn authenticates with email and password.
func (a *AuthAPI) SignIn(ctx context.Context, email, password string) (domain.SessionTokens, *domain.User, error) {
	data, err := a.post(ctx, "/signin", "", map[string]string{"email": email, "password": password})
	if err != nil {
		return domain.SessionTokens{}, nil, fmt.Errorf("signin: %w", err)
	}
	return data.Session, data.User, nil
}

// SignUp creates an account and returns its first session.
func (a *AuthAPI) SignUp(ctx context.Context, email, password, name string) (domain.SessionTokens, *domain.User, error) {
	body := map[string]string{"email": email, "password": password, "name": name}
	data, err := a.post(ctx, "/signup", "", body)
	if err != nil {
		return domain.SessionTokens{}, nil, fmt.Errorf("signup: %w", err)
	}
	return data.Session, data.User, nil
}

func (a *AuthAPI) post(ctx context.Context, path, bearer string, body any) (*sessionData, error) {
	if a.baseURL == "" {
		return nil, session.ErrUnconfigured
	}
	req, err := newJSONRequest(ctx, http.MethodPost, a.baseURL, path, body)
	if err != nil {
		return nil, err
	}
	a.authorize(req, bearer)

	resp, err := a.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}

	var env envelope[sessionData]
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if !env.Success || env.Data == nil {
		if env.Error != nil {
			return nil, &APIError{Status: resp.StatusCode, Code: env.Error.Code, Message: env.Error.Message}
		}
		return nil, errors.New("unsuccessful response")
	}
	return env.Data, nil
}

func (a *AuthAPI) authorize(req *http.Request, bearer string) {
	if a.apiKey != "" {
		req.Header.Set("x-api-key", a.apiKey)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
}
