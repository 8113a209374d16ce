package session

import (
	"context"
	"errors"
	"net/http"
)

// TokenSource supplies access tokens to a Transport. *Manager implements it.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
	SignOut(ctx context.Context) error
}

// Transport is an http.RoundTripper that attaches the API key and, when a
// session exists, a bearer token to every request.
//
// The auth client used as the Manager's Remote must not go through a
// Transport backed by the same Manager.
type Transport struct {
	Tokens TokenSource
	APIKey string
	Base   http.RoundTripper
}

// NewTransport wraps base (http.DefaultTransport when nil).
func NewTransport(tokens TokenSource, apiKey string, base http.RoundTripper) *Transport {
	return &Transport{Tokens: tokens, APIKey: apiKey, Base: base}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	r := req.Clone(ctx)
	if t.APIKey != "" {
		r.Header.Set("x-api-key", t.APIKey)
	}

	token, err := t.Tokens.AccessToken(ctx)
	switch {
	case err == nil:
		r.Header.Set("Authorization", "Bearer "+token)
	case errors.Is(err, ErrNoSession):
	case errors.Is(err, ErrRefreshFailed):
		_ = t.Tokens.SignOut(ctx)
	default:
		if req.Body != nil {
			req.Body.Close()
		}
		return nil, err
	}

	return t.base().RoundTrip(r)
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}
