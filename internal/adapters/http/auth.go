package http

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/dropspots/internal/core/domain"
	"github.com/samirrijal/dropspots/internal/core/usecases"
)

const (
	apiKeyHeader = "x-api-key"
	claimsKey    = "claims"
)

// APIKeyMiddleware rejects requests whose x-api-key is not one of keys.
// The api_key query parameter is accepted too, since browsers cannot set
// headers on a WebSocket upgrade. With no keys configured every request
// passes.
func APIKeyMiddleware(keys []string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if len(keys) == 0 {
			return c.Next()
		}
		key := c.Get(apiKeyHeader)
		if key == "" {
			key = c.Query("api_key")
		}
		got := []byte(key)
		for _, k := range keys {
			if subtle.ConstantTimeCompare(got, []byte(k)) == 1 {
				return c.Next()
			}
		}
		return errUnauthorized(c, "missing or invalid api key")
	}
}

// BearerMiddleware requires a valid access token and stores its claims for
// claimsFrom. deny writes the rejection, so auth routes can answer with
// their envelope.
func BearerMiddleware(auth *usecases.AuthService, deny func(c *fiber.Ctx, msg string) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return deny(c, "missing bearer token")
		}
		claims, err := auth.ValidateAccess(token)
		if err != nil {
			return deny(c, "invalid or expired access token")
		}
		c.Locals(claimsKey, claims)
		return c.Next()
	}
}

func denyAuth(c *fiber.Ctx, msg string) error {
	return authFail(c, fiber.StatusUnauthorized, "unauthorized", msg)
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func claimsFrom(c *fiber.Ctx) *domain.AccessClaims {
	claims, _ := c.Locals(claimsKey).(*domain.AccessClaims)
	return claims
}
