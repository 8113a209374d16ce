package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/dropspots/internal/core/domain"
	"github.com/samirrijal/dropspots/internal/core/usecases"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// sessionData is the data member of a successful auth envelope.
type sessionData struct {
	Session domain.SessionTokens `json:"session"`
	User    *domain.User         `json:"user,omitempty"`
}

// SignUpHandler creates an account and returns its first session.
func SignUpHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req credentialsRequest
		if err := c.BodyParser(&req); err != nil {
			return authFail(c, fiber.StatusBadRequest, "invalid_request", "invalid request body")
		}

		user, tokens, err := deps.Auth.SignUp(c.UserContext(), req.Email, req.Password, req.Name)
		switch {
		case errors.Is(err, usecases.ErrInvalidInput):
			return authFail(c, fiber.StatusBadRequest, "invalid_input", err.Error())
		case errors.Is(err, usecases.ErrUserExists):
			return authFail(c, fiber.StatusConflict, "user_exists", "an account with this email already exists")
		case err != nil:
			LoggerFromCtx(c.UserContext()).Error("signup failed", "error", err)
			return authFail(c, fiber.StatusInternalServerError, "internal_error", "could not create account")
		}
		return authOK(c, sessionData{Session: tokens, User: user})
	}
}

// SignInHandler exchanges email and password for a session.
func SignInHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req credentialsRequest
		if err := c.BodyParser(&req); err != nil {
			return authFail(c, fiber.StatusBadRequest, "invalid_request", "invalid request body")
		}

		user, tokens, err := deps.Auth.SignIn(c.UserContext(), req.Email, req.Password)
		switch {
		case errors.Is(err, usecases.ErrInvalidCredentials):
			return authFail(c, fiber.StatusUnauthorized, "invalid_credentials", "email or password is incorrect")
		case err != nil:
			LoggerFromCtx(c.UserContext()).Error("signin failed", "error", err)
			return authFail(c, fiber.StatusInternalServerError, "internal_error", "could not sign in")
		}
		return authOK(c, sessionData{Session: tokens, User: user})
	}
}

// RefreshHandler rotates a refresh token into a new pair. Every failure to
// produce a pair is a 401 so clients treat it as the end of the session.
func RefreshHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req refreshRequest
		if err := c.BodyParser(&req); err != nil || req.RefreshToken == "" {
			return authFail(c, fiber.StatusUnauthorized, "invalid_refresh_token", "refresh_token is required")
		}

		tokens, err := deps.Auth.Refresh(c.UserContext(), req.RefreshToken)
		if err != nil {
			if !errors.Is(err, usecases.ErrInvalidRefresh) {
				LoggerFromCtx(c.UserContext()).Error("refresh failed", "error", err)
			}
			return authFail(c, fiber.StatusUnauthorized, "invalid_refresh_token", "refresh token is invalid or expired")
		}
		return authOK(c, sessionData{Session: tokens})
	}
}

// SignOutHandler revokes the caller's session. A storage error is logged
// and the call still succeeds; the access token expires on its own.
func SignOutHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := claimsFrom(c)
		if err := deps.Auth.SignOut(c.UserContext(), claims); err != nil {
			LoggerFromCtx(c.UserContext()).Warn("signout revoke failed", "session_id", claims.SessionID, "error", err)
		}
		return authOK(c, nil)
	}
}

// MeHandler returns the signed-in user's profile.
func MeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := deps.Auth.User(c.UserContext(), claimsFrom(c).UserID)
		if usecases.IsNotFound(err) {
			return errNotFound(c, "user not found")
		}
		if err != nil {
			LoggerFromCtx(c.UserContext()).Error("load user", "error", err)
			return errInternal(c)
		}
		return c.JSON(user)
	}
}
