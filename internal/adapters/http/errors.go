package http

import "github.com/gofiber/fiber/v2"

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // bad_request, not_found, internal_error, ...
	Message   string `json:"message"` // Human-readable message
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, "bad_request", msg)
}

func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusNotFound, "not_found", msg)
}

// errInternal hides the cause from the client; log it before calling.
func errInternal(c *fiber.Ctx) error {
	return newError(c, fiber.StatusInternalServerError, "internal_error", "internal server error")
}

func errUnauthorized(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusUnauthorized, "unauthorized", msg)
}

// AuthEnvelope is the body of every auth endpoint response.
type AuthEnvelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *AuthError `json:"error,omitempty"`
}

// AuthError describes a failed auth call.
type AuthError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func authOK(c *fiber.Ctx, data any) error {
	return c.JSON(AuthEnvelope{Success: true, Data: data})
}

func authFail(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(AuthEnvelope{Error: &AuthError{Code: code, Message: message}})
}
