package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/dropspots/internal/pkg/metrics"
)

const requestTimeout = 15 * time.Second

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{Level: compress.LevelBestSpeed}))
	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	// 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:          120,
		Expiration:   time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string { return c.IP() },
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())

	// Health and readiness stay outside the API key check.
	app.Get("/v1/health", HealthHandler())
	app.Get("/v1/ready", ReadyHandler(deps))

	SetupDocs(app, DefaultOpenAPIPath)

	apiKey := APIKeyMiddleware(deps.APIKeys)
	requireUser := BearerMiddleware(deps.Auth, errUnauthorized)

	v1 := app.Group("/v1", apiKey)

	// Password guessing gets a much smaller budget than reads.
	credentialLimit := limiter.New(limiter.Config{
		Max:          10,
		Expiration:   time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string { return c.IP() },
		LimitReached: func(c *fiber.Ctx) error {
			return authFail(c, fiber.StatusTooManyRequests, "rate_limited", "too many attempts, please try again later")
		},
	})
	v1.Post("/signup", credentialLimit, withTimeout(SignUpHandler(deps)))
	v1.Post("/signin", credentialLimit, withTimeout(SignInHandler(deps)))
	v1.Post("/refresh", withTimeout(RefreshHandler(deps)))
	v1.Post("/signout", BearerMiddleware(deps.Auth, denyAuth), withTimeout(SignOutHandler(deps)))
	v1.Get("/me", requireUser, withTimeout(MeHandler(deps)))

	v1.Get("/spots/nearby", withTimeout(NearbySpotsHandler(deps)))
	v1.Get("/spots/:id", withTimeout(GetSpotHandler(deps)))
	v1.Post("/spots", requireUser, withTimeout(SubmitSpotHandler(deps)))
	v1.Post("/devices", requireUser, withTimeout(RegisterDeviceHandler(deps)))

	app.Post("/graphql", apiKey, withTimeout(GraphQLHandler(deps)))

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", apiKey, websocket.New(WebSocketHandler(deps.NATS)))
}

func withTimeout(h fiber.Handler) fiber.Handler {
	return timeout.NewWithContext(h, requestTimeout)
}
