package http

import (
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/dropspots/internal/adapters/postgres"
	"github.com/samirrijal/dropspots/internal/adapters/valkey"
	"github.com/samirrijal/dropspots/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Spots   *usecases.SpotService
	Auth    *usecases.AuthService
	Devices *usecases.DeviceService
	NATS    *nats.Conn
	DB      *postgres.DB
	Cache   *valkey.Cache

	// APIKeys accepted in x-api-key. Empty disables the check.
	APIKeys []string
}
