package usecases

import (
	"context"
	"fmt"
	"strings"

	"github.com/samirrijal/dropspots/internal/core/domain"
	"github.com/samirrijal/dropspots/internal/core/ports"
)

var platforms = map[string]bool{"ios": true, "android": true, "web": true}

// DeviceService manages push registrations.
type DeviceService struct {
	devices ports.DeviceRepository
}

// NewDeviceService creates a new DeviceService.
func NewDeviceService(devices ports.DeviceRepository) *DeviceService {
	return &DeviceService{devices: devices}
}

// Register attaches a push token to a user.
func (s *DeviceService) Register(ctx context.Context, userID, token, platform string) (*domain.Device, error) {
	token = strings.TrimSpace(token)
	if token == "" || len(token) > 4096 {
		return nil, fmt.Errorf("%w: token is required", ErrInvalidInput)
	}
	platform = strings.ToLower(strings.TrimSpace(platform))
	if platform != "" && !platforms[platform] {
		return nil, fmt.Errorf("%w: platform must be ios, android or web", ErrInvalidInput)
	}

	d := &domain.Device{UserID: userID, Token: token, Platform: platform}
	if err := s.devices.Upsert(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}
