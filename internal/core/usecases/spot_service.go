package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/dropspots/internal/core/domain"
	"github.com/samirrijal/dropspots/internal/core/ports"
	"github.com/samirrijal/dropspots/internal/pkg/geospatial"
	"github.com/samirrijal/dropspots/internal/pkg/metrics"
	"github.com/samirrijal/dropspots/internal/pkg/telemetry"
	"github.com/samirrijal/dropspots/internal/pkg/units"
)

const (
	// DuplicateRadiusMeters is how close an approved spot must be for a new
	// submission to count as a duplicate.
	DuplicateRadiusMeters = 25.0

	maxNearbyRadius = 50000.0
	maxNameLen      = 120
	maxHeightFeet   = 1000.0
	nearbyCacheTTL  = 60
)

// SubmitSpotInput is a user's spot proposal as typed into the app.
type SubmitSpotInput struct {
	Name        string
	Description string
	Coordinates string
	Height      float64
	Unit        string
}

// SpotService handles spot discovery, submission and moderation.
type SpotService struct {
	spots     ports.SpotRepository
	cache     ports.CacheService
	publisher ports.EventPublisher
}

// NewSpotService creates a new SpotService. cache and publisher may be nil.
func NewSpotService(spots ports.SpotRepository, cache ports.CacheService, publisher ports.EventPublisher) *SpotService {
	return &SpotService{spots: spots, cache: cache, publisher: publisher}
}

// Nearby returns approved spots within radiusMeters of p, nearest first.
func (s *SpotService) Nearby(ctx context.Context, p domain.GeoPoint, radiusMeters float64, limit int) ([]domain.Spot, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "SpotService.Nearby")
	defer span.End()

	if !p.Valid() {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, geospatial.ErrInvalidCoordinates)
	}
	if !(radiusMeters > 0 && radiusMeters <= maxNearbyRadius) {
		return nil, fmt.Errorf("%w: radius must be between 1 and %.0f meters", ErrInvalidInput, maxNearbyRadius)
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	span.SetAttributes(
		attribute.Float64("geo.lat", p.Lat),
		attribute.Float64("geo.lon", p.Lon),
		attribute.Float64("geo.radius_m", radiusMeters),
	)

	// Try cache
	cacheKey := fmt.Sprintf("spots:nearby:%.4f:%.4f:%.0f:%d", p.Lat, p.Lon, radiusMeters, limit)
	if s.cache != nil {
		data, err := s.cache.Get(ctx, cacheKey)
		if err == nil {
			var spots []domain.Spot
			if err := json.Unmarshal(data, &spots); err == nil {
				metrics.CacheHits.WithLabelValues("spots_nearby").Inc()
				return spots, nil
			}
		} else if !errors.Is(err, domain.ErrNotFound) {
			slog.WarnContext(ctx, "nearby cache read", "error", err)
		}
		metrics.CacheMisses.WithLabelValues("spots_nearby").Inc()
	}

	spots, err := s.spots.FindNearby(ctx, p.Lat, p.Lon, radiusMeters, domain.SpotApproved, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "find nearby")
		return nil, err
	}
	span.SetAttributes(attribute.Int("spots.count", len(spots)))

	// Short TTL: moderation decisions should show up quickly
	if s.cache != nil {
		if data, err := json.Marshal(spots); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, nearbyCacheTTL)
		}
	}

	return spots, nil
}

// Get returns a single spot.
func (s *SpotService) Get(ctx context.Context, id string) (*domain.Spot, error) {
	return s.spots.GetByID(ctx, id)
}

// Submit validates a proposal and stores it as pending review. Coordinates
// are free text and the height is converted from the given unit to feet.
func (s *SpotService) Submit(ctx context.Context, userID string, in SubmitSpotInput) (*domain.Spot, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "SpotService.Submit")
	defer span.End()

	name := strings.TrimSpace(in.Name)
	if name == "" || len(name) > maxNameLen {
		return nil, fmt.Errorf("%w: name must be 1-%d characters", ErrInvalidInput, maxNameLen)
	}

	loc, err := geospatial.ParseCoordinates(in.Coordinates)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	unit, err := units.ParseUnit(in.Unit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if in.Height < 0 {
		return nil, fmt.Errorf("%w: height must not be negative", ErrInvalidInput)
	}
	// Checked in the given unit before rounding, which NaN and Inf would not survive.
	limit := maxHeightFeet
	if unit.Metric() {
		limit = maxHeightFeet / units.FeetPerMeter
	}
	if !(in.Height <= limit) {
		return nil, fmt.Errorf("%w: height exceeds %.0f ft", ErrInvalidInput, maxHeightFeet)
	}
	heightFeet := float64(units.ToFeet(in.Height, unit.Metric()))

	spot := &domain.Spot{
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Location:    loc,
		HeightFeet:  heightFeet,
		Status:      domain.SpotPending,
		SubmittedBy: userID,
	}
	if err := s.spots.Create(ctx, spot); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create spot")
		return nil, fmt.Errorf("create spot: %w", err)
	}
	span.SetAttributes(attribute.String("spot.id", spot.ID))
	metrics.SpotsSubmitted.Inc()

	s.publish(ctx, spot, func(ctx context.Context, e *domain.SpotEvent) error {
		return s.publisher.PublishSpotSubmitted(ctx, e)
	})
	return spot, nil
}

// FindDuplicate returns an approved spot within DuplicateRadiusMeters of p,
// or nil when there is none.
func (s *SpotService) FindDuplicate(ctx context.Context, p domain.GeoPoint, excludeID string) (*domain.Spot, error) {
	spots, err := s.spots.FindNearby(ctx, p.Lat, p.Lon, DuplicateRadiusMeters, domain.SpotApproved, 2)
	if err != nil {
		return nil, err
	}
	for i := range spots {
		if spots[i].ID != excludeID {
			return &spots[i], nil
		}
	}
	return nil, nil
}

// Review records a moderation decision and announces it.
func (s *SpotService) Review(ctx context.Context, id string, status domain.SpotStatus) (*domain.Spot, error) {
	if status != domain.SpotApproved && status != domain.SpotRejected {
		return nil, fmt.Errorf("%w: unsupported review status %q", ErrInvalidInput, status)
	}
	if err := s.spots.SetStatus(ctx, id, status); err != nil {
		return nil, err
	}
	spot, err := s.spots.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	metrics.SpotsReviewed.WithLabelValues(string(status)).Inc()

	s.publish(ctx, spot, func(ctx context.Context, e *domain.SpotEvent) error {
		return s.publisher.PublishSpotReviewed(ctx, e)
	})
	return spot, nil
}

// publish is best-effort: the spot is already stored and a lost event only
// delays review.
func (s *SpotService) publish(ctx context.Context, spot *domain.Spot, send func(context.Context, *domain.SpotEvent) error) {
	if s.publisher == nil {
		return
	}
	event := &domain.SpotEvent{
		SpotID:      spot.ID,
		Name:        spot.Name,
		Location:    spot.Location,
		Status:      spot.Status,
		SubmittedBy: spot.SubmittedBy,
		Time:        time.Now().UTC(),
	}
	if err := send(ctx, event); err != nil {
		slog.WarnContext(ctx, "publish spot event", "spot_id", spot.ID, "status", spot.Status, "error", err)
	}
}

// IsNotFound reports whether err means the requested entity does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
