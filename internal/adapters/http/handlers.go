package http

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/dropspots/internal/core/domain"
	"github.com/samirrijal/dropspots/internal/core/usecases"
	"github.com/samirrijal/dropspots/internal/pkg/geospatial"
	"github.com/samirrijal/dropspots/internal/pkg/units"
)

const defaultNearbyRadius = 5000.0

type submitSpotRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Coordinates string  `json:"coordinates"`
	Height      float64 `json:"height"`
	Unit        string  `json:"unit"`
}

type registerDeviceRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

// NearbySpotsHandler lists approved spots around a point. The point is
// either lat and lon, or free text in near ("43.26, -2.93").
func NearbySpotsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := queryPoint(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		metric, err := queryMetric(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		radius := c.QueryFloat("radius", defaultNearbyRadius)
		limit := c.QueryInt("limit", 50)

		spots, err := deps.Spots.Nearby(c.UserContext(), p, radius, limit)
		if errors.Is(err, usecases.ErrInvalidInput) {
			return errBadRequest(c, err.Error())
		}
		if err != nil {
			LoggerFromCtx(c.UserContext()).Error("nearby spots", "error", err)
			return errInternal(c)
		}

		if spots == nil {
			spots = []domain.Spot{}
		}
		for i := range spots {
			withHeightDisplay(&spots[i], metric)
		}
		return c.JSON(spots)
	}
}

// GetSpotHandler returns one spot by ID.
func GetSpotHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		metric, err := queryMetric(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		spot, err := deps.Spots.Get(c.UserContext(), c.Params("id"))
		if usecases.IsNotFound(err) {
			return errNotFound(c, "spot not found")
		}
		if err != nil {
			LoggerFromCtx(c.UserContext()).Error("get spot", "spot_id", c.Params("id"), "error", err)
			return errInternal(c)
		}
		withHeightDisplay(spot, metric)
		return c.JSON(spot)
	}
}

// SubmitSpotHandler stores a proposal from the signed-in user as pending.
func SubmitSpotHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req submitSpotRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		spot, err := deps.Spots.Submit(c.UserContext(), claimsFrom(c).UserID, usecases.SubmitSpotInput{
			Name:        req.Name,
			Description: req.Description,
			Coordinates: req.Coordinates,
			Height:      req.Height,
			Unit:        req.Unit,
		})
		if errors.Is(err, usecases.ErrInvalidInput) {
			return errBadRequest(c, err.Error())
		}
		if err != nil {
			LoggerFromCtx(c.UserContext()).Error("submit spot", "error", err)
			return errInternal(c)
		}

		unit, _ := units.ParseUnit(req.Unit)
		withHeightDisplay(spot, unit.Metric())
		return c.Status(fiber.StatusCreated).JSON(spot)
	}
}

// RegisterDeviceHandler attaches a push token to the signed-in user.
func RegisterDeviceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req registerDeviceRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		device, err := deps.Devices.Register(c.UserContext(), claimsFrom(c).UserID, req.Token, req.Platform)
		if errors.Is(err, usecases.ErrInvalidInput) {
			return errBadRequest(c, err.Error())
		}
		if err != nil {
			LoggerFromCtx(c.UserContext()).Error("register device", "error", err)
			return errInternal(c)
		}
		return c.Status(fiber.StatusCreated).JSON(device)
	}
}

func queryPoint(c *fiber.Ctx) (domain.GeoPoint, error) {
	if near := c.Query("near"); near != "" {
		return geospatial.ParseCoordinates(near)
	}
	if c.Query("lat") == "" || c.Query("lon") == "" {
		return domain.GeoPoint{}, errors.New("lat and lon are required")
	}
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		return domain.GeoPoint{}, errors.New("lat must be a number")
	}
	lon, err := strconv.ParseFloat(c.Query("lon"), 64)
	if err != nil {
		return domain.GeoPoint{}, errors.New("lon must be a number")
	}
	return domain.GeoPoint{Lat: lat, Lon: lon}, nil
}

// queryMetric reads the units parameter. Feet when absent.
func queryMetric(c *fiber.Ctx) (bool, error) {
	raw := c.Query("units")
	if raw == "" {
		return false, nil
	}
	u, err := units.ParseUnit(raw)
	if err != nil {
		return false, err
	}
	return u.Metric(), nil
}

func withHeightDisplay(s *domain.Spot, metric bool) {
	h := s.HeightFeet
	s.HeightDisplay = units.DisplayHeight(&h, metric)
}
