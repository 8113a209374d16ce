package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/samirrijal/dropspots/internal/core/domain"
)

// SubmitSpot is the body of a spot submission. Coordinates are free text
// ("lat, lon") and Height is in Unit.
type SubmitSpot struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Coordinates string  `json:"coordinates"`
	Height      float64 `json:"height"`
	Unit        string  `json:"unit"`
}

// SpotsAPI calls the spot and device endpoints. Authentication is left to
// the http.Client's transport, normally a session.Transport.
type SpotsAPI struct {
	baseURL string
	http    *http.Client
}

// NewSpotsAPI creates a SpotsAPI.
func NewSpotsAPI(baseURL string, hc *http.Client) *SpotsAPI {
	return &SpotsAPI{baseURL: baseURL, http: defaultHTTPClient(hc)}
}

// Nearby lists approved spots within radiusMeters of p, nearest first.
func (s *SpotsAPI) Nearby(ctx context.Context, p domain.GeoPoint, radiusMeters float64, limit int) ([]domain.Spot, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(p.Lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(p.Lon, 'f', -1, 64))
	q.Set("radius", strconv.FormatFloat(radiusMeters, 'f', -1, 64))
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var spots []domain.Spot
	if err := s.do(ctx, http.MethodGet, "/spots/nearby?"+q.Encode(), nil, &spots); err != nil {
		return nil, fmt.Errorf("nearby spots: %w", err)
	}
	return spots, nil
}

// Get fetches a single spot.
func (s *SpotsAPI) Get(ctx context.Context, id string) (*domain.Spot, error) {
	var spot domain.Spot
	if err := s.do(ctx, http.MethodGet, "/spots/"+url.PathEscape(id), nil, &spot); err != nil {
		return nil, fmt.Errorf("get spot %s: %w", id, err)
	}
	return &spot, nil
}

// Submit proposes a new spot for review.
func (s *SpotsAPI) Submit(ctx context.Context, in SubmitSpot) (*domain.Spot, error) {
	var spot domain.Spot
	if err := s.do(ctx, http.MethodPost, "/spots", in, &spot); err != nil {
		return nil, fmt.Errorf("submit spot: %w", err)
	}
	return &spot, nil
}

// RegisterDevice stores a push token for the signed-in user.
func (s *SpotsAPI) RegisterDevice(ctx context.Context, token, platform string) error {
	body := map[string]string{"token": token, "platform": platform}
	if err := s.do(ctx, http.MethodPost, "/devices", body, nil); err != nil {
		return fmt.Errorf("register device: %w", err)
	}
	return nil
}

func (s *SpotsAPI) do(ctx context.Context, method, path string, body, out any) error {
	req, err := newJSONRequest(ctx, method, s.baseURL, path, body)
	if err != nil {
		return err
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
