package http_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"

	handler "github.com/samirrijal/dropspots/internal/adapters/http"
	"github.com/samirrijal/dropspots/internal/core/domain"
	"github.com/samirrijal/dropspots/internal/core/usecases"
)

// ---- Test helpers ----

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return app
}

func makeDeps(opts ...func(*handler.Dependencies)) *handler.Dependencies {
	d := &handler.Dependencies{
		Spots: usecases.NewSpotService(&mockSpotRepo{}, nil, nil),
		Auth: usecases.NewAuthService(newMockUserRepo(), newMockRefreshStore(), usecases.AuthConfig{
			Secret:     []byte(strings.Repeat("s", 32)),
			Issuer:     "dropspots-test",
			AccessTTL:  15 * time.Minute,
			RefreshTTL: time.Hour,
			BcryptCost: bcrypt.MinCost,
		}),
		Devices: usecases.NewDeviceService(&mockDeviceRepo{}),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func withSpots(repo *mockSpotRepo) func(*handler.Dependencies) {
	return func(d *handler.Dependencies) {
		d.Spots = usecases.NewSpotService(repo, nil, nil)
	}
}

// do sends a request with an optional JSON body and bearer token.
func do(t *testing.T, app *fiber.App, method, path, body, bearer string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode body: %v", err)
	}
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected %d, got %d: %s", want, resp.StatusCode, b)
	}
}

// ---- Health ----

func TestHealth(t *testing.T) {
	resp := do(t, setupApp(makeDeps()), "GET", "/v1/health", "", "")
	expectStatus(t, resp, 200)

	var body map[string]string
	decode(t, resp, &body)
	if body["status"] != "healthy" {
		t.Errorf("expected healthy, got %q", body["status"])
	}
}

func TestReady_WithoutDatabase(t *testing.T) {
	resp := do(t, setupApp(makeDeps()), "GET", "/v1/ready", "", "")
	expectStatus(t, resp, 503)

	var body struct {
		Checks map[string]string `json:"checks"`
	}
	decode(t, resp, &body)
	if body.Checks["database"] != "not configured" {
		t.Errorf("unexpected checks %v", body.Checks)
	}
}

// ---- Spot handler tests ----

func TestNearbySpots_Success(t *testing.T) {
	deps := makeDeps(withSpots(&mockSpotRepo{
		findNearbyFn: func(ctx context.Context, lat, lon, radius float64, status domain.SpotStatus, limit int) ([]domain.Spot, error) {
			if lat != 43.263 || lon != -2.935 || radius != 800 {
				t.Errorf("unexpected query %v %v %v", lat, lon, radius)
			}
			return []domain.Spot{
				{ID: "s1", Name: "Quarry", HeightFeet: 40},
				{ID: "s2", Name: "Unknown ledge"},
			}, nil
		},
	}))

	resp := do(t, setupApp(deps), "GET", "/v1/spots/nearby?lat=43.263&lon=-2.935&radius=800&units=metric", "", "")
	expectStatus(t, resp, 200)

	var spots []domain.Spot
	decode(t, resp, &spots)
	if len(spots) != 2 {
		t.Fatalf("expected 2 spots, got %d", len(spots))
	}
	if spots[0].HeightDisplay != "12 meters" {
		t.Errorf("expected 12 meters, got %q", spots[0].HeightDisplay)
	}
	if spots[1].HeightDisplay != "?" {
		t.Errorf("zero height should display ?, got %q", spots[1].HeightDisplay)
	}
}

func TestNearbySpots_FreeTextPoint(t *testing.T) {
	var got domain.GeoPoint
	deps := makeDeps(withSpots(&mockSpotRepo{
		findNearbyFn: func(ctx context.Context, lat, lon, radius float64, status domain.SpotStatus, limit int) ([]domain.Spot, error) {
			got = domain.GeoPoint{Lat: lat, Lon: lon}
			return []domain.Spot{{ID: "s1", HeightFeet: 25}}, nil
		},
	}))

	resp := do(t, setupApp(deps), "GET", "/v1/spots/nearby?near=43.26%C2%B0%20N%2C%20-2.93", "", "")
	expectStatus(t, resp, 200)

	var spots []domain.Spot
	decode(t, resp, &spots)
	if got.Lat != 43.26 || got.Lon != -2.93 {
		t.Errorf("unexpected point %v", got)
	}
	if spots[0].HeightDisplay != "25 ft" {
		t.Errorf("expected feet by default, got %q", spots[0].HeightDisplay)
	}
}

func TestNearbySpots_BadRequests(t *testing.T) {
	app := setupApp(makeDeps())

	tests := []struct {
		name string
		path string
	}{
		{"missing params", "/v1/spots/nearby"},
		{"not a number", "/v1/spots/nearby?lat=abc&lon=1"},
		{"bad free text", "/v1/spots/nearby?near=somewhere"},
		{"out of range", "/v1/spots/nearby?lat=91&lon=0"},
		{"radius too large", "/v1/spots/nearby?lat=43.26&lon=-2.93&radius=100000"},
		{"unknown units", "/v1/spots/nearby?lat=43.26&lon=-2.93&units=cubits"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, app, "GET", tt.path, "", "")
			expectStatus(t, resp, 400)

			var apiErr handler.APIError
			decode(t, resp, &apiErr)
			if apiErr.Code != "bad_request" || apiErr.RequestID == "" {
				t.Errorf("unexpected error body %+v", apiErr)
			}
		})
	}
}

func TestGetSpot_NotFound(t *testing.T) {
	resp := do(t, setupApp(makeDeps()), "GET", "/v1/spots/missing", "", "")
	expectStatus(t, resp, 404)
}

func TestGetSpot_Success(t *testing.T) {
	deps := makeDeps(withSpots(&mockSpotRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Spot, error) {
			return &domain.Spot{ID: id, Name: "Blue Lagoon", HeightFeet: 33}, nil
		},
	}))

	resp := do(t, setupApp(deps), "GET", "/v1/spots/abc-123?units=m", "", "")
	expectStatus(t, resp, 200)

	var spot domain.Spot
	decode(t, resp, &spot)
	if spot.ID != "abc-123" || spot.HeightDisplay != "10 meters" {
		t.Errorf("unexpected spot %+v", spot)
	}
}

func TestGetSpot_ETag(t *testing.T) {
	deps := makeDeps(withSpots(&mockSpotRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Spot, error) {
			return &domain.Spot{ID: id, Name: "Quarry"}, nil
		},
	}))
	app := setupApp(deps)

	resp := do(t, app, "GET", "/v1/spots/s1", "", "")
	expectStatus(t, resp, 200)
	etag := resp.Header.Get("ETag")
	if etag == "" {
		t.Fatal("expected ETag header")
	}

	req := httptest.NewRequest("GET", "/v1/spots/s1", nil)
	req.Header.Set("If-None-Match", etag)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	expectStatus(t, resp, 304)
}

func TestSubmitSpot_RequiresBearer(t *testing.T) {
	app := setupApp(makeDeps())

	resp := do(t, app, "POST", "/v1/spots", `{"name":"x"}`, "")
	expectStatus(t, resp, 401)

	resp = do(t, app, "POST", "/v1/spots", `{"name":"x"}`, "not-a-jwt")
	expectStatus(t, resp, 401)
}

func TestSubmitSpot_Created(t *testing.T) {
	var stored *domain.Spot
	deps := makeDeps(withSpots(&mockSpotRepo{
		createFn: func(ctx context.Context, s *domain.Spot) error {
			s.ID = "spot-9"
			stored = s
			return nil
		},
	}))
	app := setupApp(deps)
	tokens := signUp(t, app, "jumper@example.com")

	body := `{"name":"Bridge","coordinates":"43.2630° N, -2.9350","height":12,"unit":"meters"}`
	resp := do(t, app, "POST", "/v1/spots", body, tokens.AccessToken)
	expectStatus(t, resp, 201)

	var spot domain.Spot
	decode(t, resp, &spot)
	if spot.ID != "spot-9" || spot.Status != domain.SpotPending {
		t.Errorf("unexpected spot %+v", spot)
	}
	if stored == nil || stored.HeightFeet != 39 || stored.SubmittedBy != "user-jumper@example.com" {
		t.Errorf("unexpected stored spot %+v", stored)
	}
	if spot.HeightDisplay != "12 meters" {
		t.Errorf("expected display in submitted unit, got %q", spot.HeightDisplay)
	}
}

func TestSubmitSpot_InvalidInput(t *testing.T) {
	app := setupApp(makeDeps())
	tokens := signUp(t, app, "jumper@example.com")

	for _, body := range []string{
		`{"name":"Bridge","coordinates":"north pole","height":12,"unit":"ft"}`,
		`{"name":"","coordinates":"1,2","height":12,"unit":"ft"}`,
		`{"name":"Bridge","coordinates":"1,2","height":12,"unit":"cubits"}`,
		`not json`,
	} {
		resp := do(t, app, "POST", "/v1/spots", body, tokens.AccessToken)
		expectStatus(t, resp, 400)
	}
}

// ---- Devices ----

func TestRegisterDevice(t *testing.T) {
	var stored *domain.Device
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Devices = usecases.NewDeviceService(&mockDeviceRepo{upsertFn: func(ctx context.Context, dev *domain.Device) error {
			stored = dev
			return nil
		}})
	})
	app := setupApp(deps)
	tokens := signUp(t, app, "jumper@example.com")

	resp := do(t, app, "POST", "/v1/devices", `{"token":"fcm-token","platform":"android"}`, tokens.AccessToken)
	expectStatus(t, resp, 201)
	if stored == nil || stored.UserID != "user-jumper@example.com" || stored.Token != "fcm-token" {
		t.Errorf("unexpected device %+v", stored)
	}

	resp = do(t, app, "POST", "/v1/devices", `{"token":"t","platform":"blackberry"}`, tokens.AccessToken)
	expectStatus(t, resp, 400)
}

// ---- API key ----

func TestAPIKey(t *testing.T) {
	app := setupApp(makeDeps(func(d *handler.Dependencies) { d.APIKeys = []string{"k1", "k2"} }))

	resp := do(t, app, "GET", "/v1/spots/nearby?lat=1&lon=1", "", "")
	expectStatus(t, resp, 401)

	req := httptest.NewRequest("GET", "/v1/spots/nearby?lat=1&lon=1", nil)
	req.Header.Set("x-api-key", "k2")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	expectStatus(t, resp, 200)

	resp = do(t, app, "GET", "/v1/spots/nearby?lat=1&lon=1&api_key=k1", "", "")
	expectStatus(t, resp, 200)

	// health stays open for probes
	resp = do(t, app, "GET", "/v1/health", "", "")
	expectStatus(t, resp, 200)
}

// ---- GraphQL ----

func TestGraphQL_SpotsNearby(t *testing.T) {
	deps := makeDeps(withSpots(&mockSpotRepo{
		findNearbyFn: func(ctx context.Context, lat, lon, radius float64, status domain.SpotStatus, limit int) ([]domain.Spot, error) {
			return []domain.Spot{{ID: "s1", Name: "Quarry", HeightFeet: 40, Location: domain.GeoPoint{Lat: lat, Lon: lon}}}, nil
		},
	}))

	query := `{"query":"{ spotsNearby(lat: 43.26, lon: -2.93) { id name location { lat } height_display(units: \"metric\") } }"}`
	resp := do(t, setupApp(deps), "POST", "/graphql", query, "")
	expectStatus(t, resp, 200)

	var result struct {
		Data struct {
			SpotsNearby []struct {
				ID            string `json:"id"`
				Name          string `json:"name"`
				HeightDisplay string `json:"height_display"`
				Location      struct {
					Lat float64 `json:"lat"`
				} `json:"location"`
			} `json:"spotsNearby"`
		} `json:"data"`
		Errors []any `json:"errors"`
	}
	decode(t, resp, &result)
	if len(result.Errors) > 0 {
		t.Fatalf("graphql errors: %v", result.Errors)
	}
	if len(result.Data.SpotsNearby) != 1 {
		t.Fatalf("expected 1 spot, got %+v", result.Data)
	}
	got := result.Data.SpotsNearby[0]
	if got.ID != "s1" || got.HeightDisplay != "12 meters" || got.Location.Lat != 43.26 {
		t.Errorf("unexpected spot %+v", got)
	}
}

func TestGraphQL_SpotMissing(t *testing.T) {
	resp := do(t, setupApp(makeDeps()), "POST", "/graphql", `{"query":"{ spot(id: \"nope\") { id } }"}`, "")
	expectStatus(t, resp, 200)

	var result struct {
		Data struct {
			Spot *struct{ ID string } `json:"spot"`
		} `json:"data"`
	}
	decode(t, resp, &result)
	if result.Data.Spot != nil {
		t.Errorf("expected null spot, got %+v", result.Data.Spot)
	}
}
