package http_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/dropspots/internal/core/domain"
)

type authResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Session domain.SessionTokens `json:"session"`
		User    *domain.User         `json:"user"`
	} `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeAuth(t *testing.T, resp *http.Response) authResponse {
	t.Helper()
	var out authResponse
	decode(t, resp, &out)
	return out
}

func signUp(t *testing.T, app *fiber.App, email string) domain.SessionTokens {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"email": email, "password": "correct horse", "name": "Jumper"})
	resp := do(t, app, "POST", "/v1/signup", string(body), "")
	expectStatus(t, resp, 200)
	return decodeAuth(t, resp).Data.Session
}

func TestSignUp_ReturnsSessionEnvelope(t *testing.T) {
	app := setupApp(makeDeps())

	resp := do(t, app, "POST", "/v1/signup", `{"email":"a@example.com","password":"password1","name":"A"}`, "")
	expectStatus(t, resp, 200)

	out := decodeAuth(t, resp)
	if !out.Success || out.Error != nil {
		t.Fatalf("expected success envelope, got %+v", out)
	}
	s := out.Data.Session
	if s.AccessToken == "" || s.RefreshToken == "" || s.ExpiresAt == 0 {
		t.Errorf("incomplete session %+v", s)
	}
	if out.Data.User == nil || out.Data.User.Email != "a@example.com" {
		t.Errorf("unexpected user %+v", out.Data.User)
	}
}

func TestSignUp_Failures(t *testing.T) {
	app := setupApp(makeDeps())
	signUp(t, app, "dup@example.com")

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"duplicate", `{"email":"dup@example.com","password":"password1"}`, 409, "user_exists"},
		{"bad email", `{"email":"nope","password":"password1"}`, 400, "invalid_input"},
		{"short password", `{"email":"b@example.com","password":"pw"}`, 400, "invalid_input"},
		{"bad body", `{`, 400, "invalid_request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, app, "POST", "/v1/signup", tt.body, "")
			expectStatus(t, resp, tt.status)
			out := decodeAuth(t, resp)
			if out.Success || out.Error == nil || out.Error.Code != tt.code {
				t.Errorf("expected %s failure envelope, got %+v", tt.code, out)
			}
		})
	}
}

func TestSignIn(t *testing.T) {
	app := setupApp(makeDeps())
	signUp(t, app, "a@example.com")

	resp := do(t, app, "POST", "/v1/signin", `{"email":"a@example.com","password":"correct horse"}`, "")
	expectStatus(t, resp, 200)
	if out := decodeAuth(t, resp); out.Data.Session.AccessToken == "" {
		t.Errorf("expected a session, got %+v", out)
	}

	resp = do(t, app, "POST", "/v1/signin", `{"email":"a@example.com","password":"wrong horse"}`, "")
	expectStatus(t, resp, 401)
	if out := decodeAuth(t, resp); out.Error == nil || out.Error.Code != "invalid_credentials" {
		t.Errorf("expected invalid_credentials, got %+v", out)
	}
}

func TestRefresh_RotatesAndRejectsReuse(t *testing.T) {
	app := setupApp(makeDeps())
	first := signUp(t, app, "a@example.com")

	body, _ := json.Marshal(map[string]string{"refresh_token": first.RefreshToken})
	resp := do(t, app, "POST", "/v1/refresh", string(body), "")
	expectStatus(t, resp, 200)

	out := decodeAuth(t, resp)
	if !out.Success {
		t.Fatalf("expected success, got %+v", out)
	}
	second := out.Data.Session
	if second.RefreshToken == "" || second.RefreshToken == first.RefreshToken {
		t.Errorf("expected a rotated refresh token, got %+v", second)
	}
	if second.AccessToken == "" || second.ExpiresAt == 0 {
		t.Errorf("incomplete session %+v", second)
	}

	resp = do(t, app, "POST", "/v1/refresh", string(body), "")
	expectStatus(t, resp, 401)
	out = decodeAuth(t, resp)
	if out.Success || out.Error == nil || out.Error.Code != "invalid_refresh_token" {
		t.Errorf("expected failure envelope, got %+v", out)
	}
}

func TestRefresh_MissingToken(t *testing.T) {
	app := setupApp(makeDeps())

	for _, body := range []string{`{}`, `{"refresh_token":""}`, `garbage`} {
		resp := do(t, app, "POST", "/v1/refresh", body, "")
		expectStatus(t, resp, 401)
		if out := decodeAuth(t, resp); out.Success || out.Error == nil {
			t.Errorf("%s: expected failure envelope, got %+v", body, out)
		}
	}
}

func TestSignOut(t *testing.T) {
	app := setupApp(makeDeps())
	tokens := signUp(t, app, "a@example.com")

	resp := do(t, app, "POST", "/v1/signout", "", "")
	expectStatus(t, resp, 401)
	if out := decodeAuth(t, resp); out.Error == nil || out.Error.Code != "unauthorized" {
		t.Errorf("expected unauthorized envelope, got %+v", out)
	}

	resp = do(t, app, "POST", "/v1/signout", "", tokens.AccessToken)
	expectStatus(t, resp, 200)
	if out := decodeAuth(t, resp); !out.Success {
		t.Errorf("expected success, got %+v", out)
	}

	body, _ := json.Marshal(map[string]string{"refresh_token": tokens.RefreshToken})
	resp = do(t, app, "POST", "/v1/refresh", string(body), "")
	expectStatus(t, resp, 401)
}

func TestMe(t *testing.T) {
	app := setupApp(makeDeps())
	tokens := signUp(t, app, "a@example.com")

	resp := do(t, app, "GET", "/v1/me", "", tokens.AccessToken)
	expectStatus(t, resp, 200)

	var user domain.User
	decode(t, resp, &user)
	if user.Email != "a@example.com" || user.Name != "Jumper" {
		t.Errorf("unexpected user %+v", user)
	}

	resp = do(t, app, "GET", "/v1/me", "", "")
	expectStatus(t, resp, 401)
}
