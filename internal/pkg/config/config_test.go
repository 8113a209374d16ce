package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestResolveBaseURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  ClientConfig
		want string
	}{
		{"dev in development", ClientConfig{Env: "development", DevBaseURL: "http://localhost:8080/v1", BaseURL: "https://api.example.com/v1"}, "http://localhost:8080/v1"},
		{"dev ignored in production", ClientConfig{Env: "production", DevBaseURL: "http://localhost:8080/v1", BaseURL: "https://api.example.com/v1"}, "https://api.example.com/v1"},
		{"empty dev falls back", ClientConfig{Env: "development", BaseURL: "https://api.example.com/v1"}, "https://api.example.com/v1"},
		{"nothing configured", ClientConfig{Env: "development"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.ResolveBaseURL(); got != tt.want {
				t.Errorf("ResolveBaseURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoad_DefaultsAndEnv(t *testing.T) {
	t.Setenv("DROPSPOTS_AUTH_JWT_SECRET", strings.Repeat("s", 32))
	t.Setenv("DROPSPOTS_SERVER_PORT", "9090")

	cfg, err := Load("dropspots-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected port from env, got %d", cfg.Server.Port)
	}
	if cfg.Auth.AccessTTL != 15*time.Minute {
		t.Errorf("expected 15m access ttl, got %s", cfg.Auth.AccessTTL)
	}
	if cfg.Auth.RefreshTTL != 7*24*time.Hour {
		t.Errorf("expected 7d refresh ttl, got %s", cfg.Auth.RefreshTTL)
	}
	if cfg.Telemetry.ServiceName != "dropspots-test" {
		t.Errorf("expected service name default, got %q", cfg.Telemetry.ServiceName)
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"server.port", "database.host", "nats.url", "temporal.task_queue"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in error, got:\n%s", want, err)
		}
	}
}

func TestValidateAuth(t *testing.T) {
	cfg := &Config{Auth: AuthConfig{JWTSecret: "short", AccessTTL: time.Hour, RefreshTTL: time.Minute, BcryptCost: 2}}
	err := cfg.ValidateAuth()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"auth.jwt_secret", "auth.refresh_ttl", "auth.bcrypt_cost"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in error, got:\n%s", want, err)
		}
	}

	cfg.Auth = AuthConfig{JWTSecret: strings.Repeat("k", 32), AccessTTL: 15 * time.Minute, RefreshTTL: time.Hour, BcryptCost: 12}
	if err := cfg.ValidateAuth(); err != nil {
		t.Errorf("expected valid auth config, got %v", err)
	}

	// Anything inside the client's refresh lookahead would rotate on every request.
	for _, ttl := range []time.Duration{0, time.Minute, 5 * time.Minute} {
		cfg.Auth.AccessTTL = ttl
		err := cfg.ValidateAuth()
		if err == nil || !strings.Contains(err.Error(), "auth.access_ttl") {
			t.Errorf("access_ttl %s: expected auth.access_ttl error, got %v", ttl, err)
		}
	}
}

func TestLoadClient_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dropctl.yaml")
	body := "env: development\ndev_base_url: http://localhost:8080/v1\napi_key: k1\nmetric: false\nstore_path: /tmp/s.json\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadClient(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ResolveBaseURL() != "http://localhost:8080/v1" {
		t.Errorf("unexpected base url %q", cfg.ResolveBaseURL())
	}
	if cfg.APIKey != "k1" || cfg.Metric {
		t.Errorf("unexpected config %+v", cfg)
	}
}
