package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"GATEWAY_HTTP_ENDPOINT", "GATEWAY_WS_ENDPOINT", "CLIENT_ID", "GAME_ID", "LOCAL_SIDE",
		"CONNECT_TIMEOUT_MS", "REQUEST_TIMEOUT_MS", "SUBMIT_RECONCILE_MS", "WS_PING_INTERVAL_SEC",
		"MESSAGES_DIR", "DEVGATEWAY_ADDR", "REDIS_URL",
	} {
		t.Setenv(k, "")
	}
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "none.env"))
	os.Unsetenv("ENV_FILE")
}

func TestLoadDefaultsAndRequired(t *testing.T) {
	clearEnv(t)
	if _, err := Load(); err == nil {
		t.Fatalf("expected missing endpoint error")
	}

	t.Setenv("GATEWAY_HTTP_ENDPOINT", "http://localhost:8000/")
	t.Setenv("GATEWAY_WS_ENDPOINT", "ws://localhost:8000")
	t.Setenv("GAME_ID", "42")
	t.Setenv("LOCAL_SIDE", "black")
	t.Setenv("CONNECT_TIMEOUT_MS", "2500")
	t.Setenv("REQUEST_TIMEOUT_MS", "abc")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GatewayHTTPEndpoint != "http://localhost:8000" {
		t.Fatalf("trailing slash not trimmed: %q", cfg.GatewayHTTPEndpoint)
	}
	if cfg.GameID != 42 || cfg.LocalSide != "black" {
		t.Fatalf("unexpected identity: %d %q", cfg.GameID, cfg.LocalSide)
	}
	if cfg.ConnectTimeout != 2500*time.Millisecond {
		t.Fatalf("unexpected connect timeout: %v", cfg.ConnectTimeout)
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Fatalf("invalid value should keep default, got %v", cfg.RequestTimeout)
	}
	if cfg.ClientID == "" {
		t.Fatalf("expected generated client id")
	}
}

func TestLoadRejectsBadGameID(t *testing.T) {
	clearEnv(t)
	t.Setenv("GATEWAY_HTTP_ENDPOINT", "http://x")
	t.Setenv("GATEWAY_WS_ENDPOINT", "ws://x")
	for _, v := range []string{"0", "-3", "abc"} {
		t.Setenv("GAME_ID", v)
		if _, err := Load(); err == nil {
			t.Fatalf("GAME_ID=%q should fail", v)
		}
	}
}

func TestDotEnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "client.env")
	body := "GATEWAY_HTTP_ENDPOINT=http://from-file\nGATEWAY_WS_ENDPOINT=ws://from-file\nREDIS_URL=redis://localhost:6379/0\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("ENV_FILE", path)
	t.Setenv("GATEWAY_HTTP_ENDPOINT", "")
	os.Unsetenv("GATEWAY_HTTP_ENDPOINT")
	os.Unsetenv("GATEWAY_WS_ENDPOINT")
	os.Unsetenv("REDIS_URL")

	cfg, err := LoadDevGateway()
	if err != nil {
		t.Fatalf("LoadDevGateway: %v", err)
	}
	if cfg.GatewayHTTPEndpoint != "http://from-file" || cfg.RedisURL == "" {
		t.Fatalf("env file not applied: %+v", cfg)
	}
	if cfg.DevGatewayAddr != ":8000" {
		t.Fatalf("unexpected default addr: %q", cfg.DevGatewayAddr)
	}
}
