package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

type AppConfig struct {
	GatewayHTTPEndpoint string
	GatewayWSEndpoint   string

	ClientID string

	// GameID and LocalSide are optional here; the session refuses to start without them.
	GameID    int64
	LocalSide string

	ConnectTimeout  time.Duration
	RequestTimeout  time.Duration
	SubmitReconcile time.Duration
	PingInterval    time.Duration

	MessagesDir string

	DevGatewayAddr string
	RedisURL       string
}

// Load reads the client configuration.
func Load() (*AppConfig, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if cfg.GatewayHTTPEndpoint == "" {
		return nil, errors.New("GATEWAY_HTTP_ENDPOINT is required")
	}
	if cfg.GatewayWSEndpoint == "" {
		return nil, errors.New("GATEWAY_WS_ENDPOINT is required")
	}
	return cfg, nil
}

// LoadDevGateway reads the reference gateway configuration.
func LoadDevGateway() (*AppConfig, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	return cfg, nil
}

func load() (*AppConfig, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	cfg := &AppConfig{
		ConnectTimeout:  10 * time.Second,
		RequestTimeout:  5 * time.Second,
		SubmitReconcile: 5 * time.Second,
		PingInterval:    30 * time.Second,
		DevGatewayAddr:  ":8000",
	}

	cfg.GatewayHTTPEndpoint = strings.TrimRight(strings.TrimSpace(os.Getenv("GATEWAY_HTTP_ENDPOINT")), "/")
	cfg.GatewayWSEndpoint = strings.TrimRight(strings.TrimSpace(os.Getenv("GATEWAY_WS_ENDPOINT")), "/")
	cfg.ClientID = strings.TrimSpace(os.Getenv("CLIENT_ID"))
	if cfg.ClientID == "" {
		cfg.ClientID = uuid.NewString()
	}

	if v := strings.TrimSpace(os.Getenv("GAME_ID")); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("GAME_ID must be a positive integer: %q", v)
		}
		cfg.GameID = n
	}
	cfg.LocalSide = strings.TrimSpace(os.Getenv("LOCAL_SIDE"))

	cfg.ConnectTimeout = millisOr("CONNECT_TIMEOUT_MS", cfg.ConnectTimeout)
	cfg.RequestTimeout = millisOr("REQUEST_TIMEOUT_MS", cfg.RequestTimeout)
	cfg.SubmitReconcile = millisOr("SUBMIT_RECONCILE_MS", cfg.SubmitReconcile)
	if v := strings.TrimSpace(os.Getenv("WS_PING_INTERVAL_SEC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.PingInterval = time.Duration(n) * time.Second
		}
	}

	cfg.MessagesDir = strings.TrimSpace(os.Getenv("MESSAGES_DIR"))
	if v := strings.TrimSpace(os.Getenv("DEVGATEWAY_ADDR")); v != "" {
		cfg.DevGatewayAddr = v
	}
	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	return cfg, nil
}

// loadDotEnv preloads ENV_FILE (default .env) without overriding the real environment.
func loadDotEnv() error {
	path := strings.TrimSpace(os.Getenv("ENV_FILE"))
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		if explicit {
			return fmt.Errorf("env file: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func millisOr(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return time.Duration(n) * time.Millisecond
}
