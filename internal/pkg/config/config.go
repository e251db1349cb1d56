package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type BackendConfig struct {
	BaseURL string
	Timeout time.Duration
}

type StateConfig struct {
	Backend string // "file" or "memory"
	Path    string
}

type PollingConfig struct {
	UnreadInterval time.Duration
	BannerInterval time.Duration
}

type ObservabilityConfig struct {
	ServiceName  string
	MetricsAddr  string
	OTLPEndpoint string
	PprofAddr    string
	LogLevel     string
	LogFormat    string
}

type Config struct {
	Backend       BackendConfig
	State         StateConfig
	Polling       PollingConfig
	Observability ObservabilityConfig
	ServerHost    string
	ServerPort    string
	AllowedHosts  []string
	SessionSecret string
}

func Load() (*Config, error) {
	cfg := &Config{
		Backend: BackendConfig{
			BaseURL: strings.TrimRight(getEnvOrDefault("API_BASE_URL", "http://localhost:8001/api"), "/"),
			Timeout: getDurationOrDefault("API_TIMEOUT", 10*time.Second),
		},
		State: StateConfig{
			Backend: getEnvOrDefault("STATE_BACKEND", "file"),
			Path:    getEnvOrDefault("STATE_PATH", defaultStatePath()),
		},
		Polling: PollingConfig{
			UnreadInterval: getDurationOrDefault("UNREAD_POLL_INTERVAL", 30*time.Second),
			BannerInterval: getDurationOrDefault("BANNER_ROTATE_INTERVAL", 5*time.Second),
		},
		Observability: ObservabilityConfig{
			ServiceName:  getEnvOrDefault("OTEL_SERVICE_NAME", "kaayjang-web"),
			MetricsAddr:  getEnvOrDefault("METRICS_ADDR", ":9092"),
			OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
			PprofAddr:    os.Getenv("PPROF_ADDR"),
			LogLevel:     getEnvOrDefault("LOG_LEVEL", "info"),
			LogFormat:    getEnvOrDefault("LOG_FORMAT", "console"),
		},
		ServerHost:    getEnvOrDefault("SERVER_HOST", "127.0.0.1"),
		ServerPort:    getEnvOrDefault("SERVER_PORT", "8091"),
		AllowedHosts:  getListOrDefault("ALLOWED_HOSTS", []string{"localhost", "127.0.0.1", "::1"}),
		SessionSecret: getEnvOrDefault("SESSION_SECRET", ""),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ListenAddr is the address the HTTP server binds. It defaults to the
// loopback interface since the process holds a single signed-in session.
func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.ServerHost, c.ServerPort)
}

func (c *Config) validate() error {
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("API_BASE_URL must be an absolute URL, got %q", c.Backend.BaseURL)
	}
	switch c.State.Backend {
	case "file":
		if c.State.Path == "" {
			return fmt.Errorf("STATE_PATH is required when STATE_BACKEND=file")
		}
	case "memory":
	default:
		return fmt.Errorf("STATE_BACKEND must be file or memory, got %q", c.State.Backend)
	}
	if c.Polling.UnreadInterval <= 0 || c.Polling.BannerInterval <= 0 {
		return fmt.Errorf("polling intervals must be positive")
	}
	if len(c.SessionSecret) < 32 {
		return fmt.Errorf("SESSION_SECRET environment variable is required (min 32 chars)")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}

func defaultStatePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "kaayjang", "session.json")
	}
	return filepath.Join(home, ".kaayjang", "session.json")
}
