package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for the configuration.
const (
	DefaultHTTPPort        = 8080
	DefaultShutdownTimeout = 10 * time.Second
	DefaultRendererTimeout = 30 * time.Second
	DefaultCacheTTL        = 5 * time.Minute
	DefaultCacheMaxEntries = 128
	DefaultLogLevel        = "info"
	DefaultLogMaxSizeMB    = 100
	DefaultLogMaxBackups   = 3
	DefaultLogMaxAgeDays   = 28
	DefaultAPIKeyHeader    = "x-api-key"
)

// Config is the full configuration parsed from config.yaml.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Renderer RendererConfig `yaml:"renderer"`
}

// ServerConfig holds the HTTP-facing settings.
type ServerConfig struct {
	// HTTPPort is the port the web endpoints and websocket routes listen on (default 8080).
	HTTPPort int `yaml:"http_port"`

	// ShutdownTimeout bounds graceful shutdown of in-flight requests.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	Log LogConfig `yaml:"log"`

	// Auth guards the websocket consumer routes.
	Auth AuthConfig `yaml:"auth"`
}

// LogConfig controls structured log output.
type LogConfig struct {
	// Level is one of: debug | info | warn | error.
	Level string `yaml:"level"`

	// File, when set, sends logs to a size-rotated file instead of stdout.
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// SlogLevel converts Level to a slog.Level. Unknown values map to info;
// validate rejects them before this is reached.
func (l LogConfig) SlogLevel() slog.Level {
	switch l.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// AuthConfig controls client authentication on the websocket routes.
type AuthConfig struct {
	// Mode is one of: apikey | jwt | none.
	Mode string `yaml:"mode"`

	// KeyEnv names the environment variable holding the expected API key.
	// Used when Mode == "apikey".
	KeyEnv string `yaml:"key_env"`

	// Header is the HTTP header to read the API key from (default "x-api-key").
	Header string `yaml:"header"`

	// SecretEnv names the environment variable holding the HS256 signing
	// secret. Used when Mode == "jwt".
	SecretEnv string `yaml:"secret_env"`
}

// Key returns the expected API key resolved from the environment.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// Secret returns the JWT signing secret resolved from the environment.
func (a AuthConfig) Secret() string {
	if a.SecretEnv == "" {
		return ""
	}
	return os.Getenv(a.SecretEnv)
}

// EffectiveHeader returns the configured header name, or the default "x-api-key".
func (a AuthConfig) EffectiveHeader() string {
	if a.Header != "" {
		return a.Header
	}
	return DefaultAPIKeyHeader
}

// RendererConfig describes the external plotting service.
type RendererConfig struct {
	// Endpoint is the full URL the six query fields are sent to.
	Endpoint string `yaml:"endpoint"`

	// Timeout bounds a single render call.
	Timeout time.Duration `yaml:"timeout"`

	// CacheTTL is how long a rendered image is reused. Zero disables caching.
	CacheTTL time.Duration `yaml:"cache_ttl"`

	// CacheMaxEntries caps the number of cached images; the oldest is dropped
	// first. Zero means unbounded.
	CacheMaxEntries int `yaml:"cache_max_entries"`

	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`

	Auth RendererAuthConfig `yaml:"auth"`
}

// RendererAuthConfig specifies how requests to the renderer are authenticated.
type RendererAuthConfig struct {
	// Mode is one of: apikey | bearer | none.
	Mode string `yaml:"mode"`

	// Header is the HTTP header carrying the API key (default "x-api-key").
	Header string `yaml:"header"`

	KeyEnv   string `yaml:"key_env"`
	TokenEnv string `yaml:"token_env"`
}

// Key returns the API key resolved from the environment.
func (a RendererAuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// Token returns the bearer token resolved from the environment.
func (a RendererAuthConfig) Token() string {
	if a.TokenEnv == "" {
		return ""
	}
	return os.Getenv(a.TokenEnv)
}

// EffectiveHeader returns the configured header name, or the default "x-api-key".
func (a RendererAuthConfig) EffectiveHeader() string {
	if a.Header != "" {
		return a.Header
	}
	return DefaultAPIKeyHeader
}

// Load reads and parses the config file at path.
// Missing fields are filled with defaults before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// Defaults returns a Config pre-populated with default values.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        DefaultHTTPPort,
			ShutdownTimeout: DefaultShutdownTimeout,
			Log: LogConfig{
				Level:      DefaultLogLevel,
				MaxSizeMB:  DefaultLogMaxSizeMB,
				MaxBackups: DefaultLogMaxBackups,
				MaxAgeDays: DefaultLogMaxAgeDays,
			},
		},
		Renderer: RendererConfig{
			Timeout:         DefaultRendererTimeout,
			CacheTTL:        DefaultCacheTTL,
			CacheMaxEntries: DefaultCacheMaxEntries,
		},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	if cfg.Server.HTTPPort <= 0 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", cfg.Server.HTTPPort)
	}
	if cfg.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("server.shutdown_timeout must not be negative")
	}
	switch cfg.Server.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("server.log.level %q unknown: want debug|info|warn|error", cfg.Server.Log.Level)
	}
	switch cfg.Server.Auth.Mode {
	case "apikey", "jwt", "none", "":
	default:
		return fmt.Errorf("server.auth.mode %q unknown: want apikey|jwt|none", cfg.Server.Auth.Mode)
	}
	if cfg.Server.Auth.Mode == "jwt" && cfg.Server.Auth.SecretEnv == "" {
		return fmt.Errorf("server.auth.secret_env is required when mode is jwt")
	}

	if cfg.Renderer.Endpoint == "" {
		return fmt.Errorf("renderer.endpoint is required")
	}
	u, err := url.Parse(cfg.Renderer.Endpoint)
	if err != nil {
		return fmt.Errorf("renderer.endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("renderer.endpoint %q: scheme must be http or https", cfg.Renderer.Endpoint)
	}
	if cfg.Renderer.Timeout <= 0 {
		return fmt.Errorf("renderer.timeout must be positive")
	}
	if cfg.Renderer.CacheTTL < 0 {
		return fmt.Errorf("renderer.cache_ttl must not be negative")
	}
	if cfg.Renderer.CacheMaxEntries < 0 {
		return fmt.Errorf("renderer.cache_max_entries must not be negative")
	}
	switch cfg.Renderer.Auth.Mode {
	case "apikey", "bearer", "none", "":
	default:
		return fmt.Errorf("renderer.auth.mode %q unknown: want apikey|bearer|none", cfg.Renderer.Auth.Mode)
	}
	return nil
}
