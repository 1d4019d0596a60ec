package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the bot configuration. Values come from an optional YAML file,
// then environment variables override them.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Nezha     NezhaConfig     `yaml:"nezha"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Store     StoreConfig     `yaml:"store"`
	Refresh   RefreshConfig   `yaml:"refresh"`
	Auth      AuthConfig      `yaml:"auth"`
	Locale    LocaleConfig    `yaml:"locale"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Status    StatusConfig    `yaml:"status"`
}

// ServerConfig is the HTTP listener
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// NezhaConfig is the monitoring dashboard
type NezhaConfig struct {
	BaseURL  string        `yaml:"base_url"`
	Username string        `yaml:"username"`
	Password string        `yaml:"password"`
	Timeout  time.Duration `yaml:"timeout"` // 0 = no client side timeout
}

// TelegramConfig is the bot account and webhook
type TelegramConfig struct {
	BotToken     string `yaml:"bot_token"`
	APIBaseURL   string `yaml:"api_base_url"`
	UID          int64  `yaml:"uid"`
	Secret       string `yaml:"secret"`
	EndpointPath string `yaml:"endpoint_path"`
}

// StoreConfig selects the credential store
type StoreConfig struct {
	Backend string      `yaml:"backend"` // file, memory or redis
	Path    string      `yaml:"path"`
	Key     string      `yaml:"key"`
	Redis   RedisConfig `yaml:"redis"`
}

// RedisConfig is used by the redis credential store
type RedisConfig struct {
	Address   string `yaml:"address"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
	PoolSize  int    `yaml:"pool_size"`
}

// RefreshConfig is the scheduled token refresh. A zero interval disables
// the in-process scheduler.
type RefreshConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// AuthConfig guards the operator endpoints
type AuthConfig struct {
	Password string `yaml:"password"`
}

// LocaleConfig controls reply language and time rendering
type LocaleConfig struct {
	Lang     string `yaml:"lang"`
	Timezone string `yaml:"timezone"`
}

// RateLimitConfig is the per-IP request limit
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// StatusConfig configures the /status endpoint
type StatusConfig struct {
	DiskPath string `yaml:"disk_path"`
}

// reserved operator routes the webhook path must not shadow
var reservedPaths = []string{"/register", "/unregister", "/refresh", "/status"}

// Load reads path (when not empty), applies environment overrides and
// defaults, and validates the result.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	setDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides file values with the environment variables the bot has
// always been deployed with. Malformed numeric values are reported rather
// than ignored.
func applyEnv(cfg *Config) error {
	var p envParser
	cfg.Server.Host = env("HOST", cfg.Server.Host)
	cfg.Server.Port = p.atoi("PORT", cfg.Server.Port)

	cfg.Nezha.BaseURL = env("NZ_BASEURL", cfg.Nezha.BaseURL)
	cfg.Nezha.Username = env("NZ_USERNAME", cfg.Nezha.Username)
	cfg.Nezha.Password = env("NZ_PASSWORD", cfg.Nezha.Password)
	cfg.Nezha.Timeout = p.parseDuration("NZ_TIMEOUT", cfg.Nezha.Timeout)

	cfg.Telegram.BotToken = env("TELEGRAM_BOT_TOKEN", cfg.Telegram.BotToken)
	cfg.Telegram.APIBaseURL = env("TELEGRAM_API_BASE_URL", cfg.Telegram.APIBaseURL)
	cfg.Telegram.UID = p.parseInt64("TELEGRAM_UID", cfg.Telegram.UID)
	cfg.Telegram.Secret = env("TELEGRAM_SECRET", cfg.Telegram.Secret)
	cfg.Telegram.EndpointPath = env("ENDPOINT_PATH", cfg.Telegram.EndpointPath)

	cfg.Store.Backend = env("NZ_STORE", cfg.Store.Backend)
	cfg.Store.Path = env("NZ_STORE_PATH", cfg.Store.Path)
	cfg.Store.Key = env("NZ_STORE_KEY", cfg.Store.Key)
	cfg.Store.Redis.Address = env("REDIS_ADDR", cfg.Store.Redis.Address)
	cfg.Store.Redis.Password = env("REDIS_PASSWORD", cfg.Store.Redis.Password)
	cfg.Store.Redis.DB = p.atoi("REDIS_DB", cfg.Store.Redis.DB)

	cfg.Refresh.Interval = p.parseDuration("REFRESH_INTERVAL", cfg.Refresh.Interval)
	cfg.Auth.Password = env("PASSWORD", cfg.Auth.Password)

	cfg.Locale.Lang = env("LANG", cfg.Locale.Lang)
	cfg.Locale.Timezone = env("TIMEZONE", cfg.Locale.Timezone)

	return p.err()
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 10 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 60 * time.Second
	}

	if cfg.Telegram.APIBaseURL == "" {
		cfg.Telegram.APIBaseURL = "https://api.telegram.org"
	}
	if cfg.Telegram.EndpointPath == "" {
		cfg.Telegram.EndpointPath = "/endpoint"
	}

	if cfg.Store.Backend == "" {
		cfg.Store.Backend = "file"
	}
	if cfg.Store.Key == "" {
		cfg.Store.Key = "NZ_TOKEN"
	}
	if cfg.Store.Redis.Address == "" {
		cfg.Store.Redis.Address = "localhost:6379"
	}
	if cfg.Store.Redis.KeyPrefix == "" {
		cfg.Store.Redis.KeyPrefix = "nezhabot:"
	}

	if cfg.Locale.Lang == "" {
		cfg.Locale.Lang = "en"
	}

	if cfg.RateLimit.RequestsPerSecond == 0 {
		cfg.RateLimit.RequestsPerSecond = 10
	}
	if cfg.RateLimit.Burst == 0 {
		cfg.RateLimit.Burst = 20
	}
}

// Validate reports the first missing or malformed setting
func (c *Config) Validate() error {
	if c.Nezha.BaseURL == "" {
		return errors.New("NZ_BASEURL is required")
	}
	if u, err := url.Parse(c.Nezha.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("NZ_BASEURL %q is not an absolute URL", c.Nezha.BaseURL)
	}
	if c.Nezha.Username == "" || c.Nezha.Password == "" {
		return errors.New("NZ_USERNAME and NZ_PASSWORD are required")
	}
	if c.Telegram.BotToken == "" {
		return errors.New("TELEGRAM_BOT_TOKEN is required")
	}
	if c.Telegram.UID == 0 {
		return errors.New("TELEGRAM_UID is required")
	}
	if !strings.HasPrefix(c.Telegram.EndpointPath, "/") || c.Telegram.EndpointPath == "/" {
		return fmt.Errorf("ENDPOINT_PATH %q must start with / and not be the root", c.Telegram.EndpointPath)
	}
	for _, p := range reservedPaths {
		if c.Telegram.EndpointPath == p {
			return fmt.Errorf("ENDPOINT_PATH %q collides with an operator route", p)
		}
	}
	if c.Auth.Password == "" {
		return errors.New("PASSWORD is required for the operator endpoints")
	}
	switch strings.ToLower(c.Store.Backend) {
	case "file", "memory", "redis":
	default:
		return fmt.Errorf("unsupported credential store %q", c.Store.Backend)
	}
	if c.Refresh.Interval < 0 {
		return errors.New("REFRESH_INTERVAL must not be negative")
	}
	if c.Locale.Timezone != "" {
		if _, err := time.LoadLocation(c.Locale.Timezone); err != nil {
			return fmt.Errorf("TIMEZONE: %w", err)
		}
	}
	return nil
}

// Location returns the configured time zone, falling back to local time
func (c *Config) Location() *time.Location {
	if c.Locale.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Locale.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// ListenAddr is the host:port the HTTP server binds to
func (c *Config) ListenAddr() string {
	return c.Server.Host + ":" + strconv.Itoa(c.Server.Port)
}

func env(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

// envParser reads typed variables and collects the ones that do not parse
type envParser struct {
	errs []error
}

func (p *envParser) atoi(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not an integer", key, v))
		return fallback
	}
	return i
}

func (p *envParser) parseInt64(key string, fallback int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not an integer", key, v))
		return fallback
	}
	return i
}

func (p *envParser) parseDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not a duration", key, v))
		return fallback
	}
	return d
}

func (p *envParser) err() error {
	if len(p.errs) == 0 {
		return nil
	}
	return fmt.Errorf("invalid environment: %w", errors.Join(p.errs...))
}
