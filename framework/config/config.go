package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the central typed configuration struct. The framework module
// provides it under the "config" token.
type Config struct {
	App     AppConfig
	HTTP    HTTPConfig
	Log     LogConfig
	Metrics MetricsConfig
}

type AppConfig struct {
	Name  string
	Env   string // local | production | testing
	Debug bool
	URL   string
	Port  string
}

// Addr is the listen address for the HTTP server.
func (c AppConfig) Addr() string { return ":" + c.Port }

type HTTPConfig struct {
	ReadTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type LogConfig struct {
	Level  string // debug | info | warn | error
	Format string // console | json
}

type MetricsConfig struct {
	Enabled bool
	Path    string
}

// Load reads .env (if present) and populates a Config from environment variables.
// Call once at bootstrap: cfg := config.Load()
func Load(envFiles ...string) *Config {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	// Non-fatal: .env may not exist in production
	_ = godotenv.Load(files...)

	env := Get("APP_ENV", "local")
	return &Config{
		App: AppConfig{
			Name:  Get("APP_NAME", "GoComposer"),
			Env:   env,
			Debug: GetBool("APP_DEBUG", true),
			URL:   Get("APP_URL", "http://localhost"),
			Port:  Get("APP_PORT", "8000"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:     GetDuration("HTTP_READ_TIMEOUT", 15*time.Second),
			ShutdownTimeout: GetDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Log: LogConfig{
			Level:  strings.ToLower(Get("LOG_LEVEL", "info")),
			Format: strings.ToLower(Get("LOG_FORMAT", defaultFormat(env))),
		},
		Metrics: MetricsConfig{
			Enabled: GetBool("METRICS_ENABLED", false),
			Path:    Get("METRICS_PATH", "/metrics"),
		},
	}
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool { return c.App.Env == "production" }

func defaultFormat(env string) string {
	if env == "production" {
		return "json"
	}
	return "console"
}

// Get returns a raw env value, falling back to defaultVal.
func Get(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// GetInt returns an int env value.
func GetInt(key string, defaultVal int) int {
	i, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultVal
	}
	return i
}

// GetBool returns a bool env value.
func GetBool(key string, defaultVal bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultVal
	}
	return b
}

// GetDuration returns a duration env value. Bare integers are seconds.
func GetDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
