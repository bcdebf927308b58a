package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/km-arc/go-composer/framework/config"
)

// ── helpers ──────────────────────────────────────────────────────────────────

func setEnv(t *testing.T, key, val string) {
	t.Helper()
	t.Setenv(key, val) // automatically restored after test
}

// ── Load ─────────────────────────────────────────────────────────────────────

func TestLoad_Defaults(t *testing.T) {
	cfg := config.Load("testdata/empty.env")

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"App.Name", cfg.App.Name, "GoComposer"},
		{"App.Env", cfg.App.Env, "local"},
		{"App.Port", cfg.App.Port, "8000"},
		{"App.Addr", cfg.App.Addr(), ":8000"},
		{"HTTP.ReadTimeout", cfg.HTTP.ReadTimeout, 15 * time.Second},
		{"HTTP.ShutdownTimeout", cfg.HTTP.ShutdownTimeout, 10 * time.Second},
		{"Log.Level", cfg.Log.Level, "info"},
		{"Log.Format", cfg.Log.Format, "console"},
		{"Metrics.Enabled", cfg.Metrics.Enabled, false},
		{"Metrics.Path", cfg.Metrics.Path, "/metrics"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	setEnv(t, "APP_NAME", "MyApp")
	setEnv(t, "APP_ENV", "production")
	setEnv(t, "APP_PORT", "9000")
	setEnv(t, "LOG_LEVEL", "DEBUG")
	setEnv(t, "METRICS_ENABLED", "true")
	setEnv(t, "HTTP_SHUTDOWN_TIMEOUT", "3")

	cfg := config.Load("testdata/empty.env")

	if cfg.App.Name != "MyApp" {
		t.Errorf("App.Name: got %q want %q", cfg.App.Name, "MyApp")
	}
	if !cfg.IsProduction() {
		t.Errorf("App.Env: got %q want production", cfg.App.Env)
	}
	if cfg.App.Port != "9000" {
		t.Errorf("App.Port: got %q want %q", cfg.App.Port, "9000")
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level: got %q want %q", cfg.Log.Level, "debug")
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format: production should default to json, got %q", cfg.Log.Format)
	}
	if !cfg.Metrics.Enabled {
		t.Error("expected Metrics.Enabled")
	}
	if cfg.HTTP.ShutdownTimeout != 3*time.Second {
		t.Errorf("HTTP.ShutdownTimeout: got %v", cfg.HTTP.ShutdownTimeout)
	}
}

func TestLoad_ReadsEnvFile(t *testing.T) {
	t.Cleanup(func() { os.Unsetenv("COMPOSER_TEST_GREETING") })

	config.Load("testdata/app.env")
	if got := config.Get("COMPOSER_TEST_GREETING", ""); got != "from-file" {
		t.Errorf("got %q want %q", got, "from-file")
	}
}

func TestLoad_MissingFileIsNotFatal(t *testing.T) {
	if cfg := config.Load("testdata/does-not-exist.env"); cfg == nil {
		t.Fatal("expected a config")
	}
}

func TestLoad_AppDebugFalse(t *testing.T) {
	setEnv(t, "APP_DEBUG", "false")
	cfg := config.Load("testdata/empty.env")
	if cfg.App.Debug {
		t.Error("expected App.Debug to be false")
	}
}

// ── Get / GetInt / GetBool / GetDuration ─────────────────────────────────────

func TestGet_ReturnsFallback(t *testing.T) {
	os.Unsetenv("MISSING_KEY")
	if got := config.Get("MISSING_KEY", "fallback"); got != "fallback" {
		t.Errorf("got %q want %q", got, "fallback")
	}
}

func TestGetInt(t *testing.T) {
	setEnv(t, "SOME_INT", "42")
	if got := config.GetInt("SOME_INT", 0); got != 42 {
		t.Errorf("got %d want %d", got, 42)
	}
	setEnv(t, "SOME_INT", "notanint")
	if got := config.GetInt("SOME_INT", 99); got != 99 {
		t.Errorf("got %d want %d", got, 99)
	}
}

func TestGetBool(t *testing.T) {
	for _, val := range []string{"true", "1", "True", "TRUE"} {
		setEnv(t, "BOOL_KEY", val)
		if !config.GetBool("BOOL_KEY", false) {
			t.Errorf("expected true for %q", val)
		}
	}
	setEnv(t, "BOOL_KEY", "notabool")
	if !config.GetBool("BOOL_KEY", true) {
		t.Error("expected fallback true")
	}
}

func TestGetDuration(t *testing.T) {
	cases := map[string]time.Duration{
		"5":     5 * time.Second,
		"250ms": 250 * time.Millisecond,
		"1m30s": 90 * time.Second,
		"soon":  time.Minute,
	}
	for val, want := range cases {
		setEnv(t, "SOME_DURATION", val)
		if got := config.GetDuration("SOME_DURATION", time.Minute); got != want {
			t.Errorf("%q: got %v want %v", val, got, want)
		}
	}
}
