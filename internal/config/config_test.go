package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/FranksOps/seoscribe/internal/scheduler"
)

func newViper(t *testing.T) *viper.Viper {
	t.Helper()
	v := viper.New()
	SetDefaults(v)
	if err := BindEnv(v); err != nil {
		t.Fatalf("BindEnv: %v", err)
	}
	return v
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(newViper(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.OpenAI.Model != "gpt-4o" || cfg.OpenAI.Temperature != 0.7 || cfg.OpenAI.Timeout != 3*time.Minute {
		t.Errorf("unexpected openai defaults %+v", cfg.OpenAI)
	}
	if cfg.Fetch.Timeout != 10*time.Second || cfg.Fetch.Competitors != 3 {
		t.Errorf("unexpected fetch defaults %+v", cfg.Fetch)
	}
	if cfg.SerpAPI.Engine != "google" || cfg.SerpAPI.Country != "us" || cfg.SerpAPI.Language != "en" {
		t.Errorf("unexpected serpapi defaults %+v", cfg.SerpAPI)
	}
	if cfg.Scheduler.Interval != 24*time.Hour || len(cfg.Scheduler.Keywords) != len(scheduler.DefaultKeywords) {
		t.Errorf("unexpected scheduler defaults %+v", cfg.Scheduler)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
	if err := cfg.ValidateScheduler(); err != nil {
		t.Errorf("default scheduler should validate: %v", err)
	}
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("SERPAPI_API_KEY", "serp-env")
	t.Setenv("SEOSCRIBE_OPENAI_MODEL", "gpt-4o-mini")
	t.Setenv("SEOSCRIBE_FETCH_TIMEOUT", "5s")
	t.Setenv("SEOSCRIBE_SCHEDULER_INTERVAL", "1h")

	cfg, err := Load(newViper(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.OpenAI.APIKey != "sk-env" || cfg.SerpAPI.APIKey != "serp-env" {
		t.Errorf("expected provider keys from env, got %q %q", cfg.OpenAI.APIKey, cfg.SerpAPI.APIKey)
	}
	if cfg.OpenAI.Model != "gpt-4o-mini" {
		t.Errorf("Model = %q", cfg.OpenAI.Model)
	}
	if cfg.Fetch.Timeout != 5*time.Second || cfg.Scheduler.Interval != time.Hour {
		t.Errorf("unexpected durations %v %v", cfg.Fetch.Timeout, cfg.Scheduler.Interval)
	}
	if err := cfg.ValidateGeneration(); err != nil {
		t.Errorf("ValidateGeneration: %v", err)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seoscribe.yaml")
	yaml := `
openai:
  temperature: 0.3
scheduler:
  keywords: ["a", "b"]
  start: 1
storage:
  backend: sqlite
  dsn: runs.db
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	v := newViper(t)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig: %v", err)
	}

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OpenAI.Temperature != 0.3 {
		t.Errorf("Temperature = %v", cfg.OpenAI.Temperature)
	}
	if strings.Join(cfg.Scheduler.Keywords, ",") != "a,b" || cfg.Scheduler.Start != 1 {
		t.Errorf("unexpected scheduler %+v", cfg.Scheduler)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	base, err := Load(newViper(t))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad format", func(c *Config) { c.Log.Format = "xml" }},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }},
		{"bad profile", func(c *Config) { c.Fetch.TLSProfile = "opera" }},
		{"zero fetch timeout", func(c *Config) { c.Fetch.Timeout = 0 }},
		{"jitter above one", func(c *Config) { c.Fetch.Jitter = 1.5 }},
		{"temperature", func(c *Config) { c.OpenAI.Temperature = 3 }},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "mongo" }},
		{"backend without dsn", func(c *Config) { c.Storage.Backend = "json" }},
		{"metrics port", func(c *Config) { c.Metrics.Port = 70000 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestValidateGeneration_MissingKeys(t *testing.T) {
	err := Config{}.ValidateGeneration()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "SERPAPI_API_KEY") || !strings.Contains(err.Error(), "OPENAI_API_KEY") {
		t.Errorf("expected both keys named, got %v", err)
	}
}

func TestValidateScheduler(t *testing.T) {
	c := Config{Scheduler: SchedulerConfig{Enabled: true, Interval: time.Hour}}
	if err := c.ValidateScheduler(); err == nil {
		t.Error("expected error for empty keywords")
	}
	c.Scheduler.Enabled = false
	if err := c.ValidateScheduler(); err != nil {
		t.Errorf("disabled scheduler should validate: %v", err)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("SEOSCRIBE_TEST_DOTENV=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SEOSCRIBE_TEST_DOTENV", "")
	os.Unsetenv("SEOSCRIBE_TEST_DOTENV")

	if err := LoadDotEnv(filepath.Join(dir, "missing.env"), path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("SEOSCRIBE_TEST_DOTENV"); got != "from-file" {
		t.Errorf("expected value from .env, got %q", got)
	}
}

func TestLogConfig_NewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := LogConfig{Level: "warn", Format: "json"}.NewLogger(&buf)

	logger.Info("hidden")
	logger.Warn("shown", "keyword", "k")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info should be filtered at warn level")
	}
	if !strings.Contains(out, `"msg":"shown"`) || !strings.Contains(out, `"keyword":"k"`) {
		t.Errorf("expected json record, got %s", out)
	}
}
