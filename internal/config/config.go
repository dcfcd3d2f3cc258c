// Package config loads seoscribe settings from a config file, the
// environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/FranksOps/seoscribe/internal/fingerprint"
	"github.com/FranksOps/seoscribe/internal/llm"
	"github.com/FranksOps/seoscribe/internal/research"
	"github.com/FranksOps/seoscribe/internal/scheduler"
	"github.com/FranksOps/seoscribe/internal/scraper"
	"github.com/FranksOps/seoscribe/internal/serp"
	"github.com/FranksOps/seoscribe/internal/storage/backends"
	"github.com/FranksOps/seoscribe/pkg/proxy"
)

// EnvPrefix prefixes every environment override, e.g. SEOSCRIBE_HTTP_ADDR.
const EnvPrefix = "SEOSCRIBE"

type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Web       WebConfig       `mapstructure:"web"`
	SerpAPI   SerpAPIConfig   `mapstructure:"serpapi"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Fetch     FetchConfig     `mapstructure:"fetch"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type HTTPConfig struct {
	Addr              string        `mapstructure:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	// WriteTimeout must cover a full generation.
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type WebConfig struct {
	RenderMarkdown bool `mapstructure:"render_markdown"`
}

type SerpAPIConfig struct {
	APIKey   string        `mapstructure:"api_key"`
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Engine   string        `mapstructure:"engine"`
	Country  string        `mapstructure:"country"`
	Language string        `mapstructure:"language"`
}

type OpenAIConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type FetchConfig struct {
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxRedirects      int           `mapstructure:"max_redirects"`
	MaxBodyBytes      int64         `mapstructure:"max_body_bytes"`
	UserAgents        []string      `mapstructure:"user_agents"`
	TLSProfile        string        `mapstructure:"tls_profile"`
	RespectRobots     bool          `mapstructure:"respect_robots"`
	Competitors       int           `mapstructure:"competitors"`
	Concurrency       int           `mapstructure:"concurrency"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Jitter            float64       `mapstructure:"jitter"`
	Proxies           []string      `mapstructure:"proxies"`
	ProxyFile         string        `mapstructure:"proxy_file"`
	ProxyMaxFailures  int           `mapstructure:"proxy_max_failures"`
	ProxyCooldown     time.Duration `mapstructure:"proxy_cooldown"`
}

type SchedulerConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Interval   time.Duration `mapstructure:"interval"`
	Keywords   []string      `mapstructure:"keywords"`
	Start      int           `mapstructure:"start"`
	RunOnStart bool          `mapstructure:"run_on_start"`
}

type StorageConfig struct {
	Backend string `mapstructure:"backend"`
	DSN     string `mapstructure:"dsn"`
}

type MetricsConfig struct {
	// Port 0 disables the metrics server.
	Port int `mapstructure:"port"`
}

// SetDefaults registers every key with its default so that environment
// overrides are seen by Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("http.addr", ":5000")
	v.SetDefault("http.read_header_timeout", 10*time.Second)
	v.SetDefault("http.write_timeout", 5*time.Minute)
	v.SetDefault("http.shutdown_timeout", 10*time.Second)

	v.SetDefault("web.render_markdown", false)

	v.SetDefault("serpapi.api_key", "")
	v.SetDefault("serpapi.base_url", serp.DefaultSerpAPIURL)
	v.SetDefault("serpapi.timeout", 30*time.Second)
	v.SetDefault("serpapi.engine", "google")
	v.SetDefault("serpapi.country", "us")
	v.SetDefault("serpapi.language", "en")

	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.model", llm.DefaultModel)
	v.SetDefault("openai.temperature", llm.DefaultTemperature)
	v.SetDefault("openai.timeout", llm.DefaultTimeout)

	v.SetDefault("fetch.timeout", scraper.DefaultTimeout)
	v.SetDefault("fetch.max_redirects", 0)
	v.SetDefault("fetch.max_body_bytes", scraper.DefaultMaxBodyBytes)
	v.SetDefault("fetch.user_agents", []string{})
	v.SetDefault("fetch.tls_profile", string(fingerprint.ProfileGo))
	v.SetDefault("fetch.respect_robots", false)
	v.SetDefault("fetch.competitors", research.DefaultCompetitors)
	v.SetDefault("fetch.concurrency", research.DefaultCompetitors)
	v.SetDefault("fetch.requests_per_second", 0.0)
	v.SetDefault("fetch.jitter", 0.0)
	v.SetDefault("fetch.proxies", []string{})
	v.SetDefault("fetch.proxy_file", "")
	v.SetDefault("fetch.proxy_max_failures", proxy.DefaultMaxFailures)
	v.SetDefault("fetch.proxy_cooldown", proxy.DefaultCooldown)

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.interval", scheduler.DefaultInterval)
	v.SetDefault("scheduler.keywords", scheduler.DefaultKeywords)
	v.SetDefault("scheduler.start", 0)
	v.SetDefault("scheduler.run_on_start", false)

	v.SetDefault("storage.backend", backends.None)
	v.SetDefault("storage.dsn", "")

	v.SetDefault("metrics.port", 0)
}

// BindEnv enables SEOSCRIBE_* overrides and the conventional provider key
// variables.
func BindEnv(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv("openai.api_key", EnvPrefix+"_OPENAI_API_KEY", "OPENAI_API_KEY"); err != nil {
		return fmt.Errorf("binding openai api key: %w", err)
	}
	if err := v.BindEnv("serpapi.api_key", EnvPrefix+"_SERPAPI_API_KEY", "SERPAPI_API_KEY"); err != nil {
		return fmt.Errorf("binding serpapi api key: %w", err)
	}
	return nil
}

// LoadDotEnv loads variables from the given .env files. Missing files are
// skipped; variables already set in the environment win.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// Load decodes v into a Config. It does not validate.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}

// Validate checks settings that every command needs.
func (c Config) Validate() error {
	var errs []error

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if _, err := fingerprint.ParseProfile(c.Fetch.TLSProfile); err != nil {
		errs = append(errs, fmt.Errorf("fetch.tls_profile: %w", err))
	}
	if c.Fetch.Timeout <= 0 {
		errs = append(errs, errors.New("fetch.timeout must be positive"))
	}
	if c.Fetch.RequestsPerSecond < 0 || c.Fetch.Jitter < 0 || c.Fetch.Jitter > 1 {
		errs = append(errs, errors.New("fetch.requests_per_second must be >= 0 and fetch.jitter within [0, 1]"))
	}
	if c.OpenAI.Temperature < 0 || c.OpenAI.Temperature > 2 {
		errs = append(errs, fmt.Errorf("openai.temperature must be within [0, 2], got %v", c.OpenAI.Temperature))
	}
	switch c.Storage.Backend {
	case "", backends.None:
	case backends.JSON, backends.CSV, backends.SQLite, backends.Postgres:
		if c.Storage.DSN == "" {
			errs = append(errs, fmt.Errorf("storage.dsn is required for backend %q", c.Storage.Backend))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.backend %q is not one of none, json, csv, sqlite, postgres", c.Storage.Backend))
	}
	if c.Metrics.Port < 0 || c.Metrics.Port > 65535 {
		errs = append(errs, fmt.Errorf("metrics.port out of range: %d", c.Metrics.Port))
	}

	return errors.Join(errs...)
}

// ValidateGeneration checks what a generation run needs on top of Validate.
func (c Config) ValidateGeneration() error {
	var errs []error
	if c.SerpAPI.APIKey == "" {
		errs = append(errs, errors.New("serpapi api key is required (SERPAPI_API_KEY)"))
	}
	if c.OpenAI.APIKey == "" {
		errs = append(errs, errors.New("openai api key is required (OPENAI_API_KEY)"))
	}
	return errors.Join(errs...)
}

// ValidateScheduler checks the scheduler section when it is enabled.
func (c Config) ValidateScheduler() error {
	if !c.Scheduler.Enabled {
		return nil
	}
	if c.Scheduler.Interval <= 0 {
		return errors.New("scheduler.interval must be positive")
	}
	if len(c.Scheduler.Keywords) == 0 {
		return errors.New("scheduler.keywords must not be empty")
	}
	return nil
}
