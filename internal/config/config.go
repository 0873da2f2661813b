package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Census     CensusConfig     `yaml:"census" mapstructure:"census"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Groq       GroqConfig       `yaml:"groq" mapstructure:"groq"`
	Generator  GeneratorConfig  `yaml:"generator" mapstructure:"generator"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// CensusConfig configures the Census API normalizer.
type CensusConfig struct {
	BaseURL           string `yaml:"base_url" mapstructure:"base_url"`
	Year              int    `yaml:"year" mapstructure:"year"`
	Dataset           string `yaml:"dataset" mapstructure:"dataset"`
	APIKey            string `yaml:"api_key" mapstructure:"api_key"`
	TimeoutSecs       int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries        int    `yaml:"max_retries" mapstructure:"max_retries"`
	MinMedianIncome   int    `yaml:"min_median_income" mapstructure:"min_median_income"`
	CacheTTLMinutes   int    `yaml:"cache_ttl_minutes" mapstructure:"cache_ttl_minutes"`
	DistrictZIPFile   string `yaml:"district_zip_file" mapstructure:"district_zip_file"`
	MaxConcurrentZIPs int    `yaml:"max_concurrent_zips" mapstructure:"max_concurrent_zips"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	Model   string `yaml:"model" mapstructure:"model"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// GroqConfig holds Groq (OpenAI-compatible) API settings.
type GroqConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	Model   string `yaml:"model" mapstructure:"model"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// GeneratorConfig configures persona generation and the LLM call policy.
type GeneratorConfig struct {
	Providers        []string `yaml:"providers" mapstructure:"providers"`
	MaxTokens        int64    `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature      float64  `yaml:"temperature" mapstructure:"temperature"`
	TimeoutSecs      int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RetryAttempts    int      `yaml:"retry_attempts" mapstructure:"retry_attempts"`
	InitialBackoffMs int      `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int      `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	MaxPersonas      int      `yaml:"max_personas" mapstructure:"max_personas"`
	DefaultPersonas  int      `yaml:"default_personas" mapstructure:"default_personas"`
	Seed             uint64   `yaml:"seed" mapstructure:"seed"`
	BreakerFailures  int      `yaml:"breaker_failures" mapstructure:"breaker_failures"`
	BreakerResetSecs int      `yaml:"breaker_reset_secs" mapstructure:"breaker_reset_secs"`
}

// StoreConfig configures the result cache backend.
type StoreConfig struct {
	Driver        string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL   string `yaml:"database_url" mapstructure:"database_url"`
	CacheTTLHours int    `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// MonitoringConfig configures the background cache janitor and alerting.
type MonitoringConfig struct {
	CheckIntervalSecs   int    `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
	WebhookURL          string `yaml:"webhook_url" mapstructure:"webhook_url"`
	CacheEntryThreshold int    `yaml:"cache_entry_threshold" mapstructure:"cache_entry_threshold"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("TWIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000", "http://localhost:5173"})
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "twin.db")
	v.SetDefault("store.cache_ttl_hours", 24)
	v.SetDefault("census.base_url", "https://api.census.gov/data")
	v.SetDefault("census.year", 2022)
	v.SetDefault("census.dataset", "acs/acs5")
	v.SetDefault("census.timeout_secs", 15)
	v.SetDefault("census.max_retries", 2)
	v.SetDefault("census.min_median_income", 30000)
	v.SetDefault("census.cache_ttl_minutes", 360)
	v.SetDefault("census.max_concurrent_zips", 8)
	// Secrets default to empty so AutomaticEnv can bind them on Unmarshal.
	v.SetDefault("census.api_key", "")
	v.SetDefault("census.district_zip_file", "")
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.base_url", "")
	v.SetDefault("groq.key", "")
	v.SetDefault("generator.seed", 0)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("groq.model", "llama-3.3-70b-versatile")
	v.SetDefault("groq.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("generator.providers", []string{"anthropic", "groq"})
	v.SetDefault("generator.max_tokens", 4096)
	v.SetDefault("generator.temperature", 0.8)
	v.SetDefault("generator.timeout_secs", 60)
	v.SetDefault("generator.retry_attempts", 3)
	v.SetDefault("generator.initial_backoff_ms", 1000)
	v.SetDefault("generator.max_backoff_ms", 8000)
	v.SetDefault("generator.max_personas", 50)
	v.SetDefault("generator.default_personas", 5)
	v.SetDefault("generator.breaker_failures", 5)
	v.SetDefault("generator.breaker_reset_secs", 60)
	v.SetDefault("monitoring.check_interval_secs", 300)
	v.SetDefault("monitoring.webhook_url", "")
	v.SetDefault("monitoring.cache_entry_threshold", 0)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings required by the given mode ("serve",
// "generate" or "profile"). All problems are reported together.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "serve", "generate":
		switch c.Store.Driver {
		case "sqlite", "postgres":
		default:
			errs = append(errs, "store.driver must be sqlite or postgres")
		}
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required (TWIN_STORE_DATABASE_URL)")
		}
		for _, p := range c.Generator.Providers {
			if p != "anthropic" && p != "groq" {
				errs = append(errs, "generator.providers: unknown provider "+p)
			}
		}
		if c.Generator.MaxPersonas < 1 || c.Generator.MaxPersonas > 500 {
			errs = append(errs, "generator.max_personas must be between 1 and 500")
		}
		if mode == "serve" && c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
	case "profile":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Census.MinMedianIncome < 0 {
		errs = append(errs, "census.min_median_income must be >= 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
