// Package config loads application configuration from file and environment
// and initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/parkatlas/parkatlas/internal/usage"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	LLM      LLMConfig      `yaml:"llm" mapstructure:"llm"`
	Pricing  usage.Rates    `yaml:"pricing" mapstructure:"pricing"`
	Pipeline PipelineConfig `yaml:"pipeline" mapstructure:"pipeline"`
	Batch    BatchConfig    `yaml:"batch" mapstructure:"batch"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	// KeyPolicy selects the park uniqueness key: "name" or "wiki_url".
	KeyPolicy string `yaml:"key_policy" mapstructure:"key_policy"`
	MaxConns  int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns  int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// LLMConfig selects and configures the model provider.
type LLMConfig struct {
	Provider  string          `yaml:"provider" mapstructure:"provider"`
	Gemini    GeminiConfig    `yaml:"gemini" mapstructure:"gemini"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
}

// GeminiConfig holds Gemini API settings.
type GeminiConfig struct {
	Key               string `yaml:"key" mapstructure:"key"`
	Model             string `yaml:"model" mapstructure:"model"`
	BaseURL           string `yaml:"base_url" mapstructure:"base_url"`
	RequestsPerMinute int    `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// PipelineConfig configures extraction behavior.
type PipelineConfig struct {
	// MaxMissingFields is the backfill cutoff: when more fields are missing,
	// backfill is skipped entirely.
	MaxMissingFields int `yaml:"max_missing_fields" mapstructure:"max_missing_fields"`
}

// BatchConfig configures batch extraction.
type BatchConfig struct {
	MaxConcurrentParks int `yaml:"max_concurrent_parks" mapstructure:"max_concurrent_parks"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
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
	v.SetEnvPrefix("PARKATLAS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about. Keys without
	// defaults (secrets, connection strings) must be bound explicitly or
	// Unmarshal never sees their env values.
	for _, key := range []string{
		"store.database_url",
		"store.max_conns",
		"store.min_conns",
		"llm.gemini.key",
		"llm.gemini.base_url",
		"llm.anthropic.key",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, eris.Wrap(err, "config: bind env")
		}
	}

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.key_policy", "name")
	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.gemini.model", "gemini-2.5-flash-lite")
	v.SetDefault("llm.gemini.requests_per_minute", 30)
	v.SetDefault("llm.anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("pricing.input_per_mtok", usage.DefaultRates().InputPerMTok)
	v.SetDefault("pricing.output_per_mtok", usage.DefaultRates().OutputPerMTok)
	v.SetDefault("pricing.usd_to_cny", usage.DefaultRates().USDToCNY)
	v.SetDefault("pipeline.max_missing_fields", 3)
	v.SetDefault("batch.max_concurrent_parks", 3)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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
