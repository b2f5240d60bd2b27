package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Research  ResearchConfig  `yaml:"research" mapstructure:"research"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // "postgres" or "sqlite"
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// ResearchConfig configures the domain research pipeline: fetch behavior,
// candidate paths, and corpus bounds.
type ResearchConfig struct {
	FetchTimeoutSecs int      `yaml:"fetch_timeout_secs" mapstructure:"fetch_timeout_secs"`
	PageMaxChars     int      `yaml:"page_max_chars" mapstructure:"page_max_chars"`
	MinPageChars     int      `yaml:"min_page_chars" mapstructure:"min_page_chars"`
	CorpusMaxChars   int      `yaml:"corpus_max_chars" mapstructure:"corpus_max_chars"`
	CandidatePaths   []string `yaml:"candidate_paths" mapstructure:"candidate_paths"`
	UserAgent        string   `yaml:"user_agent" mapstructure:"user_agent"`
	HostRatePerSec   float64  `yaml:"host_rate_per_sec" mapstructure:"host_rate_per_sec"`
	HostBurst        int      `yaml:"host_burst" mapstructure:"host_burst"`
	JobTimeoutSecs   int      `yaml:"job_timeout_secs" mapstructure:"job_timeout_secs"`
	RulesFile        string   `yaml:"rules_file" mapstructure:"rules_file"`
}

// FetchTimeout returns the per-request fetch timeout as a duration.
func (c ResearchConfig) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSecs) * time.Second
}

// JobTimeout returns the overall per-job deadline as a duration.
func (c ResearchConfig) JobTimeout() time.Duration {
	return time.Duration(c.JobTimeoutSecs) * time.Second
}

// ServerConfig configures the HTTP API server.
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
	v.SetEnvPrefix("SCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 4096)
	v.SetDefault("research.fetch_timeout_secs", 8)
	v.SetDefault("research.page_max_chars", 20000)
	v.SetDefault("research.min_page_chars", 500)
	v.SetDefault("research.corpus_max_chars", 25000)
	v.SetDefault("research.candidate_paths", []string{"/about", "/about-us", "/team", "/company"})
	v.SetDefault("research.user_agent", "Mozilla/5.0 (compatible; CompanyScoutBot/1.0)")
	v.SetDefault("research.host_rate_per_sec", 2.0)
	v.SetDefault("research.host_burst", 2)
	v.SetDefault("research.job_timeout_secs", 300)

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

// ValidatePipeline checks the settings the enrichment pipeline cannot run
// without. Missing credentials are a startup failure, not a per-job one.
func (c *Config) ValidatePipeline() error {
	if c.Anthropic.Key == "" {
		return eris.New("config: anthropic.key is required (SCOUT_ANTHROPIC_KEY)")
	}
	// The sqlite driver falls back to a local file when no DSN is set.
	if c.Store.Driver != "sqlite" && c.Store.DatabaseURL == "" {
		return eris.New("config: store.database_url is required (SCOUT_STORE_DATABASE_URL)")
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
