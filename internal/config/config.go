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
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Catalog    CatalogConfig    `yaml:"catalog" mapstructure:"catalog"`
	Matcher    MatcherConfig    `yaml:"matcher" mapstructure:"matcher"`
	Complexity ComplexityConfig `yaml:"complexity" mapstructure:"complexity"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// CatalogConfig selects where the reference catalog is loaded from.
type CatalogConfig struct {
	Source          string `yaml:"source" mapstructure:"source"` // builtin, file, store, http
	Path            string `yaml:"path" mapstructure:"path"`
	URL             string `yaml:"url" mapstructure:"url"`
	CacheTTLMinutes int    `yaml:"cache_ttl_minutes" mapstructure:"cache_ttl_minutes"`
}

// MatcherConfig tunes match confidence levels.
type MatcherConfig struct {
	ExactConfidence           float64 `yaml:"exact_confidence" mapstructure:"exact_confidence"`
	DomainSubstringConfidence float64 `yaml:"domain_substring_confidence" mapstructure:"domain_substring_confidence"`
	CrossSubstringConfidence  float64 `yaml:"cross_substring_confidence" mapstructure:"cross_substring_confidence"`
	OverlapThreshold          float64 `yaml:"overlap_threshold" mapstructure:"overlap_threshold"`
}

// ComplexityConfig points at an optional scoring config override file.
type ComplexityConfig struct {
	ConfigFile string `yaml:"config_file" mapstructure:"config_file"`
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
	v.SetEnvPrefix("DELIVERY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "delivery.db")
	v.SetDefault("catalog.source", "builtin")
	v.SetDefault("catalog.cache_ttl_minutes", 15)
	v.SetDefault("matcher.exact_confidence", 1.0)
	v.SetDefault("matcher.domain_substring_confidence", 0.8)
	v.SetDefault("matcher.cross_substring_confidence", 0.6)
	v.SetDefault("matcher.overlap_threshold", 0.7)
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

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field consistency. It returns an error rather
// than logging so callers fail fast at startup.
func (c *Config) Validate() error {
	var errs []string

	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, "store.driver must be sqlite or postgres")
	}
	if c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required")
	}

	switch c.Catalog.Source {
	case "builtin", "store":
	case "file":
		if c.Catalog.Path == "" {
			errs = append(errs, "catalog.path is required for file source")
		}
	case "http":
		if c.Catalog.URL == "" {
			errs = append(errs, "catalog.url is required for http source")
		}
	default:
		errs = append(errs, "catalog.source must be builtin, file, store, or http")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, "server.port must be in 1..65535")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
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
