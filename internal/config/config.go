package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/amosWeiskopf/profilesmith/internal/models"
	"github.com/amosWeiskopf/profilesmith/pkg/aggregator"
	"github.com/amosWeiskopf/profilesmith/pkg/crawler"
	"github.com/amosWeiskopf/profilesmith/pkg/storage"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig `mapstructure:"server"`

	// Crawler configuration
	Crawler CrawlerConfig `mapstructure:"crawler"`

	// Aggregator configuration
	Aggregator AggregatorConfig `mapstructure:"aggregator"`

	// Storage configuration
	Storage StorageConfig `mapstructure:"storage"`

	// Logging configuration
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig holds dashboard server configuration
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	Host         string        `mapstructure:"host"`
	Mode         string        `mapstructure:"mode"` // "debug", "release" or "test"
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Addr returns the listen address
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// CrawlerConfig holds crawler-specific configuration
type CrawlerConfig struct {
	MaxPages         int           `mapstructure:"max_pages"`
	Timeout          time.Duration `mapstructure:"timeout"`
	UserAgent        string        `mapstructure:"user_agent"`
	PolitenessDelay  time.Duration `mapstructure:"politeness_delay"`
	RespectRobots    bool          `mapstructure:"respect_robots"`
	MaxBodyBytes     int64         `mapstructure:"max_body_bytes"`
	BusinessKeywords []string      `mapstructure:"business_keywords"`
}

// Options converts the section into crawler options
func (c CrawlerConfig) Options() crawler.Options {
	return crawler.Options{
		PageBudget:       c.MaxPages,
		PolitenessDelay:  c.PolitenessDelay,
		UserAgent:        c.UserAgent,
		Timeout:          c.Timeout,
		RespectRobots:    c.RespectRobots,
		MaxBodyBytes:     c.MaxBodyBytes,
		BusinessKeywords: c.BusinessKeywords,
	}
}

// AggregatorConfig holds aggregator-specific configuration
type AggregatorConfig struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	UserAgent    string        `mapstructure:"user_agent"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
}

// Options converts the section into aggregator options
func (c AggregatorConfig) Options() aggregator.Options {
	return aggregator.Options{
		Timeout:      c.Timeout,
		UserAgent:    c.UserAgent,
		MaxBodyBytes: c.MaxBodyBytes,
	}
}

// StorageConfig holds storage configuration
type StorageConfig struct {
	Type        string `mapstructure:"type"` // "file" or "redis"
	Path        string `mapstructure:"path"`
	RedisAddr   string `mapstructure:"redis_addr"`
	RedisPrefix string `mapstructure:"redis_prefix"`
}

// Options converts the section into storage options
func (c StorageConfig) Options() storage.Options {
	return storage.Options{
		Type:        c.Type,
		Path:        c.Path,
		RedisAddr:   c.RedisAddr,
		RedisPrefix: c.RedisPrefix,
	}
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"` // "json" or "console"
	OutputPath string `mapstructure:"output_path"`
}

// Load reads configuration from the file at configPath, or from config.yaml
// in the usual locations, then applies PROFILESMITH_* environment overrides.
// A missing config file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.profilesmith")
	}

	// Set defaults
	setDefaults(v)

	// Bind environment variables
	bindEnvVars(v)

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "10m")

	// Crawler defaults
	v.SetDefault("crawler.max_pages", crawler.DefaultPageBudget)
	v.SetDefault("crawler.timeout", "30s")
	v.SetDefault("crawler.user_agent", "CompanyProfileBot/1.0")
	v.SetDefault("crawler.politeness_delay", "1s")
	v.SetDefault("crawler.respect_robots", true)
	v.SetDefault("crawler.max_body_bytes", 10<<20)
	v.SetDefault("crawler.business_keywords", []string{})

	// Aggregator defaults
	v.SetDefault("aggregator.timeout", "30s")
	v.SetDefault("aggregator.user_agent", "CompanyProfileBot/1.0")
	v.SetDefault("aggregator.max_body_bytes", 10<<20)

	// Storage defaults
	v.SetDefault("storage.type", storage.TypeFile)
	v.SetDefault("storage.path", "./data")
	v.SetDefault("storage.redis_addr", "localhost:6379")
	v.SetDefault("storage.redis_prefix", "profilesmith:doc:")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output_path", "stderr")
}

// bindEnvVars maps crawler.max_pages to PROFILESMITH_CRAWLER_MAX_PAGES and so on
func bindEnvVars(v *viper.Viper) {
	v.SetEnvPrefix("PROFILESMITH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Validate validates the configuration
func (c *Config) Validate() error {
	var problems []string

	if c.Crawler.MaxPages <= 0 {
		problems = append(problems, "crawler.max_pages must be positive")
	}
	if c.Crawler.Timeout <= 0 {
		problems = append(problems, "crawler.timeout must be positive")
	}
	if c.Crawler.PolitenessDelay < 0 {
		problems = append(problems, "crawler.politeness_delay must not be negative")
	}
	if c.Aggregator.Timeout <= 0 {
		problems = append(problems, "aggregator.timeout must be positive")
	}

	switch c.Storage.Type {
	case storage.TypeFile:
		if c.Storage.Path == "" {
			problems = append(problems, "storage.path is required for file storage")
		}
	case storage.TypeRedis:
		if c.Storage.RedisAddr == "" {
			problems = append(problems, "storage.redis_addr is required for redis storage")
		}
	default:
		problems = append(problems, fmt.Sprintf("storage.type %q is not one of file, redis", c.Storage.Type))
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q is not one of json, console", c.Logging.Format))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", models.ErrConfiguration, strings.Join(problems, "; "))
	}
	return nil
}
