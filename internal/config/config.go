// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	LogLevel           string        `mapstructure:"LOG_LEVEL"`
	LogFormat          string        `mapstructure:"LOG_FORMAT"`
	GithubToken        string        `mapstructure:"GITHUB_TOKEN"`
	GithubAPIURL       string        `mapstructure:"GITHUB_API_URL"`
	RequestTimeout     time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	CategoriesFile     string        `mapstructure:"CATEGORIES_FILE"`
	MaxConcurrentUsers int           `mapstructure:"MAX_CONCURRENT_USERS"`
}

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"log-level":       "LOG_LEVEL",
	"log-format":      "LOG_FORMAT",
	"token":           "GITHUB_TOKEN",
	"api-url":         "GITHUB_API_URL",
	"timeout":         "REQUEST_TIMEOUT",
	"categories-file": "CATEGORIES_FILE",
	"concurrency":     "MAX_CONCURRENT_USERS",
}

// RegisterFlags defines the flags LoadConfig knows how to bind.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("log-level", "", "log level: debug, info, warn or error")
	flags.String("log-format", "", "log format: text or json")
	flags.String("token", "", "GitHub personal access token (overrides GITHUB_TOKEN)")
	flags.String("api-url", "", "GitHub API base URL, for GitHub Enterprise")
	flags.Duration("timeout", 0, "per-request HTTP timeout")
	flags.String("categories-file", "", "YAML file replacing the built-in category table")
	flags.Int("concurrency", 0, "how many users to fetch at once")
}

// LoadConfig reads configuration from flags, environment variables, a .env
// file and an optional starcorn.yaml, in that order of precedence. flags may
// be nil.
func LoadConfig(flags *pflag.FlagSet) (*Config, error) {
	// Missing .env is fine; existing environment variables win over it.
	_ = godotenv.Load()

	v := viper.New()

	// Set default values
	v.SetDefault("LOG_LEVEL", "warn")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("GITHUB_TOKEN", "")
	v.SetDefault("GITHUB_API_URL", "")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("CATEGORIES_FILE", "")
	v.SetDefault("MAX_CONCURRENT_USERS", 3)

	v.SetConfigName("starcorn")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	// Bind environment variables
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("binding flag %q: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	c.GithubToken = strings.TrimSpace(c.GithubToken)

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error; got %q", c.LogLevel)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("LOG_FORMAT must be text or json; got %q", c.LogFormat)
	}
	if c.GithubAPIURL != "" {
		u, err := url.Parse(c.GithubAPIURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("GITHUB_API_URL must be an absolute URL; got %q", c.GithubAPIURL)
		}
	}
	if c.RequestTimeout <= 0 {
		return errors.New("REQUEST_TIMEOUT must be a positive duration (e.g. 30s)")
	}
	if c.MaxConcurrentUsers < 1 {
		return errors.New("MAX_CONCURRENT_USERS must be at least 1")
	}
	return nil
}
