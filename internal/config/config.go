// Package config loads repolens settings from a config file, REPOLENS_*
// environment variables and command-line flags, using Viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment variable read by Viper.
const EnvPrefix = "REPOLENS"

// ErrMissingToken is returned when no GitHub token is configured.
var ErrMissingToken = errors.New("GitHub token is not set: pass --token, set GITHUB_TOKEN, or set github.token in .repolens.yaml")

type Config struct {
	GitHub    GitHubConfig    `mapstructure:"github"`
	Analysis  AnalysisConfig  `mapstructure:"analysis"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	RulesFile string          `mapstructure:"rules_file"`
}

type GitHubConfig struct {
	Token string `mapstructure:"token"`
}

type AnalysisConfig struct {
	MaxFiles    int      `mapstructure:"max_files"`
	Concurrency int      `mapstructure:"concurrency"`
	SkipDirs    []string `mapstructure:"skip_dirs"`
}

type RateLimitConfig struct {
	MaxRequests int           `mapstructure:"max_requests"`
	Window      time.Duration `mapstructure:"window"`
	MinInterval time.Duration `mapstructure:"min_interval"`
	MaxWait     time.Duration `mapstructure:"max_wait"`
}

// New returns a Viper instance with defaults and environment binding applied.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("analysis.max_files", 100)
	v.SetDefault("analysis.concurrency", 1)
	v.SetDefault("ratelimit.max_requests", 5000)
	v.SetDefault("ratelimit.window", time.Hour)
	v.SetDefault("ratelimit.min_interval", 50*time.Millisecond)
	v.SetDefault("ratelimit.max_wait", 5*time.Minute)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// ReadFile points v at path, or at .repolens.yaml in the working directory
// when path is empty. A missing default file is not an error.
func ReadFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".repolens")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// Load unmarshals v into a Config. The GITHUB_TOKEN environment variable is
// used when no token was configured through Viper.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	// AutomaticEnv only resolves keys Viper already knows about.
	if cfg.GitHub.Token == "" {
		cfg.GitHub.Token = v.GetString("github.token")
	}
	if cfg.GitHub.Token == "" {
		cfg.GitHub.Token = os.Getenv("GITHUB_TOKEN")
	}
	if cfg.Analysis.Concurrency < 1 {
		cfg.Analysis.Concurrency = 1
	}
	return &cfg, nil
}

// Validate checks the settings that must be present before any network call.
func (c *Config) Validate() error {
	if c.GitHub.Token == "" {
		return ErrMissingToken
	}
	if c.Analysis.MaxFiles < 0 {
		return fmt.Errorf("analysis.max_files must not be negative, got %d", c.Analysis.MaxFiles)
	}
	return nil
}
