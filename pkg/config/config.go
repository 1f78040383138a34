package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"build-hooks/pkg/hooks"
	"build-hooks/pkg/retry"
)

// Config represents the root configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Secrets  SecretsConfig  `yaml:"secrets"`
	HTTP     HTTPConfig     `yaml:"http"`
	CircleCI CircleCIConfig `yaml:"circleci"`
	Roles    []string       `yaml:"roles"`
	Refresh  RefreshConfig  `yaml:"refresh"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig contains admin HTTP server settings
type ServerConfig struct {
	Port       string `yaml:"port"`
	RoleHeader string `yaml:"role_header"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type SecretsConfig struct {
	Path string `yaml:"path"`
}

// HTTPConfig contains outbound provider API settings
type HTTPConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	RateLimit int           `yaml:"rate_limit"`
	Retry     RetryConfig   `yaml:"retry"`
}

// RetryConfig contains retry settings for outbound GET requests
type RetryConfig struct {
	MaxAttempts     int           `yaml:"max_attempts"`
	InitialInterval time.Duration `yaml:"initial_interval"`
	MaxInterval     time.Duration `yaml:"max_interval"`
}

// Config converts to the retry package configuration
func (r RetryConfig) Config() retry.Config {
	return retry.Config{
		MaxAttempts:     r.MaxAttempts,
		InitialInterval: r.InitialInterval,
		MaxInterval:     r.MaxInterval,
	}
}

type CircleCIConfig struct {
	BaseURL string `yaml:"base_url"`
	AppURL  string `yaml:"app_url"`
}

// RefreshConfig enables the background workflow status refresher.
// An empty cron expression disables it.
type RefreshConfig struct {
	Cron string `yaml:"cron"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// DefaultRoles are the roles offered on the settings page
var DefaultRoles = []string{"administrator", "editor", "author", "contributor", "subscriber"}

// Default returns a configuration with every default applied
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// LoadConfig loads configuration from a YAML file. An empty path yields the defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes a YAML document, expanding environment variables first
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expanded), &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.RoleHeader == "" {
		c.Server.RoleHeader = "X-User-Role"
	}
	if c.Database.Path == "" {
		c.Database.Path = "data/build-hooks.db"
	}
	if c.Secrets.Path == "" {
		c.Secrets.Path = "uploads/private/secrets.json"
	}
	if c.HTTP.Timeout == 0 {
		c.HTTP.Timeout = hooks.DefaultTimeout
	}

	def := retry.DefaultConfig()
	if c.HTTP.Retry.MaxAttempts == 0 {
		c.HTTP.Retry.MaxAttempts = def.MaxAttempts
	}
	if c.HTTP.Retry.InitialInterval == 0 {
		c.HTTP.Retry.InitialInterval = def.InitialInterval
	}
	if c.HTTP.Retry.MaxInterval == 0 {
		c.HTTP.Retry.MaxInterval = def.MaxInterval
	}

	if c.CircleCI.BaseURL == "" {
		c.CircleCI.BaseURL = hooks.DefaultCircleCIBaseURL
	}
	if c.CircleCI.AppURL == "" {
		c.CircleCI.AppURL = hooks.DefaultCircleCIAppURL
	}
	c.CircleCI.BaseURL = NormalizeURL(c.CircleCI.BaseURL)
	c.CircleCI.AppURL = NormalizeURL(c.CircleCI.AppURL)

	if len(c.Roles) == 0 {
		c.Roles = append([]string(nil), DefaultRoles...)
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.HTTP.Timeout < 0 {
		return fmt.Errorf("http.timeout must not be negative")
	}
	if c.HTTP.RateLimit < 0 {
		return fmt.Errorf("http.rate_limit must not be negative")
	}
	if c.HTTP.Retry.MaxAttempts < 1 {
		return fmt.Errorf("http.retry.max_attempts must be at least 1")
	}
	if c.HTTP.Retry.MaxInterval < c.HTTP.Retry.InitialInterval {
		return fmt.Errorf("http.retry.max_interval must not be shorter than initial_interval")
	}

	for i, role := range c.Roles {
		if strings.TrimSpace(role) == "" {
			return fmt.Errorf("roles[%d]: role name is required", i)
		}
	}

	if c.Refresh.Cron != "" {
		if _, err := cron.ParseStandard(c.Refresh.Cron); err != nil {
			return fmt.Errorf("refresh.cron: invalid expression %q: %w", c.Refresh.Cron, err)
		}
	}

	return nil
}

// Addr returns the listen address for the admin server
func (c *Config) Addr() string {
	if strings.Contains(c.Server.Port, ":") {
		return c.Server.Port
	}
	return ":" + c.Server.Port
}

// NormalizeURL normalizes a base URL
func NormalizeURL(url string) string {
	// Remove trailing slash
	url = strings.TrimRight(url, "/")

	// Add https:// if no scheme
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "https://" + url
	}

	return url
}
