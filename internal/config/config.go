package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sleepstars/periop-assistant/internal/logger"
	"gopkg.in/yaml.v3"
)

// Upstream client kinds
const (
	ClientHTTP   = "http"
	ClientOpenAI = "openai"
)

// Config is the full service configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Prompts  PromptsConfig  `yaml:"prompts"`
	Logging  LoggingConfig  `yaml:"logging"`
	Web      WebConfig      `yaml:"web"`
}

// ServerConfig configures the relay's HTTP listener
type ServerConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// UpstreamConfig describes the chat completion provider
type UpstreamConfig struct {
	Client      string        `yaml:"client"`
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model"`
	APIKeyEnv   string        `yaml:"api_key_env"`
	Temperature float32       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`

	// APIKey is resolved from APIKeyEnv and never read from YAML
	APIKey string `yaml:"-"`
}

// PromptsConfig contains the fixed texts of the assistant
type PromptsConfig struct {
	System        string `yaml:"system"`
	Fallback      string `yaml:"fallback"`
	LocalFallback string `yaml:"local_fallback"`
}

// LoggingConfig controls log output
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// WebConfig configures the patient-facing page
type WebConfig struct {
	Port      int      `yaml:"port"`
	RelayURL  string   `yaml:"relay_url"`
	Title     string   `yaml:"title"`
	Questions []string `yaml:"questions"`
}

// LoadConfig loads configuration from a YAML file layered over the defaults.
// An empty path yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Load reads the optional .env file, the YAML file, applies environment
// overrides, resolves the API key and validates the result.
func Load(path, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	cfg.ResolveAPIKey()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides file values with environment variables
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("RELAY_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RELAY_PORT: %w", err)
		}
		c.Server.Port = port
	}
	c.Upstream.BaseURL = getEnvOrDefault("UPSTREAM_BASE_URL", c.Upstream.BaseURL)
	c.Upstream.Model = getEnvOrDefault("UPSTREAM_MODEL", c.Upstream.Model)
	c.Upstream.Client = getEnvOrDefault("UPSTREAM_CLIENT", c.Upstream.Client)
	c.Web.RelayURL = getEnvOrDefault("RELAY_URL", c.Web.RelayURL)
	c.Logging.Level = getEnvOrDefault("LOG_LEVEL", c.Logging.Level)
	return nil
}

// ResolveAPIKey reads the upstream credential from the configured variable
func (c *Config) ResolveAPIKey() {
	if c.Upstream.APIKeyEnv != "" {
		c.Upstream.APIKey = os.Getenv(c.Upstream.APIKeyEnv)
	}
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}

	switch c.Upstream.Client {
	case ClientHTTP, ClientOpenAI:
	default:
		return fmt.Errorf("upstream.client must be %q or %q, got %q", ClientHTTP, ClientOpenAI, c.Upstream.Client)
	}
	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("upstream.base_url is required")
	}
	u, err := url.Parse(c.Upstream.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("upstream.base_url %q must be an absolute http(s) URL", c.Upstream.BaseURL)
	}
	if c.Upstream.Model == "" {
		return fmt.Errorf("upstream.model is required")
	}
	if c.Upstream.Temperature < 0 || c.Upstream.Temperature > 2 {
		return fmt.Errorf("upstream.temperature %.2f must be within [0, 2]", c.Upstream.Temperature)
	}
	if c.Upstream.Timeout <= 0 {
		return fmt.Errorf("upstream.timeout must be positive")
	}

	if strings.TrimSpace(c.Prompts.System) == "" {
		return fmt.Errorf("prompts.system is required")
	}
	if strings.TrimSpace(c.Prompts.Fallback) == "" {
		return fmt.Errorf("prompts.fallback is required")
	}

	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	return nil
}

// ReloadRequiresRestart lists settings that differ between c and next but are
// only applied at startup
func (c *Config) ReloadRequiresRestart(next *Config) []string {
	var changed []string
	if c.Server.Port != next.Server.Port {
		changed = append(changed, "server.port")
	}
	if c.Upstream.Client != next.Upstream.Client {
		changed = append(changed, "upstream.client")
	}
	if c.Upstream.BaseURL != next.Upstream.BaseURL {
		changed = append(changed, "upstream.base_url")
	}
	if c.Upstream.APIKeyEnv != next.Upstream.APIKeyEnv {
		changed = append(changed, "upstream.api_key_env")
	}
	return changed
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// LoggerOptions converts the logging section into logger options
func (c LoggingConfig) LoggerOptions(component string) (logger.Options, error) {
	level, err := logger.ParseLevel(c.Level)
	if err != nil {
		return logger.Options{}, err
	}
	format := logger.ConsoleFormat
	if strings.EqualFold(c.Format, string(logger.JSONFormat)) {
		format = logger.JSONFormat
	}
	return logger.Options{Level: level, Component: component, Format: format}, nil
}
