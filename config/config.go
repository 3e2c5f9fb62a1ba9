// Package config holds runtime configuration for promptforge.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/promptforge/promptforge/utils"
)

// Config carries provider selection, sampling parameters, and the timeouts
// that bound every external call the engine makes.
type Config struct {
	Provider    string  `env:"PF_PROVIDER" envDefault:"openai" validate:"required"`
	Model       string  `env:"PF_MODEL" envDefault:"gpt-4o-mini" validate:"required"`
	Temperature float64 `env:"PF_TEMPERATURE" envDefault:"0.7" validate:"gte=0,lte=2"`
	MaxTokens   int     `env:"PF_MAX_TOKENS" envDefault:"1024" validate:"gte=1"`

	// Timeout bounds each single text-generation call.
	Timeout time.Duration `env:"PF_TIMEOUT" envDefault:"30s"`
	// OptimizationTimeout bounds a whole advanced optimization request;
	// on expiry the engine falls back to the fast single-shot path.
	OptimizationTimeout time.Duration `env:"PF_OPTIMIZATION_TIMEOUT" envDefault:"60s"`

	MaxRetries int           `env:"PF_MAX_RETRIES" envDefault:"3" validate:"gte=0"`
	RetryDelay time.Duration `env:"PF_RETRY_DELAY" envDefault:"2s"`

	APIKeys  map[string]string
	LogLevel utils.LogLevel `env:"PF_LOG_LEVEL" envDefault:"WARN"`

	ExtraHeaders map[string]string
}

// LoadConfig builds a Config from the environment. Any variable ending in
// _API_KEY is collected into APIKeys keyed by the lower-cased provider name.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		APIKeys:      make(map[string]string),
		ExtraHeaders: make(map[string]string),
	}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	loadAPIKeys(cfg)
	return cfg, nil
}

func loadAPIKeys(cfg *Config) {
	for _, envVar := range os.Environ() {
		key, value, found := strings.Cut(envVar, "=")
		if found && strings.HasSuffix(strings.ToUpper(key), "_API_KEY") {
			provider := strings.TrimSuffix(strings.ToUpper(key), "_API_KEY")
			cfg.APIKeys[strings.ToLower(provider)] = value
		}
	}
}

// ConfigOption mutates a Config. Options are applied in order.
type ConfigOption func(*Config)

// NewConfig returns a Config with library defaults, no environment involved.
func NewConfig(opts ...ConfigOption) *Config {
	cfg := &Config{
		Provider:            "openai",
		Model:               "gpt-4o-mini",
		Temperature:         0.7,
		MaxTokens:           1024,
		Timeout:             30 * time.Second,
		OptimizationTimeout: 60 * time.Second,
		MaxRetries:          3,
		RetryDelay:          2 * time.Second,
		APIKeys:             make(map[string]string),
		LogLevel:            utils.LogLevelWarn,
		ExtraHeaders:        make(map[string]string),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func SetProvider(provider string) ConfigOption {
	return func(c *Config) {
		c.Provider = provider
	}
}

func SetModel(model string) ConfigOption {
	return func(c *Config) {
		c.Model = model
	}
}

func SetTemperature(temperature float64) ConfigOption {
	return func(c *Config) {
		c.Temperature = temperature
	}
}

func SetMaxTokens(maxTokens int) ConfigOption {
	return func(c *Config) {
		if maxTokens < 1 {
			maxTokens = 1
		}
		c.MaxTokens = maxTokens
	}
}

func SetTimeout(timeout time.Duration) ConfigOption {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

func SetOptimizationTimeout(timeout time.Duration) ConfigOption {
	return func(c *Config) {
		c.OptimizationTimeout = timeout
	}
}

func SetAPIKey(apiKey string) ConfigOption {
	return func(c *Config) {
		if c.APIKeys == nil {
			c.APIKeys = make(map[string]string)
		}
		c.APIKeys[c.Provider] = apiKey
	}
}

func SetMaxRetries(maxRetries int) ConfigOption {
	return func(c *Config) {
		c.MaxRetries = maxRetries
	}
}

func SetRetryDelay(delay time.Duration) ConfigOption {
	return func(c *Config) {
		c.RetryDelay = delay
	}
}

func SetLogLevel(level utils.LogLevel) ConfigOption {
	return func(c *Config) {
		c.LogLevel = level
	}
}
