package model

import "time"

// Config holds the complete enquete configuration
type Config struct {
	LLM         LLMConfig         `yaml:"llm"`
	Retry       RetryConfig       `yaml:"retry"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
	Cache       CacheConfig       `yaml:"cache"`
	Store       StoreConfig       `yaml:"store"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	Output      OutputConfig      `yaml:"output"`
}

// LLMConfig configures the generation provider
type LLMConfig struct {
	Provider    string  `yaml:"provider"`          // gemini, openai, anthropic, ollama
	Model       string  `yaml:"model"`             // Provider-specific model name
	APIKey      string  `yaml:"api_key,omitempty"` // Prefer environment variables
	BaseURL     string  `yaml:"base_url,omitempty"`
	Timeout     int     `yaml:"timeout"` // seconds, 0 means transport default
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float32 `yaml:"temperature"`
	HTTPProxy   string  `yaml:"http_proxy,omitempty"`
	HTTPSProxy  string  `yaml:"https_proxy,omitempty"`
	NoProxy     string  `yaml:"no_proxy,omitempty"`
}

// RetryConfig configures quota backoff
type RetryConfig struct {
	MaxRetries int           `yaml:"max_retries"`
	BaseDelay  time.Duration `yaml:"base_delay"`
}

// RateLimitConfig throttles outbound generation calls
type RateLimitConfig struct {
	Enabled           bool    `yaml:"enabled"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size"`
}

// CacheConfig configures the generation response cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled"`
	MemoryTTL time.Duration `yaml:"memory_ttl"`
	DiskDir   string        `yaml:"disk_dir"` // Relative paths resolve under the data dir
	DiskTTL   time.Duration `yaml:"disk_ttl"`
}

// StoreConfig selects the case store driver
type StoreConfig struct {
	Driver  string `yaml:"driver"`   // file, sqlite, memory
	DataDir string `yaml:"data_dir"` // Defaults to $HOME/.enquete
}

// ConcurrencyConfig configures batch imports
type ConcurrencyConfig struct {
	Workers int `yaml:"workers"`
}

// OutputConfig controls CLI output
type OutputConfig struct {
	Verbose bool `yaml:"verbose"`
	Color   bool `yaml:"color"`
}

// DefaultConfig returns working defaults
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:    "gemini",
			Model:       "gemini-3-flash-preview",
			Timeout:     0,
			MaxTokens:   0,
			Temperature: 0.3,
		},
		Retry: RetryConfig{
			MaxRetries: 3,
			BaseDelay:  time.Second,
		},
		RateLimit: RateLimitConfig{
			Enabled:           false,
			RequestsPerSecond: 1,
			BurstSize:         2,
		},
		Cache: CacheConfig{
			Enabled:   true,
			MemoryTTL: 30 * time.Minute,
			DiskDir:   "cache",
			DiskTTL:   24 * time.Hour,
		},
		Store: StoreConfig{
			Driver: "file",
		},
		Concurrency: ConcurrencyConfig{
			Workers: 2,
		},
		Output: OutputConfig{
			Color: true,
		},
	}
}
