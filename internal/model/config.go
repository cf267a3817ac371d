package model

import "time"

// Config holds the complete ipintel configuration
type Config struct {
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
	Providers    ProvidersConfig    `yaml:"providers" mapstructure:"providers"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	History      HistoryConfig      `yaml:"history" mapstructure:"history"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Host           string        `yaml:"host" mapstructure:"host"`
	Port           int           `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string      `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	ReadTimeout    time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`

	// TrustProxyHeaders takes the client IP from X-Forwarded-For / X-Real-IP.
	// Enable only behind a reverse proxy that overwrites them.
	TrustProxyHeaders bool `yaml:"trust_proxy_headers" mapstructure:"trust_proxy_headers"`
}

// ProvidersConfig configures the two lookup providers
type ProvidersConfig struct {
	AbuseIPDB      AbuseIPDBConfig      `yaml:"abuseipdb" mapstructure:"abuseipdb"`
	IPQualityScore IPQualityScoreConfig `yaml:"ipqualityscore" mapstructure:"ipqualityscore"`

	// Proxy settings for outbound provider requests
	HTTPProxy  string `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
}

// AbuseIPDBConfig configures the AbuseIPDB client
type AbuseIPDBConfig struct {
	APIKey       string        `yaml:"-" mapstructure:"api_key"`
	BaseURL      string        `yaml:"base_url" mapstructure:"base_url"`
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxAgeInDays int           `yaml:"max_age_in_days" mapstructure:"max_age_in_days"` // 1-365
}

// IPQualityScoreConfig configures the IPQualityScore client
type IPQualityScoreConfig struct {
	APIKey     string        `yaml:"-" mapstructure:"api_key"`
	BaseURL    string        `yaml:"base_url" mapstructure:"base_url"`
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"`
	Strictness int           `yaml:"strictness" mapstructure:"strictness"` // 0-3
}

// RateLimitingConfig holds inbound and outbound rate limits
type RateLimitingConfig struct {
	// Inbound: requests per client IP per window on /api/intel
	RequestsPerWindow int           `yaml:"requests_per_window" mapstructure:"requests_per_window"`
	Window            time.Duration `yaml:"window" mapstructure:"window"`

	// Outbound: pacing per provider host in batch mode
	ProviderRequestsPerSecond float64 `yaml:"provider_requests_per_second" mapstructure:"provider_requests_per_second"`
	ProviderBurst             int     `yaml:"provider_burst" mapstructure:"provider_burst"`
}

// ConcurrencyConfig controls batch parallelism
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// HistoryConfig configures the search history store
type HistoryConfig struct {
	Enabled  bool          `yaml:"enabled" mapstructure:"enabled"`
	MaxItems int           `yaml:"max_items" mapstructure:"max_items"`
	Dir      string        `yaml:"dir" mapstructure:"dir"` // empty keeps history in memory only
	TTL      time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// LogConfig configures structured logging
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // text, json
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           3001,
			AllowedOrigins: []string{"*"},
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   30 * time.Second,
		},
		Providers: ProvidersConfig{
			AbuseIPDB: AbuseIPDBConfig{
				BaseURL:      "https://api.abuseipdb.com/api/v2",
				Timeout:      10 * time.Second,
				MaxAgeInDays: 90,
			},
			IPQualityScore: IPQualityScoreConfig{
				BaseURL:    "https://ipqualityscore.com/api/json/ip",
				Timeout:    10 * time.Second,
				Strictness: 0,
			},
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerWindow:         10,
			Window:                    time.Minute,
			ProviderRequestsPerSecond: 1,
			ProviderBurst:             2,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		History: HistoryConfig{
			Enabled:  true,
			MaxItems: 10,
			TTL:      30 * 24 * time.Hour,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
