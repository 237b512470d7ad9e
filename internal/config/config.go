// Package config builds the process-wide Config once at startup from
// environment variables: a typed struct assembled in New() and passed
// explicitly to every constructor rather than read from a package-level
// global.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// UpstreamConfig describes one REST upstream: base URL, optional API key,
// user-agent, and default request timeout.
type UpstreamConfig struct {
	BaseURL   string
	APIKey    string
	UserAgent string
	Timeout   time.Duration
}

// ResponseConfig controls the Response Envelope's verbosity and thresholds.
type ResponseConfig struct {
	Verbosity        string // "minimal" or "normal"
	MaxResponseSize  int
	MaxTokenEstimate int
}

// EIPConfig controls the EIP Mirror's local clone and refresh schedule.
type EIPConfig struct {
	RepoURL  string
	Dir      string
	Interval time.Duration
}

// ServerConfig controls the optional diagnostic HTTP surface.
type ServerConfig struct {
	Host string
	Port string
}

// Config is the fully-resolved, immutable configuration for one process.
type Config struct {
	Explorer UpstreamConfig
	Node     UpstreamConfig
	Response ResponseConfig
	Limits   map[string]int
	EIP      EIPConfig
	Server   ServerConfig
}

// defaultLimits mirrors the per-category smart-limit defaults the original
// response_config.py ships with.
var defaultLimits = map[string]int{
	"addresses":            20,
	"blocks":               20,
	"transactions":         20,
	"boxes":                20,
	"tokens":               20,
	"token_holders":        100,
	"collections":          20,
	"search_results":       20,
	"address_transactions": 20,
	"address_tokens":       20,
	"analytics":            20,
	"default":              20,
}

// categoryKeys lists every category name a LIMIT_<CATEGORY> override may
// target, kept in sync with defaultLimits.
var categoryKeys = []string{
	"addresses", "blocks", "transactions", "boxes", "tokens", "token_holders",
	"collections", "search_results", "address_transactions", "address_tokens",
	"analytics", "default",
}

// New reads environment variables (via viper's AutomaticEnv) and returns a
// fully-populated, validated Config.
func New() (*Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("explorer_api", "https://api.ergoplatform.com/api/v1")
	v.SetDefault("ergo_node_api", "http://localhost:9053")
	v.SetDefault("ergo_node_api_key", "")
	v.SetDefault("server_host", "0.0.0.0")
	v.SetDefault("server_port", "8099")
	v.SetDefault("response_verbosity", "normal")
	v.SetDefault("max_response_size", 1_000_000)
	v.SetDefault("max_token_estimate", 8000)
	v.SetDefault("eip_repo_url", "https://github.com/ergoplatform/eips")
	v.SetDefault("eip_mirror_dir", "./data/eips")
	v.SetDefault("eip_refresh_interval_hours", 24)

	for _, key := range categoryKeys {
		v.SetDefault("limit_"+key, defaultLimits[key])
	}

	verbosity := strings.ToLower(v.GetString("response_verbosity"))
	if verbosity != "minimal" && verbosity != "normal" {
		return nil, fmt.Errorf("config: RESPONSE_VERBOSITY must be \"minimal\" or \"normal\", got %q", verbosity)
	}

	limits := make(map[string]int, len(categoryKeys))
	for _, key := range categoryKeys {
		limits[key] = v.GetInt("limit_" + key)
	}

	cfg := &Config{
		Explorer: UpstreamConfig{
			BaseURL:   v.GetString("explorer_api"),
			UserAgent: "ergo-chain-analytics/1.0",
			Timeout:   30 * time.Second,
		},
		Node: UpstreamConfig{
			BaseURL:   v.GetString("ergo_node_api"),
			APIKey:    v.GetString("ergo_node_api_key"),
			UserAgent: "ergo-chain-analytics/1.0",
			Timeout:   30 * time.Second,
		},
		Response: ResponseConfig{
			Verbosity:        verbosity,
			MaxResponseSize:  v.GetInt("max_response_size"),
			MaxTokenEstimate: v.GetInt("max_token_estimate"),
		},
		Limits: limits,
		EIP: EIPConfig{
			RepoURL:  v.GetString("eip_repo_url"),
			Dir:      v.GetString("eip_mirror_dir"),
			Interval: time.Duration(v.GetInt("eip_refresh_interval_hours")) * time.Hour,
		},
		Server: ServerConfig{
			Host: v.GetString("server_host"),
			Port: v.GetString("server_port"),
		},
	}

	return cfg, nil
}

// Limit returns the configured smart-limit for a category, falling back to
// "default" when the category is unrecognised.
func (c *Config) Limit(category string) int {
	if n, ok := c.Limits[category]; ok {
		return n
	}
	return c.Limits["default"]
}
