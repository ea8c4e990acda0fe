package config

import "time"

// Config holds runtime settings for the GophAgenda CLI.
//
// TokenValidity is how long each signed auth token is valid; the CLI
// refreshes the token on demand once it expires.
type Config struct {
	ServerURL      string
	RequestTimeout time.Duration
	CacheDir       string
	TokenValidity  time.Duration
	Insecure       bool
	LogLevel       string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "https://127.0.0.1:8443"
	c.RequestTimeout = 10 * time.Second
	c.CacheDir = ".gophagenda"
	c.TokenValidity = 15 * time.Minute
	c.LogLevel = "warn"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// the config file (if present) and command-line flags (if present). Later
// sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseFile(cfg)
	parseFlags(cfg)
	return cfg
}
