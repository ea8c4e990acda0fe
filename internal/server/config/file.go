package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/gophagenda/internal/flagx"
	"github.com/dmitrijs2005/gophagenda/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of the config. Zero values leave the
// corresponding Config field untouched.
type FileConfig struct {
	ListenAddr      string         `json:"listen_addr" yaml:"listen_addr"`
	TLSCertFile     string         `json:"tls_cert_file" yaml:"tls_cert_file"`
	TLSKeyFile      string         `json:"tls_key_file" yaml:"tls_key_file"`
	DatabaseDSN     string         `json:"database_dsn" yaml:"database_dsn"`
	LogLevel        string         `json:"log_level" yaml:"log_level"`
	ShutdownTimeout timex.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
	RateLimitPoints int            `json:"rate_limit_points" yaml:"rate_limit_points"`
	RateLimitPeriod timex.Duration `json:"rate_limit_period" yaml:"rate_limit_period"`
	SensitiveCost   int            `json:"sensitive_cost" yaml:"sensitive_cost"`
	BlockDuration   timex.Duration `json:"block_duration" yaml:"block_duration"`
	MetricsPath     string         `json:"metrics_path" yaml:"metrics_path"`
	S3RootUser      string         `json:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword  string         `json:"s3_root_password" yaml:"s3_root_password"`
	S3Bucket        string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region        string         `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint  string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
	ExportURLTTL    timex.Duration `json:"export_url_ttl" yaml:"export_url_ttl"`
}

// parseFile overlays values from the file named by -c/-config. YAML is used
// for .yaml and .yml files, JSON otherwise. Unreadable or invalid files panic.
func parseFile(config *Config) {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	fc := &FileConfig{}
	if err := unmarshal(path, data, fc); err != nil {
		panic(err)
	}
	fc.apply(config)
}

func unmarshal(path string, data []byte, fc *FileConfig) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, fc)
	default:
		return json.Unmarshal(data, fc)
	}
}

func (fc *FileConfig) apply(c *Config) {
	setString(&c.ListenAddr, fc.ListenAddr)
	setString(&c.TLSCertFile, fc.TLSCertFile)
	setString(&c.TLSKeyFile, fc.TLSKeyFile)
	setString(&c.DatabaseDSN, fc.DatabaseDSN)
	setString(&c.LogLevel, fc.LogLevel)
	setString(&c.MetricsPath, fc.MetricsPath)
	setString(&c.S3RootUser, fc.S3RootUser)
	setString(&c.S3RootPassword, fc.S3RootPassword)
	setString(&c.S3Bucket, fc.S3Bucket)
	setString(&c.S3Region, fc.S3Region)
	setString(&c.S3BaseEndpoint, fc.S3BaseEndpoint)

	if fc.RateLimitPoints > 0 {
		c.RateLimitPoints = fc.RateLimitPoints
	}
	if fc.SensitiveCost > 0 {
		c.SensitiveCost = fc.SensitiveCost
	}
	if fc.ShutdownTimeout.Duration > 0 {
		c.ShutdownTimeout = fc.ShutdownTimeout.Duration
	}
	if fc.RateLimitPeriod.Duration > 0 {
		c.RateLimitPeriod = fc.RateLimitPeriod.Duration
	}
	if fc.BlockDuration.Duration > 0 {
		c.BlockDuration = fc.BlockDuration.Duration
	}
	if fc.ExportURLTTL.Duration > 0 {
		c.ExportURLTTL = fc.ExportURLTTL.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
