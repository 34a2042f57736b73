package config

import (
	"time"
)

type Config struct {
	Version       int           `toml:"version"`
	Analysis      Analysis      `toml:"analysis"`
	Ambient       Ambient       `toml:"ambient"`
	Highlight     Highlight     `toml:"highlight"`
	Watch         Watch         `toml:"watch"`
	Server        Server        `toml:"server"`
	Observability Observability `toml:"observability"`
}

// Analysis controls how input is transpiled and parsed.
type Analysis struct {
	Loader      string `toml:"loader"`
	StrictParse bool   `toml:"strict_parse"`
	Sourcefile  string `toml:"sourcefile"`
}

// Ambient extends or narrows the built-in set of globally known names.
type Ambient struct {
	File    string   `toml:"file"`
	Extra   []string `toml:"extra"`
	Exclude []string `toml:"exclude"`
}

type Highlight struct {
	GlobalClass    string `toml:"global_class"`
	UndefinedClass string `toml:"undefined_class"`
	Format         string `toml:"format"`
}

type Watch struct {
	Paths        []string      `toml:"paths"`
	Debounce     time.Duration `toml:"debounce"`
	Extensions   []string      `toml:"extensions"`
	ExcludeDirs  []string      `toml:"exclude_dirs"`
	ExcludeFiles []string      `toml:"exclude_files"`
}

type Server struct {
	Enabled        bool          `toml:"enabled"`
	Address        string        `toml:"address"`
	MaxBodyBytes   int64         `toml:"max_body_bytes"`
	RequestTimeout time.Duration `toml:"request_timeout"`
	RateLimit      RateLimit     `toml:"rate_limit"`
}

type RateLimit struct {
	Enabled           bool `toml:"enabled"`
	RequestsPerMinute int  `toml:"requests_per_minute"`
	Burst             int  `toml:"burst"`
}

type Observability struct {
	MetricsAddress string `toml:"metrics_address"`
	OTLPEndpoint   string `toml:"otlp_endpoint"`
	ServiceName    string `toml:"service_name"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}
