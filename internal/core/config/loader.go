package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultLoader         = "js"
	DefaultGlobalClass    = "global"
	DefaultUndefinedClass = "undefined"
	DefaultFormat         = "html"
	DefaultServerAddress  = "127.0.0.1:8790"
	DefaultServiceName    = "scopelens"
)

// DefaultExtensions are the file suffixes picked up in watch mode.
var DefaultExtensions = []string{".js", ".jsx", ".ts", ".tsx", ".mjs", ".cjs"}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	ApplyEnvOverrides(&cfg)
	applyDefaults(&cfg)
	normalizeWatch(&cfg)
	normalizeAmbient(&cfg)

	if errs := Validate(&cfg); len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}

	if strings.TrimSpace(cfg.Analysis.Loader) == "" {
		cfg.Analysis.Loader = DefaultLoader
	}
	if strings.TrimSpace(cfg.Analysis.Sourcefile) == "" {
		cfg.Analysis.Sourcefile = "input." + cfg.Analysis.Loader
	}

	if strings.TrimSpace(cfg.Highlight.GlobalClass) == "" {
		cfg.Highlight.GlobalClass = DefaultGlobalClass
	}
	if strings.TrimSpace(cfg.Highlight.UndefinedClass) == "" {
		cfg.Highlight.UndefinedClass = DefaultUndefinedClass
	}
	if strings.TrimSpace(cfg.Highlight.Format) == "" {
		cfg.Highlight.Format = DefaultFormat
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 300 * time.Millisecond
	}
	if len(cfg.Watch.Paths) == 0 {
		cfg.Watch.Paths = []string{"."}
	}
	if len(cfg.Watch.Extensions) == 0 {
		cfg.Watch.Extensions = append([]string(nil), DefaultExtensions...)
	}
	if len(cfg.Watch.ExcludeDirs) == 0 {
		cfg.Watch.ExcludeDirs = []string{".git", "node_modules", "dist"}
	}

	if strings.TrimSpace(cfg.Server.Address) == "" {
		cfg.Server.Address = DefaultServerAddress
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = 1 << 20
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 10 * time.Second
	}
	if cfg.Server.RateLimit.RequestsPerMinute == 0 {
		cfg.Server.RateLimit.RequestsPerMinute = 120
	}
	if cfg.Server.RateLimit.Burst == 0 {
		cfg.Server.RateLimit.Burst = 20
	}

	if strings.TrimSpace(cfg.Observability.ServiceName) == "" {
		cfg.Observability.ServiceName = DefaultServiceName
	}
}

func normalizeWatch(cfg *Config) {
	exts := make([]string, 0, len(cfg.Watch.Extensions))
	for _, ext := range cfg.Watch.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	cfg.Watch.Extensions = exts
	cfg.Watch.Paths = trimAll(cfg.Watch.Paths)
}

func normalizeAmbient(cfg *Config) {
	cfg.Ambient.File = strings.TrimSpace(cfg.Ambient.File)
	cfg.Ambient.Extra = trimAll(cfg.Ambient.Extra)
	cfg.Ambient.Exclude = trimAll(cfg.Ambient.Exclude)
}

func trimAll(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
