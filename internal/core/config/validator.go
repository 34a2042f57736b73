package config

import (
	"fmt"
	"net"
	"os"
	"strings"

	"scopelens/internal/engine/transpile"

	"github.com/gobwas/glob"
)

// Validate reports every problem found in cfg rather than stopping at the first.
func Validate(cfg *Config) []error {
	checks := []func(*Config) error{
		validateVersion,
		validateAnalysis,
		validateAmbient,
		validateHighlight,
		validateWatch,
		validateServer,
		validateObservability,
	}
	var errs []error
	for _, check := range checks {
		if err := check(cfg); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateAnalysis(cfg *Config) error {
	if !transpile.ValidLoader(cfg.Analysis.Loader) {
		return fmt.Errorf("analysis.loader must be one of %s, got %q",
			strings.Join(transpile.Loaders(), ", "), cfg.Analysis.Loader)
	}
	return nil
}

func validateAmbient(cfg *Config) error {
	if cfg.Ambient.File == "" {
		return nil
	}
	info, err := os.Stat(cfg.Ambient.File)
	if err != nil {
		return fmt.Errorf("ambient.file %q: %w", cfg.Ambient.File, err)
	}
	if info.IsDir() {
		return fmt.Errorf("ambient.file %q is a directory", cfg.Ambient.File)
	}
	return nil
}

func validateHighlight(cfg *Config) error {
	switch cfg.Highlight.Format {
	case "html", "terminal", "plain":
	default:
		return fmt.Errorf("highlight.format must be one of html, terminal, plain, got %q", cfg.Highlight.Format)
	}
	if strings.ContainsAny(cfg.Highlight.GlobalClass, "\"<> ") {
		return fmt.Errorf("highlight.global_class %q is not a valid class name", cfg.Highlight.GlobalClass)
	}
	if strings.ContainsAny(cfg.Highlight.UndefinedClass, "\"<> ") {
		return fmt.Errorf("highlight.undefined_class %q is not a valid class name", cfg.Highlight.UndefinedClass)
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got %s", cfg.Watch.Debounce)
	}
	for _, pattern := range cfg.Watch.ExcludeDirs {
		if _, err := glob.Compile(pattern); err != nil {
			return fmt.Errorf("watch.exclude_dirs pattern %q: %w", pattern, err)
		}
	}
	for _, pattern := range cfg.Watch.ExcludeFiles {
		if _, err := glob.Compile(pattern); err != nil {
			return fmt.Errorf("watch.exclude_files pattern %q: %w", pattern, err)
		}
	}
	return nil
}

func validateServer(cfg *Config) error {
	if !cfg.Server.Enabled {
		return nil
	}
	if _, _, err := net.SplitHostPort(cfg.Server.Address); err != nil {
		return fmt.Errorf("server.address %q: %w", cfg.Server.Address, err)
	}
	if cfg.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server.max_body_bytes must be positive, got %d", cfg.Server.MaxBodyBytes)
	}
	if cfg.Server.RequestTimeout <= 0 {
		return fmt.Errorf("server.request_timeout must be positive, got %s", cfg.Server.RequestTimeout)
	}
	rl := cfg.Server.RateLimit
	if rl.Enabled && (rl.RequestsPerMinute <= 0 || rl.Burst <= 0) {
		return fmt.Errorf("server.rate_limit requires positive requests_per_minute and burst")
	}
	return nil
}

func validateObservability(cfg *Config) error {
	addr := strings.TrimSpace(cfg.Observability.MetricsAddress)
	if addr == "" {
		return nil
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return fmt.Errorf("observability.metrics_address %q: %w", addr, err)
	}
	return nil
}
