package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: SCOPELENS_[SECTION]_[KEY] (e.g., SCOPELENS_SERVER_ADDRESS).
func ApplyEnvOverrides(cfg *Config) {
	// Analysis
	setEnvString(&cfg.Analysis.Loader, "SCOPELENS_ANALYSIS_LOADER")
	setEnvBool(&cfg.Analysis.StrictParse, "SCOPELENS_ANALYSIS_STRICT_PARSE")

	// Ambient
	setEnvString(&cfg.Ambient.File, "SCOPELENS_AMBIENT_FILE")
	setEnvList(&cfg.Ambient.Extra, "SCOPELENS_AMBIENT_EXTRA")

	// Highlight
	setEnvString(&cfg.Highlight.Format, "SCOPELENS_HIGHLIGHT_FORMAT")

	// Watch
	setEnvDuration(&cfg.Watch.Debounce, "SCOPELENS_WATCH_DEBOUNCE")

	// Server
	setEnvBool(&cfg.Server.Enabled, "SCOPELENS_SERVER_ENABLED")
	setEnvString(&cfg.Server.Address, "SCOPELENS_SERVER_ADDRESS")
	setEnvDuration(&cfg.Server.RequestTimeout, "SCOPELENS_SERVER_REQUEST_TIMEOUT")
	setEnvBool(&cfg.Server.RateLimit.Enabled, "SCOPELENS_SERVER_RATE_LIMIT_ENABLED")
	setEnvInt(&cfg.Server.RateLimit.RequestsPerMinute, "SCOPELENS_SERVER_RATE_LIMIT_REQUESTS_PER_MINUTE")

	// Observability
	setEnvString(&cfg.Observability.MetricsAddress, "SCOPELENS_OBSERVABILITY_METRICS_ADDRESS")
	setEnvString(&cfg.Observability.OTLPEndpoint, "SCOPELENS_OBSERVABILITY_OTLP_ENDPOINT")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

func setEnvList(target *[]string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = append(*target, strings.Split(val, ",")...)
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}
