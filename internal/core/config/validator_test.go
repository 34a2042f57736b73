package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	namesFile := filepath.Join(dir, "names.txt")
	require.NoError(t, os.WriteFile(namesFile, []byte("jQuery\n"), 0o644))

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "bad version", mutate: func(c *Config) { c.Version = 3 }, wantErr: "version"},
		{name: "bad loader", mutate: func(c *Config) { c.Analysis.Loader = "coffee" }, wantErr: "analysis.loader"},
		{name: "ambient file exists", mutate: func(c *Config) { c.Ambient.File = namesFile }},
		{name: "ambient file missing", mutate: func(c *Config) { c.Ambient.File = filepath.Join(dir, "nope") }, wantErr: "ambient.file"},
		{name: "ambient file is dir", mutate: func(c *Config) { c.Ambient.File = dir }, wantErr: "is a directory"},
		{name: "bad format", mutate: func(c *Config) { c.Highlight.Format = "pdf" }, wantErr: "highlight.format"},
		{name: "bad class", mutate: func(c *Config) { c.Highlight.GlobalClass = `a"b` }, wantErr: "global_class"},
		{name: "negative debounce", mutate: func(c *Config) { c.Watch.Debounce = -time.Second }, wantErr: "watch.debounce"},
		{name: "bad glob", mutate: func(c *Config) { c.Watch.ExcludeFiles = []string{"[abc"} }, wantErr: "exclude_files"},
		{name: "server disabled ignores address", mutate: func(c *Config) { c.Server.Address = "nope" }},
		{
			name: "server bad address",
			mutate: func(c *Config) {
				c.Server.Enabled = true
				c.Server.Address = "nope"
			},
			wantErr: "server.address",
		},
		{
			name: "rate limit without burst",
			mutate: func(c *Config) {
				c.Server.Enabled = true
				c.Server.RateLimit.Enabled = true
				c.Server.RateLimit.Burst = -1
			},
			wantErr: "rate_limit",
		},
		{name: "bad metrics address", mutate: func(c *Config) { c.Observability.MetricsAddress = "9090" }, wantErr: "metrics_address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			errs := Validate(cfg)
			if tt.wantErr == "" {
				assert.Empty(t, errs)
				return
			}
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0].Error(), tt.wantErr)
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Analysis.Loader = "coffee"
	cfg.Highlight.Format = "pdf"
	cfg.Watch.Debounce = -1
	assert.Len(t, Validate(cfg), 3)
}
