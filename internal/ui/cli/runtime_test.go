package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	coreapp "scopelens/internal/core/app"
	"scopelens/internal/core/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestParseOptions(t *testing.T) {
	opts, err := parseOptions([]string{"-format", "json", "-loader", "ts", "-watch", "a", "b"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "json", opts.format)
	assert.Equal(t, "ts", opts.loader)
	assert.True(t, opts.watch)
	assert.Equal(t, []string{"a", "b"}, opts.args)
	assert.Equal(t, defaultConfigPath, opts.configPath)

	_, err = parseOptions([]string{"-nope"}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestApplyModeOptions(t *testing.T) {
	t.Run("ui implies watch and terminal output", func(t *testing.T) {
		opts := &cliOptions{ui: true, args: []string{"./src"}}
		cfg := config.DefaultConfig()
		require.NoError(t, applyModeOptions(opts, cfg))
		assert.True(t, opts.watch)
		assert.Equal(t, "terminal", cfg.Highlight.Format)
		assert.Equal(t, []string{"./src"}, cfg.Watch.Paths)
	})

	t.Run("serve and watch conflict", func(t *testing.T) {
		err := applyModeOptions(&cliOptions{serve: true, watch: true}, config.DefaultConfig())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot be combined")
	})

	t.Run("json keeps renderer format", func(t *testing.T) {
		cfg := config.DefaultConfig()
		require.NoError(t, applyModeOptions(&cliOptions{format: "json"}, cfg))
		assert.Equal(t, "html", cfg.Highlight.Format)
	})

	t.Run("unknown format", func(t *testing.T) {
		assert.Error(t, applyModeOptions(&cliOptions{format: "pdf"}, config.DefaultConfig()))
	})

	t.Run("loader override is validated", func(t *testing.T) {
		cfg := config.DefaultConfig()
		require.NoError(t, applyModeOptions(&cliOptions{loader: "tsx"}, cfg))
		assert.Equal(t, "tsx", cfg.Analysis.Loader)
		assert.Error(t, applyModeOptions(&cliOptions{loader: "coffee"}, config.DefaultConfig()))
	})

	t.Run("out is single run only", func(t *testing.T) {
		assert.Error(t, applyModeOptions(&cliOptions{output: "x", watch: true}, config.DefaultConfig()))
	})
}

func TestRunVersion(t *testing.T) {
	code, stdout, _ := runCLI(t, "", "-version")
	assert.Equal(t, 0, code)
	assert.Equal(t, "scopelens v"+versionString+"\n", stdout)
}

func TestRunStdinPlain(t *testing.T) {
	code, stdout, _ := runCLI(t, "console.log(x);\n", "-format", "plain")
	assert.Equal(t, 0, code)
	assert.Equal(t, "globals: console\nundefined: x\n\n[[console]].log({{x}});\n", stdout)
}

func TestRunFilesJSON(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.js")
	b := filepath.Join(dir, "b.ts")
	require.NoError(t, os.WriteFile(a, []byte("foo();\n"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("let n: number = bar;\n"), 0o644))

	code, stdout, _ := runCLI(t, "", "-format", "json", a, b)
	require.Equal(t, 0, code)

	var reports []struct {
		Path      string `json:"path"`
		Undefined string `json:"undefined"`
		Error     string `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &reports))
	require.Len(t, reports, 2)
	assert.Equal(t, a, reports[0].Path)
	assert.Equal(t, "foo", reports[0].Undefined)
	assert.Equal(t, "bar", reports[1].Undefined)
	assert.Empty(t, reports[1].Error)
}

func TestRunFailureExitCode(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.js")
	require.NoError(t, os.WriteFile(bad, []byte("let = ;\n"), 0o644))

	code, stdout, stderr := runCLI(t, "", bad)
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, "error:")
	assert.Contains(t, stderr, "TRANSPILE_ERROR")
}

func TestRunWritesOutputFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "reports", "out.html")
	code, stdout, _ := runCLI(t, "a;\n", "-out", out)
	require.Equal(t, 0, code)
	assert.Empty(t, stdout)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `<span class="undefined">a</span>;`)
}

func TestRunMissingExplicitConfig(t *testing.T) {
	code, _, stderr := runCLI(t, "", "-config", filepath.Join(t.TempDir(), "nope.toml"))
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "failed to load config")
}

func TestObservabilityServerHandler(t *testing.T) {
	app, err := coreapp.New(config.DefaultConfig())
	require.NoError(t, err)
	srv := httptest.NewServer(NewObservabilityServer("", app.AnalysisService()).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	var status map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Contains(t, status, "components")
}
