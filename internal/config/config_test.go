package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mdpipeline/internal/foundation/errors"
)

func TestDefault_AppliesAllDomains(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 200, cfg.ReadingTime.WordsPerMinute)
	assert.Equal(t, "<!-- more -->", cfg.Excerpt.Marker)
	assert.Equal(t, EmailBase64, cfg.Email.Method)
	assert.Equal(t, 15, cfg.Code.Collapse.Threshold)
	assert.Equal(t, 8, cfg.Code.Collapse.PreviewLines)
	assert.True(t, cfg.Code.Collapse.StartCollapsed())
	assert.Equal(t, []string{"mermaid"}, cfg.Diagram.Languages)
	assert.Equal(t, RetryBackoffExponential, cfg.Build.Retry.Backoff)
	assert.Equal(t, 2, cfg.Build.Retry.MaxRetries)
	assert.Equal(t, "https://api.github.com", cfg.GitHub.APIURL)
	assert.GreaterOrEqual(t, cfg.Build.Concurrency, 1)
	require.NoError(t, cfg.Validate())
}

func TestShowLineNumbers(t *testing.T) {
	cfg := Default()
	assert.True(t, cfg.Code.ShowLineNumbers("go"))
	assert.False(t, cfg.Code.ShowLineNumbers("shellsession"))

	off := false
	cfg.Code.LineNumbers = &off
	assert.False(t, cfg.Code.ShowLineNumbers("go"))
}

func TestLoad_ExpandsEnvAndParsesDurations(t *testing.T) {
	t.Setenv("MDP_TEST_SITE", "https://mysite.example")
	path := filepath.Join(t.TempDir(), "mdpipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
site:
  url: ${MDP_TEST_SITE}
github:
  timeout: 2s
build:
  retry:
    backoff: LINEAR
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://mysite.example", cfg.Site.URL)
	assert.Equal(t, 2*time.Second, cfg.GitHub.Timeout)
	assert.Equal(t, RetryBackoffLinear, cfg.Build.Retry.Backoff)
}

func TestLoad_UnknownFieldIsConfigError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sitee:\n  url: x\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"relative site url", func(c *Config) { c.Site.URL = "mysite.example" }, true},
		{"unknown email method", func(c *Config) { c.Email.Method = "caesar" }, true},
		{"preview exceeds threshold", func(c *Config) { c.Code.Collapse.PreviewLines = 20 }, true},
		{"same themes", func(c *Config) { c.Code.DarkTheme = c.Code.LightTheme }, true},
		{"incremental without state", func(c *Config) { c.Build.Incremental = true }, true},
		{"incremental with state", func(c *Config) {
			c.Build.Incremental = true
			c.Build.StatePath = "state.db"
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestInit_WritesLoadableConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mdpipeline.yaml")
	require.NoError(t, Init(path, false))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", cfg.Site.URL)
	assert.True(t, cfg.Build.Incremental)

	require.Error(t, Init(path, false))
	require.NoError(t, Init(path, true))
}

func TestNormalizeRetryBackoff(t *testing.T) {
	assert.Equal(t, RetryBackoffFixed, NormalizeRetryBackoff(" Fixed "))
	assert.Equal(t, RetryBackoffMode(""), NormalizeRetryBackoff("random"))
}
