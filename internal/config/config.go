package config

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/mdpipeline/internal/foundation/errors"
)

// Config is the immutable pipeline configuration threaded through parser,
// stages and renderer.
type Config struct {
	Site        SiteConfig        `yaml:"site"`
	Pages       PagesConfig       `yaml:"pages"`
	Pipeline    PipelineConfig    `yaml:"pipeline"`
	ReadingTime ReadingTimeConfig `yaml:"reading_time"`
	Excerpt     ExcerptConfig     `yaml:"excerpt"`
	Callouts    CalloutConfig     `yaml:"callouts"`
	Email       EmailConfig       `yaml:"email"`
	Code        CodeConfig        `yaml:"code"`
	I18n        I18nConfig        `yaml:"i18n"`
	GitHub      GitHubConfig      `yaml:"github"`
	Diagram     DiagramConfig     `yaml:"diagram"`
	Build       BuildConfig       `yaml:"build"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Events      EventsConfig      `yaml:"events"`
	Git         GitConfig         `yaml:"git"`
}

// SiteConfig describes the site the documents belong to.
type SiteConfig struct {
	URL   string `yaml:"url"`
	Title string `yaml:"title,omitempty"`
	Lang  string `yaml:"lang,omitempty"`
}

// PagesConfig holds the optional page flags consumed by the route filter.
type PagesConfig struct {
	Sponsor   bool `yaml:"sponsor"`
	Guestbook bool `yaml:"guestbook"`
	Bangumi   bool `yaml:"bangumi"`
	Gallery   bool `yaml:"gallery"`
}

// PipelineConfig selects capabilities on top of the default set.
type PipelineConfig struct {
	Enable  []string `yaml:"enable,omitempty"`
	Disable []string `yaml:"disable,omitempty"`
	// MDX drops top-level import/export statements for .mdx sources.
	MDX *bool `yaml:"mdx,omitempty"`
}

type ReadingTimeConfig struct {
	WordsPerMinute int `yaml:"words_per_minute"`
}

type ExcerptConfig struct {
	Length int    `yaml:"length"`
	Marker string `yaml:"marker"`
}

type CalloutConfig struct {
	Theme string `yaml:"theme"`
}

// EmailMethod selects the reversible encoding used for protected addresses.
type EmailMethod string

const (
	EmailBase64 EmailMethod = "base64"
	EmailROT13  EmailMethod = "rot13"
)

type EmailConfig struct {
	Method EmailMethod `yaml:"method"`
}

// CodeConfig configures the code block renderer.
type CodeConfig struct {
	LightTheme string `yaml:"light_theme"`
	DarkTheme  string `yaml:"dark_theme"`
	// LineNumbers toggles the gutter for every language.
	LineNumbers *bool `yaml:"line_numbers,omitempty"`
	// NoLineNumbers lists languages that never get a gutter.
	NoLineNumbers []string       `yaml:"no_line_numbers,omitempty"`
	CopyButton    *bool          `yaml:"copy_button,omitempty"`
	Collapse      CollapseConfig `yaml:"collapse"`
}

// CollapseConfig controls the collapsible wrapper of long code blocks.
type CollapseConfig struct {
	// Enabled switches the wrapper off for every block when false.
	Enabled          *bool `yaml:"enabled,omitempty"`
	Threshold        int   `yaml:"threshold"`
	PreviewLines     int   `yaml:"preview_lines"`
	DefaultCollapsed *bool `yaml:"default_collapsed,omitempty"`
}

// I18nConfig holds user-visible strings emitted into the markup.
type I18nConfig struct {
	ShowMore     string `yaml:"show_more"`
	ShowLess     string `yaml:"show_less"`
	Expanded     string `yaml:"expanded"`
	Collapsed    string `yaml:"collapsed"`
	Copy         string `yaml:"copy"`
	Copied       string `yaml:"copied"`
	ReadingTime  string `yaml:"reading_time"`
	ExternalLink string `yaml:"external_link"`
	// CollapsedLines labels a collapsed line range; %d is the line count.
	CollapsedLines string `yaml:"collapsed_lines"`
}

// GitHubConfig configures repository lookups for embedded cards.
type GitHubConfig struct {
	APIURL   string        `yaml:"api_url"`
	Token    string        `yaml:"token,omitempty"`
	Timeout  time.Duration `yaml:"timeout"`
	Rate     float64       `yaml:"rate"`
	Burst    int           `yaml:"burst"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
	Offline  bool          `yaml:"offline,omitempty"`
}

// DiagramConfig configures diagram rendering. Without a command every
// diagram becomes a client-side placeholder.
type DiagramConfig struct {
	Languages []string      `yaml:"languages"`
	Command   []string      `yaml:"command,omitempty"`
	Timeout   time.Duration `yaml:"timeout"`
}

// BuildConfig configures multi-document builds.
type BuildConfig struct {
	Concurrency int           `yaml:"concurrency"`
	OutputDir   string        `yaml:"output_dir"`
	StatePath   string        `yaml:"state_path"`
	Incremental bool          `yaml:"incremental"`
	Retry       RetryConfig   `yaml:"retry"`
	FailFast    bool          `yaml:"fail_fast,omitempty"`
	Debounce    time.Duration `yaml:"debounce"`
}

// RetryConfig configures whole-document retries on transient lookup failures.
type RetryConfig struct {
	Backoff      RetryBackoffMode `yaml:"backoff"`
	InitialDelay time.Duration    `yaml:"initial_delay"`
	MaxDelay     time.Duration    `yaml:"max_delay"`
	MaxRetries   int              `yaml:"max_retries"`
}

type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
}

type EventsConfig struct {
	URL     string `yaml:"url,omitempty"`
	Subject string `yaml:"subject"`
}

type GitConfig struct {
	Dates bool `yaml:"dates"`
}

// Load reads, expands and validates a configuration file. An empty path
// yields the defaults.
func Load(configPath string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	var cfg Config
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errors.ConfigError(fmt.Sprintf("configuration file not found: %s", configPath)).Build()
			}
			return nil, errors.FileSystemError("failed to read config file").WithCause(err).Build()
		}
		if err := Parse([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
			return nil, err
		}
	}

	if err := applyDefaults(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Parse decodes YAML into cfg, rejecting unknown keys.
func Parse(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !stderrors.Is(err, io.EOF) {
		return errors.ConfigError("failed to unmarshal config").WithCause(err).Build()
	}
	return nil
}

// Default returns a fully defaulted configuration.
func Default() *Config {
	var cfg Config
	_ = applyDefaults(&cfg)
	return &cfg
}

// ShowLineNumbers reports whether lang gets a line-number gutter.
func (c CodeConfig) ShowLineNumbers(lang string) bool {
	if c.LineNumbers != nil && !*c.LineNumbers {
		return false
	}
	for _, l := range c.NoLineNumbers {
		if l == lang {
			return false
		}
	}
	return true
}

// CopyEnabled reports whether code frames carry a copy button.
func (c CodeConfig) CopyEnabled() bool { return c.CopyButton == nil || *c.CopyButton }

// IsEnabled reports whether long blocks get the collapsible wrapper.
func (c CollapseConfig) IsEnabled() bool { return c.Enabled == nil || *c.Enabled }

// StartCollapsed reports whether collapsible blocks start collapsed.
func (c CollapseConfig) StartCollapsed() bool {
	return c.DefaultCollapsed == nil || *c.DefaultCollapsed
}

// MDXEnabled reports whether .mdx sources get ESM statements stripped.
func (p PipelineConfig) MDXEnabled() bool { return p.MDX == nil || *p.MDX }
