package config

import (
	"runtime"
	"strings"
	"time"
)

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// defaultAppliers run in order; later domains may read earlier results.
var defaultAppliers = []DefaultApplier{
	&SiteDefaultApplier{},
	&ContentDefaultApplier{},
	&CodeDefaultApplier{},
	&GitHubDefaultApplier{},
	&BuildDefaultApplier{},
}

func applyDefaults(cfg *Config) error {
	for _, a := range defaultAppliers {
		if err := a.ApplyDefaults(cfg); err != nil {
			return err
		}
	}
	return nil
}

// SiteDefaultApplier handles site and i18n defaults.
type SiteDefaultApplier struct{}

func (s *SiteDefaultApplier) Domain() string { return "site" }

func (s *SiteDefaultApplier) ApplyDefaults(cfg *Config) error {
	cfg.Site.URL = strings.TrimSpace(cfg.Site.URL)
	if cfg.Site.Lang == "" {
		cfg.Site.Lang = "en"
	}
	i := &cfg.I18n
	setDefault(&i.ShowMore, "Show more")
	setDefault(&i.ShowLess, "Show less")
	setDefault(&i.Expanded, "Code expanded")
	setDefault(&i.Collapsed, "Code collapsed")
	setDefault(&i.Copy, "Copy to clipboard")
	setDefault(&i.Copied, "Copied!")
	setDefault(&i.ReadingTime, "%d min read")
	setDefault(&i.ExternalLink, "(opens in a new tab)")
	setDefault(&i.CollapsedLines, "%d collapsed lines")
	return nil
}

// ContentDefaultApplier handles defaults of the content stages.
type ContentDefaultApplier struct{}

func (c *ContentDefaultApplier) Domain() string { return "content" }

func (c *ContentDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.ReadingTime.WordsPerMinute <= 0 {
		cfg.ReadingTime.WordsPerMinute = 200
	}
	if cfg.Excerpt.Length <= 0 {
		cfg.Excerpt.Length = 160
	}
	setDefault(&cfg.Excerpt.Marker, "<!-- more -->")
	setDefault(&cfg.Callouts.Theme, "github")
	if cfg.Email.Method == "" {
		cfg.Email.Method = EmailBase64
	}
	cfg.Email.Method = EmailMethod(strings.ToLower(string(cfg.Email.Method)))
	if len(cfg.Diagram.Languages) == 0 {
		cfg.Diagram.Languages = []string{"mermaid"}
	}
	if cfg.Diagram.Timeout <= 0 {
		cfg.Diagram.Timeout = 10 * time.Second
	}
	setDefault(&cfg.Events.Subject, "mdpipeline.documents")
	return nil
}

// CodeDefaultApplier handles code block renderer defaults.
type CodeDefaultApplier struct{}

func (c *CodeDefaultApplier) Domain() string { return "code" }

func (c *CodeDefaultApplier) ApplyDefaults(cfg *Config) error {
	setDefault(&cfg.Code.LightTheme, "github")
	setDefault(&cfg.Code.DarkTheme, "github-dark")
	if cfg.Code.NoLineNumbers == nil {
		cfg.Code.NoLineNumbers = []string{"shellsession"}
	}
	if cfg.Code.Collapse.Threshold <= 0 {
		cfg.Code.Collapse.Threshold = 15
	}
	if cfg.Code.Collapse.PreviewLines <= 0 {
		cfg.Code.Collapse.PreviewLines = 8
	}
	return nil
}

// GitHubDefaultApplier handles repository lookup defaults.
type GitHubDefaultApplier struct{}

func (g *GitHubDefaultApplier) Domain() string { return "github" }

func (g *GitHubDefaultApplier) ApplyDefaults(cfg *Config) error {
	setDefault(&cfg.GitHub.APIURL, "https://api.github.com")
	cfg.GitHub.APIURL = strings.TrimRight(cfg.GitHub.APIURL, "/")
	if cfg.GitHub.Timeout <= 0 {
		cfg.GitHub.Timeout = 5 * time.Second
	}
	if cfg.GitHub.Rate <= 0 {
		cfg.GitHub.Rate = 5
	}
	if cfg.GitHub.Burst <= 0 {
		cfg.GitHub.Burst = 5
	}
	if cfg.GitHub.CacheTTL <= 0 {
		cfg.GitHub.CacheTTL = 24 * time.Hour
	}
	return nil
}

// BuildDefaultApplier handles build and retry defaults.
type BuildDefaultApplier struct{}

func (b *BuildDefaultApplier) Domain() string { return "build" }

func (b *BuildDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Build.Concurrency <= 0 {
		cfg.Build.Concurrency = runtime.NumCPU()
	}
	setDefault(&cfg.Build.OutputDir, "dist")
	if cfg.Build.Debounce <= 0 {
		cfg.Build.Debounce = 300 * time.Millisecond
	}

	r := &cfg.Build.Retry
	if r.Backoff == "" {
		r.Backoff = RetryBackoffExponential
	} else if m := NormalizeRetryBackoff(string(r.Backoff)); m != "" {
		r.Backoff = m
	} else {
		r.Backoff = RetryBackoffExponential // fallback
	}
	if r.InitialDelay <= 0 {
		r.InitialDelay = 500 * time.Millisecond
	}
	if r.MaxDelay <= 0 {
		r.MaxDelay = 10 * time.Second
	}
	if r.MaxRetries < 0 {
		r.MaxRetries = 0
	}
	if r.MaxRetries == 0 {
		r.MaxRetries = 2
	}
	return nil
}

func setDefault(field *string, value string) {
	if strings.TrimSpace(*field) == "" {
		*field = value
	}
}
