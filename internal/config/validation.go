package config

import (
	"fmt"
	"net/url"

	"git.home.luguber.info/inful/mdpipeline/internal/foundation/errors"
)

// Validate checks cross-field invariants of a defaulted configuration.
func (c *Config) Validate() error {
	return newConfigurationValidator(c).validate()
}

// configurationValidator coordinates validation across all configuration domains.
type configurationValidator struct {
	config *Config
}

func newConfigurationValidator(config *Config) *configurationValidator {
	return &configurationValidator{config: config}
}

func (cv *configurationValidator) validate() error {
	for _, check := range []func() error{
		cv.validateSite,
		cv.validateContent,
		cv.validateCode,
		cv.validateBuild,
	} {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

func (cv *configurationValidator) validateSite() error {
	raw := cv.config.Site.URL
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.ConfigError(fmt.Sprintf("site.url must be an absolute URL: %q", raw)).
			WithContext("field", "site.url").
			Build()
	}
	return nil
}

func (cv *configurationValidator) validateContent() error {
	switch cv.config.Email.Method {
	case EmailBase64, EmailROT13:
	default:
		return errors.ConfigError(fmt.Sprintf("unsupported email.method %q (want base64 or rot13)", cv.config.Email.Method)).
			WithContext("field", "email.method").
			Build()
	}
	return nil
}

func (cv *configurationValidator) validateCode() error {
	c := cv.config.Code
	if c.Collapse.PreviewLines > c.Collapse.Threshold {
		return errors.ConfigError(fmt.Sprintf("code.collapse.preview_lines (%d) exceeds threshold (%d)",
			c.Collapse.PreviewLines, c.Collapse.Threshold)).
			WithContext("field", "code.collapse").
			Build()
	}
	if c.LightTheme == c.DarkTheme {
		return errors.ConfigError("code.light_theme and code.dark_theme must differ").
			WithContext("field", "code").
			Build()
	}
	return nil
}

func (cv *configurationValidator) validateBuild() error {
	r := cv.config.Build.Retry
	if r.InitialDelay > r.MaxDelay {
		return errors.ConfigError("build.retry.initial_delay exceeds max_delay").
			WithContext("field", "build.retry").
			Build()
	}
	if cv.config.Build.Incremental && cv.config.Build.StatePath == "" {
		return errors.ConfigError("build.incremental requires build.state_path").
			WithContext("field", "build.state_path").
			Build()
	}
	return nil
}
