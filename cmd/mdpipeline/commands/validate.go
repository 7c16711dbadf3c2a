package commands

import (
	"fmt"

	"git.home.luguber.info/inful/mdpipeline/internal/codeblock"
	"git.home.luguber.info/inful/mdpipeline/internal/foundation/errors"
	"git.home.luguber.info/inful/mdpipeline/internal/retry"
	"git.home.luguber.info/inful/mdpipeline/internal/stages"
	"git.home.luguber.info/inful/mdpipeline/internal/transforms"
)

// ValidateCmd implements the 'validate' command.
type ValidateCmd struct{}

func (v *ValidateCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	reg, err := stages.NewRegistry(stages.Deps{})
	if err != nil {
		return err
	}
	result := reg.Validate(stages.Enabled(cfg))
	if _, err := codeblock.ThemeCSS(cfg.Code.LightTheme, cfg.Code.DarkTheme); err != nil {
		result.AddError("%v", err)
	}
	if err := retry.FromConfig(cfg.Build.Retry).Validate(); err != nil {
		result.AddError("build.retry: %v", err)
	}

	fmt.Print(transforms.PrintValidationResult(result))
	if !result.Valid {
		return errors.ValidationError(fmt.Sprintf("configuration has %d error(s)", len(result.Errors))).Build()
	}
	return nil
}
