package commands

import (
	"fmt"
	"os"

	"git.home.luguber.info/inful/mdpipeline/internal/codeblock"
	"git.home.luguber.info/inful/mdpipeline/internal/foundation/errors"
)

// ThemeCmd implements the 'theme' command.
type ThemeCmd struct {
	Output string `short:"o" help:"Output file path (prints to stdout if not specified)"`
}

func (t *ThemeCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	css, err := codeblock.ThemeCSS(cfg.Code.LightTheme, cfg.Code.DarkTheme)
	if err != nil {
		return err
	}
	if t.Output == "" {
		fmt.Print(css)
		return nil
	}
	if err := os.WriteFile(t.Output, []byte(css), 0o600); err != nil {
		return errors.FileSystemError("failed to write stylesheet").WithCause(err).WithContext("path", t.Output).Build()
	}
	return nil
}
