package commands

import (
	"fmt"
	"log/slog"
	"os"

	"git.home.luguber.info/inful/mdpipeline/internal/foundation/errors"
	"git.home.luguber.info/inful/mdpipeline/internal/pipeline"
	"git.home.luguber.info/inful/mdpipeline/internal/transforms"
)

// StagesCmd implements the 'stages' command.
type StagesCmd struct {
	Format string `short:"f" help:"Output format: text, mermaid, dot, json" default:"text" enum:"text,mermaid,dot,json"`
	Output string `short:"o" help:"Output file path (prints to stdout if not specified)"`
	List   bool   `short:"l" help:"List available formats and exit"`
}

func (s *StagesCmd) Run(_ *Global, root *CLI) error {
	if s.List {
		fmt.Println("Available formats:")
		for _, f := range transforms.SupportedFormats() {
			fmt.Printf("  %-10s %s\n", f, transforms.FormatDescription(f))
		}
		return nil
	}

	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	p, err := pipeline.New(cfg)
	if err != nil {
		return err
	}
	out, err := transforms.Visualize(p.Stages(), transforms.VisualizationFormat(s.Format))
	if err != nil {
		return errors.ValidationError("failed to visualize stages").WithCause(err).Build()
	}

	if s.Output == "" {
		fmt.Print(out)
		return nil
	}
	if err := os.WriteFile(s.Output, []byte(out), 0o600); err != nil {
		return errors.FileSystemError("failed to write output file").WithCause(err).WithContext("path", s.Output).Build()
	}
	slog.Info("Stage order written", "file", s.Output, "format", s.Format)
	return nil
}
