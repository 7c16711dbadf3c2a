package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"git.home.luguber.info/inful/mdpipeline/internal/foundation/errors"
	"git.home.luguber.info/inful/mdpipeline/internal/sitemap"
)

// RoutesCmd implements the 'routes' command.
type RoutesCmd struct {
	Input string `short:"i" help:"Read URLs from this file instead of stdin" type:"existingfile"`
}

func (r *RoutesCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	in := io.Reader(os.Stdin)
	if r.Input != "" {
		f, err := os.Open(r.Input)
		if err != nil {
			return errors.FileSystemError("failed to open input").WithCause(err).WithContext("path", r.Input).Build()
		}
		defer func() { _ = f.Close() }()
		in = f
	}
	return filterRoutes(in, os.Stdout, sitemap.NewFilter(cfg.Pages))
}

// filterRoutes copies the lines of in that the filter accepts to out.
func filterRoutes(in io.Reader, out io.Writer, f sitemap.Filter) error {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || !f.Include(line) {
			continue
		}
		if _, err := fmt.Fprintln(out, line); err != nil {
			return errors.FileSystemError("failed to write routes").WithCause(err).Build()
		}
	}
	if err := sc.Err(); err != nil {
		return errors.FileSystemError("failed to read routes").WithCause(err).Build()
	}
	return nil
}
