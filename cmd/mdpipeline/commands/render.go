package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"git.home.luguber.info/inful/mdpipeline/internal/config"
	"git.home.luguber.info/inful/mdpipeline/internal/foundation/errors"
	"git.home.luguber.info/inful/mdpipeline/internal/logfields"
	"git.home.luguber.info/inful/mdpipeline/internal/metrics"
	"git.home.luguber.info/inful/mdpipeline/internal/pipeline"
	"git.home.luguber.info/inful/mdpipeline/internal/sitemap"
)

// RenderCmd implements the 'render' command.
type RenderCmd struct {
	Root        string `arg:"" optional:"" help:"Source directory" default:"." type:"existingdir"`
	Output      string `short:"o" help:"Output directory (overrides build.output_dir)"`
	Incremental bool   `short:"i" help:"Skip documents whose content is unchanged since the last clean render"`
	FailFast    bool   `name:"fail-fast" help:"Stop at the first failing document"`
	Concurrency int    `short:"j" help:"Number of documents rendered in parallel (overrides build.concurrency)"`
	State       string `help:"State database for the lookup cache and render manifest (overrides build.state_path)"`
}

// apply layers the flags over cfg.
func (r *RenderCmd) apply(cfg *config.Config) {
	if r.Output != "" {
		cfg.Build.OutputDir = r.Output
	}
	if r.Incremental {
		cfg.Build.Incremental = true
	}
	if r.FailFast {
		cfg.Build.FailFast = true
	}
	if r.Concurrency > 0 {
		cfg.Build.Concurrency = r.Concurrency
	}
	if r.State != "" {
		cfg.Build.StatePath = r.State
	}
	if cfg.Build.Incremental && cfg.Build.StatePath == "" {
		cfg.Build.StatePath = filepath.Join(cfg.Build.OutputDir, ".mdpipeline.db")
	}
}

func (r *RenderCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	r.apply(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	env, err := NewEnv(cfg, r.Root, g.Logger)
	if err != nil {
		return err
	}
	defer env.Close()

	paths, err := discover(r.Root)
	if err != nil {
		return err
	}
	pruneRemoved(ctx, env, paths)
	fmt.Printf("Rendering %d documents from %s\n", len(paths), r.Root)
	outcomes, err := renderPaths(ctx, env, env.Batch(), paths)
	if err != nil {
		return err
	}
	if err := writeSitemap(cfg, outcomes); err != nil {
		return err
	}
	printSummary(outcomes)
	return failure(outcomes)
}

// renderPaths reads and renders the named sources and flushes metrics.
func renderPaths(ctx context.Context, env *Env, batch *pipeline.Batch, paths []string) ([]pipeline.Outcome, error) {
	sources, _, err := readSources(env.Root, paths)
	if err != nil {
		return nil, err
	}
	outcomes, err := batch.RenderAll(ctx, sources)
	env.FlushMetrics()
	return outcomes, err
}

// pruneRemoved drops the output and manifest entry of every previously
// rendered source that is no longer among paths.
func pruneRemoved(ctx context.Context, env *Env, paths []string) {
	if env.Store == nil {
		return
	}
	renders, err := env.Store.Renders(ctx)
	if err != nil {
		env.Logger.Warn("Failed to read render manifest", logfields.Error(err))
		return
	}
	current := make(map[string]bool, len(paths))
	for _, p := range paths {
		current[p] = true
	}
	for _, r := range renders {
		if !current[r.Path] {
			removeOutput(ctx, env, r.Path)
		}
	}
}

// writeSitemap writes sitemap.xml for the rendered documents when both a
// site URL and an output directory are configured.
func writeSitemap(cfg *config.Config, outcomes []pipeline.Outcome) error {
	if cfg.Site.URL == "" || cfg.Build.OutputDir == "" {
		return nil
	}
	var paths []string
	lastMod := map[string]*time.Time{}
	for _, o := range outcomes {
		if o.Status == metrics.OutcomeFailed {
			continue
		}
		if draft, _ := frontMatterBool(o, "draft"); draft {
			continue
		}
		paths = append(paths, o.Path)
		if o.Result != nil {
			lastMod[o.Path] = o.Result.Meta.Updated
		}
	}

	entries := sitemap.Entries(cfg.Site.URL, sitemap.NewFilter(cfg.Pages), paths, lastMod)
	if err := os.MkdirAll(cfg.Build.OutputDir, 0o750); err != nil {
		return errors.FileSystemError("failed to create output directory").WithCause(err).Build()
	}
	f, err := os.Create(filepath.Join(cfg.Build.OutputDir, "sitemap.xml"))
	if err != nil {
		return errors.FileSystemError("failed to create sitemap").WithCause(err).Build()
	}
	defer func() { _ = f.Close() }()
	return sitemap.Write(f, entries)
}

func frontMatterBool(o pipeline.Outcome, key string) (bool, bool) {
	if o.Result == nil {
		return false, false
	}
	v, ok := o.Result.FrontMatter[key].(bool)
	return v, ok
}

func printSummary(outcomes []pipeline.Outcome) {
	counts := pipeline.Summarize(outcomes)
	fmt.Printf("Rendered %d, degraded %d, unchanged %d, failed %d\n",
		counts[metrics.OutcomeRendered], counts[metrics.OutcomeDegraded],
		counts[metrics.OutcomeUnchanged], counts[metrics.OutcomeFailed])
	for _, o := range outcomes {
		if o.Status == metrics.OutcomeFailed {
			fmt.Printf("  failed   %s: %v\n", o.Path, o.Err)
		}
		if o.Status == metrics.OutcomeDegraded {
			for _, d := range o.Result.Diagnostics {
				fmt.Printf("  degraded %s: %s\n", o.Path, d)
			}
		}
	}
}

// failure returns the first document error, classified like its cause,
// or nil when every document rendered.
func failure(outcomes []pipeline.Outcome) error {
	failed := 0
	var first error
	for _, o := range outcomes {
		if o.Status != metrics.OutcomeFailed {
			continue
		}
		failed++
		if first == nil {
			first = o.Err
		}
	}
	if first == nil {
		return nil
	}
	return errors.WrapError(first, errors.GetCategory(first),
		fmt.Sprintf("%d of %d documents failed", failed, len(outcomes))).Build()
}
