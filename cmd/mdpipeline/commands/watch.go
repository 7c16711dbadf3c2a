package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/mdpipeline/internal/logfields"
	"git.home.luguber.info/inful/mdpipeline/internal/pipeline"
	"git.home.luguber.info/inful/mdpipeline/internal/watch"
)

const redeliverInterval = time.Minute

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	RenderCmd
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	w.apply(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	env, err := NewEnv(cfg, w.Root, g.Logger)
	if err != nil {
		return err
	}
	defer env.Close()
	batch := env.Batch()

	renderAll := func(ctx context.Context, b *pipeline.Batch) error {
		paths, err := discover(w.Root)
		if err != nil {
			return err
		}
		pruneRemoved(ctx, env, paths)
		outcomes, err := renderPaths(ctx, env, b, paths)
		if err != nil {
			return err
		}
		printSummary(outcomes)
		return writeSitemap(cfg, outcomes)
	}
	if err := renderAll(ctx, batch); err != nil {
		return err
	}

	sched, err := watch.NewScheduler(g.Logger)
	if err != nil {
		return err
	}
	refresh := env.Batch(pipeline.WithForce())
	if _, err := sched.Every(ctx, cfg.GitHub.CacheTTL, "refresh-lookups", func(ctx context.Context) error {
		if err := env.PruneLookups(ctx); err != nil {
			return err
		}
		return renderAll(ctx, refresh)
	}); err != nil {
		return err
	}
	if cfg.Events.URL != "" {
		if _, err := sched.Every(ctx, redeliverInterval, "redeliver-events", env.RedeliverEvents); err != nil {
			return err
		}
	}
	sched.Start()
	defer func() { _ = sched.Stop() }()

	watcher, err := watch.New(w.Root, cfg.Build.Debounce, func(ctx context.Context, changed []string) error {
		return w.rerender(ctx, env, batch, changed)
	}, watch.WithLogger(g.Logger))
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	fmt.Printf("Watching %s for changes (Ctrl+C to stop)\n", w.Root)
	return watcher.Run(ctx)
}

// rerender renders changed sources and drops the output of deleted ones.
func (w *WatchCmd) rerender(ctx context.Context, env *Env, batch *pipeline.Batch, changed []string) error {
	sources, missing, err := readSources(env.Root, changed)
	if err != nil {
		return err
	}
	for _, p := range missing {
		removeOutput(ctx, env, p)
	}
	if len(sources) == 0 {
		return nil
	}
	outcomes, err := batch.RenderAll(ctx, sources)
	env.FlushMetrics()
	printSummary(outcomes)
	return err
}

func removeOutput(ctx context.Context, env *Env, path string) {
	if dir := env.Config.Build.OutputDir; dir != "" {
		base := pipeline.OutputPath(dir, path)
		for _, ext := range []string{".html", ".json"} {
			if err := os.Remove(base + ext); err != nil && !os.IsNotExist(err) {
				env.Logger.Warn("Failed to remove output", logfields.Path(base+ext), logfields.Error(err))
			}
		}
	}
	if env.Store != nil {
		if err := env.Store.DeleteRender(ctx, path); err != nil {
			env.Logger.Warn("Failed to update render manifest", logfields.Document(path), logfields.Error(err))
		}
	}
	env.Logger.Info("Source removed", logfields.Document(path))
}
