package commands

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/mdpipeline/internal/config"
	"git.home.luguber.info/inful/mdpipeline/internal/events"
	"git.home.luguber.info/inful/mdpipeline/internal/gitinfo"
	"git.home.luguber.info/inful/mdpipeline/internal/logfields"
	"git.home.luguber.info/inful/mdpipeline/internal/lookup"
	"git.home.luguber.info/inful/mdpipeline/internal/metrics"
	"git.home.luguber.info/inful/mdpipeline/internal/pipeline"
	"git.home.luguber.info/inful/mdpipeline/internal/stages"
	"git.home.luguber.info/inful/mdpipeline/internal/store"
)

// Env is the wired pipeline of a command invocation.
type Env struct {
	Config   *config.Config
	Root     string
	Logger   *slog.Logger
	Pipeline *pipeline.Pipeline
	Store    *store.Store
	GitHub   *lookup.GitHub

	registry *prom.Registry
	bus      *events.Bus
	nats     *events.NATS
}

// NewEnv wires the pipeline and its collaborators for documents below root.
func NewEnv(cfg *config.Config, root string, logger *slog.Logger) (*Env, error) {
	if logger == nil {
		logger = slog.Default()
	}
	env := &Env{
		Config:   cfg,
		Root:     root,
		Logger:   logger,
		registry: prom.NewRegistry(),
		bus:      events.NewBus(),
	}
	env.bus.Subscribe(logRetries(logger))
	rec := metrics.NewPrometheusRecorder(env.registry)

	if cfg.Build.StatePath != "" {
		st, err := store.Open(cfg.Build.StatePath)
		if err != nil {
			return nil, err
		}
		env.Store = st
	}

	ghOpts := []lookup.Option{lookup.WithRecorder(rec), lookup.WithLogger(logger)}
	if env.Store != nil {
		ghOpts = append(ghOpts, lookup.WithCache(env.Store))
	}
	env.GitHub = lookup.NewGitHub(cfg.GitHub, ghOpts...)

	opts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithRecorder(rec),
		pipeline.WithRepos(env.GitHub),
	}
	if cfg.Git.Dates {
		if repo, err := gitinfo.Open(root); err != nil {
			logger.Warn("Git dates disabled, no repository found", logfields.Path(root), logfields.Error(err))
		} else {
			opts = append(opts, pipeline.WithDates(rootedDates{root: root, repo: repo}))
		}
	}
	if len(cfg.Diagram.Command) > 0 {
		opts = append(opts, pipeline.WithDiagrams(stages.CommandRenderer{
			Command: cfg.Diagram.Command,
			Timeout: cfg.Diagram.Timeout,
		}))
	}

	p, err := pipeline.New(cfg, opts...)
	if err != nil {
		env.Close()
		return nil, err
	}
	env.Pipeline = p

	if cfg.Events.URL != "" {
		pub, err := events.NewNATS(cfg.Events, logger)
		if err != nil {
			env.Close()
			return nil, err
		}
		env.nats = pub
		env.bus.Subscribe(events.Forward(pub))
	}
	return env, nil
}

// Batch returns a batch renderer wired to the manifest and event publisher.
func (e *Env) Batch(opts ...pipeline.BatchOption) *pipeline.Batch {
	all := []pipeline.BatchOption{pipeline.WithPublisher(e.bus)}
	if e.Store != nil {
		all = append(all, pipeline.WithManifest(e.Store))
	}
	return pipeline.NewBatch(e.Pipeline, append(all, opts...)...)
}

// FlushMetrics writes the metrics textfile when one is configured.
func (e *Env) FlushMetrics() {
	if err := metrics.WriteTextfile(e.Config.Metrics.Textfile, e.registry); err != nil {
		e.Logger.Warn("Failed to write metrics textfile", logfields.Error(err))
	}
}

// PruneLookups drops cached lookups older than the cache TTL.
func (e *Env) PruneLookups(ctx context.Context) error {
	if e.Store == nil {
		return nil
	}
	n, err := e.Store.PruneLookups(ctx, time.Now().Add(-e.Config.GitHub.CacheTTL))
	if err != nil {
		return err
	}
	if n > 0 {
		e.Logger.Info("Pruned expired lookups", "count", n)
	}
	return nil
}

// RedeliverEvents retries events the broker did not accept earlier.
func (e *Env) RedeliverEvents(ctx context.Context) error {
	if e.nats == nil || e.nats.DeadLetters().Count() == 0 {
		return nil
	}
	delivered := e.nats.Redeliver(ctx)
	e.Logger.Info("Redelivered events", "delivered", delivered, "pending", e.nats.DeadLetters().Count())
	return nil
}

// Close releases the store and the event connection.
func (e *Env) Close() {
	if e.GitHub != nil {
		e.GitHub.Wait()
	}
	if e.nats != nil {
		_ = e.RedeliverEvents(context.Background())
		if err := e.nats.Close(); err != nil {
			e.Logger.Warn("Failed to close event publisher", logfields.Error(err))
		}
	}
	if e.Store != nil {
		if err := e.Store.Close(); err != nil {
			e.Logger.Warn("Failed to close state store", logfields.Error(err))
		}
	}
}

// logRetries reports documents that only settled after retries.
func logRetries(logger *slog.Logger) events.Handler {
	return func(_ context.Context, e events.Event) error {
		if e.Attempts > 1 {
			logger.Info("Document settled after retries",
				logfields.Document(e.Document), logfields.Outcome(e.Outcome), logfields.Attempt(e.Attempts))
		}
		return nil
	}
}

// rootedDates resolves document paths against the source root.
type rootedDates struct {
	root string
	repo *gitinfo.Repo
}

func (d rootedDates) LastModified(path string) (time.Time, bool, error) {
	return d.repo.LastModified(filepath.Join(d.root, filepath.FromSlash(path)))
}
