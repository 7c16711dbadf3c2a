package transforms

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	"git.home.luguber.info/inful/mdpipeline/internal/document"
	"git.home.luguber.info/inful/mdpipeline/internal/foundation/errors"
	"git.home.luguber.info/inful/mdpipeline/internal/logfields"
	"git.home.luguber.info/inful/mdpipeline/internal/metrics"
)

// Runner applies an ordered pipeline to documents. It holds no per-document
// state and is safe for concurrent use.
type Runner struct {
	stages   []Transformer
	recorder metrics.Recorder
	logger   *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) RunnerOption {
	return func(rn *Runner) {
		if r != nil {
			rn.recorder = r
		}
	}
}

// WithLogger sets the logger used for skipped stages.
func WithLogger(l *slog.Logger) RunnerOption {
	return func(rn *Runner) {
		if l != nil {
			rn.logger = l
		}
	}
}

// NewRunner returns a runner for an already ordered pipeline.
func NewRunner(stages []Transformer, opts ...RunnerOption) *Runner {
	r := &Runner{
		stages:   slices.Clone(stages),
		recorder: metrics.NoopRecorder{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Stages returns the execution order.
func (r *Runner) Stages() []Transformer { return slices.Clone(r.stages) }

// Run applies every stage to doc in order. Stage failures are recorded as
// diagnostics and never stop the run; only context cancellation does.
func (r *Runner) Run(ctx context.Context, doc *document.Document) error {
	for _, t := range r.stages {
		if err := ctx.Err(); err != nil {
			r.recorder.IncStageResult(t.Name(), metrics.ResultCanceled)
			return err
		}
		r.runStage(ctx, t, doc)
	}
	return nil
}

func (r *Runner) runStage(ctx context.Context, t Transformer, doc *document.Document) {
	tree := doc.Tree.Clone()
	meta := cloneMeta(doc.Meta)
	start := time.Now()

	err := safeTransform(ctx, t, doc)
	r.recorder.ObserveStageDuration(t.Name(), time.Since(start))
	if err == nil {
		r.recorder.IncStageResult(t.Name(), metrics.ResultSuccess)
		return
	}

	doc.Tree = tree
	doc.Meta = meta
	doc.AddDiagnostic(t.Name(), nil, err)
	r.recorder.IncStageResult(t.Name(), metrics.ResultSkipped)
	r.logger.Warn("Stage skipped",
		logfields.Document(doc.Path),
		logfields.Stage(t.Name()),
		logfields.Group(string(t.Stage())),
		logfields.Error(err))
}

func safeTransform(ctx context.Context, t Transformer, doc *document.Document) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = errors.StageSkip(t.Name(), fmt.Sprintf("stage panicked: %v", rec)).Build()
		}
	}()
	return t.Transform(ctx, doc)
}

func cloneMeta(m document.Meta) document.Meta {
	cp := m
	cp.Headings = slices.Clone(m.Headings)
	cp.Directives = maps.Clone(m.Directives)
	if m.Updated != nil {
		u := *m.Updated
		cp.Updated = &u
	}
	return cp
}
