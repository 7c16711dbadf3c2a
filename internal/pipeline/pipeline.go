// Package pipeline turns source files into HTML.
//
// A Pipeline is built once per configuration: the parser, the resolved
// stage order and the runner are shared by every document and safe for
// concurrent use. Batch renders many documents in parallel on top of it.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/mdpipeline/internal/config"
	"git.home.luguber.info/inful/mdpipeline/internal/document"
	"git.home.luguber.info/inful/mdpipeline/internal/foundation/errors"
	"git.home.luguber.info/inful/mdpipeline/internal/frontmatter"
	"git.home.luguber.info/inful/mdpipeline/internal/logfields"
	"git.home.luguber.info/inful/mdpipeline/internal/markdown"
	"git.home.luguber.info/inful/mdpipeline/internal/metrics"
	"git.home.luguber.info/inful/mdpipeline/internal/render"
	"git.home.luguber.info/inful/mdpipeline/internal/stages"
	"git.home.luguber.info/inful/mdpipeline/internal/transforms"
)

// parseStage names diagnostics raised while parsing.
const parseStage = "parse"

// Prefetcher starts repository lookups ahead of the stage that needs them.
type Prefetcher interface {
	Prefetch(ctx context.Context, refs []string)
}

// Pipeline renders single documents.
type Pipeline struct {
	cfg      *config.Config
	parser   *markdown.Parser
	runner   *transforms.Runner
	deps     stages.Deps
	prefetch Prefetcher
	logger   *slog.Logger
	recorder metrics.Recorder
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger used by the pipeline and its runner.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.recorder = r
		}
	}
}

// WithRepos sets the repository source for GitHub cards. Sources that also
// implement Prefetcher get every card reference of a document up front.
func WithRepos(r stages.RepoFetcher) Option {
	return func(p *Pipeline) {
		p.deps.Repos = r
		if pf, ok := r.(Prefetcher); ok {
			p.prefetch = pf
		}
	}
}

// WithDates sets the last-modified source for the git_dates stage.
func WithDates(d stages.DateSource) Option {
	return func(p *Pipeline) { p.deps.Dates = d }
}

// WithDiagrams sets the diagram renderer.
func WithDiagrams(d stages.DiagramRenderer) Option {
	return func(p *Pipeline) { p.deps.Diagrams = d }
}

// New builds a pipeline for cfg. It fails when the configured capability
// set cannot be ordered.
func New(cfg *config.Config, opts ...Option) (*Pipeline, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	p := &Pipeline{
		cfg:      cfg,
		logger:   slog.Default(),
		recorder: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(p)
	}

	reg, err := stages.NewRegistry(p.deps)
	if err != nil {
		return nil, err
	}
	ordered, err := reg.Build(stages.Enabled(cfg))
	if err != nil {
		return nil, err
	}
	p.parser = markdown.New(cfg)
	p.runner = transforms.NewRunner(ordered,
		transforms.WithRecorder(p.recorder),
		transforms.WithLogger(p.logger))
	return p, nil
}

// Config returns the configuration the pipeline was built with.
func (p *Pipeline) Config() *config.Config { return p.cfg }

// Stages returns the resolved stage order.
func (p *Pipeline) Stages() []transforms.Transformer { return p.runner.Stages() }

// Result is a rendered document.
type Result struct {
	Path        string
	HTML        string
	Meta        document.Meta
	FrontMatter map[string]any
	Diagnostics []document.Diagnostic
	Outcome     metrics.OutcomeLabel
}

// TransientError returns the first diagnostic worth a retry, or nil.
func (r *Result) TransientError() error {
	for _, d := range r.Diagnostics {
		if d.Err.IsTransient() {
			return d.Err
		}
	}
	return nil
}

// Render transforms one source file. Only a parse error or cancellation
// fails; stage problems are reported as diagnostics and mark the result
// degraded.
func (p *Pipeline) Render(ctx context.Context, path string, src []byte) (*Result, error) {
	start := time.Now()
	doc, err := p.parse(path, src)
	if err != nil {
		return nil, err
	}

	if p.prefetch != nil {
		if refs := stages.CardRefs(doc.Tree); len(refs) > 0 {
			p.prefetch.Prefetch(ctx, refs)
		}
	}
	if err := p.runner.Run(ctx, doc); err != nil {
		return nil, err
	}

	html, err := render.String(doc.Tree)
	if err != nil {
		return nil, errors.InternalError("failed to serialize document").
			WithCause(err).WithContext("file", path).Build()
	}

	res := &Result{
		Path:        path,
		HTML:        html,
		Meta:        doc.Meta,
		FrontMatter: doc.FrontMatter,
		Diagnostics: doc.Diagnostics,
		Outcome:     metrics.OutcomeRendered,
	}
	if doc.Degraded() {
		res.Outcome = metrics.OutcomeDegraded
	}
	p.logger.Debug("Rendered document",
		logfields.Document(path),
		logfields.Outcome(string(res.Outcome)),
		logfields.DurationMS(float64(time.Since(start).Microseconds())/1000))
	return res, nil
}

func (p *Pipeline) parse(path string, src []byte) (*document.Document, error) {
	parts, err := frontmatter.Split(src)
	if err != nil {
		return nil, errors.ParseError("front matter is not terminated").
			WithCause(err).WithPosition(path, 1, 1).Build()
	}
	fm, err := frontmatter.ParseYAML(parts.Raw)
	if err != nil {
		return nil, errors.ParseError("invalid front matter").
			WithCause(err).WithPosition(path, 2, 1).Build()
	}
	tree, warnings, err := p.parser.Parse(path, parts.Body, parts.BodyLine)
	if err != nil {
		return nil, err
	}
	doc := document.New(path, src, parts.Body, parts.BodyLine, fm, p.cfg)
	doc.Tree = tree
	for _, w := range warnings {
		doc.AddDiagnostic(parseStage, nil, w)
	}
	return doc, nil
}
