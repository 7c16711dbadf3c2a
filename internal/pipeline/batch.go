package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"git.home.luguber.info/inful/mdpipeline/internal/document"
	"git.home.luguber.info/inful/mdpipeline/internal/events"
	"git.home.luguber.info/inful/mdpipeline/internal/foundation/errors"
	"git.home.luguber.info/inful/mdpipeline/internal/logfields"
	"git.home.luguber.info/inful/mdpipeline/internal/metrics"
	"git.home.luguber.info/inful/mdpipeline/internal/retry"
	"git.home.luguber.info/inful/mdpipeline/internal/store"
)

// Source is one input document.
type Source struct {
	Path    string
	Content []byte
}

// Outcome is the per-document result of a batch. Result is nil for
// unchanged and failed documents.
type Outcome struct {
	Path        string
	Status      metrics.OutcomeLabel
	Result      *Result
	Err         error
	Attempts    int
	Fingerprint string
}

// Manifest remembers what was rendered last time.
type Manifest interface {
	GetRender(ctx context.Context, path string) (store.Render, bool, error)
	PutRender(ctx context.Context, r store.Render) error
}

// Batch renders many documents concurrently.
type Batch struct {
	p         *Pipeline
	manifest  Manifest
	publisher events.Publisher
	force     bool
	now       func() time.Time
}

// BatchOption configures a Batch.
type BatchOption func(*Batch)

// WithManifest enables the render manifest. Incremental skipping also
// requires build.incremental.
func WithManifest(m Manifest) BatchOption {
	return func(b *Batch) { b.manifest = m }
}

// WithPublisher sets where per-document events go.
func WithPublisher(pub events.Publisher) BatchOption {
	return func(b *Batch) {
		if pub != nil {
			b.publisher = pub
		}
	}
}

// WithForce renders every document even when the manifest holds a clean
// render of the same content. The manifest is still updated.
func WithForce() BatchOption {
	return func(b *Batch) { b.force = true }
}

// WithClock overrides the time source used for manifest and event times.
func WithClock(now func() time.Time) BatchOption {
	return func(b *Batch) { b.now = now }
}

// NewBatch returns a batch renderer on top of p.
func NewBatch(p *Pipeline, opts ...BatchOption) *Batch {
	b := &Batch{p: p, publisher: events.Noop{}, now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// RenderAll renders sources with build.concurrency workers and returns one
// outcome per source in input order. A failing document never stops the
// others unless build.fail_fast is set, in which case the first failure
// cancels the remaining documents and is returned.
func (b *Batch) RenderAll(ctx context.Context, sources []Source) ([]Outcome, error) {
	start := time.Now()
	buildID := uuid.NewString()
	logger := b.p.logger.With(logfields.BuildID(buildID))
	cfg := b.p.cfg.Build

	workers := cfg.Concurrency
	if workers < 1 {
		workers = 1
	}
	pl := pool.New().WithMaxGoroutines(workers).WithContext(ctx)
	if cfg.FailFast {
		pl = pl.WithCancelOnError().WithFirstError()
	}

	outcomes := make([]Outcome, len(sources))
	for i, src := range sources {
		pl.Go(func(ctx context.Context) error {
			out := b.renderOne(ctx, logger, buildID, src)
			outcomes[i] = out
			if cfg.FailFast && out.Status == metrics.OutcomeFailed {
				return out.Err
			}
			return nil
		})
	}
	err := pl.Wait()

	elapsed := time.Since(start)
	b.p.recorder.ObserveBuildDuration(elapsed)
	counts := Summarize(outcomes)
	logger.Info("Build finished",
		slog.Int("documents", len(sources)),
		slog.Int("rendered", counts[metrics.OutcomeRendered]),
		slog.Int("degraded", counts[metrics.OutcomeDegraded]),
		slog.Int("failed", counts[metrics.OutcomeFailed]),
		slog.Int("unchanged", counts[metrics.OutcomeUnchanged]),
		logfields.DurationMS(float64(elapsed.Milliseconds())))
	return outcomes, err
}

// Summarize counts outcomes by status.
func Summarize(outcomes []Outcome) map[metrics.OutcomeLabel]int {
	counts := make(map[metrics.OutcomeLabel]int, 4)
	for _, o := range outcomes {
		counts[o.Status]++
	}
	return counts
}

func (b *Batch) renderOne(ctx context.Context, logger *slog.Logger, buildID string, src Source) (out Outcome) {
	start := time.Now()
	out.Path = src.Path
	logger = logger.With(logfields.Document(src.Path))
	defer func() {
		b.p.recorder.ObserveDocumentDuration(time.Since(start))
		b.p.recorder.IncDocumentOutcome(out.Status)
	}()

	// A source that cannot be fingerprinted fails to parse below, with a
	// positioned error.
	fp, fpErr := Fingerprint(src.Content)
	out.Fingerprint = fp
	if fpErr == nil && b.unchanged(ctx, logger, src.Path, fp) {
		out.Status = metrics.OutcomeUnchanged
		logger.Debug("Document unchanged, skipping")
		return out
	}

	policy := retry.FromConfig(b.p.cfg.Build.Retry)
	var res *Result
	err := retry.Do(ctx, policy, func(attempt int) error {
		out.Attempts = attempt + 1
		if attempt > 0 {
			b.p.recorder.IncDocumentRetry()
			logger.Info("Retrying document after transient failure", logfields.Attempt(attempt))
		}
		r, err := b.p.Render(ctx, src.Path, src.Content)
		if err != nil {
			return err
		}
		res = r
		if attempt < policy.MaxRetries {
			return r.TransientError()
		}
		return nil
	})
	if res == nil {
		return b.fail(ctx, logger, buildID, out, err)
	}
	out.Result = res
	out.Status = res.Outcome

	if err := b.write(res, fp); err != nil {
		out.Result = nil
		return b.fail(ctx, logger, buildID, out, err)
	}
	if out.Status == metrics.OutcomeRendered && b.manifest != nil {
		rec := store.Render{Path: src.Path, Fingerprint: fp, Outcome: string(out.Status), RenderedAt: b.now()}
		if err := b.manifest.PutRender(ctx, rec); err != nil {
			logger.Warn("Failed to update render manifest", logfields.Error(err))
		}
	}
	for _, d := range res.Diagnostics {
		logger.Warn("Document diagnostic", logfields.Stage(d.Stage), logfields.Node(d.Node), logfields.Error(d.Err))
	}
	b.publish(ctx, logger, b.event(buildID, out, diagnosticStrings(res.Diagnostics)))
	return out
}

func (b *Batch) fail(ctx context.Context, logger *slog.Logger, buildID string, out Outcome, err error) Outcome {
	out.Status = metrics.OutcomeFailed
	out.Err = err
	logger.Error("Document failed", logfields.Error(err))
	b.publish(ctx, logger, b.event(buildID, out, []string{err.Error()}))
	return out
}

// unchanged reports whether the manifest holds a clean render of the same
// content.
func (b *Batch) unchanged(ctx context.Context, logger *slog.Logger, path, fp string) bool {
	if b.manifest == nil || b.force || !b.p.cfg.Build.Incremental {
		return false
	}
	prev, ok, err := b.manifest.GetRender(ctx, path)
	if err != nil {
		logger.Warn("Failed to read render manifest", logfields.Error(err))
		return false
	}
	return ok && prev.Fingerprint == fp && prev.Outcome == string(metrics.OutcomeRendered)
}

func (b *Batch) event(buildID string, out Outcome, diags []string) events.Event {
	return events.Event{
		BuildID:     buildID,
		Document:    out.Path,
		Outcome:     string(out.Status),
		Diagnostics: diags,
		Fingerprint: out.Fingerprint,
		Attempts:    out.Attempts,
		Time:        b.now().UTC(),
	}
}

func (b *Batch) publish(ctx context.Context, logger *slog.Logger, e events.Event) {
	if ctx.Err() != nil {
		ctx = context.WithoutCancel(ctx)
	}
	if err := b.publisher.Publish(ctx, e); err != nil {
		logger.Warn("Failed to publish document event", logfields.Error(err))
	}
}

func diagnosticStrings(diags []document.Diagnostic) []string {
	if len(diags) == 0 {
		return nil
	}
	out := make([]string, len(diags))
	for i, d := range diags {
		out[i] = d.String()
	}
	return out
}

// pageData is the metadata file written next to each HTML file.
type pageData struct {
	Path        string         `json:"path"`
	Outcome     string         `json:"outcome"`
	Fingerprint string         `json:"fingerprint"`
	FrontMatter map[string]any `json:"front_matter"`
	Meta        document.Meta  `json:"meta"`
	Diagnostics []string       `json:"diagnostics,omitempty"`
}

// write stores the HTML and metadata of res below build.output_dir. Nothing
// is written without an output directory.
func (b *Batch) write(res *Result, fp string) error {
	dir := b.p.cfg.Build.OutputDir
	if dir == "" {
		return nil
	}
	base := OutputPath(dir, res.Path)
	if err := os.MkdirAll(filepath.Dir(base), 0o750); err != nil {
		return errors.FileSystemError("failed to create output directory").WithCause(err).WithContext("path", base).Build()
	}
	if err := os.WriteFile(base+".html", []byte(res.HTML), 0o600); err != nil {
		return errors.FileSystemError("failed to write html").WithCause(err).WithContext("path", base).Build()
	}

	data, err := json.MarshalIndent(pageData{
		Path:        res.Path,
		Outcome:     string(res.Outcome),
		Fingerprint: fp,
		FrontMatter: res.FrontMatter,
		Meta:        res.Meta,
		Diagnostics: diagnosticStrings(res.Diagnostics),
	}, "", "  ")
	if err != nil {
		return errors.InternalError("failed to encode page metadata").WithCause(err).Build()
	}
	if err := os.WriteFile(base+".json", data, 0o600); err != nil {
		return errors.FileSystemError("failed to write page metadata").WithCause(err).WithContext("path", base).Build()
	}
	return nil
}

// OutputPath maps a source path to its output path below dir, without
// extension. Paths that would escape dir keep only their base name.
func OutputPath(dir, path string) string {
	rel := filepath.Clean(filepath.FromSlash(path))
	if !filepath.IsLocal(rel) {
		rel = filepath.Base(rel)
	}
	return filepath.Join(dir, strings.TrimSuffix(rel, filepath.Ext(rel)))
}
