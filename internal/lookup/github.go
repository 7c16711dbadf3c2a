// Package lookup fetches external data for embedded components.
//
// Lookups are bounded by a timeout, rate limited, deduplicated while in
// flight and cached. The in-memory cache is immutable per reference: once
// an entry is stored it is never replaced for the life of the client.
package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"sync"
	"time"

	"github.com/sourcegraph/conc"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"git.home.luguber.info/inful/mdpipeline/internal/config"
	"git.home.luguber.info/inful/mdpipeline/internal/foundation/errors"
	"git.home.luguber.info/inful/mdpipeline/internal/logfields"
	"git.home.luguber.info/inful/mdpipeline/internal/metrics"
	"git.home.luguber.info/inful/mdpipeline/internal/store"
)

const kindGitHub = "github"

var refPattern = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9-]{0,38})/[A-Za-z0-9._-]{1,100}$`)

// ValidRef reports whether ref has the form owner/repo.
func ValidRef(ref string) bool { return refPattern.MatchString(ref) }

// Repo is the repository data shown on a card.
type Repo struct {
	FullName    string `json:"full_name"`
	Description string `json:"description"`
	HTMLURL     string `json:"html_url"`
	Stars       int    `json:"stargazers_count"`
	Forks       int    `json:"forks_count"`
	Language    string `json:"language"`
	Owner       struct {
		Login     string `json:"login"`
		AvatarURL string `json:"avatar_url"`
	} `json:"owner"`
	License *struct {
		SPDXID string `json:"spdx_id"`
		Name   string `json:"name"`
	} `json:"license"`
}

// LicenseID returns the SPDX id of the license, or "".
func (r *Repo) LicenseID() string {
	if r.License == nil || r.License.SPDXID == "NOASSERTION" {
		return ""
	}
	return r.License.SPDXID
}

// Cache is the persistent second-level cache.
type Cache interface {
	GetLookup(ctx context.Context, key string) (store.Lookup, bool, error)
	PutLookup(ctx context.Context, key string, payload []byte, fetchedAt time.Time) error
}

// GitHub is a repository lookup client. It is safe for concurrent use.
type GitHub struct {
	cfg      config.GitHubConfig
	http     *http.Client
	limiter  *rate.Limiter
	group    singleflight.Group
	cache    Cache
	recorder metrics.Recorder
	logger   *slog.Logger
	now      func() time.Time

	mu  sync.RWMutex
	mem map[string]*Repo

	prefetch conc.WaitGroup
}

// Option configures a GitHub client.
type Option func(*GitHub)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(g *GitHub) {
		if c != nil {
			g.http = c
		}
	}
}

// WithCache enables the persistent cache.
func WithCache(c Cache) Option { return func(g *GitHub) { g.cache = c } }

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(g *GitHub) {
		if r != nil {
			g.recorder = r
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *GitHub) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithClock overrides the time source used for cache freshness.
func WithClock(now func() time.Time) Option { return func(g *GitHub) { g.now = now } }

// NewGitHub returns a client for cfg.
func NewGitHub(cfg config.GitHubConfig, opts ...Option) *GitHub {
	g := &GitHub{
		cfg:      cfg,
		http:     &http.Client{},
		limiter:  rate.NewLimiter(rate.Limit(cfg.Rate), max(cfg.Burst, 1)),
		recorder: metrics.NoopRecorder{},
		logger:   slog.Default(),
		now:      time.Now,
		mem:      make(map[string]*Repo),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Repo returns the repository named by ref ("owner/repo"). Errors are
// lookup failures; transient ones (timeouts, rate limits, 5xx) are marked
// retryable.
func (g *GitHub) Repo(ctx context.Context, ref string) (*Repo, error) {
	if !ValidRef(ref) {
		return nil, errors.LookupFailure(fmt.Sprintf("invalid repository reference %q", ref)).
			WithContext("reference", ref).Build()
	}
	if r, ok := g.cached(ref); ok {
		g.recorder.IncLookupResult(kindGitHub, metrics.LookupHit)
		return r, nil
	}

	v, err, _ := g.group.Do(ref, func() (any, error) {
		if r, ok := g.cached(ref); ok {
			return r, nil
		}
		r, err := g.load(ctx, ref)
		if err != nil {
			return nil, err
		}
		return g.remember(ref, r), nil
	})
	if err != nil {
		g.recorder.IncLookupResult(kindGitHub, metrics.LookupError)
		return nil, err
	}
	return v.(*Repo), nil
}

// Prefetch starts lookups for refs in the background so they overlap the
// document's earlier stages. Invalid and cached refs are ignored.
func (g *GitHub) Prefetch(ctx context.Context, refs []string) {
	for _, ref := range refs {
		if !ValidRef(ref) {
			continue
		}
		if _, ok := g.cached(ref); ok {
			continue
		}
		g.prefetch.Go(func() {
			if _, err := g.Repo(ctx, ref); err != nil {
				g.logger.Debug("Prefetch failed", logfields.Reference(ref), logfields.Error(err))
			}
		})
	}
}

// Wait blocks until every prefetch started so far has finished.
func (g *GitHub) Wait() { g.prefetch.Wait() }

func (g *GitHub) cached(ref string) (*Repo, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.mem[ref]
	return r, ok
}

// remember stores r unless ref already has an entry, and returns the entry.
func (g *GitHub) remember(ref string, r *Repo) *Repo {
	g.mu.Lock()
	defer g.mu.Unlock()
	if existing, ok := g.mem[ref]; ok {
		return existing
	}
	g.mem[ref] = r
	return r
}

func cacheKey(ref string) string { return kindGitHub + ":" + ref }

func (g *GitHub) load(ctx context.Context, ref string) (*Repo, error) {
	stale, fresh := g.fromCache(ctx, ref)
	if fresh {
		g.recorder.IncLookupResult(kindGitHub, metrics.LookupHit)
		return stale, nil
	}
	if g.cfg.Offline {
		if stale != nil {
			return stale, nil
		}
		return nil, errors.LookupFailure("repository lookups are disabled").
			WithContext("reference", ref).Build()
	}

	start := time.Now()
	r, payload, err := g.fetch(ctx, ref)
	g.recorder.ObserveLookupDuration(kindGitHub, time.Since(start))
	if err != nil {
		return nil, err
	}
	g.recorder.IncLookupResult(kindGitHub, metrics.LookupFetch)

	if g.cache != nil {
		if err := g.cache.PutLookup(ctx, cacheKey(ref), payload, g.now()); err != nil {
			g.logger.Warn("Failed to persist lookup", logfields.Reference(ref), logfields.Error(err))
		}
	}
	return r, nil
}

// fromCache returns the persisted entry and whether it is within the TTL.
func (g *GitHub) fromCache(ctx context.Context, ref string) (*Repo, bool) {
	if g.cache == nil {
		return nil, false
	}
	l, ok, err := g.cache.GetLookup(ctx, cacheKey(ref))
	if err != nil {
		g.logger.Warn("Lookup cache read failed", logfields.Reference(ref), logfields.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var r Repo
	if err := json.Unmarshal(l.Payload, &r); err != nil {
		return nil, false
	}
	return &r, g.now().Sub(l.FetchedAt) < g.cfg.CacheTTL
}

func (g *GitHub) fetch(ctx context.Context, ref string) (*Repo, []byte, error) {
	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, nil, transient("rate limiter wait", ref, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.cfg.APIURL+"/repos/"+ref, nil)
	if err != nil {
		return nil, nil, errors.LookupFailure("build request").WithCause(err).WithContext("reference", ref).Build()
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "mdpipeline")
	if g.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+g.cfg.Token)
	}

	resp, err := g.http.Do(req)
	if err != nil {
		return nil, nil, transient("request failed", ref, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, nil, transient("read response", ref, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0":
		return nil, nil, errors.LookupFailure("github rate limit exceeded").
			RateLimit().WithContext("reference", ref).WithContext("status", resp.StatusCode).Build()
	case resp.StatusCode >= 500:
		return nil, nil, errors.LookupFailure(fmt.Sprintf("github returned %d", resp.StatusCode)).
			Retryable().WithContext("reference", ref).WithContext("status", resp.StatusCode).Build()
	default:
		return nil, nil, errors.LookupFailure(fmt.Sprintf("github returned %d", resp.StatusCode)).
			WithContext("reference", ref).WithContext("status", resp.StatusCode).Build()
	}

	var r Repo
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, nil, errors.LookupFailure("decode repository").WithCause(err).WithContext("reference", ref).Build()
	}
	return &r, body, nil
}

func transient(msg, ref string, cause error) error {
	return errors.LookupFailure(msg).WithCause(cause).Retryable().WithContext("reference", ref).Build()
}
