package lookup

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mdpipeline/internal/config"
	"git.home.luguber.info/inful/mdpipeline/internal/foundation/errors"
	"git.home.luguber.info/inful/mdpipeline/internal/store"
)

const repoJSON = `{
	"full_name": "octo/hello",
	"description": "Hello world",
	"html_url": "https://github.com/octo/hello",
	"stargazers_count": 1234,
	"forks_count": 56,
	"language": "Go",
	"owner": {"login": "octo", "avatar_url": "https://avatars.example/octo.png"},
	"license": {"spdx_id": "MIT", "name": "MIT License"}
}`

type fakeGitHub struct {
	srv    *httptest.Server
	hits   atomic.Int32
	status atomic.Int32
	delay  time.Duration
	auth   atomic.Value
}

func newFakeGitHub(t *testing.T) *fakeGitHub {
	t.Helper()
	f := &fakeGitHub{}
	f.status.Store(http.StatusOK)
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.hits.Add(1)
		f.auth.Store(r.Header.Get("Authorization"))
		if f.delay > 0 {
			time.Sleep(f.delay)
		}
		if r.URL.Path != "/repos/octo/hello" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		status := int(f.status.Load())
		w.WriteHeader(status)
		if status == http.StatusOK {
			_, _ = w.Write([]byte(repoJSON))
		}
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeGitHub) config() config.GitHubConfig {
	cfg := config.Default().GitHub
	cfg.APIURL = f.srv.URL
	cfg.Rate = 1000
	cfg.Burst = 100
	return cfg
}

func TestRepo_FetchesOnceAndCaches(t *testing.T) {
	f := newFakeGitHub(t)
	cfg := f.config()
	cfg.Token = "secret"
	g := NewGitHub(cfg)

	r, err := g.Repo(t.Context(), "octo/hello")
	require.NoError(t, err)
	assert.Equal(t, "octo/hello", r.FullName)
	assert.Equal(t, 1234, r.Stars)
	assert.Equal(t, "MIT", r.LicenseID())
	assert.Equal(t, "octo", r.Owner.Login)
	assert.Equal(t, "Bearer secret", f.auth.Load())

	again, err := g.Repo(t.Context(), "octo/hello")
	require.NoError(t, err)
	assert.Same(t, r, again)
	assert.EqualValues(t, 1, f.hits.Load())
}

func TestRepo_ConcurrentCallersShareOneRequest(t *testing.T) {
	f := newFakeGitHub(t)
	f.delay = 50 * time.Millisecond
	g := NewGitHub(f.config())

	var wg sync.WaitGroup
	results := make([]*Repo, 10)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := g.Repo(t.Context(), "octo/hello")
			assert.NoError(t, err)
			results[i] = r
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, f.hits.Load())
	for _, r := range results {
		assert.Same(t, results[0], r)
	}
}

func TestRepo_ErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		ref       string
		transient bool
	}{
		{"server error is transient", http.StatusBadGateway, "octo/hello", true},
		{"rate limit is transient", http.StatusTooManyRequests, "octo/hello", true},
		{"not found is permanent", http.StatusOK, "octo/missing", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeGitHub(t)
			f.status.Store(int32(tt.status))
			g := NewGitHub(f.config())

			_, err := g.Repo(t.Context(), tt.ref)
			require.Error(t, err)
			assert.True(t, errors.HasCategory(err, errors.CategoryLookup))
			assert.Equal(t, tt.transient, errors.IsTransient(err))
		})
	}
}

func TestRepo_InvalidRefMakesNoRequest(t *testing.T) {
	f := newFakeGitHub(t)
	g := NewGitHub(f.config())

	for _, ref := range []string{"", "octo", "octo/hello/extra", "../etc/passwd", "-x/y"} {
		_, err := g.Repo(t.Context(), ref)
		require.Error(t, err, ref)
		assert.False(t, errors.IsTransient(err))
	}
	assert.EqualValues(t, 0, f.hits.Load())
}

func TestRepo_TimeoutIsTransient(t *testing.T) {
	f := newFakeGitHub(t)
	f.delay = 300 * time.Millisecond
	cfg := f.config()
	cfg.Timeout = 20 * time.Millisecond
	g := NewGitHub(cfg)

	_, err := g.Repo(t.Context(), "octo/hello")
	require.Error(t, err)
	assert.True(t, errors.IsTransient(err))
}

func TestRepo_PersistentCacheWithTTL(t *testing.T) {
	f := newFakeGitHub(t)
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	defer func() { _ = st.Close() }()

	now := time.Unix(1_700_000_000, 0)
	clock := func() time.Time { return now }

	first := NewGitHub(f.config(), WithCache(st), WithClock(clock))
	_, err = first.Repo(t.Context(), "octo/hello")
	require.NoError(t, err)
	require.EqualValues(t, 1, f.hits.Load())

	f.status.Store(http.StatusInternalServerError)
	second := NewGitHub(f.config(), WithCache(st), WithClock(clock))
	r, err := second.Repo(t.Context(), "octo/hello")
	require.NoError(t, err)
	assert.Equal(t, "Hello world", r.Description)
	assert.EqualValues(t, 1, f.hits.Load())

	expired := func() time.Time { return now.Add(48 * time.Hour) }
	third := NewGitHub(f.config(), WithCache(st), WithClock(expired))
	_, err = third.Repo(t.Context(), "octo/hello")
	require.Error(t, err)
	assert.EqualValues(t, 2, f.hits.Load())

	offlineCfg := f.config()
	offlineCfg.Offline = true
	offline := NewGitHub(offlineCfg, WithCache(st), WithClock(expired))
	r, err = offline.Repo(t.Context(), "octo/hello")
	require.NoError(t, err)
	assert.Equal(t, "octo/hello", r.FullName)
	assert.EqualValues(t, 2, f.hits.Load())
}

func TestRepo_OfflineWithoutCache(t *testing.T) {
	f := newFakeGitHub(t)
	cfg := f.config()
	cfg.Offline = true
	g := NewGitHub(cfg)

	_, err := g.Repo(t.Context(), "octo/hello")
	require.Error(t, err)
	assert.False(t, errors.IsTransient(err))
	assert.EqualValues(t, 0, f.hits.Load())
}

func TestPrefetch(t *testing.T) {
	f := newFakeGitHub(t)
	g := NewGitHub(f.config())

	g.Prefetch(t.Context(), []string{"octo/hello", "not a ref", "octo/hello"})
	g.Wait()

	_, ok := g.cached("octo/hello")
	assert.True(t, ok)
	assert.EqualValues(t, 1, f.hits.Load())

	g.Prefetch(t.Context(), []string{"octo/hello"})
	g.Wait()
	assert.EqualValues(t, 1, f.hits.Load())
}

func TestRemember_NeverOverwrites(t *testing.T) {
	g := NewGitHub(config.Default().GitHub)
	a := &Repo{FullName: "a"}
	b := &Repo{FullName: "b"}
	assert.Same(t, a, g.remember("x/y", a))
	assert.Same(t, a, g.remember("x/y", b))
}
