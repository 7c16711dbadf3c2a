package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestLookups_PutGetRefresh(t *testing.T) {
	s := newStore(t)
	ctx := t.Context()

	_, ok, err := s.GetLookup(ctx, "github:a/b")
	require.NoError(t, err)
	assert.False(t, ok)

	first := time.Unix(1_700_000_000, 0)
	require.NoError(t, s.PutLookup(ctx, "github:a/b", []byte(`{"v":1}`), first))

	got, ok, err := s.GetLookup(ctx, "github:a/b")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte(`{"v":1}`), got.Payload)
	assert.True(t, got.FetchedAt.Equal(first))

	later := first.Add(time.Hour)
	require.NoError(t, s.PutLookup(ctx, "github:a/b", []byte(`{"v":2}`), later))
	got, _, err = s.GetLookup(ctx, "github:a/b")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"v":2}`), got.Payload)
	assert.True(t, got.FetchedAt.Equal(later))
}

func TestPruneLookups(t *testing.T) {
	s := newStore(t)
	ctx := t.Context()
	now := time.Unix(1_700_000_000, 0)

	require.NoError(t, s.PutLookup(ctx, "old", []byte("x"), now.Add(-48*time.Hour)))
	require.NoError(t, s.PutLookup(ctx, "new", []byte("y"), now))

	n, err := s.PruneLookups(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, ok, _ := s.GetLookup(ctx, "old")
	assert.False(t, ok)
	_, ok, _ = s.GetLookup(ctx, "new")
	assert.True(t, ok)
}

func TestRenders(t *testing.T) {
	s := newStore(t)
	ctx := t.Context()
	at := time.Unix(1_700_000_000, 0)

	require.NoError(t, s.PutRender(ctx, Render{Path: "b.md", Fingerprint: "f2", Outcome: "rendered", RenderedAt: at}))
	require.NoError(t, s.PutRender(ctx, Render{Path: "a.md", Fingerprint: "f1", Outcome: "degraded", RenderedAt: at}))
	require.NoError(t, s.PutRender(ctx, Render{Path: "a.md", Fingerprint: "f3", Outcome: "rendered", RenderedAt: at}))

	r, ok, err := s.GetRender(ctx, "a.md")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "f3", r.Fingerprint)
	assert.Equal(t, "rendered", r.Outcome)

	all, err := s.Renders(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a.md", all[0].Path)
	assert.Equal(t, "b.md", all[1].Path)

	require.NoError(t, s.DeleteRender(ctx, "a.md"))
	_, ok, err = s.GetRender(ctx, "a.md")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOpen_FilePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	ctx := t.Context()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.PutLookup(ctx, "k", []byte("v"), time.Unix(1, 0)))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	got, ok, err := s.GetLookup(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got.Payload)
}
