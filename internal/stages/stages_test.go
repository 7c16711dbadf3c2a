package stages

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mdpipeline/internal/ast"
	"git.home.luguber.info/inful/mdpipeline/internal/config"
	"git.home.luguber.info/inful/mdpipeline/internal/document"
	"git.home.luguber.info/inful/mdpipeline/internal/foundation/errors"
	"git.home.luguber.info/inful/mdpipeline/internal/lookup"
	"git.home.luguber.info/inful/mdpipeline/internal/markdown"
	"git.home.luguber.info/inful/mdpipeline/internal/render"
	"git.home.luguber.info/inful/mdpipeline/internal/transforms"
)

type fakeRepos struct {
	repo  *lookup.Repo
	err   error
	calls atomic.Int32
}

func (f *fakeRepos) Repo(_ context.Context, _ string) (*lookup.Repo, error) {
	f.calls.Add(1)
	return f.repo, f.err
}

type fakeDates map[string]time.Time

func (f fakeDates) LastModified(path string) (time.Time, bool, error) {
	t, ok := f[path]
	return t, ok, nil
}

type fakeDiagrams struct {
	svg string
	err error
}

func (f fakeDiagrams) Render(context.Context, string, string) (string, error) { return f.svg, f.err }

func newDoc(t *testing.T, cfg *config.Config, src string) *document.Document {
	t.Helper()
	tree, _, err := markdown.New(cfg).Parse("doc.md", []byte(src), 1)
	require.NoError(t, err)
	doc := document.New("doc.md", []byte(src), []byte(src), 1, nil, cfg)
	doc.Tree = tree
	return doc
}

func runner(t *testing.T, cfg *config.Config, deps Deps) *transforms.Runner {
	t.Helper()
	reg, err := NewRegistry(deps)
	require.NoError(t, err)
	pipeline, err := reg.Build(Enabled(cfg))
	require.NoError(t, err)
	return transforms.NewRunner(pipeline)
}

// run parses src and applies the configured stages.
func run(t *testing.T, src string, deps Deps, mutate ...func(*config.Config)) *document.Document {
	t.Helper()
	cfg := config.Default()
	for _, m := range mutate {
		m(cfg)
	}
	doc := newDoc(t, cfg, src)
	require.NoError(t, runner(t, cfg, deps).Run(t.Context(), doc))
	return doc
}

func html(t *testing.T, doc *document.Document) string {
	t.Helper()
	out, err := render.String(doc.Tree)
	require.NoError(t, err)
	return out
}

func byClass(root *ast.Node, class string) []*ast.Node {
	return ast.FindAll(root, func(n *ast.Node) bool { return n.Kind == ast.KindElement && n.Attrs.HasClass(class) })
}

func byTag(root *ast.Node, tag string) []*ast.Node {
	return ast.FindAll(root, func(n *ast.Node) bool { return n.IsElement(tag) })
}

func TestEnabled(t *testing.T) {
	cfg := config.Default()
	names := Enabled(cfg)
	assert.NotContains(t, names, NameGitDates)
	assert.Contains(t, names, NameCallouts)
	assert.Equal(t, NameReadingTime, names[0])

	cfg.Git.Dates = true
	cfg.Pipeline.Disable = []string{NameSectionize}
	cfg.Pipeline.Enable = []string{"mystery"}
	names = Enabled(cfg)
	assert.Contains(t, names, NameGitDates)
	assert.NotContains(t, names, NameSectionize)
	assert.Equal(t, "mystery", names[len(names)-1])
}

func TestRegistry_DefaultSetBuilds(t *testing.T) {
	reg, err := NewRegistry(Deps{})
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Git.Dates = true
	pipeline, err := reg.Build(Enabled(cfg))
	require.NoError(t, err)

	pos := make(map[string]int)
	for i, tr := range pipeline {
		pos[tr.Name()] = i
	}
	assert.Less(t, pos[NameDirectives], pos[NameCallouts])
	assert.Less(t, pos[NameDirectives], pos[NameGitHubCard])
	assert.Less(t, pos[NameSlug], pos[NameHeadingAnchors])
	assert.Less(t, pos[NameHeadingAnchors], pos[NameSectionize])
	assert.Less(t, pos[NameImageGrid], pos[NameFigure])
	assert.Less(t, pos[NameDiagram], pos[NameCodeBlocks])
	assert.Equal(t, NameUniqueIDs, pipeline[len(pipeline)-1].Name())
}

func TestRegistry_SectionizeAfterSlugWithoutAnchors(t *testing.T) {
	reg, err := NewRegistry(Deps{})
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Pipeline.Disable = []string{NameHeadingAnchors}
	pipeline, err := reg.Build(Enabled(cfg))
	require.NoError(t, err)

	pos := make(map[string]int)
	for i, tr := range pipeline {
		pos[tr.Name()] = i
	}
	require.NotContains(t, pos, NameHeadingAnchors)
	assert.Less(t, pos[NameSlug], pos[NameSectionize])
}

func TestRegistry_MissingPrerequisiteIsRejected(t *testing.T) {
	reg, err := NewRegistry(Deps{})
	require.NoError(t, err)
	_, err = reg.Build([]string{NameCallouts})
	assert.Error(t, err)
}

func TestRegistry_UnknownStageIsRejected(t *testing.T) {
	cfg := config.Default()
	cfg.Pipeline.Enable = []string{"mystery"}
	reg, err := NewRegistry(Deps{})
	require.NoError(t, err)
	_, err = reg.Build(Enabled(cfg))
	assert.Error(t, err)
}

const richDoc = `# Guide

Intro with [a link](https://other.example/) and mail@example.com.

::: note
Hello
:::

> [!TIP]- Fold me
> Hidden body

![a](1.png)
![b](2.png)

## Guide

Inline $x^2$ and $\nope$.

::github{repo="octo/hello"}

::youtube{id="abc"}

` + "```go\npackage main\n```\n\n```mermaid\ngraph TD\n```\n"

func TestIdempotence(t *testing.T) {
	cfg := config.Default()
	cfg.Site.URL = "https://mysite.example/"
	deps := Deps{Repos: &fakeRepos{repo: &lookup.Repo{FullName: "octo/hello", Stars: 1200}}}
	r := runner(t, cfg, deps)

	doc := newDoc(t, cfg, richDoc)
	require.NoError(t, r.Run(t.Context(), doc))
	once := doc.Tree.Clone()
	headings := doc.Meta.Headings

	require.NoError(t, r.Run(t.Context(), doc))
	assert.True(t, ast.Equal(once, doc.Tree), "second run changed the tree")
	assert.Equal(t, headings, doc.Meta.Headings)
}

func TestDeterminism(t *testing.T) {
	deps := Deps{Repos: &fakeRepos{repo: &lookup.Repo{FullName: "octo/hello"}}}
	first := html(t, run(t, richDoc, deps))
	second := html(t, run(t, richDoc, deps))
	assert.Equal(t, first, second)
}

func TestUnknownDirectiveRoundTrip(t *testing.T) {
	src := "::: youtube{id=\"abc\" .wide}\nHello *there*\n:::\n"
	parsed := newDoc(t, config.Default(), src).Tree.Children[0]

	doc := run(t, src, Deps{})
	require.Len(t, doc.Tree.Children, 1)
	assert.True(t, ast.Equal(parsed, doc.Tree.Children[0]))

	out := html(t, doc)
	assert.Contains(t, out, `data-directive="youtube"`)
	assert.Contains(t, out, `data-directive-form="container"`)
	assert.Contains(t, out, `id="abc"`)
	assert.Contains(t, out, "Hello <em>there</em>")
}

func TestReadingTime(t *testing.T) {
	src := strings.Repeat("word ", 450) + "\n\n```go\n" + strings.Repeat("code ", 500) + "\n```\n"
	doc := run(t, src, Deps{})
	assert.Equal(t, 450, doc.Meta.ReadingTime.Words)
	assert.Equal(t, 3, doc.Meta.ReadingTime.Minutes)
	assert.Equal(t, "3 min read", doc.Meta.ReadingTime.Text)

	empty := run(t, "", Deps{})
	assert.Equal(t, 0, empty.Meta.ReadingTime.Minutes)
	assert.Equal(t, "1 min read", empty.Meta.ReadingTime.Text)
}

func TestCountWords(t *testing.T) {
	assert.Equal(t, 3, CountWords("Don't stop now"))
	assert.Equal(t, 3, CountWords("日本語"))
	assert.Equal(t, 5, CountWords("Go は 楽しい"))
	assert.Equal(t, 0, CountWords(" -- "))
}

func TestExcerpt(t *testing.T) {
	doc := run(t, "# Title\n\nFirst *para*.\n\nSecond para.\n", Deps{})
	assert.Equal(t, "First para.", doc.Meta.Excerpt)

	doc = run(t, "Lead one.\n\nLead two.\n\n<!-- more -->\n\nRest.\n", Deps{})
	assert.Equal(t, "Lead one. Lead two.", doc.Meta.Excerpt)

	cfg := config.Default()
	d := newDoc(t, cfg, "Body text.\n")
	d.FrontMatter["description"] = "From front matter"
	require.NoError(t, runner(t, cfg, Deps{}).Run(t.Context(), d))
	assert.Equal(t, "From front matter", d.Meta.Excerpt)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "Hello…", Truncate("Hello, world", 6))
	assert.Equal(t, "日本…", Truncate("日本語のテキスト", 2))
}

func TestGitDates(t *testing.T) {
	when := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	deps := Deps{Dates: fakeDates{"doc.md": when}}
	enable := func(c *config.Config) { c.Git.Dates = true }

	doc := run(t, "text\n", deps, enable)
	require.NotNil(t, doc.Meta.Updated)
	assert.True(t, when.Equal(*doc.Meta.Updated))

	cfg := config.Default()
	enable(cfg)
	d := newDoc(t, cfg, "text\n")
	d.FrontMatter["updated"] = "2020-01-01"
	require.NoError(t, runner(t, cfg, deps).Run(t.Context(), d))
	assert.Nil(t, d.Meta.Updated)
}

func TestStageFailureIsRecorded(t *testing.T) {
	cfg := config.Default()
	cfg.Git.Dates = true
	deps := Deps{Dates: failingDates{}}
	doc := newDoc(t, cfg, "text\n")
	require.NoError(t, runner(t, cfg, deps).Run(t.Context(), doc))

	require.Len(t, doc.Diagnostics, 1)
	assert.Equal(t, NameGitDates, doc.Diagnostics[0].Stage)
	assert.True(t, errors.HasCategory(doc.Diagnostics[0].Err, errors.CategoryStage))
	assert.Nil(t, doc.Meta.Updated)
}

type failingDates struct{}

func (failingDates) LastModified(string) (time.Time, bool, error) {
	return time.Time{}, false, assert.AnError
}
