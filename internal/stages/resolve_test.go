package stages

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mdpipeline/internal/ast"
	"git.home.luguber.info/inful/mdpipeline/internal/config"
	"git.home.luguber.info/inful/mdpipeline/internal/foundation/errors"
	"git.home.luguber.info/inful/mdpipeline/internal/lookup"
)

func TestCallout_Note(t *testing.T) {
	doc := run(t, "::: note\nHello\n:::\n", Deps{})

	boxes := byClass(doc.Tree, "callout")
	require.Len(t, boxes, 1)
	box := boxes[0]
	assert.Equal(t, "note", box.Attrs.Value("data-callout"))
	assert.True(t, box.Attrs.HasClass("callout-theme-github"))

	title := byClass(box, "callout-title-inner")
	require.Len(t, title, 1)
	assert.Equal(t, "Note", title[0].TextContent())

	content := byClass(box, "callout-content")
	require.Len(t, content, 1)
	assert.Equal(t, "Hello", content[0].TextContent())

	icons := byClass(box, "callout-icon")
	require.Len(t, icons, 1)
	assert.Equal(t, "true", icons[0].Attrs.Value("aria-hidden"))
	assert.Empty(t, doc.Diagnostics)
}

func TestCallout_LabelAliasAndGenericKind(t *testing.T) {
	doc := run(t, ":::hint[Pro *tip*]\nBody\n:::\n\n:::callout{type=\"mystery\" title=\"Heads up\"}\nX\n:::\n", Deps{})

	boxes := byClass(doc.Tree, "callout")
	require.Len(t, boxes, 2)
	assert.Equal(t, "tip", boxes[0].Attrs.Value("data-callout"))
	assert.Equal(t, "Pro tip", byClass(boxes[0], "callout-title-inner")[0].TextContent())
	assert.Equal(t, "Body", byClass(boxes[0], "callout-content")[0].TextContent())

	assert.Equal(t, "note", boxes[1].Attrs.Value("data-callout"))
	assert.Equal(t, "Heads up", byClass(boxes[1], "callout-title-inner")[0].TextContent())
}

func TestCallout_AlertMatchesDirective(t *testing.T) {
	alert := run(t, "> [!NOTE]\n> Hello\n", Deps{})
	direct := run(t, "::: note\nHello\n:::\n", Deps{})
	assert.True(t, ast.Equal(direct.Tree, alert.Tree))
	assert.Equal(t, direct.Meta.Directives, alert.Meta.Directives)
}

func TestCallout_FoldableAlert(t *testing.T) {
	doc := run(t, "> [!WARNING]- Careful now\n> Body text\n>\n> More\n", Deps{})

	details := byTag(doc.Tree, "details")
	require.Len(t, details, 1)
	d := details[0]
	assert.True(t, d.Attrs.HasClass("callout"))
	assert.False(t, d.Attrs.Has("open"))
	assert.Equal(t, "warning", d.Attrs.Value("data-callout"))

	summary := byTag(d, "summary")
	require.Len(t, summary, 1)
	assert.Equal(t, "Careful now", byClass(summary[0], "callout-title-inner")[0].TextContent())

	content := byClass(d, "callout-content")[0]
	require.Len(t, content.Children, 2)
	assert.Equal(t, "Body text", content.Children[0].TextContent())
	assert.Equal(t, "More", content.Children[1].TextContent())

	open := run(t, "> [!TIP]+\n> Shown\n", Deps{})
	details = byTag(open.Tree, "details")
	require.Len(t, details, 1)
	assert.True(t, details[0].Attrs.Has("open"))
	assert.Equal(t, "Tip", byClass(details[0], "callout-title-inner")[0].TextContent())
}

func TestCallout_PlainBlockquoteUntouched(t *testing.T) {
	doc := run(t, "> [!mystery] not an alert\n", Deps{})
	assert.Len(t, byTag(doc.Tree, "blockquote"), 1)
	assert.Empty(t, byClass(doc.Tree, "callout"))
}

func TestCallout_TextFormIsSkipped(t *testing.T) {
	doc := run(t, "Say :note[hi] please\n", Deps{})
	assert.Len(t, ast.FindAll(doc.Tree, func(n *ast.Node) bool { return n.Kind == ast.KindDirective }), 1)
	require.Len(t, doc.Diagnostics, 1)
	assert.Equal(t, NameCallouts, doc.Diagnostics[0].Stage)
	assert.True(t, errors.HasCategory(doc.Diagnostics[0].Err, errors.CategoryStage))
}

func TestDirectiveCounts(t *testing.T) {
	doc := run(t, "::: note\nA\n:::\n\n::: note\nB\n:::\n\n::youtube{id=x}\n", Deps{})
	assert.Equal(t, map[string]int{"note": 2, "youtube": 1}, doc.Meta.Directives)
}

func TestGitHubCard(t *testing.T) {
	repo := &lookup.Repo{
		FullName:    "octo/hello",
		Description: "Hello world",
		HTMLURL:     "https://github.com/octo/hello",
		Stars:       1234,
		Forks:       56,
		Language:    "Go",
	}
	repo.Owner.Login = "octo"
	repo.Owner.AvatarURL = "https://avatars.example/octo.png"
	fake := &fakeRepos{repo: repo}

	doc := run(t, "::github{repo=\"octo/hello\"}\n", Deps{Repos: fake})

	cards := byClass(doc.Tree, "card-github")
	require.Len(t, cards, 1)
	card := cards[0]
	assert.Equal(t, CardID("octo/hello"), card.Attrs.Value("id"))
	assert.Equal(t, "octo/hello", card.Attrs.Value("data-repo"))
	assert.False(t, card.Attrs.HasClass("fetch-error"))
	assert.False(t, card.Attrs.HasClass("external-link"))
	assert.Equal(t, "Hello world", byClass(card, "gc-description")[0].TextContent())
	assert.Equal(t, "1.2k", byClass(card, "gc-stars")[0].TextContent())
	assert.Equal(t, "Go", byClass(card, "gc-language")[0].TextContent())
	assert.Len(t, byTag(card, "img"), 1)
	assert.Empty(t, doc.Diagnostics)
	assert.Equal(t, int32(1), fake.calls.Load())
}

func TestGitHubCard_PlaceholderOnLookupFailure(t *testing.T) {
	fake := &fakeRepos{err: errors.LookupFailure("upstream unavailable").Retryable().Build()}
	doc := run(t, "::github{repo=\"octo/hello\"}\n", Deps{Repos: fake})

	cards := byClass(doc.Tree, "card-github")
	require.Len(t, cards, 1)
	assert.True(t, cards[0].Attrs.HasClass("fetch-error"))
	assert.Empty(t, byClass(cards[0], "gc-infobar"))

	require.Len(t, doc.Diagnostics, 1)
	assert.True(t, errors.HasCategory(doc.Diagnostics[0].Err, errors.CategoryLookup))
	assert.True(t, doc.Degraded())
	assert.True(t, doc.HasTransientFailure())
}

func TestGitHubCard_NoFetcherRendersPlaceholder(t *testing.T) {
	doc := run(t, "::github{repo=\"octo/hello\"}\n", Deps{})
	cards := byClass(doc.Tree, "card-github")
	require.Len(t, cards, 1)
	assert.True(t, cards[0].Attrs.HasClass("fetch-error"))
	assert.False(t, doc.HasTransientFailure())
}

func TestGitHubCard_InvalidUse(t *testing.T) {
	fake := &fakeRepos{}
	doc := run(t, "::github{repo=\"not a repo\"}\n\n:::github{repo=\"octo/hello\"}\nbody\n:::\n", Deps{Repos: fake})

	errs := byClass(doc.Tree, "card-error")
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0].TextContent(), "not a repo")
	assert.Len(t, doc.Diagnostics, 2)
	assert.Zero(t, fake.calls.Load())
}

func TestCardRefs(t *testing.T) {
	doc := newDoc(t, config.Default(), "::github{repo=\"a/b\"}\n\n::github{repo=\"c/d\"}\n\n::github{repo=\"a/b\"}\n\n::github{repo=\"bad\"}\n")
	assert.Equal(t, []string{"a/b", "c/d"}, CardRefs(doc.Tree))
}

func TestCompactNumber(t *testing.T) {
	tests := map[int]string{
		0:         "0",
		999:       "999",
		1000:      "1k",
		1234:      "1.2k",
		56000:     "56k",
		1_500_000: "1.5M",
	}
	for in, want := range tests {
		assert.Equal(t, want, CompactNumber(in), in)
	}
}

const mermaid = "```mermaid\ngraph TD\n  A-->B\n```\n"

func TestDiagram_PlaceholderWithoutRenderer(t *testing.T) {
	doc := run(t, mermaid, Deps{})
	comps := ast.FindAll(doc.Tree, func(n *ast.Node) bool { return n.Kind == ast.KindComponent })
	require.Len(t, comps, 1)
	assert.Equal(t, "diagram", comps[0].Tag)
	assert.Equal(t, "mermaid", comps[0].Attrs.Value("data-language"))
	assert.Equal(t, "graph TD\n  A-->B", comps[0].TextContent())
	assert.Empty(t, byClass(doc.Tree, "expressive-code"))
}

func TestDiagram_Rendered(t *testing.T) {
	doc := run(t, mermaid, Deps{Diagrams: fakeDiagrams{svg: "<svg>ok</svg>"}})
	divs := byClass(doc.Tree, "diagram")
	require.Len(t, divs, 1)
	assert.Equal(t, "mermaid", divs[0].Attrs.Value("data-diagram"))
	assert.Contains(t, html(t, doc), "<svg>ok</svg>")
}

func TestDiagram_FailureFallsBack(t *testing.T) {
	fail := fakeDiagrams{err: errors.LookupFailure("renderer crashed").Build()}
	doc := run(t, mermaid, Deps{Diagrams: fail})
	comps := ast.FindAll(doc.Tree, func(n *ast.Node) bool { return n.Kind == ast.KindComponent })
	require.Len(t, comps, 1)
	assert.True(t, comps[0].Attrs.HasClass("diagram-fallback"))
	require.Len(t, doc.Diagnostics, 1)
	assert.Equal(t, NameDiagram, doc.Diagnostics[0].Stage)
}

func TestCommandRenderer(t *testing.T) {
	r := CommandRenderer{Command: []string{"cat"}}
	svg, err := r.Render(context.Background(), "mermaid", "<svg/>")
	require.NoError(t, err)
	assert.Equal(t, "<svg/>", svg)

	_, err = r.Render(context.Background(), "mermaid", "graph TD")
	assert.True(t, errors.HasCategory(err, errors.CategoryLookup))

	_, err = CommandRenderer{}.Render(context.Background(), "mermaid", "x")
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestMath(t *testing.T) {
	doc := run(t, "Inline $x^2$ and $\\nope$.\n\n$$\na+b\n$$\n", Deps{})

	inline := byClass(doc.Tree, "math-inline")
	require.Len(t, inline, 1)
	assert.True(t, inline[0].IsElement("span"))
	require.Len(t, inline[0].Children, 1)
	assert.Equal(t, ast.KindRaw, inline[0].Children[0].Kind)
	assert.Contains(t, inline[0].Children[0].Value, "<math")

	display := byClass(doc.Tree, "math-display")
	require.Len(t, display, 1)
	assert.True(t, display[0].IsElement("div"))

	errs := byClass(doc.Tree, "katex-error")
	require.Len(t, errs, 1)
	assert.Equal(t, `\nope`, errs[0].TextContent())
	assert.Contains(t, errs[0].Attrs.Value("title"), "unknown command")

	require.Len(t, doc.Diagnostics, 1)
	assert.True(t, errors.HasCategory(doc.Diagnostics[0].Err, errors.CategoryRender))
	assert.False(t, doc.Degraded())
}
