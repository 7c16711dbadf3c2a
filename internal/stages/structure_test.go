package stages

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mdpipeline/internal/ast"
	"git.home.luguber.info/inful/mdpipeline/internal/document"
)

func TestImageGrid_ThreeImages(t *testing.T) {
	for name, src := range map[string]string{
		"one paragraph":    "![a](1.png)\n![b](2.png)\n![c](3.png)\n",
		"three paragraphs": "![a](1.png)\n\n![b](2.png)\n\n![c](3.png)\n",
	} {
		t.Run(name, func(t *testing.T) {
			doc := run(t, src, Deps{})
			grids := byClass(doc.Tree, "image-grid")
			require.Len(t, grids, 1)
			grid := grids[0]
			assert.Equal(t, "3", grid.Attrs.Value("data-count"))
			require.Len(t, grid.Children, 3)
			for i, alt := range []string{"a", "b", "c"} {
				assert.True(t, grid.Children[i].IsElement("img"))
				assert.Equal(t, alt, grid.Children[i].Attrs.Value("alt"))
			}
			assert.Empty(t, byTag(doc.Tree, "p"))
		})
	}
}

func TestImageGrid_SingleImageAndMixedContent(t *testing.T) {
	doc := run(t, "![a](1.png)\n\nText ![b](2.png) ![c](3.png)\n", Deps{})
	assert.Empty(t, byClass(doc.Tree, "image-grid"))
	assert.Len(t, byTag(doc.Tree, "img"), 3)
}

func TestFigure(t *testing.T) {
	doc := run(t, "![A cat](cat.png \"Our cat\")\n", Deps{})
	figs := byTag(doc.Tree, "figure")
	require.Len(t, figs, 1)
	require.Len(t, figs[0].Children, 2)
	img := figs[0].Children[0]
	assert.True(t, img.IsElement("img"))
	assert.Equal(t, "A cat", img.Attrs.Value("alt"))
	assert.False(t, img.Attrs.Has("title"))
	assert.Equal(t, "Our cat", figs[0].Children[1].TextContent())

	plain := run(t, "![A cat](cat.png)\n", Deps{})
	assert.Empty(t, byTag(plain.Tree, "figure"))
}

func TestSlug_UniqueIDs(t *testing.T) {
	doc := run(t, "# Intro\n\n## Intro\n\n### Intro\n\n## Other {#intro-1}\n", Deps{})

	var ids []string
	for _, h := range headings(doc.Tree) {
		ids = append(ids, h.Attrs.Value("id"))
	}
	assert.Equal(t, []string{"intro", "intro-2", "intro-3", "intro-1"}, ids)

	seen := map[string]bool{}
	for _, id := range ids {
		assert.False(t, seen[id], id)
		seen[id] = true
	}

	assert.Equal(t, []document.Heading{
		{Depth: 1, Slug: "intro", Text: "Intro"},
		{Depth: 2, Slug: "intro-2", Text: "Intro"},
		{Depth: 3, Slug: "intro-3", Text: "Intro"},
		{Depth: 2, Slug: "intro-1", Text: "Other"},
	}, doc.Meta.Headings)
}

func TestSlug_AvoidsDirectiveIDs(t *testing.T) {
	doc := run(t, "# Intro\n\n::: youtube{#intro}\nclip\n:::\n", Deps{})

	hs := headings(doc.Tree)
	require.Len(t, hs, 1)
	assert.Equal(t, "intro-1", hs[0].Attrs.Value("id"))
	assert.Equal(t, 1, strings.Count(html(t, doc), `id="intro"`))
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Hello, World!":        "hello-world",
		"  Trim me  ":          "trim-me",
		"Straße Ünïcode":       "straße-ünïcode",
		"日本語の見出し":              "日本語の見出し",
		"a  b":                 "a--b",
		"snake_case-and-kebab": "snake_case-and-kebab",
		"!!!":                  "section",
		"":                     "section",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestHeadingAnchors(t *testing.T) {
	doc := run(t, "## Install *now*\n", Deps{})
	h := headings(doc.Tree)[0]
	last := h.Children[len(h.Children)-1]
	require.True(t, last.IsElement("a"))
	assert.True(t, last.Attrs.HasClass("anchor"))
	assert.Equal(t, "#install-now", last.Attrs.Value("href"))
	assert.Equal(t, "Install now", visibleText(h))
	assert.Len(t, byClass(doc.Tree, "anchor-icon"), 1)
}

func TestSectionize(t *testing.T) {
	doc := run(t, "Preface\n\n# A\n\npara\n\n## B\n\ntext\n\n### C\n\n## D\n\n# E\n\nend\n", Deps{})

	root := doc.Tree.Children
	require.Len(t, root, 3)
	assert.True(t, root[0].IsElement("p"))

	a := root[1]
	require.True(t, a.IsElement("section"))
	require.Len(t, a.Children, 4)
	assert.Equal(t, 1, a.Children[0].HeadingLevel())
	assert.True(t, a.Children[1].IsElement("p"))

	b := a.Children[2]
	require.True(t, b.IsElement("section"))
	require.Len(t, b.Children, 3)
	assert.Equal(t, 2, b.Children[0].HeadingLevel())
	c := b.Children[2]
	require.True(t, c.IsElement("section"))
	assert.Equal(t, 3, c.Children[0].HeadingLevel())

	d := a.Children[3]
	require.True(t, d.IsElement("section"))
	assert.Len(t, d.Children, 1)

	e := root[2]
	require.True(t, e.IsElement("section"))
	assert.Equal(t, "E", visibleText(e.Children[0]))
}

func TestSectionize_FootnotesStayOutside(t *testing.T) {
	doc := run(t, "# A\n\nText[^1]\n\n[^1]: Note.\n", Deps{})
	root := doc.Tree.Children
	require.Len(t, root, 2)
	assert.True(t, root[0].IsElement("section"))
	assert.True(t, isFootnotes(root[1]))
}

func TestSectionsNodes(t *testing.T) {
	h1 := ast.NewElement("h1", nil, ast.NewText("x"))
	p := ast.NewElement("p", nil)
	out := sections([]*ast.Node{h1, p}, 0)
	require.Len(t, out, 1)
	assert.Equal(t, []*ast.Node{h1, p}, out[0].Children)
}
