package codeblock

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mdpipeline/internal/ast"
	"git.home.luguber.info/inful/mdpipeline/internal/config"
	"git.home.luguber.info/inful/mdpipeline/internal/foundation/errors"
)

func newRenderer() *Renderer {
	cfg := config.Default()
	return NewRenderer(cfg.Code, cfg.I18n)
}

func lineNodes(root *ast.Node) []*ast.Node {
	return ast.FindAll(root, func(n *ast.Node) bool { return n.IsElement("div") && n.Attrs.HasClass("ec-line") })
}

// codeText rebuilds the source from the rendered code spans.
func codeText(root *ast.Node) string {
	var lines []string
	for _, l := range lineNodes(root) {
		for _, c := range l.Children {
			if c.Attrs.HasClass("code") {
				lines = append(lines, c.TextContent())
			}
		}
	}
	return strings.Join(lines, "\n")
}

func numbered(n int) string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = fmt.Sprintf("line %d", i+1)
	}
	return strings.Join(lines, "\n")
}

func TestParseMeta(t *testing.T) {
	m := ParseMeta(`title="main.go" {1,3-5} ins={7} del={8} showLineNumbers=false startLineNumber=10 collapse={2-4} nocollapse frame=terminal`)
	assert.Equal(t, "main.go", m.Title)
	assert.Equal(t, LineSet{{1, 1}, {3, 5}}, m.Mark)
	assert.Equal(t, LineSet{{7, 7}}, m.Ins)
	assert.Equal(t, LineSet{{8, 8}}, m.Del)
	assert.Equal(t, LineSet{{2, 4}}, m.Sections)
	require.NotNil(t, m.LineNumbers)
	assert.False(t, *m.LineNumbers)
	assert.Equal(t, 10, m.StartLine)
	assert.True(t, m.NoCollapse)
	assert.Equal(t, "terminal", m.Frame)

	spaced := ParseMeta(`title="hello world.go" showLineNumbers`)
	assert.Equal(t, "hello world.go", spaced.Title)
	require.NotNil(t, spaced.LineNumbers)
	assert.True(t, *spaced.LineNumbers)
	assert.Equal(t, 1, spaced.StartLine)

	assert.Empty(t, ParseMeta(`{x,5-2}`).Mark)
}

func TestStripMarkers(t *testing.T) {
	lines, flags := stripMarkers([]string{
		"a := 1 // [!code ++]",
		"# [!code --]",
		"b() // keep [!code hl]",
		"<p>x</p> <!-- [!code highlight] -->",
		"x // [!code ++:2]",
		"y",
		"z",
	})
	assert.Equal(t, []string{"a := 1", "", "b() // keep", "<p>x</p>", "x", "y", "z"}, lines)
	assert.Equal(t, []Flag{FlagIns, FlagDel, FlagMark, FlagMark, FlagIns, FlagIns, 0}, flags)
}

func TestHighlight_UnknownLanguageFallsBack(t *testing.T) {
	code := "  weird\tindent  \n\n<tag> & \"quotes\"\ntrailing "
	lines, lexer, err := Highlight("no-such-language", code)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryRender))
	assert.NotEmpty(t, lexer)
	assert.Len(t, lines, 4)
	assert.Equal(t, code, joinLines(lines))
}

func TestHighlight_KnownLanguage(t *testing.T) {
	code := "package main\n\nfunc main() {\n\tprintln(\"hi\")\n}"
	lines, lexer, err := Highlight("go", code)
	require.NoError(t, err)
	assert.Equal(t, "Go", lexer)
	assert.Len(t, lines, 5)
	assert.Equal(t, code, joinLines(lines))

	var classes []string
	for _, tok := range lines[0] {
		classes = append(classes, tok.Class)
	}
	assert.Contains(t, classes, "tok-kn")
}

func TestRender_CollapsibleAboveThreshold(t *testing.T) {
	n := ast.NewCodeBlock("text", "", numbered(20))
	out, err := newRenderer().Render(n, "code-1")
	require.NoError(t, err)

	assert.True(t, out.Attrs.HasClass("collapsible"))
	assert.True(t, out.Attrs.HasClass("collapsed"))
	assert.Equal(t, "8", out.Attrs.Value("data-preview-lines"))

	lines := lineNodes(out)
	require.Len(t, lines, 20)
	visible := 0
	for _, l := range lines {
		if !l.Attrs.HasClass("ec-overflow") {
			visible++
		}
	}
	assert.Equal(t, 8, visible)

	toggles := ast.FindAll(out, func(n *ast.Node) bool { return n.Attrs.HasClass("collapse-toggle") })
	require.Len(t, toggles, 1)
	assert.Equal(t, "code-1", toggles[0].Attrs.Value("aria-controls"))
	assert.Equal(t, "false", toggles[0].Attrs.Value("aria-expanded"))
	assert.Equal(t, "Show more", toggles[0].TextContent())

	live := ast.FindAll(out, func(n *ast.Node) bool { return n.Attrs.Value("aria-live") == "polite" })
	require.Len(t, live, 1)
	assert.Equal(t, "Code expanded", live[0].Attrs.Value("data-expanded"))
}

func TestRender_NoWrapperBelowThreshold(t *testing.T) {
	out, err := newRenderer().Render(ast.NewCodeBlock("text", "", numbered(10)), "code-1")
	require.NoError(t, err)
	assert.False(t, out.Attrs.HasClass("collapsible"))
	assert.Len(t, lineNodes(out), 10)
	assert.Empty(t, ast.FindAll(out, func(n *ast.Node) bool { return n.Attrs.HasClass("collapse-toggle") }))
}

func TestRender_NoCollapseMeta(t *testing.T) {
	out, err := newRenderer().Render(ast.NewCodeBlock("text", "nocollapse", numbered(30)), "c")
	require.NoError(t, err)
	assert.False(t, out.Attrs.HasClass("collapsible"))
}

func TestRender_CollapseDisabledGlobally(t *testing.T) {
	cfg := config.Default()
	off := false
	cfg.Code.Collapse.Enabled = &off
	r := NewRenderer(cfg.Code, cfg.I18n)

	out, err := r.Render(ast.NewCodeBlock("text", "", numbered(30)), "c")
	require.NoError(t, err)
	assert.False(t, out.Attrs.HasClass("collapsible"))
	assert.Empty(t, ast.FindAll(out, func(n *ast.Node) bool { return n.IsElement("button") && n.Attrs.HasClass("collapse-toggle") }))
	assert.Len(t, lineNodes(out), 30)
}

func TestRender_UnknownLanguagePreservesText(t *testing.T) {
	code := "fn  main()\t{\n    <b>&amp;</b>\n\n}  "
	out, err := newRenderer().Render(ast.NewCodeBlock("klingon", "", code), "c")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryRender))
	assert.Equal(t, code, codeText(out))

	pre := ast.FindAll(out, func(n *ast.Node) bool { return n.IsElement("pre") })
	require.Len(t, pre, 1)
	assert.Equal(t, "klingon", pre[0].Attrs.Value("data-language"))
}

func TestRender_LineNumbers(t *testing.T) {
	r := newRenderer()
	gutters := func(n *ast.Node) int {
		return len(ast.FindAll(n, func(n *ast.Node) bool { return n.Attrs.HasClass("gutter") }))
	}

	out, _ := r.Render(ast.NewCodeBlock("go", "startLineNumber=5", "a\nb"), "c")
	assert.Equal(t, 2, gutters(out))
	lns := ast.FindAll(out, func(n *ast.Node) bool { return n.Attrs.HasClass("ln") })
	assert.Equal(t, "5", lns[0].TextContent())

	shell, _ := r.Render(ast.NewCodeBlock("shellsession", "", "$ ls"), "c")
	assert.Equal(t, 0, gutters(shell))

	forced, _ := r.Render(ast.NewCodeBlock("shellsession", "showLineNumbers", "$ ls"), "c")
	assert.Equal(t, 1, gutters(forced))
}

func TestRender_AnnotationsTitleBadgeCopy(t *testing.T) {
	code := "x := 1 // [!code ++]\ny := 2\nz := 3"
	out, err := newRenderer().Render(ast.NewCodeBlock("go", `title="demo.go" del={2} {3}`, code), "c")
	require.NoError(t, err)

	lines := lineNodes(out)
	require.Len(t, lines, 3)
	assert.True(t, lines[0].Attrs.HasClass("ins"))
	assert.True(t, lines[1].Attrs.HasClass("del"))
	assert.True(t, lines[2].Attrs.HasClass("mark"))

	titles := ast.FindAll(out, func(n *ast.Node) bool { return n.Attrs.HasClass("title") })
	require.Len(t, titles, 1)
	assert.Equal(t, "demo.go", titles[0].TextContent())

	badges := ast.FindAll(out, func(n *ast.Node) bool { return n.Attrs.HasClass("language-badge") })
	require.Len(t, badges, 1)
	assert.Equal(t, "go", badges[0].TextContent())

	buttons := ast.FindAll(out, func(n *ast.Node) bool { return n.Attrs.HasClass("copy-button") })
	require.Len(t, buttons, 1)
	assert.Equal(t, "x := 1\ny := 2\nz := 3", buttons[0].Attrs.Value("data-code"))
	assert.Equal(t, "Copy to clipboard", buttons[0].Attrs.Value("title"))
}

func TestRender_CollapsedSection(t *testing.T) {
	out, err := newRenderer().Render(ast.NewCodeBlock("text", "collapse={2-3}", "a\nb\nc\nd"), "c")
	require.NoError(t, err)
	details := ast.FindAll(out, func(n *ast.Node) bool { return n.IsElement("details") })
	require.Len(t, details, 1)
	assert.Len(t, lineNodes(details[0]), 2)
	assert.Equal(t, "2 collapsed lines", details[0].Children[0].TextContent())
	assert.Equal(t, "a\nb\nc\nd", codeText(out))
}

func TestRender_TerminalFrame(t *testing.T) {
	out, _ := newRenderer().Render(ast.NewCodeBlock("bash", "", "echo hi"), "c")
	figs := ast.FindAll(out, func(n *ast.Node) bool { return n.IsElement("figure") })
	require.Len(t, figs, 1)
	assert.True(t, figs[0].Attrs.HasClass("is-terminal"))
}

func TestThemeCSS(t *testing.T) {
	css, err := ThemeCSS("github", "github-dark")
	require.NoError(t, err)
	assert.Contains(t, css, "[data-theme='github'] .expressive-code {")
	assert.Contains(t, css, "[data-theme='github-dark'] .expressive-code .tok-")
	assert.NotContains(t, css, "@media")

	again, err := ThemeCSS("github", "github-dark")
	require.NoError(t, err)
	assert.Equal(t, css, again)

	_, err = ThemeCSS("github", "no-such-theme")
	assert.Error(t, err)
}
