package stages

import (
	"context"
	"strings"
	"unicode/utf8"

	"git.home.luguber.info/inful/mdpipeline/internal/ast"
	"git.home.luguber.info/inful/mdpipeline/internal/directive"
	"git.home.luguber.info/inful/mdpipeline/internal/document"
	"git.home.luguber.info/inful/mdpipeline/internal/transforms"
)

// excerpt derives the page summary: the front matter description, else
// the prose before the excerpt marker, else the first paragraph.
type excerpt struct{}

func (excerpt) Name() string                     { return NameExcerpt }
func (excerpt) Stage() transforms.TransformStage { return transforms.StageAnalyze }
func (excerpt) Dependencies() transforms.TransformDependencies {
	return transforms.TransformDependencies{ProducesMetadata: true}
}

func (excerpt) Transform(_ context.Context, doc *document.Document) error {
	cfg := configOf(doc)
	text, ok := doc.String("description")
	if !ok || strings.TrimSpace(text) == "" {
		if before, found := beforeMarker(doc.Tree, cfg.Excerpt.Marker); found {
			text = before
		} else {
			text = firstParagraph(doc.Tree)
		}
	}
	doc.Meta.Excerpt = Truncate(strings.Join(strings.Fields(text), " "), cfg.Excerpt.Length)
	return nil
}

// Truncate shortens s to at most n runes, ending in an ellipsis when cut.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimRight(string(r[:n]), " \t\n,;:.") + "…"
}

func isMarker(n *ast.Node, marker string) bool {
	return n.Kind == ast.KindRaw && marker != "" && strings.TrimSpace(n.Value) == marker
}

func beforeMarker(root *ast.Node, marker string) (string, bool) {
	var sb strings.Builder
	found := false
	_ = ast.Walk(root, func(n *ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if isMarker(n, marker) {
			found = true
			return ast.WalkStop, nil
		}
		if n.HeadingLevel() > 0 {
			return ast.WalkSkipChildren, nil
		}
		if skipForProse(n) {
			return ast.WalkSkipChildren, nil
		}
		if n.Kind == ast.KindText {
			sb.WriteString(n.Value)
		} else if n.Kind == ast.KindElement && !inline[n.Tag] {
			sb.WriteByte(' ')
		}
		return ast.WalkContinue, nil
	})
	return sb.String(), found
}

func firstParagraph(root *ast.Node) string {
	ps := ast.FindAll(root, func(n *ast.Node) bool {
		return n.IsElement("p") && !n.Attrs.Has(directive.LabelAttr)
	})
	for _, p := range ps {
		if t := strings.TrimSpace(visibleText(p)); t != "" {
			return t
		}
	}
	return ""
}

func skipForProse(n *ast.Node) bool {
	return n.Kind == ast.KindCodeBlock || n.IsElement("pre") || decorative(n) ||
		n.Attrs.HasClass("language-math") || n.Attrs.HasClass("expressive-code") || n.Attrs.HasClass("math")
}
