package stages

import (
	"strconv"
	"strings"

	"git.home.luguber.info/inful/mdpipeline/internal/ast"
	"git.home.luguber.info/inful/mdpipeline/internal/config"
	"git.home.luguber.info/inful/mdpipeline/internal/document"
)

func configOf(doc *document.Document) *config.Config {
	if doc.Config != nil {
		return doc.Config
	}
	return config.Default()
}

func isBlank(n *ast.Node) bool {
	return n.Kind == ast.KindText && strings.TrimSpace(n.Value) == ""
}

// decorative reports whether n was injected for presentation and carries
// no document text.
func decorative(n *ast.Node) bool {
	if n.Kind != ast.KindElement {
		return false
	}
	return n.Attrs.Value("aria-hidden") == "true" ||
		n.Attrs.HasClass("anchor") ||
		n.Attrs.HasClass("sr-only")
}

// visibleText returns the text of n without decorative descendants.
func visibleText(n *ast.Node) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(c *ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if c != n && decorative(c) {
			return ast.WalkSkipChildren, nil
		}
		if c.Kind == ast.KindText {
			sb.WriteString(c.Value)
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}

// rewriteChildren calls fn on the child list of every node, bottom up, and
// replaces the list with the result.
func rewriteChildren(n *ast.Node, fn func(parent *ast.Node, children []*ast.Node) []*ast.Node) {
	for _, c := range n.Children {
		rewriteChildren(c, fn)
	}
	if len(n.Children) > 0 {
		n.Children = fn(n, n.Children)
	}
}

// headings returns the h1-h6 elements in document order.
func headings(root *ast.Node) []*ast.Node {
	return ast.FindAll(root, func(n *ast.Node) bool { return n.HeadingLevel() > 0 })
}

// carriesID reports whether the renderer emits n's id attribute.
// Unresolved directives and components keep their attributes in the output.
func carriesID(n *ast.Node) bool {
	switch n.Kind {
	case ast.KindElement, ast.KindDirective, ast.KindComponent:
		return true
	}
	return false
}

// elementIDs returns every id attribute that reaches the output.
func elementIDs(root *ast.Node) map[string]bool {
	ids := make(map[string]bool)
	_ = ast.Walk(root, func(n *ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering && carriesID(n) {
			if id, ok := n.Attrs.Get("id"); ok && id != "" {
				ids[id] = true
			}
		}
		return ast.WalkContinue, nil
	})
	return ids
}

// uniqueID returns base, or base-N with the smallest N not in used.
func uniqueID(base string, used map[string]bool) string {
	if !used[base] {
		return base
	}
	for i := 1; ; i++ {
		candidate := base + "-" + strconv.Itoa(i)
		if !used[candidate] {
			return candidate
		}
	}
}
