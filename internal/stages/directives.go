package stages

import (
	"context"
	"regexp"
	"strings"

	"git.home.luguber.info/inful/mdpipeline/internal/ast"
	"git.home.luguber.info/inful/mdpipeline/internal/directive"
	"git.home.luguber.info/inful/mdpipeline/internal/document"
	"git.home.luguber.info/inful/mdpipeline/internal/transforms"
)

// Attributes set on callout directives written as GitHub alerts.
const (
	AttrCollapsible = "collapsible"
	AttrOpen        = "open"
)

var alertPattern = regexp.MustCompile(`^\[!([A-Za-z]+)\]([+-]?)[ \t]*`)

// directives normalizes directive-shaped input before the resolving stages
// run. GitHub alert blockquotes (> [!NOTE] Title) become container
// directives, whitespace-only labels are dropped and per-name counts are
// recorded. Unknown names are left untouched.
type directives struct{}

func (directives) Name() string                     { return NameDirectives }
func (directives) Stage() transforms.TransformStage { return transforms.StageResolve }
func (directives) Dependencies() transforms.TransformDependencies {
	return transforms.TransformDependencies{ModifiesTree: true, ProducesMetadata: true}
}

func (directives) Transform(_ context.Context, doc *document.Document) error {
	counts := make(map[string]int)
	ast.Visit(doc.Tree, func(parent *ast.Node, index int, n *ast.Node) bool {
		if parent != nil && n.IsElement("blockquote") {
			if d := alertDirective(n); d != nil {
				parent.Children[index] = d
				n = d
			}
		}
		if n.Kind == ast.KindDirective {
			dropBlankLabel(n)
			counts[n.Tag]++
		}
		return true
	})
	doc.Meta.Directives = nil
	if len(counts) > 0 {
		doc.Meta.Directives = counts
	}
	return nil
}

// alertDirective converts a GitHub alert blockquote, or returns nil.
func alertDirective(bq *ast.Node) *ast.Node {
	if len(bq.Children) == 0 || !bq.Children[0].IsElement("p") {
		return nil
	}
	para := bq.Children[0]
	inline := para.Children
	if len(inline) == 0 || inline[0].Kind != ast.KindText {
		return nil
	}
	first := inline[0].Value
	m := alertPattern.FindStringSubmatch(first)
	if m == nil || directive.Classify(m[1]) != directive.KindCallout {
		return nil
	}

	var attrs ast.Attributes
	switch m[2] {
	case "-":
		attrs.SetBool(AttrCollapsible, true)
	case "+":
		attrs.SetBool(AttrCollapsible, true)
		attrs.SetBool(AttrOpen, true)
	}

	rest := append([]*ast.Node{ast.NewText(first[len(m[0]):])}, inline[1:]...)
	title, body := splitFirstLine(rest)

	d := ast.NewDirective(strings.ToLower(m[1]), ast.FormContainer, attrs)
	d.Pos = bq.Pos
	if label := strings.TrimSpace(plainText(title)); label != "" {
		d.Label = label
		d.AppendChild(ast.NewElement("p", ast.Attributes{{Key: directive.LabelAttr, Bool: true}}, trimNodes(title)...))
	}
	if body = trimNodes(body); len(body) > 0 {
		d.AppendChild(ast.NewElement("p", para.Attrs.Clone(), body...))
	}
	d.AppendChild(bq.Children[1:]...)
	return d
}

// splitFirstLine splits inline nodes at the first line break.
func splitFirstLine(nodes []*ast.Node) (line, rest []*ast.Node) {
	for i, n := range nodes {
		if n.IsElement("br") {
			return nodes[:i], nodes[i+1:]
		}
		if n.Kind == ast.KindText {
			if before, after, ok := strings.Cut(n.Value, "\n"); ok {
				line = append(append([]*ast.Node{}, nodes[:i]...), ast.NewText(before))
				rest = append([]*ast.Node{ast.NewText(after)}, nodes[i+1:]...)
				return line, rest
			}
		}
	}
	return nodes, nil
}

// trimNodes drops leading and trailing whitespace of an inline run.
func trimNodes(nodes []*ast.Node) []*ast.Node {
	out := make([]*ast.Node, 0, len(nodes))
	for _, n := range nodes {
		if n.Kind == ast.KindText && n.Value == "" {
			continue
		}
		out = append(out, n)
	}
	for len(out) > 0 && isBlank(out[0]) {
		out = out[1:]
	}
	for len(out) > 0 && isBlank(out[len(out)-1]) {
		out = out[:len(out)-1]
	}
	if len(out) == 0 {
		return nil
	}
	if out[0].Kind == ast.KindText {
		out[0] = ast.NewText(strings.TrimLeft(out[0].Value, " \t\n"))
	}
	if last := out[len(out)-1]; last.Kind == ast.KindText {
		out[len(out)-1] = ast.NewText(strings.TrimRight(last.Value, " \t\n"))
	}
	return out
}

func plainText(nodes []*ast.Node) string {
	var sb strings.Builder
	for _, n := range nodes {
		sb.WriteString(n.TextContent())
	}
	return sb.String()
}

// dropBlankLabel removes a container label holding only whitespace.
func dropBlankLabel(d *ast.Node) {
	if d.Form != ast.FormContainer || len(d.Children) == 0 {
		return
	}
	label := d.Children[0]
	if !label.Attrs.Has(directive.LabelAttr) {
		return
	}
	if strings.TrimSpace(label.TextContent()) == "" && !hasElements(label) {
		d.Children = d.Children[1:]
		d.Label = ""
	}
}

func hasElements(n *ast.Node) bool {
	for _, c := range n.Children {
		if c.Kind != ast.KindText {
			return true
		}
	}
	return false
}
