package stages

import (
	"context"

	"git.home.luguber.info/inful/mdpipeline/internal/ast"
	"git.home.luguber.info/inful/mdpipeline/internal/directive"
	"git.home.luguber.info/inful/mdpipeline/internal/document"
	"git.home.luguber.info/inful/mdpipeline/internal/transforms"
)

// callouts resolves callout directives into themed boxes:
//
//	div.callout[data-callout=kind]
//	  div.callout-title > span.callout-icon + div.callout-title-inner
//	  div.callout-content
//
// Collapsible callouts use details/summary instead.
type callouts struct{}

func (callouts) Name() string                     { return NameCallouts }
func (callouts) Stage() transforms.TransformStage { return transforms.StageResolve }
func (callouts) Dependencies() transforms.TransformDependencies {
	return transforms.TransformDependencies{
		Requires:           []string{NameDirectives},
		ModifiesTree:       true,
		ResolvesDirectives: directive.CalloutNames(),
	}
}

func (callouts) Transform(_ context.Context, doc *document.Document) error {
	theme := configOf(doc).Callouts.Theme
	ast.Visit(doc.Tree, func(parent *ast.Node, index int, n *ast.Node) bool {
		if parent == nil || n.Kind != ast.KindDirective || directive.Classify(n.Tag) != directive.KindCallout {
			return true
		}
		if n.Form == ast.FormText {
			doc.Skip(NameCallouts, n, "callouts need a leaf or container directive")
			return false
		}
		parent.Children[index] = callout(n, theme)
		return true
	})
	return nil
}

func callout(d *ast.Node, theme string) *ast.Node {
	kind, _ := directive.NormalizeCallout(d.Tag)
	if t := d.Attrs.Value("type"); t != "" {
		kind, _ = directive.NormalizeCallout(t)
	}

	title, body := calloutParts(d)
	if t := d.Attrs.Value("title"); t != "" {
		title = []*ast.Node{ast.NewText(t)}
	}
	if len(title) == 0 {
		title = []*ast.Node{ast.NewText(kind.Title())}
	}

	icon := ast.NewElement("span", ast.Attrs("class", "callout-icon", "aria-hidden", "true", "data-icon", string(kind)))
	inner := ast.NewElement("div", ast.Attrs("class", "callout-title-inner"), title...)
	content := ast.NewElement("div", ast.Attrs("class", "callout-content"), body...)

	attrs := ast.Attrs("class", "callout callout-"+string(kind)+" callout-theme-"+theme, "data-callout", string(kind))
	if id := d.Attrs.Value("id"); id != "" {
		attrs.Set("id", id)
	}
	for _, c := range d.Attrs.Classes() {
		attrs.AddClass(c)
	}

	var box *ast.Node
	if d.Attrs.Has(AttrCollapsible) {
		if d.Attrs.Has(AttrOpen) {
			attrs.SetBool("open", true)
		}
		attrs.SetBool("data-collapsible", true)
		summary := ast.NewElement("summary", ast.Attrs("class", "callout-title"), icon, inner)
		box = ast.NewElement("details", attrs, summary, content)
	} else {
		head := ast.NewElement("div", ast.Attrs("class", "callout-title"), icon, inner)
		box = ast.NewElement("div", attrs, head, content)
	}
	box.Pos = d.Pos
	return box
}

// calloutParts separates the label from the body of a callout directive.
func calloutParts(d *ast.Node) (title, body []*ast.Node) {
	if d.Form == ast.FormLeaf {
		return d.Children, nil
	}
	body = d.Children
	if len(body) > 0 && body[0].Attrs.Has(directive.LabelAttr) {
		title = body[0].Children
		body = body[1:]
	}
	return title, body
}
