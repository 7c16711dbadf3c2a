package stages

import (
	"context"

	"git.home.luguber.info/inful/mdpipeline/internal/ast"
	"git.home.luguber.info/inful/mdpipeline/internal/document"
	"git.home.luguber.info/inful/mdpipeline/internal/foundation/errors"
	"git.home.luguber.info/inful/mdpipeline/internal/mathml"
	"git.home.luguber.info/inful/mdpipeline/internal/transforms"
)

// mathSpans typesets $…$ and $$…$$ spans as MathML. Unsupported notation renders
// a visible error span holding the source.
type mathSpans struct{}

func (mathSpans) Name() string                     { return NameMath }
func (mathSpans) Stage() transforms.TransformStage { return transforms.StageResolve }
func (mathSpans) Dependencies() transforms.TransformDependencies {
	return transforms.TransformDependencies{ModifiesTree: true}
}

func (mathSpans) Transform(_ context.Context, doc *document.Document) error {
	ast.Visit(doc.Tree, func(parent *ast.Node, index int, n *ast.Node) bool {
		if parent == nil || !n.IsElement("code", "pre") {
			return true
		}
		code, display, block := mathSpan(n)
		if code == nil {
			return true
		}
		tex := code.TextContent()
		markup, err := mathml.Convert(tex, display)
		if err != nil {
			doc.AddDiagnostic(NameMath, n, errors.RenderWarning("unsupported math notation").
				WithCause(err).WithContext("tex", tex).Build())
			parent.Children[index] = mathError(n, tex, err, display)
			return false
		}
		var out *ast.Node
		switch {
		case block:
			out = ast.NewElement("div", ast.Attrs("class", "math math-display"), ast.NewRaw(markup))
		case display:
			out = ast.NewElement("span", ast.Attrs("class", "math math-display"), ast.NewRaw(markup))
		default:
			out = ast.NewElement("span", ast.Attrs("class", "math math-inline"), ast.NewRaw(markup))
		}
		out.Pos = n.Pos
		parent.Children[index] = out
		return false
	})
	return nil
}

// mathSpan returns the code element holding math source, if n is one.
// block is set for a $$ fence on its own lines.
func mathSpan(n *ast.Node) (code *ast.Node, display, block bool) {
	if n.IsElement("pre") {
		if len(n.Children) == 1 && n.Children[0].IsElement("code") && n.Children[0].Attrs.HasClass("language-math") {
			return n.Children[0], true, true
		}
		return nil, false, false
	}
	if n.Attrs.HasClass("language-math") {
		return n, n.Attrs.HasClass("math-display"), false
	}
	return nil, false, false
}

func mathError(n *ast.Node, tex string, err error, display bool) *ast.Node {
	attrs := ast.Attrs("class", "katex-error", "title", err.Error())
	if display {
		attrs.AddClass("math-display")
	}
	out := ast.NewElement("span", attrs, ast.NewText(tex))
	out.Pos = n.Pos
	return out
}
