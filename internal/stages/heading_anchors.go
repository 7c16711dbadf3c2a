package stages

import (
	"context"

	"git.home.luguber.info/inful/mdpipeline/internal/ast"
	"git.home.luguber.info/inful/mdpipeline/internal/document"
	"git.home.luguber.info/inful/mdpipeline/internal/transforms"
)

type headingAnchors struct{}

func (headingAnchors) Name() string                     { return NameHeadingAnchors }
func (headingAnchors) Stage() transforms.TransformStage { return transforms.StageStructure }
func (headingAnchors) Dependencies() transforms.TransformDependencies {
	return transforms.TransformDependencies{
		Requires:     []string{NameSlug},
		ModifiesTree: true,
	}
}

// Transform appends a self link to every heading with an id.
func (headingAnchors) Transform(_ context.Context, doc *document.Document) error {
	for _, h := range headings(doc.Tree) {
		id := h.Attrs.Value("id")
		if id == "" || hasAnchor(h) {
			continue
		}
		h.AppendChild(ast.NewElement("a", ast.Attrs("class", "anchor", "href", "#"+id),
			ast.NewElement("span", ast.Attrs("class", "anchor-icon", "data-pagefind-ignore", ""),
				ast.NewText("#"))))
	}
	return nil
}

func hasAnchor(h *ast.Node) bool {
	for _, c := range h.Children {
		if c.IsElement("a") && c.Attrs.HasClass("anchor") {
			return true
		}
	}
	return false
}
