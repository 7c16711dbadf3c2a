package stages

import (
	"context"

	"git.home.luguber.info/inful/mdpipeline/internal/ast"
	"git.home.luguber.info/inful/mdpipeline/internal/document"
	"git.home.luguber.info/inful/mdpipeline/internal/transforms"
)

// figure turns a paragraph holding a single titled image into a figure
// with the title as caption.
type figure struct{}

func (figure) Name() string                     { return NameFigure }
func (figure) Stage() transforms.TransformStage { return transforms.StageStructure }
func (figure) Dependencies() transforms.TransformDependencies {
	return transforms.TransformDependencies{
		MustRunAfter: []string{NameImageGrid},
		ModifiesTree: true,
	}
}

func (figure) Transform(_ context.Context, doc *document.Document) error {
	ast.Visit(doc.Tree, func(parent *ast.Node, index int, n *ast.Node) bool {
		if parent == nil {
			return true
		}
		imgs := imageParagraph(n)
		if len(imgs) != 1 {
			return true
		}
		img := imgs[0]
		title := img.Attrs.Value("title")
		if title == "" {
			return false
		}
		img = img.Clone()
		img.Attrs.Delete("title")
		fig := ast.NewElement("figure", nil, img, ast.NewElement("figcaption", nil, ast.NewText(title)))
		fig.Pos = n.Pos
		parent.Children[index] = fig
		return false
	})
	return nil
}
