package stages

import (
	"context"
	"strconv"

	"git.home.luguber.info/inful/mdpipeline/internal/ast"
	"git.home.luguber.info/inful/mdpipeline/internal/document"
	"git.home.luguber.info/inful/mdpipeline/internal/transforms"
)

// imageGrid groups runs of consecutive images into one grid container. A
// run is an image-only paragraph or several adjacent ones, holding at least
// two images in total.
type imageGrid struct{}

func (imageGrid) Name() string                     { return NameImageGrid }
func (imageGrid) Stage() transforms.TransformStage { return transforms.StageStructure }
func (imageGrid) Dependencies() transforms.TransformDependencies {
	return transforms.TransformDependencies{ModifiesTree: true}
}

func (imageGrid) Transform(_ context.Context, doc *document.Document) error {
	rewriteChildren(doc.Tree, func(_ *ast.Node, children []*ast.Node) []*ast.Node {
		out := make([]*ast.Node, 0, len(children))
		for i := 0; i < len(children); {
			if imageParagraph(children[i]) == nil {
				out = append(out, children[i])
				i++
				continue
			}
			var (
				images []*ast.Node
				run    []*ast.Node
				j      = i
			)
			for ; j < len(children); j++ {
				if imgs := imageParagraph(children[j]); imgs != nil {
					images = append(images, imgs...)
					run = append(run, children[j])
					continue
				}
				if isBlank(children[j]) {
					run = append(run, children[j])
					continue
				}
				break
			}
			// Trailing whitespace stays outside the grid.
			for len(run) > 0 && isBlank(run[len(run)-1]) {
				run = run[:len(run)-1]
			}
			if len(images) < 2 {
				out = append(out, run...)
			} else {
				grid := ast.NewElement("div", ast.Attrs("class", "image-grid", "data-count", strconv.Itoa(len(images))), images...)
				grid.Pos = run[0].Pos
				out = append(out, grid)
			}
			i += len(run)
		}
		return out
	})
	return nil
}

// imageParagraph returns the images of a paragraph holding nothing but
// images and whitespace, or nil.
func imageParagraph(n *ast.Node) []*ast.Node {
	if !n.IsElement("p") || len(n.Attrs) > 0 {
		return nil
	}
	var imgs []*ast.Node
	for _, c := range n.Children {
		switch {
		case c.IsElement("img"):
			imgs = append(imgs, c)
		case isBlank(c):
		default:
			return nil
		}
	}
	return imgs
}
