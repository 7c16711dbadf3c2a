package stages

import (
	"context"

	"git.home.luguber.info/inful/mdpipeline/internal/ast"
	"git.home.luguber.info/inful/mdpipeline/internal/document"
	"git.home.luguber.info/inful/mdpipeline/internal/transforms"
)

// sectionize wraps each top-level heading and the siblings that follow it,
// up to the next heading of equal or higher rank, in a section. Deeper
// headings nest inside their parent's section.
type sectionize struct{}

func (sectionize) Name() string                     { return NameSectionize }
func (sectionize) Stage() transforms.TransformStage { return transforms.StageStructure }
func (sectionize) Dependencies() transforms.TransformDependencies {
	return transforms.TransformDependencies{
		MustRunAfter: []string{NameHeadingAnchors, NameSlug},
		ModifiesTree: true,
	}
}

func (sectionize) Transform(_ context.Context, doc *document.Document) error {
	doc.Tree.Children = sections(doc.Tree.Children, 0)
	return nil
}

// sections groups nodes under headings deeper than level.
func sections(nodes []*ast.Node, level int) []*ast.Node {
	out := make([]*ast.Node, 0, len(nodes))
	for i := 0; i < len(nodes); {
		n := nodes[i]
		rank := n.HeadingLevel()
		if rank <= level {
			out = append(out, n)
			i++
			continue
		}
		j := i + 1
		for ; j < len(nodes); j++ {
			if r := nodes[j].HeadingLevel(); (r > 0 && r <= rank) || isFootnotes(nodes[j]) {
				break
			}
		}
		body := sections(nodes[i+1:j], rank)
		sec := ast.NewElement("section", nil, append([]*ast.Node{n}, body...)...)
		sec.Pos = n.Pos
		out = append(out, sec)
		i = j
	}
	return out
}

func isFootnotes(n *ast.Node) bool {
	return n.IsElement("section") && n.Attrs.HasClass("footnotes")
}
