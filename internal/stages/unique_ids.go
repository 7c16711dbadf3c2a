package stages

import (
	"context"

	"git.home.luguber.info/inful/mdpipeline/internal/ast"
	"git.home.luguber.info/inful/mdpipeline/internal/document"
	"git.home.luguber.info/inful/mdpipeline/internal/transforms"
)

// uniqueIDs renames repeated ids of elements, directives and components. The first occurrence keeps its
// id; later ones get the smallest free numeric suffix. Fragment links and
// aria-controls inside a renamed element follow the rename.
type uniqueIDs struct{}

func (uniqueIDs) Name() string                     { return NameUniqueIDs }
func (uniqueIDs) Stage() transforms.TransformStage { return transforms.StageFinalize }
func (uniqueIDs) Dependencies() transforms.TransformDependencies {
	return transforms.TransformDependencies{ModifiesTree: true}
}

func (uniqueIDs) Transform(_ context.Context, doc *document.Document) error {
	all := elementIDs(doc.Tree)
	seen := make(map[string]bool)
	_ = ast.Walk(doc.Tree, func(n *ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || !carriesID(n) {
			return ast.WalkContinue, nil
		}
		id := n.Attrs.Value("id")
		if id == "" {
			return ast.WalkContinue, nil
		}
		if !seen[id] {
			seen[id] = true
			return ast.WalkContinue, nil
		}
		renamed := uniqueID(id, all)
		all[renamed] = true
		seen[renamed] = true
		n.Attrs.Set("id", renamed)
		retarget(n, id, renamed)
		return ast.WalkContinue, nil
	})
	return nil
}

// retarget points references to old inside n at renamed.
func retarget(n *ast.Node, old, renamed string) {
	_ = ast.Walk(n, func(c *ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || c.Kind != ast.KindElement {
			return ast.WalkContinue, nil
		}
		if c.Attrs.Value("href") == "#"+old {
			c.Attrs.Set("href", "#"+renamed)
		}
		if c.Attrs.Value("aria-controls") == old {
			c.Attrs.Set("aria-controls", renamed)
		}
		return ast.WalkContinue, nil
	})
}
