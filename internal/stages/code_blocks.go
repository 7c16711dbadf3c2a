package stages

import (
	"context"
	"strconv"

	"git.home.luguber.info/inful/mdpipeline/internal/ast"
	"git.home.luguber.info/inful/mdpipeline/internal/codeblock"
	"git.home.luguber.info/inful/mdpipeline/internal/document"
	"git.home.luguber.info/inful/mdpipeline/internal/transforms"
)

// codeBlocks renders fenced code with the code block renderer. Renderer
// warnings, such as an unknown language, become diagnostics.
type codeBlocks struct{}

func (codeBlocks) Name() string                     { return NameCodeBlocks }
func (codeBlocks) Stage() transforms.TransformStage { return transforms.StageHighlight }
func (codeBlocks) Dependencies() transforms.TransformDependencies {
	return transforms.TransformDependencies{ModifiesTree: true}
}

func (codeBlocks) Transform(ctx context.Context, doc *document.Document) error {
	cfg := configOf(doc)
	r := codeblock.NewRenderer(cfg.Code, cfg.I18n)
	used := elementIDs(doc.Tree)
	seq := 0
	var err error
	ast.Visit(doc.Tree, func(parent *ast.Node, index int, n *ast.Node) bool {
		if err != nil || parent == nil || n.Kind != ast.KindCodeBlock {
			return err == nil
		}
		if err = ctx.Err(); err != nil {
			return false
		}
		id := nextCodeID(&seq, used)
		out, warn := r.Render(n, id)
		if warn != nil {
			doc.AddDiagnostic(NameCodeBlocks, n, warn)
		}
		out.Pos = n.Pos
		parent.Children[index] = out
		return false
	})
	return err
}

func nextCodeID(seq *int, used map[string]bool) string {
	for {
		*seq++
		id := "code-" + strconv.Itoa(*seq)
		if !used[id] {
			used[id] = true
			return id
		}
	}
}
