package stages

import (
	"bytes"
	"context"
	stderrors "errors"
	"os/exec"
	"slices"
	"strings"
	"time"

	"git.home.luguber.info/inful/mdpipeline/internal/ast"
	"git.home.luguber.info/inful/mdpipeline/internal/document"
	"git.home.luguber.info/inful/mdpipeline/internal/foundation/errors"
	"git.home.luguber.info/inful/mdpipeline/internal/transforms"
)

// diagram turns fenced blocks in a diagram language into rendered SVG. With
// no renderer, or when rendering fails, the source is kept in a diagram
// component for client-side rendering.
type diagram struct {
	renderer DiagramRenderer
}

func (diagram) Name() string                     { return NameDiagram }
func (diagram) Stage() transforms.TransformStage { return transforms.StageResolve }
func (diagram) Dependencies() transforms.TransformDependencies {
	return transforms.TransformDependencies{
		MustRunBefore:   []string{NameCodeBlocks},
		ModifiesTree:    true,
		PerformsLookups: true,
	}
}

func (s diagram) Transform(ctx context.Context, doc *document.Document) error {
	langs := configOf(doc).Diagram.Languages
	var err error
	ast.Visit(doc.Tree, func(parent *ast.Node, index int, n *ast.Node) bool {
		if err != nil || parent == nil || n.Kind != ast.KindCodeBlock || !slices.Contains(langs, n.Lang) {
			return true
		}
		if err = ctx.Err(); err != nil {
			return false
		}
		parent.Children[index] = s.render(ctx, doc, n)
		return false
	})
	return err
}

func (s diagram) render(ctx context.Context, doc *document.Document, n *ast.Node) *ast.Node {
	if s.renderer == nil {
		return diagramComponent(n)
	}
	svg, err := s.renderer.Render(ctx, n.Lang, n.Value)
	if err != nil {
		doc.AddDiagnostic(NameDiagram, n, err)
		out := diagramComponent(n)
		out.Attrs.AddClass("diagram-fallback")
		return out
	}
	out := ast.NewElement("div", ast.Attrs("class", "diagram", "data-diagram", n.Lang), ast.NewRaw(svg))
	out.Pos = n.Pos
	return out
}

func diagramComponent(n *ast.Node) *ast.Node {
	out := ast.NewComponent("diagram", ast.Attrs("data-language", n.Lang),
		ast.NewElement("pre", ast.Attrs("class", n.Lang), ast.NewText(n.Value)))
	out.Pos = n.Pos
	return out
}

// CommandRenderer renders diagrams with an external program that reads the
// diagram source on stdin and writes SVG to stdout. A "{lang}" argument is
// replaced with the diagram language.
type CommandRenderer struct {
	Command []string
	Timeout time.Duration
}

// Render runs the command once for source.
func (r CommandRenderer) Render(ctx context.Context, lang, source string) (string, error) {
	if len(r.Command) == 0 {
		return "", errors.ConfigError("diagram command is empty").Build()
	}
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	args := make([]string, len(r.Command)-1)
	for i, a := range r.Command[1:] {
		args[i] = strings.ReplaceAll(a, "{lang}", lang)
	}
	cmd := exec.CommandContext(ctx, r.Command[0], args...)
	cmd.Stdin = strings.NewReader(source)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		b := errors.LookupFailure("diagram command failed").
			WithCause(err).
			WithContext("language", lang).
			WithContext("stderr", strings.TrimSpace(stderr.String()))
		if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
			b = b.Retryable()
		}
		return "", b.Build()
	}
	svg := strings.TrimSpace(stdout.String())
	if !strings.Contains(svg, "<svg") {
		return "", errors.LookupFailure("diagram command produced no SVG").
			WithContext("language", lang).Build()
	}
	return svg, nil
}
