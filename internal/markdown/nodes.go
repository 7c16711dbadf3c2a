package markdown

import (
	"strconv"

	gast "github.com/yuin/goldmark/ast"

	"git.home.luguber.info/inful/mdpipeline/internal/directive"
)

// Goldmark node kinds produced by the syntax extensions.
var (
	KindContainerDirective = gast.NewNodeKind("ContainerDirective")
	KindLeafDirective      = gast.NewNodeKind("LeafDirective")
	KindTextDirective      = gast.NewNodeKind("TextDirective")
	KindMathBlock          = gast.NewNodeKind("MathBlock")
	KindInlineMath         = gast.NewNodeKind("InlineMath")
)

// ContainerDirective is a `:::name` fenced block holding parsed children.
type ContainerDirective struct {
	gast.BaseBlock
	Header directive.Header
	// Offset is the byte offset of the opening fence.
	Offset int
	fence  int
	closed bool
}

func (n *ContainerDirective) Kind() gast.NodeKind { return KindContainerDirective }

func (n *ContainerDirective) Dump(source []byte, level int) {
	gast.DumpHelper(n, source, level, map[string]string{
		"Name":  n.Header.Name,
		"Fence": strconv.Itoa(n.fence),
	}, nil)
}

// LeafDirective is a single-line `::name[label]{attrs}` block.
type LeafDirective struct {
	gast.BaseBlock
	Header directive.Header
	Offset int
}

func (n *LeafDirective) Kind() gast.NodeKind { return KindLeafDirective }

func (n *LeafDirective) Dump(source []byte, level int) {
	gast.DumpHelper(n, source, level, map[string]string{"Name": n.Header.Name}, nil)
}

// TextDirective is an inline `:name[label]{attrs}` span.
type TextDirective struct {
	gast.BaseInline
	Header directive.Header
}

func (n *TextDirective) Kind() gast.NodeKind { return KindTextDirective }

func (n *TextDirective) Dump(source []byte, level int) {
	gast.DumpHelper(n, source, level, map[string]string{"Name": n.Header.Name}, nil)
}

// MathBlock is a `$$` fenced display formula. Its lines hold the TeX source.
type MathBlock struct {
	gast.BaseBlock
	Offset int
	closed bool
}

func (n *MathBlock) Kind() gast.NodeKind { return KindMathBlock }

func (n *MathBlock) IsRaw() bool { return true }

func (n *MathBlock) Dump(source []byte, level int) {
	gast.DumpHelper(n, source, level, nil, nil)
}

// InlineMath is a `$...$` or `$$...$$` span inside a paragraph.
type InlineMath struct {
	gast.BaseInline
	Value   []byte
	Display bool
}

func (n *InlineMath) Kind() gast.NodeKind { return KindInlineMath }

func (n *InlineMath) Dump(source []byte, level int) {
	gast.DumpHelper(n, source, level, map[string]string{"Value": string(n.Value)}, nil)
}
