// Package ast defines the document tree shared by the parser, the transform
// stages and the renderer.
//
// The tree is a tagged variant: every Node carries a Kind and only the fields
// meaningful for that kind are populated. Nodes hold their children by value
// in an ordered slice and keep no parent pointer, so a node always has exactly
// one owner and the tree cannot become cyclic through the public API.
package ast

import "strings"

// Kind discriminates the node variants.
type Kind int

const (
	KindRoot Kind = iota
	KindText
	KindElement
	KindDirective
	KindCodeBlock
	KindComponent
	KindRaw
)

func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindText:
		return "text"
	case KindElement:
		return "element"
	case KindDirective:
		return "directive"
	case KindCodeBlock:
		return "code"
	case KindComponent:
		return "component"
	case KindRaw:
		return "raw"
	default:
		return "unknown"
	}
}

// DirectiveForm is the syntactic form a directive was written in.
type DirectiveForm string

const (
	FormContainer DirectiveForm = "container"
	FormLeaf      DirectiveForm = "leaf"
	FormText      DirectiveForm = "text"
)

// Position is a 1-based source location.
type Position struct {
	Line   int
	Column int
}

// IsZero reports whether the position is unknown.
func (p Position) IsZero() bool { return p.Line == 0 }

// Node is a single tree node.
type Node struct {
	Kind Kind

	// Tag is the element tag name, the directive name or the component name.
	Tag string

	// Form is set for directives only.
	Form DirectiveForm

	// Label holds the bracketed directive label, if any.
	Label string

	Attrs    Attributes
	Children []*Node

	// Value is the literal content of text, raw and code nodes.
	Value string

	// Lang and Meta describe code blocks (the info string split at the first space).
	Lang string
	Meta string

	Pos Position
}

// NewRoot returns an empty document root.
func NewRoot(children ...*Node) *Node {
	return &Node{Kind: KindRoot, Children: children}
}

// NewElement returns an element with the given tag and children.
func NewElement(tag string, attrs Attributes, children ...*Node) *Node {
	return &Node{Kind: KindElement, Tag: tag, Attrs: attrs, Children: children}
}

// NewText returns a text node.
func NewText(value string) *Node {
	return &Node{Kind: KindText, Value: value}
}

// NewRaw returns a node whose value is emitted verbatim by the renderer.
func NewRaw(value string) *Node {
	return &Node{Kind: KindRaw, Value: value}
}

// NewDirective returns a directive node.
func NewDirective(name string, form DirectiveForm, attrs Attributes, children ...*Node) *Node {
	return &Node{Kind: KindDirective, Tag: name, Form: form, Attrs: attrs, Children: children}
}

// NewCodeBlock returns a fenced code node.
func NewCodeBlock(lang, meta, value string) *Node {
	return &Node{Kind: KindCodeBlock, Lang: lang, Meta: meta, Value: value}
}

// NewComponent returns a component node rendered client side.
func NewComponent(name string, attrs Attributes, children ...*Node) *Node {
	return &Node{Kind: KindComponent, Tag: name, Attrs: attrs, Children: children}
}

// IsElement reports whether n is an element with one of the given tags.
func (n *Node) IsElement(tags ...string) bool {
	if n == nil || n.Kind != KindElement {
		return false
	}
	if len(tags) == 0 {
		return true
	}
	for _, t := range tags {
		if n.Tag == t {
			return true
		}
	}
	return false
}

// HeadingLevel returns 1-6 for h1-h6 elements and 0 otherwise.
func (n *Node) HeadingLevel() int {
	if n == nil || n.Kind != KindElement || len(n.Tag) != 2 || n.Tag[0] != 'h' {
		return 0
	}
	if l := int(n.Tag[1] - '0'); l >= 1 && l <= 6 {
		return l
	}
	return 0
}

// AppendChild adds c as the last child.
func (n *Node) AppendChild(c ...*Node) {
	n.Children = append(n.Children, c...)
}

// InsertChild inserts c at index i.
func (n *Node) InsertChild(i int, c *Node) {
	n.Children = append(n.Children, nil)
	copy(n.Children[i+1:], n.Children[i:])
	n.Children[i] = c
}

// ReplaceChild replaces the child at index i with the given nodes.
func (n *Node) ReplaceChild(i int, with ...*Node) {
	rest := append([]*Node{}, n.Children[i+1:]...)
	n.Children = append(append(n.Children[:i], with...), rest...)
}

// Clone returns a deep copy of n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	cp := *n
	cp.Attrs = n.Attrs.Clone()
	if n.Children != nil {
		cp.Children = make([]*Node, len(n.Children))
		for i, c := range n.Children {
			cp.Children[i] = c.Clone()
		}
	}
	return &cp
}

// TextContent concatenates the values of all text and code descendants.
func (n *Node) TextContent() string {
	var sb strings.Builder
	_ = Walk(n, func(c *Node, entering bool) (WalkStatus, error) {
		if entering && (c.Kind == KindText || c.Kind == KindCodeBlock) {
			sb.WriteString(c.Value)
		}
		return WalkContinue, nil
	})
	return sb.String()
}

// Equal reports whether two trees are structurally identical, ignoring positions.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind || a.Tag != b.Tag || a.Form != b.Form || a.Label != b.Label ||
		a.Value != b.Value || a.Lang != b.Lang || a.Meta != b.Meta ||
		!a.Attrs.Equal(b.Attrs) || len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		if !Equal(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}
