// Package render serializes a transformed document tree to HTML.
package render

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"git.home.luguber.info/inful/mdpipeline/internal/ast"
	"git.home.luguber.info/inful/mdpipeline/internal/foundation/errors"
)

// Attributes marking nodes no stage resolved.
const (
	AttrDirective     = "data-directive"
	AttrDirectiveForm = "data-directive-form"
	AttrComponent     = "data-component"
)

// HTML writes tree as HTML to w. Attributes are emitted in stored order and
// raw nodes verbatim. Unresolved directives become div (container and leaf)
// or span (text) elements carrying their name, form and original attributes.
func HTML(w io.Writer, tree *ast.Node) error {
	for _, n := range Nodes(tree) {
		if err := html.Render(w, n); err != nil {
			return errors.RenderWarning("failed to write html").WithCause(err).Build()
		}
	}
	return nil
}

// String renders tree into a string.
func String(tree *ast.Node) (string, error) {
	var buf bytes.Buffer
	if err := HTML(&buf, tree); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Nodes converts tree into detached html nodes. A root yields its children.
func Nodes(tree *ast.Node) []*html.Node {
	if tree == nil {
		return nil
	}
	if tree.Kind == ast.KindRoot {
		out := make([]*html.Node, 0, len(tree.Children))
		for _, c := range tree.Children {
			out = append(out, convert(c))
		}
		return out
	}
	return []*html.Node{convert(tree)}
}

func convert(n *ast.Node) *html.Node {
	switch n.Kind {
	case ast.KindText:
		return &html.Node{Type: html.TextNode, Data: n.Value}
	case ast.KindRaw:
		return &html.Node{Type: html.RawNode, Data: n.Value}
	case ast.KindCodeBlock:
		return codeBlock(n)
	case ast.KindDirective:
		tag := "div"
		if n.Form == ast.FormText {
			tag = "span"
		}
		attrs := ast.Attrs(AttrDirective, n.Tag, AttrDirectiveForm, string(n.Form))
		attrs = append(attrs, n.Attrs...)
		return element(tag, attrs, n.Children)
	case ast.KindComponent:
		attrs := ast.Attrs(AttrComponent, n.Tag)
		attrs = append(attrs, n.Attrs...)
		return element("div", attrs, n.Children)
	case ast.KindRoot:
		// A nested root renders as its children.
		frag := &html.Node{Type: html.DocumentNode}
		for _, c := range n.Children {
			frag.AppendChild(convert(c))
		}
		return frag
	default:
		return element(n.Tag, n.Attrs, n.Children)
	}
}

// codeBlock renders a fence the code stage did not replace.
func codeBlock(n *ast.Node) *html.Node {
	var attrs ast.Attributes
	if n.Lang != "" {
		attrs = ast.Attrs("class", "language-"+n.Lang)
	}
	code := element("code", attrs, []*ast.Node{ast.NewText(n.Value)})
	pre := &html.Node{Type: html.ElementNode, Data: "pre", DataAtom: atom.Pre}
	pre.AppendChild(code)
	return pre
}

func element(tag string, attrs ast.Attributes, children []*ast.Node) *html.Node {
	tag = strings.ToLower(tag)
	el := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
	for _, a := range attrs {
		if a.Bool {
			el.Attr = append(el.Attr, html.Attribute{Key: a.Key})
			continue
		}
		el.Attr = append(el.Attr, html.Attribute{Key: a.Key, Val: a.Value})
	}
	for _, c := range children {
		el.AppendChild(convert(c))
	}
	return el
}
