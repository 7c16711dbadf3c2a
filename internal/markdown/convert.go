package markdown

import (
	"fmt"
	"strconv"
	"strings"

	gast "github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
	"golang.org/x/net/html"

	"git.home.luguber.info/inful/mdpipeline/internal/ast"
	"git.home.luguber.info/inful/mdpipeline/internal/directive"
)

// converter turns a goldmark tree into an ast tree.
type converter struct {
	parser  *Parser
	src     []byte
	lines   lineIndex
	inLabel bool
}

func (c *converter) children(dst *ast.Node, src gast.Node) {
	for n := src.FirstChild(); n != nil; n = n.NextSibling() {
		dst.AppendChild(c.node(n)...)
	}
}

func (c *converter) element(tag string, attrs ast.Attributes, src gast.Node) *ast.Node {
	el := ast.NewElement(tag, attrs)
	c.children(el, src)
	return el
}

func (c *converter) node(n gast.Node) []*ast.Node {
	switch n := n.(type) {
	case *gast.Paragraph:
		return one(c.element("p", nil, n))
	case *gast.TextBlock:
		frag := ast.NewRoot()
		c.children(frag, n)
		return frag.Children
	case *gast.Heading:
		el := c.element("h"+strconv.Itoa(n.Level), c.attributes(n), n)
		el.Pos = c.blockPos(n)
		return one(el)
	case *gast.ThematicBreak:
		return one(ast.NewElement("hr", nil))
	case *gast.Blockquote:
		return one(c.element("blockquote", nil, n))
	case *gast.List:
		return one(c.list(n))
	case *gast.ListItem:
		el := c.element("li", nil, n)
		if hasTaskCheckBox(n) {
			el.Attrs.AddClass("task-list-item")
		}
		return one(el)
	case *gast.FencedCodeBlock:
		lang, meta := c.info(n)
		cb := ast.NewCodeBlock(lang, meta, strings.TrimSuffix(c.text(n), "\n"))
		cb.Pos = c.blockPos(n)
		return one(cb)
	case *gast.CodeBlock:
		cb := ast.NewCodeBlock("", "", strings.TrimSuffix(c.text(n), "\n"))
		cb.Pos = c.blockPos(n)
		return one(cb)
	case *gast.HTMLBlock:
		raw := c.text(n)
		if n.HasClosure() {
			raw += string(n.ClosureLine.Value(c.src))
		}
		return one(ast.NewRaw(raw))

	case *east.Table:
		return one(c.table(n))
	case *east.FootnoteList:
		ol := c.element("ol", nil, n)
		return one(ast.NewElement("section",
			ast.Attrs("class", "footnotes", "role", "doc-endnotes"),
			ast.NewElement("hr", nil), ol))
	case *east.Footnote:
		return one(c.element("li", ast.Attrs("id", fmt.Sprintf("fn:%d", n.Index)), n))

	case *ContainerDirective:
		d := ast.NewDirective(n.Header.Name, ast.FormContainer, n.Header.Attrs.Clone())
		d.Label = n.Header.Label
		d.Pos = c.lines.pos(n.Offset)
		if n.Header.HasLabel {
			label := ast.NewElement("p", ast.Attributes{{Key: directive.LabelAttr, Bool: true}}, c.parser.parseInline(n.Header.Label)...)
			d.AppendChild(label)
		}
		c.children(d, n)
		return one(d)
	case *LeafDirective:
		d := ast.NewDirective(n.Header.Name, ast.FormLeaf, n.Header.Attrs.Clone(), c.parser.parseInline(n.Header.Label)...)
		d.Label = n.Header.Label
		d.Pos = c.lines.pos(n.Offset)
		return one(d)
	case *MathBlock:
		code := ast.NewElement("code", ast.Attrs("class", "language-math math-display"),
			ast.NewText(strings.TrimSuffix(c.text(n), "\n")))
		pre := ast.NewElement("pre", nil, code)
		pre.Pos = c.lines.pos(n.Offset)
		return one(pre)

	case *gast.Text:
		out := []*ast.Node{ast.NewText(string(n.Segment.Value(c.src)))}
		switch {
		case n.HardLineBreak():
			out = append(out, ast.NewElement("br", nil), ast.NewText("\n"))
		case n.SoftLineBreak():
			out[0].Value += "\n"
		}
		return out
	case *gast.String:
		v := string(n.Value)
		if n.IsCode() {
			v = html.UnescapeString(v)
		}
		return one(ast.NewText(v))
	case *gast.CodeSpan:
		return one(ast.NewElement("code", nil, ast.NewText(c.plain(n))))
	case *gast.Emphasis:
		tag := "em"
		if n.Level == 2 {
			tag = "strong"
		}
		return one(c.element(tag, nil, n))
	case *east.Strikethrough:
		return one(c.element("del", nil, n))
	case *gast.Link:
		attrs := ast.Attrs("href", string(n.Destination))
		if len(n.Title) > 0 {
			attrs.Set("title", string(n.Title))
		}
		return one(c.element("a", attrs, n))
	case *gast.Image:
		attrs := ast.Attrs("src", string(n.Destination), "alt", c.plain(n))
		if len(n.Title) > 0 {
			attrs.Set("title", string(n.Title))
		}
		return one(ast.NewElement("img", attrs))
	case *gast.AutoLink:
		href := string(n.URL(c.src))
		if n.AutoLinkType == gast.AutoLinkEmail && !strings.HasPrefix(strings.ToLower(href), "mailto:") {
			href = "mailto:" + href
		}
		return one(ast.NewElement("a", ast.Attrs("href", href), ast.NewText(string(n.Label(c.src)))))
	case *gast.RawHTML:
		var b strings.Builder
		for i := 0; i < n.Segments.Len(); i++ {
			seg := n.Segments.At(i)
			b.Write(seg.Value(c.src))
		}
		return one(ast.NewRaw(b.String()))
	case *east.TaskCheckBox:
		attrs := ast.Attrs("type", "checkbox")
		attrs.SetBool("checked", n.IsChecked)
		attrs.SetBool("disabled", true)
		return []*ast.Node{ast.NewElement("input", attrs), ast.NewText(" ")}
	case *east.FootnoteLink:
		id := fmt.Sprintf("fnref:%d", n.Index)
		if n.RefIndex > 0 {
			id = fmt.Sprintf("fnref%d:%d", n.RefIndex, n.Index)
		}
		a := ast.NewElement("a", ast.Attrs(
			"href", fmt.Sprintf("#fn:%d", n.Index),
			"id", id,
			"class", "footnote-ref",
			"role", "doc-noteref"),
			ast.NewText(strconv.Itoa(n.Index)))
		return one(ast.NewElement("sup", nil, a))
	case *east.FootnoteBacklink:
		target := fmt.Sprintf("#fnref:%d", n.Index)
		if n.RefIndex > 0 {
			target = fmt.Sprintf("#fnref%d:%d", n.RefIndex, n.Index)
		}
		return one(ast.NewElement("a", ast.Attrs(
			"href", target,
			"class", "footnote-backref",
			"role", "doc-backlink"),
			ast.NewText("↩︎")))
	case *TextDirective:
		d := ast.NewDirective(n.Header.Name, ast.FormText, n.Header.Attrs.Clone(), c.parser.parseInline(n.Header.Label)...)
		d.Label = n.Header.Label
		return one(d)
	case *InlineMath:
		class := "language-math math-inline"
		if n.Display {
			class = "language-math math-display"
		}
		return one(ast.NewElement("code", ast.Attrs("class", class), ast.NewText(string(n.Value))))
	}

	// Unknown goldmark nodes keep their content.
	frag := ast.NewRoot()
	c.children(frag, n)
	return frag.Children
}

func (c *converter) list(n *gast.List) *ast.Node {
	tag := "ul"
	var attrs ast.Attributes
	if n.IsOrdered() {
		tag = "ol"
		if n.Start != 1 {
			attrs.Set("start", strconv.Itoa(n.Start))
		}
	}
	el := c.element(tag, attrs, n)
	for item := n.FirstChild(); item != nil; item = item.NextSibling() {
		if hasTaskCheckBox(item) {
			el.Attrs.AddClass("contains-task-list")
			break
		}
	}
	return el
}

func (c *converter) table(n *east.Table) *ast.Node {
	table := ast.NewElement("table", nil)
	var body *ast.Node
	for row := n.FirstChild(); row != nil; row = row.NextSibling() {
		switch row.(type) {
		case *east.TableHeader:
			table.AppendChild(ast.NewElement("thead", nil, c.row(row, "th")))
		case *east.TableRow:
			if body == nil {
				body = ast.NewElement("tbody", nil)
				table.AppendChild(body)
			}
			body.AppendChild(c.row(row, "td"))
		}
	}
	return table
}

func (c *converter) row(n gast.Node, cellTag string) *ast.Node {
	tr := ast.NewElement("tr", nil)
	for cell := n.FirstChild(); cell != nil; cell = cell.NextSibling() {
		var attrs ast.Attributes
		if tc, ok := cell.(*east.TableCell); ok && tc.Alignment != east.AlignNone {
			attrs.Set("align", tc.Alignment.String())
		}
		tr.AppendChild(c.element(cellTag, attrs, cell))
	}
	return tr
}

func (c *converter) attributes(n gast.Node) ast.Attributes {
	var attrs ast.Attributes
	for _, a := range n.Attributes() {
		name := string(a.Name)
		var value string
		switch v := a.Value.(type) {
		case []byte:
			value = string(v)
		case string:
			value = v
		default:
			value = fmt.Sprint(v)
		}
		if name == "class" {
			attrs.AddClass(strings.Fields(value)...)
			continue
		}
		attrs.Set(name, value)
	}
	return attrs
}

// info splits a fenced code info string into language and meta.
func (c *converter) info(n *gast.FencedCodeBlock) (lang, meta string) {
	if n.Info == nil {
		return "", ""
	}
	info := strings.TrimSpace(string(n.Info.Segment.Value(c.src)))
	lang, meta, _ = strings.Cut(info, " ")
	return strings.ToLower(lang), strings.TrimSpace(meta)
}

// text concatenates the raw lines of a block.
func (c *converter) text(n gast.Node) string {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.WriteString(strings.Repeat(" ", seg.Padding))
		b.Write(seg.Value(c.src))
	}
	return b.String()
}

// plain returns the text content of an inline subtree.
func (c *converter) plain(n gast.Node) string {
	var b strings.Builder
	_ = gast.Walk(n, func(x gast.Node, entering bool) (gast.WalkStatus, error) {
		if !entering {
			return gast.WalkContinue, nil
		}
		switch x := x.(type) {
		case *gast.Text:
			b.Write(x.Segment.Value(c.src))
			if x.SoftLineBreak() || x.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *gast.String:
			if x.IsCode() {
				b.WriteString(html.UnescapeString(string(x.Value)))
			} else {
				b.Write(x.Value)
			}
		case *InlineMath:
			b.Write(x.Value)
		}
		return gast.WalkContinue, nil
	})
	return b.String()
}

func (c *converter) blockPos(n gast.Node) ast.Position {
	if c.inLabel || n.Lines().Len() == 0 {
		return ast.Position{}
	}
	return c.lines.pos(n.Lines().At(0).Start)
}

func hasTaskCheckBox(item gast.Node) bool {
	first := item.FirstChild()
	if first == nil {
		return false
	}
	_, ok := first.FirstChild().(*east.TaskCheckBox)
	return ok
}

func one(n *ast.Node) []*ast.Node { return []*ast.Node{n} }
