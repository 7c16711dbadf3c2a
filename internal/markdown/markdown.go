// Package markdown is the source parser. It turns a Markdown or MDX body
// (front matter already removed) into the shared document tree.
//
// Parsing is done by goldmark with GFM, footnotes, typographic quotes and
// two syntax extensions: generic directives and TeX math. The goldmark tree
// is then converted into an ast.Node tree the stages operate on.
package markdown

import (
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"git.home.luguber.info/inful/mdpipeline/internal/ast"
	"git.home.luguber.info/inful/mdpipeline/internal/config"
	"git.home.luguber.info/inful/mdpipeline/internal/foundation/errors"
)

// Parser converts source text into document trees. It is safe for
// concurrent use.
type Parser struct {
	md  goldmark.Markdown
	mdx bool
}

// New builds a parser for cfg.
func New(cfg *config.Config) *Parser {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Footnote,
			extension.Typographer,
			&syntaxExtension{},
		),
		goldmark.WithParserOptions(parser.WithAttribute()),
	)
	return &Parser{md: md, mdx: cfg.Pipeline.MDXEnabled()}
}

// Parse converts body into a tree. path names the source in errors and
// selects MDX handling by extension. bodyLine is the 1-based line of the
// original file where body starts, so positions point into the file.
//
// Only invalid UTF-8 is fatal. Recoverable problems such as a container
// fence left open at the end of input are returned as positioned parse
// warnings next to the tree.
func (p *Parser) Parse(path string, body []byte, bodyLine int) (*ast.Node, []*errors.ClassifiedError, error) {
	if bodyLine < 1 {
		bodyLine = 1
	}
	idx := newLineIndex(body, bodyLine)

	if !utf8.Valid(body) {
		off := invalidUTF8Offset(body)
		line, col := idx.position(off)
		return nil, nil, errors.ParseError("invalid UTF-8 sequence").WithPosition(path, line, col).Build()
	}
	if p.mdx && strings.EqualFold(filepath.Ext(path), ".mdx") {
		body = StripESM(body)
	}

	pc := parser.NewContext()
	doc := p.md.Parser().Parse(text.NewReader(body), parser.WithContext(pc))

	var warnings []*errors.ClassifiedError
	ws, _ := pc.Get(syntaxWarningsKey).([]syntaxWarning)
	for _, w := range ws {
		line, col := idx.position(w.offset)
		warnings = append(warnings, errors.ParseError(w.msg).Warning().WithPosition(path, line, col).Build())
	}

	c := &converter{parser: p, src: body, lines: idx}
	root := ast.NewRoot()
	c.children(root, doc)
	mergeText(root)
	return root, warnings, nil
}

// parseInline parses a directive label and returns its inline content.
func (p *Parser) parseInline(label string) []*ast.Node {
	if strings.TrimSpace(label) == "" {
		return nil
	}
	src := []byte(label)
	doc := p.md.Parser().Parse(text.NewReader(src))
	first := doc.FirstChild()
	if first == nil {
		return []*ast.Node{ast.NewText(label)}
	}
	c := &converter{parser: p, src: src, lines: newLineIndex(src, 1), inLabel: true}
	holder := ast.NewRoot()
	c.children(holder, first)
	mergeText(holder)
	return holder.Children
}

// lineIndex maps byte offsets to 1-based line and column numbers.
type lineIndex struct {
	starts []int
	base   int
}

func newLineIndex(src []byte, base int) lineIndex {
	starts := []int{0}
	for i, b := range src {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return lineIndex{starts: starts, base: base}
}

func (l lineIndex) position(offset int) (line, col int) {
	i := sort.Search(len(l.starts), func(i int) bool { return l.starts[i] > offset }) - 1
	if i < 0 {
		i = 0
	}
	return l.base + i, offset - l.starts[i] + 1
}

func (l lineIndex) pos(offset int) ast.Position {
	line, col := l.position(offset)
	return ast.Position{Line: line, Column: col}
}

func invalidUTF8Offset(b []byte) int {
	for off := 0; off < len(b); {
		r, size := utf8.DecodeRune(b[off:])
		if r == utf8.RuneError && size <= 1 {
			return off
		}
		off += size
	}
	return len(b)
}

// mergeText joins adjacent text siblings and drops empty ones.
func mergeText(n *ast.Node) {
	if len(n.Children) == 0 {
		return
	}
	out := make([]*ast.Node, 0, len(n.Children))
	for _, c := range n.Children {
		if c.Kind == ast.KindText {
			if c.Value == "" {
				continue
			}
			if len(out) > 0 && out[len(out)-1].Kind == ast.KindText {
				out[len(out)-1].Value += c.Value
				continue
			}
		}
		mergeText(c)
		out = append(out, c)
	}
	n.Children = out
}
