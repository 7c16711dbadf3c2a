package markdown

import (
	"bytes"
	"strings"
	"unicode"

	"github.com/yuin/goldmark"
	gast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"git.home.luguber.info/inful/mdpipeline/internal/directive"
)

const (
	priorityDirectiveBlock = 50
	priorityMathBlock      = 60
	priorityInlineMath     = 90
	priorityTextDirective  = 150
)

// syntaxWarningsKey collects recoverable syntax problems of a parse.
var syntaxWarningsKey = parser.NewContextKey()

type syntaxWarning struct {
	offset int
	msg    string
}

func recordWarning(pc parser.Context, offset int, msg string) {
	ws, _ := pc.Get(syntaxWarningsKey).([]syntaxWarning)
	pc.Set(syntaxWarningsKey, append(ws, syntaxWarning{offset: offset, msg: msg}))
}

// unterminatedAtEOF reports whether node was still open when the input ran
// out. Blocks nested in a quote or list are closed by that parent instead.
func unterminatedAtEOF(node gast.Node, reader text.Reader) bool {
	if line, _ := reader.PeekLine(); line != nil {
		return false
	}
	parent := node.Parent()
	if parent == nil {
		return true
	}
	switch parent.Kind() {
	case gast.KindDocument, KindContainerDirective:
		return true
	}
	return false
}

// syntaxExtension adds the directive and math syntax to goldmark.
type syntaxExtension struct{}

func (e *syntaxExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithBlockParsers(
			util.Prioritized(&directiveBlockParser{}, priorityDirectiveBlock),
			util.Prioritized(&mathBlockParser{}, priorityMathBlock),
		),
		parser.WithInlineParsers(
			util.Prioritized(&inlineMathParser{}, priorityInlineMath),
			util.Prioritized(&textDirectiveParser{}, priorityTextDirective),
		),
	)
}

// directiveBlockParser handles `::leaf` lines and `:::container` fences.
type directiveBlockParser struct{}

func (p *directiveBlockParser) Trigger() []byte { return []byte{':'} }

func (p *directiveBlockParser) Open(_ gast.Node, reader text.Reader, pc parser.Context) (gast.Node, parser.State) {
	line, segment := reader.PeekLine()
	pos := pc.BlockOffset()
	if pos < 0 || pos >= len(line) {
		return nil, parser.NoChildren
	}
	rest := line[pos:]
	colons := countLeading(rest, ':')
	if colons < 2 {
		return nil, parser.NoChildren
	}
	head := strings.TrimRight(string(rest[colons:]), " \t\r\n")
	offset := segment.Start + pos

	if colons == 2 {
		h, n, ok, err := directive.ParseHeader(head)
		if !ok || err != nil || n != len(head) {
			return nil, parser.NoChildren
		}
		reader.Advance(len(line) - trailingNewline(line))
		return &LeafDirective{Header: h, Offset: offset}, parser.NoChildren
	}

	head = strings.TrimLeft(head, " \t")
	h, n, ok, err := directive.ParseHeader(head)
	if !ok || err != nil {
		return nil, parser.NoChildren
	}
	if tail := strings.TrimSpace(head[n:]); tail != "" {
		if h.HasAttrs {
			return nil, parser.NoChildren
		}
		attrs, err := directive.ParseAttributes(tail)
		if err != nil {
			return nil, parser.NoChildren
		}
		h.Attrs, h.HasAttrs = attrs, true
	}
	reader.Advance(len(line) - trailingNewline(line))
	return &ContainerDirective{Header: h, Offset: offset, fence: colons}, parser.HasChildren
}

func (p *directiveBlockParser) Continue(node gast.Node, reader text.Reader, pc parser.Context) parser.State {
	n, ok := node.(*ContainerDirective)
	if !ok {
		return parser.Close
	}
	// A fence line inside nested code or math belongs to that block.
	if last := pc.LastOpenedBlock().Node; last != nil && last != node && isRawBlock(last) {
		return parser.Continue | parser.HasChildren
	}
	line, _ := reader.PeekLine()
	if isClosingFence(line, ':', n.fence) {
		reader.Advance(len(line) - trailingNewline(line))
		n.closed = true
		return parser.Close
	}
	return parser.Continue | parser.HasChildren
}

func (p *directiveBlockParser) Close(node gast.Node, reader text.Reader, pc parser.Context) {
	n, ok := node.(*ContainerDirective)
	if !ok || n.closed {
		return
	}
	if unterminatedAtEOF(node, reader) {
		recordWarning(pc, n.Offset, "container directive \""+n.Header.Name+"\" closed at end of input")
	}
}

func (p *directiveBlockParser) CanInterruptParagraph() bool { return true }

func (p *directiveBlockParser) CanAcceptIndentedLine() bool { return false }

// mathBlockParser handles `$$` fenced display math.
type mathBlockParser struct{}

func (p *mathBlockParser) Trigger() []byte { return []byte{'$'} }

func (p *mathBlockParser) Open(_ gast.Node, reader text.Reader, pc parser.Context) (gast.Node, parser.State) {
	line, segment := reader.PeekLine()
	pos := pc.BlockOffset()
	if pos < 0 || pos >= len(line) {
		return nil, parser.NoChildren
	}
	rest := line[pos:]
	if !bytes.HasPrefix(rest, []byte("$$")) || !util.IsBlank(rest[2:]) {
		return nil, parser.NoChildren
	}
	reader.Advance(len(line) - trailingNewline(line))
	return &MathBlock{Offset: segment.Start + pos}, parser.NoChildren
}

func (p *mathBlockParser) Continue(node gast.Node, reader text.Reader, _ parser.Context) parser.State {
	n := node.(*MathBlock)
	line, segment := reader.PeekLine()
	if isClosingFence(line, '$', 2) {
		reader.Advance(len(line) - trailingNewline(line))
		n.closed = true
		return parser.Close
	}
	n.Lines().Append(segment)
	reader.Advance(len(line) - trailingNewline(line))
	return parser.Continue | parser.NoChildren
}

func (p *mathBlockParser) Close(node gast.Node, reader text.Reader, pc parser.Context) {
	n := node.(*MathBlock)
	if n.closed {
		return
	}
	if unterminatedAtEOF(node, reader) {
		recordWarning(pc, n.Offset, "math block closed at end of input")
	}
}

func (p *mathBlockParser) CanInterruptParagraph() bool { return true }

func (p *mathBlockParser) CanAcceptIndentedLine() bool { return false }

// textDirectiveParser handles inline `:name[label]{attrs}` spans. A label or
// attribute list is required so prose like "ratio:value" stays text.
type textDirectiveParser struct{}

func (p *textDirectiveParser) Trigger() []byte { return []byte{':'} }

func (p *textDirectiveParser) Parse(_ gast.Node, block text.Reader, _ parser.Context) gast.Node {
	if prev := block.PrecendingCharacter(); prev == ':' || unicode.IsLetter(prev) || unicode.IsDigit(prev) {
		return nil
	}
	line, _ := block.PeekLine()
	if len(line) < 3 || line[0] != ':' {
		return nil
	}
	h, n, ok, err := directive.ParseHeader(string(line[1:]))
	if !ok || err != nil || (!h.HasLabel && !h.HasAttrs) {
		return nil
	}
	block.Advance(1 + n)
	return &TextDirective{Header: h}
}

// inlineMathParser handles `$tex$` and `$$tex$$` inside paragraphs. Single
// dollars need non-space content next to both delimiters and a closing
// dollar not followed by a digit, so prices like $5 and $6 stay text.
type inlineMathParser struct{}

func (p *inlineMathParser) Trigger() []byte { return []byte{'$'} }

func (p *inlineMathParser) Parse(_ gast.Node, block text.Reader, _ parser.Context) gast.Node {
	line, _ := block.PeekLine()
	if len(line) < 3 {
		return nil
	}
	if line[1] == '$' {
		end := bytes.Index(line[2:], []byte("$$"))
		if end <= 0 {
			return nil
		}
		block.Advance(end + 4)
		return &InlineMath{Value: bytes.Clone(line[2 : 2+end]), Display: true}
	}
	if isSpaceByte(line[1]) {
		return nil
	}
	for i := 1; i < len(line); i++ {
		switch line[i] {
		case '\\':
			i++
		case '\n':
			return nil
		case '$':
			if i == 1 || isSpaceByte(line[i-1]) {
				continue
			}
			if i+1 < len(line) && line[i+1] >= '0' && line[i+1] <= '9' {
				continue
			}
			block.Advance(i + 1)
			return &InlineMath{Value: bytes.Clone(line[1:i])}
		}
	}
	return nil
}

func isRawBlock(n gast.Node) bool {
	switch n.Kind() {
	case gast.KindFencedCodeBlock, KindMathBlock:
		return true
	}
	return false
}

// isClosingFence reports whether line is at least min fence characters
// followed by blanks, indented by at most three spaces.
func isClosingFence(line []byte, fence byte, min int) bool {
	if line == nil {
		return false
	}
	i := 0
	for i < len(line) && i < 3 && line[i] == ' ' {
		i++
	}
	n := countLeading(line[i:], fence)
	return n >= min && util.IsBlank(line[i+n:])
}

func countLeading(b []byte, c byte) int {
	n := 0
	for n < len(b) && b[n] == c {
		n++
	}
	return n
}

func trailingNewline(line []byte) int {
	if n := len(line); n > 0 && line[n-1] == '\n' {
		if n > 1 && line[n-2] == '\r' {
			return 2
		}
		return 1
	}
	return 0
}

func isSpaceByte(c byte) bool { return c == ' ' || c == '\t' || c == '\n' || c == '\r' }
