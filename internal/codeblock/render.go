// Package codeblock renders fenced code into framed, highlighted markup with
// line annotations, a copy button and an optional collapsible wrapper.
package codeblock

import (
	"fmt"
	"strconv"
	"strings"

	"git.home.luguber.info/inful/mdpipeline/internal/ast"
	"git.home.luguber.info/inful/mdpipeline/internal/config"
)

// Line is one rendered source line.
type Line struct {
	Number int
	Tokens []Token
	Flags  Flag
}

// Text returns the source text of the line.
func (l Line) Text() string {
	var sb strings.Builder
	for _, t := range l.Tokens {
		sb.WriteString(t.Value)
	}
	return sb.String()
}

// Block is a parsed and highlighted code block ready to render.
type Block struct {
	Lang  string
	Lexer string
	Meta  Meta
	Lines []Line
	// Code is the source after annotation markers were stripped.
	Code string
}

// Renderer turns CodeBlock nodes into markup. It is safe for concurrent use.
type Renderer struct {
	code config.CodeConfig
	i18n config.I18nConfig
}

// NewRenderer returns a renderer for the given code and string settings.
func NewRenderer(code config.CodeConfig, i18n config.I18nConfig) *Renderer {
	return &Renderer{code: code, i18n: i18n}
}

// Parse applies meta options and in-fence markers and highlights the code.
// The returned error is a RenderWarning; the block is usable regardless.
func Parse(lang, meta, code string) (*Block, error) {
	m := ParseMeta(meta)
	raw, markerFlags := stripMarkers(strings.Split(code, "\n"))
	stripped := strings.Join(raw, "\n")

	tokens, lexer, warn := Highlight(lang, stripped)
	b := &Block{Lang: lang, Lexer: lexer, Meta: m, Code: stripped, Lines: make([]Line, len(tokens))}
	for i, toks := range tokens {
		n := i + 1
		flags := markerFlags[i]
		if m.Ins.Contains(n) {
			flags |= FlagIns
		}
		if m.Del.Contains(n) {
			flags |= FlagDel
		}
		if m.Mark.Contains(n) {
			flags |= FlagMark
		}
		b.Lines[i] = Line{Number: m.StartLine + i, Tokens: toks, Flags: flags}
	}
	return b, warn
}

// Render converts a CodeBlock node. id must be unique within the document;
// the collapse toggle references it.
func (r *Renderer) Render(n *ast.Node, id string) (*ast.Node, error) {
	b, warn := Parse(n.Lang, n.Meta, n.Value)
	return r.RenderBlock(b, id), warn
}

// RenderBlock builds the markup for an already parsed block.
func (r *Renderer) RenderBlock(b *Block, id string) *ast.Node {
	showNumbers := r.code.ShowLineNumbers(b.Lang)
	if b.Meta.LineNumbers != nil {
		showNumbers = *b.Meta.LineNumbers
	}
	collapse := r.code.Collapse
	collapsible := collapse.IsEnabled() && collapse.Threshold > 0 &&
		len(b.Lines) > collapse.Threshold && !b.Meta.NoCollapse
	preview := min(collapse.PreviewLines, len(b.Lines))

	code := ast.NewElement("code", nil)
	for i := 0; i < len(b.Lines); {
		if sec, ok := sectionAt(b.Meta.Sections, i+1, len(b.Lines)); ok {
			count := sec.To - sec.From + 1
			details := ast.NewElement("details", ast.Attrs("class", "ec-section"),
				ast.NewElement("summary", nil, ast.NewText(fmt.Sprintf(r.i18n.CollapsedLines, count))))
			for j := 0; j < count; j++ {
				details.AppendChild(r.line(b.Lines[i+j], showNumbers, collapsible && i+j >= preview))
			}
			code.AppendChild(details)
			i += count
			continue
		}
		code.AppendChild(r.line(b.Lines[i], showNumbers, collapsible && i >= preview))
		i++
	}

	preAttrs := ast.Attrs("data-language", badgeLanguage(b), "tabindex", "0")
	pre := ast.NewElement("pre", preAttrs, code)

	figAttrs := ast.Attrs("class", "frame")
	if b.Meta.Title != "" {
		figAttrs.AddClass("has-title")
	}
	if isTerminal(b) {
		figAttrs.AddClass("is-terminal")
	}
	figure := ast.NewElement("figure", figAttrs)
	if b.Meta.Title != "" || isTerminal(b) {
		header := ast.NewElement("figcaption", ast.Attrs("class", "header"))
		if b.Meta.Title != "" {
			header.AppendChild(ast.NewElement("span", ast.Attrs("class", "title"), ast.NewText(b.Meta.Title)))
		}
		figure.AppendChild(header)
	}
	if lang := badgeLanguage(b); lang != "" {
		figure.AppendChild(ast.NewElement("span", ast.Attrs("class", "language-badge", "aria-hidden", "true"),
			ast.NewText(lang)))
	}
	figure.AppendChild(pre)
	if r.code.CopyEnabled() {
		btn := ast.NewElement("button", ast.Attrs(
			"type", "button",
			"class", "copy-button",
			"title", r.i18n.Copy,
			"aria-label", r.i18n.Copy,
			"data-copied", r.i18n.Copied,
			"data-code", b.Code,
		))
		figure.AppendChild(ast.NewElement("div", ast.Attrs("class", "copy"), btn))
	}

	wrapper := ast.NewElement("div", ast.Attrs("class", "expressive-code", "id", id), figure)
	if !collapsible {
		return wrapper
	}

	collapsed := collapse.StartCollapsed()
	wrapper.Attrs.AddClass("collapsible")
	if collapsed {
		wrapper.Attrs.AddClass("collapsed")
	}
	wrapper.Attrs.Set("data-preview-lines", strconv.Itoa(preview))
	wrapper.Attrs.Set("data-line-count", strconv.Itoa(len(b.Lines)))

	label := r.i18n.ShowMore
	if !collapsed {
		label = r.i18n.ShowLess
	}
	toggle := ast.NewElement("button", ast.Attrs(
		"type", "button",
		"class", "collapse-toggle",
		"aria-controls", id,
		"aria-expanded", strconv.FormatBool(!collapsed),
		"data-show-more", r.i18n.ShowMore,
		"data-show-less", r.i18n.ShowLess,
	), ast.NewText(label))
	announcer := ast.NewElement("div", ast.Attrs(
		"class", "sr-only",
		"aria-live", "polite",
		"data-expanded", r.i18n.Expanded,
		"data-collapsed", r.i18n.Collapsed,
	))
	wrapper.AppendChild(ast.NewElement("div", ast.Attrs("class", "collapse-controls"), toggle, announcer))
	return wrapper
}

func (r *Renderer) line(l Line, numbers, overflow bool) *ast.Node {
	attrs := ast.Attrs("class", "ec-line")
	if l.Flags&FlagIns != 0 {
		attrs.AddClass("ins")
	}
	if l.Flags&FlagDel != 0 {
		attrs.AddClass("del")
	}
	if l.Flags&FlagMark != 0 {
		attrs.AddClass("mark")
	}
	if overflow {
		attrs.AddClass("ec-overflow")
	}
	div := ast.NewElement("div", attrs)
	if numbers {
		div.AppendChild(ast.NewElement("span", ast.Attrs("class", "gutter", "aria-hidden", "true"),
			ast.NewElement("span", ast.Attrs("class", "ln"), ast.NewText(strconv.Itoa(l.Number)))))
	}
	code := ast.NewElement("span", ast.Attrs("class", "code"))
	for _, t := range l.Tokens {
		if t.Class == "" {
			code.AppendChild(ast.NewText(t.Value))
			continue
		}
		code.AppendChild(ast.NewElement("span", ast.Attrs("class", t.Class), ast.NewText(t.Value)))
	}
	div.AppendChild(code)
	return div
}

// sectionAt returns the collapsed section starting at 1-based line n.
func sectionAt(sections LineSet, n, total int) (Range, bool) {
	for _, s := range sections {
		if s.From == n {
			return Range{From: s.From, To: min(s.To, total)}, true
		}
	}
	return Range{}, false
}

func badgeLanguage(b *Block) string {
	switch b.Lang {
	case "", "text", "plaintext", "plain":
		return ""
	}
	return b.Lang
}

var terminalLanguages = map[string]bool{
	"sh": true, "bash": true, "shell": true, "zsh": true, "shellsession": true,
	"console": true, "powershell": true, "ps1": true, "bat": true, "cmd": true,
}

func isTerminal(b *Block) bool {
	switch b.Meta.Frame {
	case "terminal":
		return true
	case "code", "none":
		return false
	}
	return terminalLanguages[b.Lang] && b.Meta.Title == ""
}
