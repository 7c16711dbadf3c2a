// Package mathml converts a LaTeX math subset into MathML markup.
package mathml

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// Error reports unsupported or malformed notation.
type Error struct {
	Msg string
	// Pos is the byte offset in the source.
	Pos int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s at position %d", e.Msg, e.Pos)
}

// Convert renders tex as a <math> element. The original source is kept in a
// TeX annotation so copy and paste still yields LaTeX.
func Convert(tex string, display bool) (string, error) {
	toks, err := lex(tex)
	if err != nil {
		return "", err
	}
	p := &parser{toks: toks, display: display}
	els, err := p.parseRow(func(token) bool { return false })
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(`<math xmlns="http://www.w3.org/1998/Math/MathML"`)
	if display {
		sb.WriteString(` display="block"`)
	}
	sb.WriteString(`><semantics><mrow>`)
	sb.WriteString(strings.Join(els, ""))
	sb.WriteString(`</mrow><annotation encoding="application/x-tex">`)
	sb.WriteString(html.EscapeString(strings.TrimSpace(tex)))
	sb.WriteString(`</annotation></semantics></math>`)
	return sb.String(), nil
}

type parser struct {
	toks    []token
	i       int
	display bool
}

// atom is a rendered element plus what the script parser needs to know about it.
type atom struct {
	markup string
	// limits puts scripts under and over the base in display mode.
	limits bool
}

func (p *parser) peek() token { return p.toks[p.i] }

func (p *parser) next() token {
	t := p.toks[p.i]
	if t.kind != tokEOF {
		p.i++
	}
	return t
}

func row(els []string) string {
	if len(els) == 1 {
		return els[0]
	}
	return "<mrow>" + strings.Join(els, "") + "</mrow>"
}

func leaf(tag, text string) string {
	return "<" + tag + ">" + html.EscapeString(text) + "</" + tag + ">"
}

func (p *parser) parseRow(stop func(token) bool) ([]string, error) {
	var els []string
	for {
		t := p.peek()
		if t.kind == tokEOF || stop(t) {
			return els, nil
		}
		el, err := p.parseScripted()
		if err != nil {
			return nil, err
		}
		els = append(els, el)
	}
}

func (p *parser) parseScripted() (string, error) {
	base, err := p.parseAtom()
	if err != nil {
		return "", err
	}

	var sub, sup string
	var hasSub, hasSup bool
	primes := 0
	for {
		t := p.peek()
		switch {
		case t.kind == tokChar && t.val == "'":
			p.next()
			primes++
			continue
		case t.kind == tokSub && !hasSub:
			p.next()
			if sub, err = p.parseArg("_"); err != nil {
				return "", err
			}
			hasSub = true
			continue
		case t.kind == tokSup && !hasSup:
			p.next()
			if sup, err = p.parseArg("^"); err != nil {
				return "", err
			}
			hasSup = true
			continue
		case t.kind == tokSub || t.kind == tokSup:
			return "", &Error{Msg: "double script", Pos: t.pos}
		}
		break
	}

	if primes > 0 {
		mark := leaf("mo", strings.Repeat("′", primes))
		if hasSup {
			sup = "<mrow>" + mark + sup + "</mrow>"
		} else {
			sup = mark
		}
		hasSup = true
	}

	under := base.limits && p.display
	switch {
	case hasSub && hasSup && under:
		return "<munderover>" + base.markup + sub + sup + "</munderover>", nil
	case hasSub && hasSup:
		return "<msubsup>" + base.markup + sub + sup + "</msubsup>", nil
	case hasSub && under:
		return "<munder>" + base.markup + sub + "</munder>", nil
	case hasSub:
		return "<msub>" + base.markup + sub + "</msub>", nil
	case hasSup && under:
		return "<mover>" + base.markup + sup + "</mover>", nil
	case hasSup:
		return "<msup>" + base.markup + sup + "</msup>", nil
	default:
		return base.markup, nil
	}
}

// parseArg reads a braced group or a single atom.
func (p *parser) parseArg(what string) (string, error) {
	t := p.peek()
	switch t.kind {
	case tokEOF, tokClose, tokAmp, tokRowSep, tokSub, tokSup:
		return "", &Error{Msg: "missing argument for " + what, Pos: t.pos}
	}
	a, err := p.parseAtom()
	if err != nil {
		return "", err
	}
	return a.markup, nil
}

func (p *parser) parseGroup() (string, error) {
	open := p.next()
	els, err := p.parseRow(func(t token) bool { return t.kind == tokClose })
	if err != nil {
		return "", err
	}
	if p.next().kind != tokClose {
		return "", &Error{Msg: "unbalanced braces", Pos: open.pos}
	}
	if len(els) == 0 {
		return "<mrow></mrow>", nil
	}
	return row(els), nil
}

func (p *parser) parseAtom() (atom, error) {
	t := p.peek()
	switch t.kind {
	case tokOpen:
		g, err := p.parseGroup()
		return atom{markup: g}, err
	case tokClose:
		return atom{}, &Error{Msg: "unexpected }", Pos: t.pos}
	case tokSub, tokSup:
		// A script without a base attaches to an empty row.
		return atom{markup: "<mrow></mrow>"}, nil
	case tokAmp:
		return atom{}, &Error{Msg: "& outside of an environment", Pos: t.pos}
	case tokRowSep:
		return atom{}, &Error{Msg: `\\ outside of an environment`, Pos: t.pos}
	case tokChar:
		return p.parseChar(), nil
	case tokCommand:
		return p.parseCommand()
	default:
		return atom{}, &Error{Msg: "unexpected end of input", Pos: t.pos}
	}
}

func (p *parser) parseChar() atom {
	t := p.next()
	c := t.val
	switch {
	case isDigit(c):
		var sb strings.Builder
		sb.WriteString(c)
		for {
			n := p.peek()
			if n.kind != tokChar {
				break
			}
			if isDigit(n.val) {
				sb.WriteString(p.next().val)
				continue
			}
			// A decimal point only when a digit follows.
			if n.val == "." && p.i+1 < len(p.toks) && p.toks[p.i+1].kind == tokChar && isDigit(p.toks[p.i+1].val) {
				sb.WriteString(p.next().val)
				continue
			}
			break
		}
		return atom{markup: leaf("mn", sb.String())}
	case c == "~":
		return atom{markup: "<mtext>&#160;</mtext>"}
	}
	if op, ok := asciiOperators[c]; ok {
		return atom{markup: leaf("mo", op)}
	}
	return atom{markup: leaf("mi", c)}
}

func isDigit(s string) bool { return len(s) == 1 && s[0] >= '0' && s[0] <= '9' }

func (p *parser) parseCommand() (atom, error) {
	t := p.next()
	name := t.val

	if s, ok := greek[name]; ok {
		return atom{markup: leaf("mi", s)}, nil
	}
	if s, ok := upperGreek[name]; ok {
		return atom{markup: `<mi mathvariant="normal">` + s + `</mi>`}, nil
	}
	if s, ok := identifiers[name]; ok {
		return atom{markup: leaf("mi", s)}, nil
	}
	if s, ok := operators[name]; ok {
		return atom{markup: leaf("mo", s)}, nil
	}
	if op, ok := largeOperators[name]; ok {
		return atom{markup: `<mo largeop="true">` + op.sym + `</mo>`, limits: op.movable}, nil
	}
	if movable, ok := functions[name]; ok {
		return atom{markup: leaf("mi", name), limits: movable}, nil
	}
	if w, ok := spaces[name]; ok {
		return atom{markup: `<mspace width="` + w + `"></mspace>`}, nil
	}
	if acc, ok := accents[name]; ok {
		arg, err := p.parseArg(`\` + name)
		if err != nil {
			return atom{}, err
		}
		if acc.under {
			return atom{markup: `<munder accentunder="true">` + arg + leaf("mo", acc.mark) + `</munder>`}, nil
		}
		return atom{markup: `<mover accent="true">` + arg + leaf("mo", acc.mark) + `</mover>`}, nil
	}
	if variant, ok := fonts[name]; ok {
		arg, err := p.parseArg(`\` + name)
		if err != nil {
			return atom{}, err
		}
		return atom{markup: `<mstyle mathvariant="` + variant + `">` + arg + `</mstyle>`}, nil
	}
	if variant, ok := textFonts[name]; ok {
		if !t.hasArg {
			return atom{}, &Error{Msg: `missing argument for \` + name, Pos: t.pos}
		}
		if variant == "" {
			return atom{markup: leaf("mtext", t.arg)}, nil
		}
		return atom{markup: `<mtext mathvariant="` + variant + `">` + html.EscapeString(t.arg) + `</mtext>`}, nil
	}
	if style, ok := fractions[name]; ok {
		return p.parseFraction(name, style)
	}

	switch name {
	case "operatorname":
		if !t.hasArg {
			return atom{}, &Error{Msg: `missing argument for \operatorname`, Pos: t.pos}
		}
		return atom{markup: leaf("mi", strings.TrimSpace(t.arg))}, nil
	case "binom":
		num, err := p.parseArg(`\binom`)
		if err != nil {
			return atom{}, err
		}
		den, err := p.parseArg(`\binom`)
		if err != nil {
			return atom{}, err
		}
		return atom{markup: `<mrow><mo>(</mo><mfrac linethickness="0">` + num + den + `</mfrac><mo>)</mo></mrow>`}, nil
	case "sqrt":
		return p.parseSqrt()
	case "left":
		return p.parseLeftRight(t)
	case "begin":
		return p.parseEnvironment(t)
	case "right":
		return atom{}, &Error{Msg: `\right without \left`, Pos: t.pos}
	case "end":
		return atom{}, &Error{Msg: `\end without \begin`, Pos: t.pos}
	case "ce":
		if !t.hasArg {
			return atom{}, &Error{Msg: `missing argument for \ce`, Pos: t.pos}
		}
		markup, err := chemistry(t.arg, t.pos)
		if err != nil {
			return atom{}, err
		}
		return atom{markup: markup}, nil
	}
	if s, ok := unicodeSymbol(name); ok {
		if unicode.IsLetter([]rune(s)[0]) {
			return atom{markup: leaf("mi", s)}, nil
		}
		return atom{markup: leaf("mo", s)}, nil
	}
	return atom{}, &Error{Msg: `unknown command \` + name, Pos: t.pos}
}

func (p *parser) parseFraction(name, displaystyle string) (atom, error) {
	num, err := p.parseArg(`\` + name)
	if err != nil {
		return atom{}, err
	}
	den, err := p.parseArg(`\` + name)
	if err != nil {
		return atom{}, err
	}
	frac := "<mfrac>" + num + den + "</mfrac>"
	if displaystyle != "" {
		frac = `<mstyle displaystyle="` + displaystyle + `">` + frac + `</mstyle>`
	}
	return atom{markup: frac}, nil
}

func (p *parser) parseSqrt() (atom, error) {
	var index string
	if t := p.peek(); t.kind == tokChar && t.val == "[" {
		p.next()
		els, err := p.parseRow(func(t token) bool { return t.kind == tokChar && t.val == "]" })
		if err != nil {
			return atom{}, err
		}
		if c := p.next(); c.kind != tokChar || c.val != "]" {
			return atom{}, &Error{Msg: `unterminated \sqrt index`, Pos: t.pos}
		}
		index = row(els)
	}
	radicand, err := p.parseArg(`\sqrt`)
	if err != nil {
		return atom{}, err
	}
	if index != "" {
		return atom{markup: "<mroot>" + radicand + index + "</mroot>"}, nil
	}
	return atom{markup: "<msqrt>" + radicand + "</msqrt>"}, nil
}

// delimiter reads the token after \left or \right. "." is the empty delimiter.
func (p *parser) delimiter(after token) (string, error) {
	t := p.next()
	switch t.kind {
	case tokChar:
		if t.val == "." {
			return "", nil
		}
		if op, ok := asciiOperators[t.val]; ok {
			return op, nil
		}
	case tokCommand:
		if s, ok := operators[t.val]; ok {
			return s, nil
		}
	}
	return "", &Error{Msg: `missing delimiter after \` + after.val, Pos: after.pos}
}

func fence(d string) string {
	if d == "" {
		return ""
	}
	return `<mo fence="true" stretchy="true">` + html.EscapeString(d) + `</mo>`
}

func (p *parser) parseLeftRight(left token) (atom, error) {
	open, err := p.delimiter(left)
	if err != nil {
		return atom{}, err
	}
	els, err := p.parseRow(func(t token) bool { return t.kind == tokCommand && t.val == "right" })
	if err != nil {
		return atom{}, err
	}
	right := p.next()
	if right.kind != tokCommand || right.val != "right" {
		return atom{}, &Error{Msg: `missing \right`, Pos: left.pos}
	}
	closing, err := p.delimiter(right)
	if err != nil {
		return atom{}, err
	}
	return atom{markup: "<mrow>" + fence(open) + strings.Join(els, "") + fence(closing) + "</mrow>"}, nil
}

// envName reads {name} after \begin or \end.
func (p *parser) envName(cmd token) (string, error) {
	if p.next().kind != tokOpen {
		return "", &Error{Msg: `missing environment name after \` + cmd.val, Pos: cmd.pos}
	}
	var sb strings.Builder
	for {
		t := p.next()
		switch t.kind {
		case tokClose:
			return sb.String(), nil
		case tokChar:
			sb.WriteString(t.val)
		default:
			return "", &Error{Msg: "malformed environment name", Pos: t.pos}
		}
	}
}

func (p *parser) parseEnvironment(begin token) (atom, error) {
	name, err := p.envName(begin)
	if err != nil {
		return atom{}, err
	}
	fences, ok := environments[name]
	if !ok {
		return atom{}, &Error{Msg: "unknown environment " + name, Pos: begin.pos}
	}

	cellStop := func(t token) bool {
		return t.kind == tokAmp || t.kind == tokRowSep || (t.kind == tokCommand && t.val == "end")
	}

	var rows [][]string
	cells := []string{}
	for {
		els, err := p.parseRow(cellStop)
		if err != nil {
			return atom{}, err
		}
		cells = append(cells, "<mtd>"+strings.Join(els, "")+"</mtd>")

		t := p.next()
		switch {
		case t.kind == tokAmp:
			continue
		case t.kind == tokRowSep:
			rows = append(rows, cells)
			cells = []string{}
			continue
		case t.kind == tokCommand && t.val == "end":
			endName, err := p.envName(t)
			if err != nil {
				return atom{}, err
			}
			if endName != name {
				return atom{}, &Error{Msg: fmt.Sprintf(`\begin{%s} closed by \end{%s}`, name, endName), Pos: t.pos}
			}
			// A trailing \\ leaves one empty cell behind.
			if !(len(cells) == 1 && cells[0] == "<mtd></mtd>" && len(rows) > 0) {
				rows = append(rows, cells)
			}
			return atom{markup: table(name, rows, fences)}, nil
		default:
			return atom{}, &Error{Msg: `missing \end{` + name + `}`, Pos: begin.pos}
		}
	}
}

func table(name string, rows [][]string, fences [2]string) string {
	var sb strings.Builder
	sb.WriteString("<mrow>")
	sb.WriteString(fence(fences[0]))
	switch name {
	case "cases":
		sb.WriteString(`<mtable columnalign="left left">`)
	case "aligned", "align":
		sb.WriteString(`<mtable columnalign="right left">`)
	default:
		sb.WriteString("<mtable>")
	}
	for _, r := range rows {
		sb.WriteString("<mtr>")
		sb.WriteString(strings.Join(r, ""))
		sb.WriteString("</mtr>")
	}
	sb.WriteString("</mtable>")
	sb.WriteString(fence(fences[1]))
	sb.WriteString("</mrow>")
	return sb.String()
}
