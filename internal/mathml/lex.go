package mathml

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokCommand
	tokChar
	tokOpen
	tokClose
	tokSup
	tokSub
	tokAmp
	tokRowSep
)

type token struct {
	kind tokenKind
	val  string
	// arg is the verbatim braced argument of text-like commands.
	arg    string
	hasArg bool
	pos    int
}

// rawArgCommands take their argument verbatim instead of as math.
var rawArgCommands = map[string]bool{
	"text": true, "textrm": true, "textit": true, "textbf": true,
	"textsf": true, "texttt": true, "mbox": true, "operatorname": true,
	"ce": true,
}

func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		r, size := utf8.DecodeRuneInString(src[i:])
		if r == utf8.RuneError && size == 1 {
			return nil, &Error{Msg: "invalid UTF-8", Pos: i}
		}
		start := i
		switch {
		case unicode.IsSpace(r):
			i += size
		case r == '\\':
			i++
			if i >= len(src) {
				return nil, &Error{Msg: "trailing backslash", Pos: start}
			}
			j := i
			for j < len(src) && isASCIILetter(src[j]) {
				j++
			}
			if j == i {
				// Control symbol such as \, or \{.
				_, sz := utf8.DecodeRuneInString(src[i:])
				name := src[i : i+sz]
				i += sz
				if name == "\\" {
					toks = append(toks, token{kind: tokRowSep, pos: start})
					continue
				}
				toks = append(toks, token{kind: tokCommand, val: name, pos: start})
				continue
			}
			name := src[i:j]
			i = j
			tok := token{kind: tokCommand, val: name, pos: start}
			if rawArgCommands[name] {
				arg, n, ok := rawGroup(src[i:])
				if ok {
					tok.arg, tok.hasArg = arg, true
					i += n
				}
			}
			toks = append(toks, tok)
		case r == '{':
			toks = append(toks, token{kind: tokOpen, pos: start})
			i += size
		case r == '}':
			toks = append(toks, token{kind: tokClose, pos: start})
			i += size
		case r == '^':
			toks = append(toks, token{kind: tokSup, pos: start})
			i += size
		case r == '_':
			toks = append(toks, token{kind: tokSub, pos: start})
			i += size
		case r == '&':
			toks = append(toks, token{kind: tokAmp, pos: start})
			i += size
		default:
			toks = append(toks, token{kind: tokChar, val: src[i : i+size], pos: start})
			i += size
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: len(src)})
	return toks, nil
}

// rawGroup reads a balanced {…} group after optional spaces and returns its
// content and the number of bytes consumed.
func rawGroup(s string) (string, int, bool) {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n') {
		i++
	}
	if i >= len(s) || s[i] != '{' {
		return "", 0, false
	}
	depth := 0
	var sb strings.Builder
	for j := i; j < len(s); j++ {
		c := s[j]
		switch {
		case c == '\\' && j+1 < len(s) && (s[j+1] == '{' || s[j+1] == '}' || s[j+1] == '\\'):
			sb.WriteByte(s[j+1])
			j++
		case c == '{':
			if depth > 0 {
				sb.WriteByte(c)
			}
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return sb.String(), j + 1, true
			}
			sb.WriteByte(c)
		default:
			sb.WriteByte(c)
		}
	}
	return "", 0, false
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
