package codeblock

import (
	"strconv"
	"strings"
)

// Range is an inclusive 1-based line range.
type Range struct {
	From, To int
}

// LineSet is a set of line ranges.
type LineSet []Range

// Contains reports whether line n is in the set.
func (s LineSet) Contains(n int) bool {
	for _, r := range s {
		if n >= r.From && n <= r.To {
			return true
		}
	}
	return false
}

// Meta is the parsed info string after the language, e.g.
//
//	```go title="main.go" {3-5} ins={7} del={8} showLineNumbers startLineNumber=10
type Meta struct {
	Title string
	Mark  LineSet
	Ins   LineSet
	Del   LineSet
	// Sections are line ranges folded into a <details> element.
	Sections LineSet
	// LineNumbers overrides the per-language gutter setting when non-nil.
	LineNumbers *bool
	StartLine   int
	// NoCollapse disables the collapsible wrapper for long blocks.
	NoCollapse bool
	// Frame is "code", "terminal" or "none"; empty selects by language.
	Frame string
}

// ParseMeta parses a code fence meta string. Unknown options are ignored.
func ParseMeta(meta string) Meta {
	m := Meta{StartLine: 1}
	for _, tok := range metaTokens(meta) {
		key, value, hasValue := strings.Cut(tok, "=")
		if !hasValue && strings.HasPrefix(tok, "{") {
			m.Mark = append(m.Mark, parseRanges(tok)...)
			continue
		}
		value = unquote(value)
		switch key {
		case "title":
			m.Title = value
		case "mark", "hl":
			m.Mark = append(m.Mark, parseRanges(value)...)
		case "ins":
			m.Ins = append(m.Ins, parseRanges(value)...)
		case "del":
			m.Del = append(m.Del, parseRanges(value)...)
		case "collapse":
			m.Sections = append(m.Sections, parseRanges(value)...)
		case "showLineNumbers":
			on := !hasValue || value != "false"
			m.LineNumbers = &on
		case "startLineNumber":
			if n, err := strconv.Atoi(value); err == nil && n >= 0 {
				m.StartLine = n
			}
		case "nocollapse":
			m.NoCollapse = true
		case "frame":
			m.Frame = value
		}
	}
	return m
}

// metaTokens splits on spaces outside quotes and braces.
func metaTokens(s string) []string {
	var out []string
	var cur strings.Builder
	var quote byte
	depth := 0
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '{':
			depth++
		case c == '}':
			if depth > 0 {
				depth--
			}
		case (c == ' ' || c == '\t') && depth == 0:
			flush()
			continue
		}
		cur.WriteByte(c)
	}
	flush()
	return out
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

// parseRanges parses "{1,3-5}" or "1,3-5". Malformed parts are skipped.
func parseRanges(s string) LineSet {
	s = strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(s), "{"), "}")
	var out LineSet
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		from, to, isRange := strings.Cut(part, "-")
		a, err := strconv.Atoi(strings.TrimSpace(from))
		if err != nil || a < 1 {
			continue
		}
		b := a
		if isRange {
			if b, err = strconv.Atoi(strings.TrimSpace(to)); err != nil || b < a {
				continue
			}
		}
		out = append(out, Range{From: a, To: b})
	}
	return out
}
