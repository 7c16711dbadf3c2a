package directive

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/mdpipeline/internal/ast"
)

// Header is a parsed directive head: `name[label]{attrs}`.
type Header struct {
	Name     string
	Label    string
	HasLabel bool
	Attrs    ast.Attributes
	HasAttrs bool
}

// ScanName reads a directive name at the start of s and returns its length,
// or 0 when s does not start with a name. A name is a letter followed by
// letters, digits, '-' or '_', with at most one ':' namespace separator.
func ScanName(s string) int {
	if s == "" || !isLetter(s[0]) {
		return 0
	}
	i, colon := 1, false
	for i < len(s) {
		c := s[i]
		switch {
		case isLetter(c) || isDigit(c) || c == '-' || c == '_':
			i++
		case c == ':' && !colon && i+1 < len(s) && isLetter(s[i+1]):
			colon = true
			i++
		default:
			return i
		}
	}
	return i
}

// ScanLabel reads a balanced `[...]` group at the start of s. Backslash
// escapes are honored. It returns the inner text and the consumed length,
// or -1 when the group is unterminated.
func ScanLabel(s string) (string, int) {
	if s == "" || s[0] != '[' {
		return "", 0
	}
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return s[1:i], i + 1
			}
		case '\n':
			return "", -1
		}
	}
	return "", -1
}

// ScanAttributes reads a `{...}` group at the start of s and parses it.
// The consumed length is -1 when the group is unterminated.
func ScanAttributes(s string) (ast.Attributes, int, error) {
	if s == "" || s[0] != '{' {
		return nil, 0, nil
	}
	var quote byte
	for i := 1; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '\n':
			return nil, -1, nil
		case c == '}':
			attrs, err := ParseAttributes(s[1:i])
			return attrs, i + 1, err
		}
	}
	return nil, -1, nil
}

// ParseHeader parses `name[label]{attrs}` at the start of s and returns the
// consumed length. ok is false when s does not start with a name.
func ParseHeader(s string) (h Header, n int, ok bool, err error) {
	n = ScanName(s)
	if n == 0 {
		return h, 0, false, nil
	}
	h.Name = s[:n]

	if label, l := ScanLabel(s[n:]); l > 0 {
		h.Label, h.HasLabel = label, true
		n += l
	} else if l < 0 {
		return h, n, true, fmt.Errorf("unterminated label in directive %q", h.Name)
	}

	attrs, l, aerr := ScanAttributes(s[n:])
	switch {
	case l < 0:
		return h, n, true, fmt.Errorf("unterminated attributes in directive %q", h.Name)
	case l > 0:
		h.Attrs, h.HasAttrs = attrs, true
		n += l
		if aerr != nil {
			return h, n, true, aerr
		}
	}
	return h, n, true, nil
}

// ParseAttributes parses the body of an attribute list: `#id`, `.class`,
// `key=value`, `key="value"`, `key='value'` and bare boolean `key` tokens.
// Classes accumulate, a repeated key keeps its last value.
func ParseAttributes(s string) (ast.Attributes, error) {
	var attrs ast.Attributes
	i := 0
	for {
		for i < len(s) && isSpace(s[i]) {
			i++
		}
		if i >= len(s) {
			return attrs, nil
		}
		switch s[i] {
		case '#':
			j := scanToken(s, i+1)
			if j == i+1 {
				return attrs, fmt.Errorf("empty id at offset %d", i)
			}
			attrs.Set("id", s[i+1:j])
			i = j
		case '.':
			j := scanToken(s, i+1)
			if j == i+1 {
				return attrs, fmt.Errorf("empty class at offset %d", i)
			}
			attrs.AddClass(s[i+1 : j])
			i = j
		default:
			j := scanKey(s, i)
			if j == i {
				return attrs, fmt.Errorf("unexpected %q at offset %d", s[i], i)
			}
			key := s[i:j]
			if j >= len(s) || s[j] != '=' {
				attrs.SetBool(key, true)
				i = j
				continue
			}
			val, next, err := scanValue(s, j+1)
			if err != nil {
				return attrs, fmt.Errorf("attribute %q: %w", key, err)
			}
			if key == "class" {
				attrs.AddClass(strings.Fields(val)...)
			} else {
				attrs.Set(key, val)
			}
			i = next
		}
	}
}

func scanValue(s string, i int) (string, int, error) {
	if i >= len(s) {
		return "", i, nil
	}
	if q := s[i]; q == '"' || q == '\'' {
		end := strings.IndexByte(s[i+1:], q)
		if end < 0 {
			return "", len(s), fmt.Errorf("unterminated quote")
		}
		return s[i+1 : i+1+end], i + end + 2, nil
	}
	j := i
	for j < len(s) && !isSpace(s[j]) {
		j++
	}
	return s[i:j], j, nil
}

func scanToken(s string, i int) int {
	for i < len(s) && !isSpace(s[i]) && s[i] != '.' && s[i] != '#' {
		i++
	}
	return i
}

func scanKey(s string, i int) int {
	for i < len(s) {
		c := s[i]
		if isLetter(c) || isDigit(c) || c == '-' || c == '_' || c == ':' {
			i++
			continue
		}
		break
	}
	return i
}

func isLetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isSpace(c byte) bool  { return c == ' ' || c == '\t' || c == '\n' || c == '\r' }
