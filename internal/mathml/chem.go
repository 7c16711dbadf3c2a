package mathml

import "strings"

// chemTerm is one species with its count and charge.
type chemTerm struct {
	base string
	sub  string
	sup  string
}

func (c *chemTerm) markup() string {
	switch {
	case c.sub != "" && c.sup != "":
		return "<msubsup>" + c.base + leaf("mn", c.sub) + charge(c.sup) + "</msubsup>"
	case c.sub != "":
		return "<msub>" + c.base + leaf("mn", c.sub) + "</msub>"
	case c.sup != "":
		return "<msup>" + c.base + charge(c.sup) + "</msup>"
	}
	return c.base
}

func charge(s string) string {
	var els []string
	digits := strings.TrimRight(s, "+-")
	if digits != "" {
		els = append(els, leaf("mn", digits))
	}
	for _, c := range s[len(digits):] {
		if c == '-' {
			els = append(els, leaf("mo", "−"))
		} else {
			els = append(els, leaf("mo", "+"))
		}
	}
	return row(els)
}

var reactionArrows = []struct{ src, mark string }{
	{"<=>", "⇌"},
	{"<->", "↔"},
	{"->", "→"},
	{"<-", "←"},
}

// chemistry renders a \ce argument: element symbols upright, trailing counts
// as subscripts, charges as superscripts and reaction arrows as operators.
// pos is the offset of the \ce command, used for errors.
func chemistry(src string, pos int) (string, error) {
	var els []string
	var cur *chemTerm
	flush := func() {
		if cur != nil {
			els = append(els, cur.markup())
			cur = nil
		}
	}

	i := 0
scan:
	for i < len(src) {
		for _, a := range reactionArrows {
			if strings.HasPrefix(src[i:], a.src) {
				flush()
				els = append(els, `<mo stretchy="false">`+a.mark+`</mo>`)
				i += len(a.src)
				continue scan
			}
		}
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n':
			i++
		case isASCIILetter(c):
			j := i + 1
			for j < len(src) && src[j] >= 'a' && src[j] <= 'z' {
				j++
			}
			flush()
			cur = &chemTerm{base: `<mi mathvariant="normal">` + src[i:j] + `</mi>`}
			i = j
		case c >= '0' && c <= '9':
			j := i
			for j < len(src) && src[j] >= '0' && src[j] <= '9' {
				j++
			}
			if cur != nil && cur.sup == "" && src[i-1] != ' ' {
				cur.sub += src[i:j]
			} else {
				flush()
				els = append(els, leaf("mn", src[i:j]))
			}
			i = j
		case c == '(' || c == '[':
			flush()
			els = append(els, leaf("mo", string(c)))
			i++
		case c == ')' || c == ']':
			flush()
			cur = &chemTerm{base: leaf("mo", string(c))}
			i++
		case c == '^':
			if cur == nil {
				return "", &Error{Msg: `charge without a species in \ce`, Pos: pos}
			}
			i++
			var s string
			if arg, n, ok := rawGroup(src[i:]); ok {
				s, i = arg, i+n
			} else if i < len(src) {
				s, i = src[i:i+1], i+1
			}
			s = strings.TrimSpace(s)
			if !validCharge(s) {
				return "", &Error{Msg: `invalid charge "` + s + `" in \ce`, Pos: pos}
			}
			cur.sup = s
		case c == '+' || c == '-':
			if cur != nil && src[i-1] != ' ' {
				cur.sup += string(c)
			} else {
				flush()
				if c == '-' {
					els = append(els, leaf("mo", "−"))
				} else {
					els = append(els, leaf("mo", "+"))
				}
			}
			i++
		default:
			return "", &Error{Msg: `unsupported character "` + string(c) + `" in \ce`, Pos: pos}
		}
	}
	flush()
	if len(els) == 0 {
		return "", &Error{Msg: `empty \ce`, Pos: pos}
	}
	return "<mrow>" + strings.Join(els, "") + "</mrow>", nil
}

// validCharge accepts an optional count followed by signs, like 2+ or -.
func validCharge(s string) bool {
	digits := strings.TrimRight(s, "+-")
	if digits == s {
		return false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return false
		}
	}
	return true
}
