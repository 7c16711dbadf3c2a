package codeblock

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"

	"git.home.luguber.info/inful/mdpipeline/internal/foundation/errors"
)

// ClassPrefix is prepended to chroma's short token class names.
const ClassPrefix = "tok-"

// Token is a classified run of source text. An empty Class means plain text.
type Token struct {
	Class string
	Value string
}

// Highlight tokenizes code with the lexer registered for lang and splits the
// result into lines. Unknown languages fall back to plain text and return a
// RenderWarning alongside the plain lines. Concatenating the token values of
// every line, joined by "\n", always reproduces code exactly.
func Highlight(lang, code string) ([][]Token, string, error) {
	lexer, warn := lexerFor(lang)
	name := lexer.Config().Name

	iter, err := chroma.Coalesce(lexer).Tokenise(nil, code)
	if err != nil {
		return plainLines(code), name, errors.RenderWarning("tokenizer failed, rendering plain text").
			WithCause(err).WithContext("language", lang).Build()
	}

	lines := splitLines(iter.Tokens(), strings.Count(code, "\n")+1)
	if joinLines(lines) != code {
		return plainLines(code), name, errors.RenderWarning("tokenizer altered the source, rendering plain text").
			WithContext("language", lang).Build()
	}
	return lines, name, warn
}

func lexerFor(lang string) (chroma.Lexer, error) {
	if lang == "" || lang == "text" || lang == "plaintext" || lang == "plain" {
		return lexers.Fallback, nil
	}
	if l := lexers.Get(lang); l != nil {
		return l, nil
	}
	return lexers.Fallback, errors.RenderWarning("unknown code language, rendering plain text").
		WithContext("language", lang).Build()
}

// splitLines cuts the token stream at newlines. Lexers may append a final
// newline, so the result is truncated to want lines.
func splitLines(tokens []chroma.Token, want int) [][]Token {
	lines := [][]Token{{}}
	for _, t := range tokens {
		class := tokenClass(t.Type)
		parts := strings.Split(t.Value, "\n")
		for i, part := range parts {
			if i > 0 {
				lines = append(lines, []Token{})
			}
			if part == "" {
				continue
			}
			cur := &lines[len(lines)-1]
			if n := len(*cur); n > 0 && (*cur)[n-1].Class == class {
				(*cur)[n-1].Value += part
				continue
			}
			*cur = append(*cur, Token{Class: class, Value: part})
		}
	}
	for len(lines) < want {
		lines = append(lines, []Token{})
	}
	return lines[:want]
}

func plainLines(code string) [][]Token {
	raw := strings.Split(code, "\n")
	lines := make([][]Token, len(raw))
	for i, l := range raw {
		if l != "" {
			lines[i] = []Token{{Value: l}}
		}
	}
	return lines
}

func joinLines(lines [][]Token) string {
	var sb strings.Builder
	for i, line := range lines {
		if i > 0 {
			sb.WriteByte('\n')
		}
		for _, t := range line {
			sb.WriteString(t.Value)
		}
	}
	return sb.String()
}

// tokenClass maps a token type to its CSS class, walking up to the sub
// category and category when the exact type has no class of its own.
func tokenClass(tt chroma.TokenType) string {
	for _, t := range []chroma.TokenType{tt, tt.SubCategory(), tt.Category()} {
		if cls, ok := chroma.StandardTypes[t]; ok && cls != "" {
			return ClassPrefix + cls
		}
	}
	return ""
}
