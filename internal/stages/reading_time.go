package stages

import (
	"context"
	"fmt"
	"unicode"

	"git.home.luguber.info/inful/mdpipeline/internal/ast"
	"git.home.luguber.info/inful/mdpipeline/internal/document"
	"git.home.luguber.info/inful/mdpipeline/internal/transforms"
)

// readingTime estimates reading time from the prose of the document.
type readingTime struct{}

func (readingTime) Name() string                     { return NameReadingTime }
func (readingTime) Stage() transforms.TransformStage { return transforms.StageAnalyze }
func (readingTime) Dependencies() transforms.TransformDependencies {
	return transforms.TransformDependencies{ProducesMetadata: true}
}

func (readingTime) Transform(_ context.Context, doc *document.Document) error {
	cfg := configOf(doc)
	words := CountWords(prose(doc.Tree))
	wpm := max(cfg.ReadingTime.WordsPerMinute, 1)
	minutes := 0
	if words > 0 {
		minutes = (words + wpm - 1) / wpm
	}
	doc.Meta.ReadingTime = document.ReadingTime{
		Words:   words,
		Minutes: minutes,
		Text:    fmt.Sprintf(cfg.I18n.ReadingTime, max(minutes, 1)),
	}
	return nil
}

// CountWords counts runs of letters and digits as words. Han, Kana and
// Hangul characters count individually.
func CountWords(s string) int {
	words := 0
	inWord := false
	for _, r := range s {
		switch {
		case unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana, unicode.Hangul):
			words++
			inWord = false
		case unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r) || (inWord && (r == '\'' || r == '’')):
			if !inWord {
				words++
				inWord = true
			}
		default:
			inWord = false
		}
	}
	return words
}

var inline = map[string]bool{
	"a": true, "abbr": true, "b": true, "code": true, "del": true, "em": true, "i": true,
	"kbd": true, "mark": true, "s": true, "span": true, "strong": true, "sub": true, "sup": true, "u": true,
}

// prose returns the readable text of the tree: no code, math, raw markup
// or decorative elements.
func prose(root *ast.Node) string {
	var buf []rune
	_ = ast.Walk(root, func(n *ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch {
		case n.Kind == ast.KindRaw, skipForProse(n):
			return ast.WalkSkipChildren, nil
		case n.Kind == ast.KindText:
			buf = append(buf, []rune(n.Value)...)
		case n.Kind != ast.KindElement || !inline[n.Tag]:
			buf = append(buf, ' ')
		}
		return ast.WalkContinue, nil
	})
	return string(buf)
}
