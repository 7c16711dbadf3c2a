package stages

import (
	"context"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"git.home.luguber.info/inful/mdpipeline/internal/document"
	"git.home.luguber.info/inful/mdpipeline/internal/transforms"
)

// slug gives every heading a unique, URL-safe id and records the table of
// contents. Ids already present in the source are kept.
type slug struct{}

func (slug) Name() string                     { return NameSlug }
func (slug) Stage() transforms.TransformStage { return transforms.StageStructure }
func (slug) Dependencies() transforms.TransformDependencies {
	return transforms.TransformDependencies{ModifiesTree: true, ProducesMetadata: true}
}

func (slug) Transform(_ context.Context, doc *document.Document) error {
	used := elementIDs(doc.Tree)
	doc.Meta.Headings = nil
	for _, h := range headings(doc.Tree) {
		text := strings.Join(strings.Fields(visibleText(h)), " ")
		id := h.Attrs.Value("id")
		if id == "" {
			id = uniqueID(Slugify(text), used)
			used[id] = true
			h.Attrs.Set("id", id)
		}
		doc.Meta.Headings = append(doc.Meta.Headings, document.Heading{
			Depth: h.HeadingLevel(),
			Slug:  id,
			Text:  text,
		})
	}
	return nil
}

var lower = cases.Lower(language.Und)

// Slugify lowercases s, drops punctuation and turns spaces into hyphens.
// Letters of every script are kept. An empty result becomes "section".
func Slugify(s string) string {
	s = norm.NFC.String(lower.String(strings.TrimSpace(s)))
	var sb strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r) || r == '-' || r == '_':
			sb.WriteRune(r)
		case unicode.IsSpace(r):
			sb.WriteByte('-')
		}
	}
	if sb.Len() == 0 {
		return "section"
	}
	return sb.String()
}
