package pipeline

import (
	"strings"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/mdpipeline/internal/foundation/errors"
	"git.home.luguber.info/inful/mdpipeline/internal/frontmatter"
)

// volatileFields never contribute to a document fingerprint.
var volatileFields = []string{mdfp.FingerprintField, "lastmod", "updated"}

// Fingerprint returns the content fingerprint of a source file. Front
// matter is hashed in canonical form, so key order and volatile fields do
// not change the result.
func Fingerprint(src []byte) (string, error) {
	parts, err := frontmatter.Split(src)
	if err != nil {
		return "", errors.ParseError("front matter is not terminated").WithCause(err).Build()
	}
	fields, err := frontmatter.ParseYAML(parts.Raw)
	if err != nil {
		return "", errors.ParseError("invalid front matter").WithCause(err).Build()
	}
	for _, k := range volatileFields {
		delete(fields, k)
	}

	fm := ""
	if len(fields) > 0 {
		canonical, err := frontmatter.Canonical(fields)
		if err != nil {
			return "", errors.InternalError("failed to serialize front matter").WithCause(err).Build()
		}
		fm = strings.TrimSuffix(string(canonical), "\n")
	}
	return mdfp.CalculateFingerprintFromParts(fm, string(parts.Body)), nil
}
