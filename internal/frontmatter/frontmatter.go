// Package frontmatter separates the YAML metadata block from a Markdown source.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the document started with a YAML
// front matter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml front matter start delimiter found but closing delimiter is missing")

// Parts is a source split into metadata and body.
type Parts struct {
	// Raw is the YAML text between the delimiters.
	Raw []byte
	// Body is everything after the closing delimiter.
	Body []byte
	// Had reports whether the source opened with a delimiter.
	Had bool
	// BodyLine is the 1-based line of the source where Body starts.
	BodyLine int
	// Newline is "\n" or "\r\n", detected from the first line break.
	Newline string
}

// Split separates `---` delimited front matter from the Markdown body.
//
// Sources without an opening delimiter return Had=false and the full input as
// Body. An opening delimiter without a closing one is an error.
func Split(content []byte) (Parts, error) {
	nl := detectNewline(content)
	parts := Parts{Body: content, BodyLine: 1, Newline: nl}

	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return parts, nil
	}
	start := len(open)

	var end, bodyStart int
	if bytes.HasPrefix(content[start:], open) {
		end, bodyStart = start, start+len(open)
	} else {
		closeSeq := []byte(nl + "---" + nl)
		idx := bytes.Index(content[start:], closeSeq)
		if idx < 0 {
			// A closing delimiter on the final line without a trailing newline.
			tail := []byte(nl + "---")
			if bytes.HasSuffix(content, tail) && len(content)-len(tail) >= start {
				end, bodyStart = len(content)-len(tail)+len(nl), len(content)
			} else {
				return Parts{Newline: nl}, ErrMissingClosingDelimiter
			}
		} else {
			end = start + idx + len(nl)
			bodyStart = start + idx + len(closeSeq)
		}
	}

	parts.Raw = content[start:end]
	parts.Body = content[bodyStart:]
	parts.Had = true
	parts.BodyLine = 1 + bytes.Count(content[:bodyStart], []byte("\n"))
	return parts, nil
}

// ParseYAML parses raw YAML front matter (without --- delimiters) into a map.
func ParseYAML(raw []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return map[string]any{}, nil
	}
	var fields map[string]any
	if err := yaml.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("front matter: %w", err)
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

func detectNewline(content []byte) string {
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
