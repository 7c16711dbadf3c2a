package markdown

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
)

// Edit replaces source[Start:End] with Replacement.
type Edit struct {
	Start       int
	End         int
	Replacement []byte
}

// ApplyEdits applies non-overlapping byte-range edits to source. Edits are
// applied back to front so earlier offsets stay valid.
func ApplyEdits(source []byte, edits []Edit) ([]byte, error) {
	if len(edits) == 0 {
		return source, nil
	}

	sorted := make([]Edit, len(edits))
	copy(sorted, edits)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start == sorted[j].Start {
			return sorted[i].End > sorted[j].End
		}
		return sorted[i].Start > sorted[j].Start
	})

	for i, e := range sorted {
		if e.Start < 0 || e.End < e.Start || e.End > len(source) {
			return nil, fmt.Errorf("invalid edit[%d]: range [%d,%d) out of bounds", i, e.Start, e.End)
		}
		if i > 0 && e.End > sorted[i-1].Start {
			return nil, errors.New("invalid edits: overlapping ranges")
		}
	}

	out := append([]byte(nil), source...)
	for _, e := range sorted {
		next := make([]byte, 0, len(out)-(e.End-e.Start)+len(e.Replacement))
		next = append(next, out[:e.Start]...)
		next = append(next, e.Replacement...)
		next = append(next, out[e.End:]...)
		out = next
	}
	return out, nil
}

// ESMEdits finds top-level MDX `import`/`export` statements. A statement
// starts at column zero and runs until the next blank line. Each edit blanks
// the statement with spaces but keeps its line breaks so source positions
// stay valid.
func ESMEdits(src []byte) []Edit {
	var edits []Edit
	var fence []byte
	start := -1

	flush := func(end int) {
		if start >= 0 {
			edits = append(edits, Edit{Start: start, End: end, Replacement: keepNewlines(src[start:end])})
			start = -1
		}
	}

	for off := 0; off < len(src); {
		end := bytes.IndexByte(src[off:], '\n')
		if end < 0 {
			end = len(src)
		} else {
			end += off + 1
		}
		line := src[off:end]
		trimmed := bytes.TrimLeft(line, " ")

		switch {
		case fence != nil:
			if bytes.HasPrefix(trimmed, fence) {
				fence = nil
			}
		case start >= 0:
			if len(bytes.TrimSpace(line)) == 0 {
				flush(off)
			}
		case bytes.HasPrefix(trimmed, []byte("```")), bytes.HasPrefix(trimmed, []byte("~~~")):
			fence = trimmed[:3]
		case bytes.HasPrefix(line, []byte("import ")), bytes.HasPrefix(line, []byte("export ")):
			start = off
		}
		off = end
	}
	flush(len(src))
	return edits
}

// StripESM blanks MDX import/export statements. The result has the same
// length as src so byte offsets still point at the original source.
func StripESM(src []byte) []byte {
	out, err := ApplyEdits(src, ESMEdits(src))
	if err != nil {
		return src
	}
	return out
}

// keepNewlines replaces every byte except line breaks with a space.
func keepNewlines(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		if c == '\n' || c == '\r' {
			out[i] = c
		} else {
			out[i] = ' '
		}
	}
	return out
}
