package frontmatter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplit_NoFrontmatter_ReturnsBodyOnly(t *testing.T) {
	input := []byte("# Title\n\nHello\n")

	parts, err := Split(input)
	require.NoError(t, err)
	require.False(t, parts.Had)
	require.Empty(t, parts.Raw)
	require.Equal(t, input, parts.Body)
	require.Equal(t, 1, parts.BodyLine)
}

func TestSplit_YAMLFrontmatter_SplitsFrontmatterAndBody(t *testing.T) {
	input := []byte("---\ntitle: Hello\ntags: [a, b]\n---\n# Title\n")

	parts, err := Split(input)
	require.NoError(t, err)
	require.True(t, parts.Had)
	require.Equal(t, []byte("title: Hello\ntags: [a, b]\n"), parts.Raw)
	require.Equal(t, []byte("# Title\n"), parts.Body)
	require.Equal(t, 5, parts.BodyLine)
}

func TestSplit_MissingClosingDelimiter_ReturnsError(t *testing.T) {
	_, err := Split([]byte("---\nkey: value\n# Title\n"))
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrMissingClosingDelimiter))
}

func TestSplit_CRLF_SplitsFrontmatterAndBody(t *testing.T) {
	parts, err := Split([]byte("---\r\nkey: value\r\n---\r\n# Title\r\n"))
	require.NoError(t, err)
	require.True(t, parts.Had)
	require.Equal(t, "\r\n", parts.Newline)
	require.Equal(t, []byte("key: value\r\n"), parts.Raw)
	require.Equal(t, []byte("# Title\r\n"), parts.Body)
}

func TestSplit_EmptyFrontmatterBlock(t *testing.T) {
	parts, err := Split([]byte("---\n---\n# Title\n"))
	require.NoError(t, err)
	require.True(t, parts.Had)
	require.Empty(t, parts.Raw)
	require.Equal(t, []byte("# Title\n"), parts.Body)
	require.Equal(t, 3, parts.BodyLine)
}

func TestSplit_ClosingDelimiterAtEOF(t *testing.T) {
	parts, err := Split([]byte("---\ntitle: x\n---"))
	require.NoError(t, err)
	require.True(t, parts.Had)
	require.Equal(t, []byte("title: x\n"), parts.Raw)
	require.Empty(t, parts.Body)
}

func TestParseYAML(t *testing.T) {
	fields, err := ParseYAML([]byte("title: Hello\ndraft: true\ntags:\n  - go\n"))
	require.NoError(t, err)
	require.Equal(t, "Hello", fields["title"])
	require.Equal(t, true, fields["draft"])
	require.Equal(t, []any{"go"}, fields["tags"])

	empty, err := ParseYAML(nil)
	require.NoError(t, err)
	require.Empty(t, empty)

	_, err = ParseYAML([]byte("title: [unclosed\n"))
	require.Error(t, err)
}

func TestCanonical_SortsKeysRecursively(t *testing.T) {
	out, err := Canonical(map[string]any{
		"zeta":  1,
		"alpha": map[string]any{"b": true, "a": "x"},
	})
	require.NoError(t, err)
	require.Equal(t, "alpha:\n  a: x\n  b: true\nzeta: 1\n", string(out))

	again, err := Canonical(map[string]any{
		"alpha": map[string]any{"a": "x", "b": true},
		"zeta":  1,
	})
	require.NoError(t, err)
	require.Equal(t, out, again)
}
