package directive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mdpipeline/internal/ast"
)

func TestClassify(t *testing.T) {
	tests := map[string]Kind{
		"note":     KindCallout,
		"WARNING":  KindCallout,
		"callout":  KindCallout,
		"hint":     KindCallout,
		"github":   KindGitHubCard,
		"youtube":  KindUnknown,
		"x:custom": KindUnknown,
	}
	for name, want := range tests {
		assert.Equal(t, want, Classify(name), name)
	}
}

func TestNormalizeCallout(t *testing.T) {
	k, ok := NormalizeCallout("Info")
	assert.True(t, ok)
	assert.Equal(t, CalloutNote, k)

	k, ok = NormalizeCallout("mystery")
	assert.False(t, ok)
	assert.Equal(t, CalloutNote, k)
	assert.Equal(t, "Warning", CalloutWarning.Title())
}

func TestCalloutNames(t *testing.T) {
	names := CalloutNames()
	assert.Contains(t, names, "note")
	assert.Contains(t, names, "admonition")
	assert.NotContains(t, names, "github")
	assert.IsNonDecreasing(t, names)
	for _, n := range names {
		assert.Equal(t, KindCallout, Classify(n), n)
	}
}

func TestScanName(t *testing.T) {
	assert.Equal(t, 4, ScanName("note[x]"))
	assert.Equal(t, 9, ScanName("ns:widget{a}"))
	assert.Equal(t, 2, ScanName("ns: x"))
	assert.Equal(t, 0, ScanName("1abc"))
	assert.Equal(t, 0, ScanName(""))
}

func TestParseHeader(t *testing.T) {
	h, n, ok, err := ParseHeader(`abbr[HTML *markup*]{title="HyperText Markup" .x} rest`)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "abbr", h.Name)
	assert.True(t, h.HasLabel)
	assert.Equal(t, "HTML *markup*", h.Label)
	assert.True(t, h.HasAttrs)
	assert.Equal(t, "HyperText Markup", h.Attrs.Value("title"))
	assert.True(t, h.Attrs.HasClass("x"))
	assert.Equal(t, " rest", `abbr[HTML *markup*]{title="HyperText Markup" .x} rest`[n:])
}

func TestParseHeader_NestedLabelAndErrors(t *testing.T) {
	h, _, ok, err := ParseHeader(`tip[a [nested] label]`)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a [nested] label", h.Label)

	_, _, ok, err = ParseHeader(`tip[open`)
	assert.True(t, ok)
	assert.Error(t, err)

	_, _, ok, err = ParseHeader(`tip{a="x}`)
	assert.True(t, ok)
	assert.Error(t, err)

	_, _, ok, _ = ParseHeader(`[x]`)
	assert.False(t, ok)
}

func TestParseAttributes(t *testing.T) {
	attrs, err := ParseAttributes(`#main .a .b key=value quoted="with space" single='x' flag class="c d"`)
	require.NoError(t, err)

	want := ast.Attributes{
		{Key: "id", Value: "main"},
		{Key: "class", Value: "a b c d"},
		{Key: "key", Value: "value"},
		{Key: "quoted", Value: "with space"},
		{Key: "single", Value: "x"},
		{Key: "flag", Bool: true},
	}
	assert.Equal(t, want, attrs)
}

func TestParseAttributes_Errors(t *testing.T) {
	for _, in := range []string{`# x`, `. x`, `a="open`, `=value`} {
		_, err := ParseAttributes(in)
		assert.Error(t, err, in)
	}
}
