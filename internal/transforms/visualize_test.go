package transforms

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVisualize_AllFormats(t *testing.T) {
	r := sampleRegistry(t)
	pipeline, err := r.Build(nil)
	require.NoError(t, err)

	text, err := Visualize(pipeline, FormatText)
	require.NoError(t, err)
	assert.Contains(t, text, "Stage 2: resolve")
	assert.Contains(t, text, "[callouts]")
	assert.Contains(t, text, "depends on: directives")
	assert.Contains(t, text, "Total: 5 transforms across 2 stages")

	mermaid, err := Visualize(pipeline, FormatMermaid)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(mermaid, "```mermaid\ngraph TD\n"))
	assert.Contains(t, mermaid, "slug --> headinganchors")

	dot, err := Visualize(pipeline, FormatDOT)
	require.NoError(t, err)
	assert.Contains(t, dot, `"heading_anchors" -> "sectionize";`)

	raw, err := Visualize(pipeline, FormatJSON)
	require.NoError(t, err)
	var decoded jsonPipeline
	require.NoError(t, json.Unmarshal([]byte(raw), &decoded))
	assert.Equal(t, 5, decoded.TotalTransforms)
	assert.Equal(t, 2, decoded.TotalStages)
	assert.Equal(t, "directives", decoded.Transforms[0].Name)
	assert.Equal(t, []string{"note", "tip"}, decoded.Transforms[1].Resolves)

	_, err = Visualize(pipeline, "svg")
	assert.Error(t, err)
}

func TestVisualize_EdgesOnlyBetweenEnabled(t *testing.T) {
	r := sampleRegistry(t)
	pipeline, err := r.Build([]string{"sectionize"})
	require.NoError(t, err)
	dot, err := Visualize(pipeline, FormatDOT)
	require.NoError(t, err)
	assert.NotContains(t, dot, "->")
}

func TestFormatDescriptions(t *testing.T) {
	for _, f := range SupportedFormats() {
		assert.NotEmpty(t, FormatDescription(f), f)
	}
}
