package transforms

import (
	"encoding/json"
	"fmt"
	"strings"
)

// VisualizationFormat represents the output format for pipeline visualization.
type VisualizationFormat string

const (
	FormatText    VisualizationFormat = "text"
	FormatMermaid VisualizationFormat = "mermaid"
	FormatDOT     VisualizationFormat = "dot"
	FormatJSON    VisualizationFormat = "json"
)

// Visualize renders an ordered pipeline, as returned by Registry.Build.
func Visualize(pipeline []Transformer, format VisualizationFormat) (string, error) {
	switch format {
	case FormatText:
		return visualizeText(pipeline), nil
	case FormatMermaid:
		return visualizeMermaid(pipeline), nil
	case FormatDOT:
		return visualizeDOT(pipeline), nil
	case FormatJSON:
		return visualizeJSON(pipeline)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// SupportedFormats returns a list of supported visualization formats.
func SupportedFormats() []VisualizationFormat {
	return []VisualizationFormat{FormatText, FormatMermaid, FormatDOT, FormatJSON}
}

// FormatDescription returns a description of a visualization format.
func FormatDescription(format VisualizationFormat) string {
	descriptions := map[VisualizationFormat]string{
		FormatText:    "Human-readable text with ASCII art",
		FormatMermaid: "Mermaid diagram (for GitHub, GitLab, etc.)",
		FormatDOT:     "Graphviz DOT format (render with `dot -Tpng stages.dot -o stages.png`)",
		FormatJSON:    "Structured JSON representation",
	}
	return descriptions[format]
}

func groupByStage(pipeline []Transformer) map[TransformStage][]Transformer {
	byStage := make(map[TransformStage][]Transformer)
	for _, t := range pipeline {
		byStage[t.Stage()] = append(byStage[t.Stage()], t)
	}
	return byStage
}

// edges returns the ordering edges whose both ends are in the pipeline.
func edges(pipeline []Transformer) [][2]string {
	present := make(map[string]bool, len(pipeline))
	for _, t := range pipeline {
		present[t.Name()] = true
	}
	var out [][2]string
	for _, t := range pipeline {
		deps := t.Dependencies()
		for _, dep := range deps.after() {
			if present[dep] {
				out = append(out, [2]string{dep, t.Name()})
			}
		}
		for _, after := range deps.MustRunBefore {
			if present[after] {
				out = append(out, [2]string{t.Name(), after})
			}
		}
	}
	return out
}

func visualizeText(pipeline []Transformer) string {
	var sb strings.Builder

	sb.WriteString("Transform Pipeline Visualization\n")
	sb.WriteString("=================================\n\n")

	byStage := groupByStage(pipeline)
	for i, stage := range StageOrder {
		stageTransforms := byStage[stage]
		if len(stageTransforms) == 0 {
			continue
		}

		sb.WriteString(fmt.Sprintf("┌─ Stage %d: %s\n", i+1, stage))
		sb.WriteString("│\n")

		for j, t := range stageTransforms {
			deps := t.Dependencies()
			isLast := j == len(stageTransforms)-1

			prefix, connector := "├──", "│   "
			if isLast {
				prefix, connector = "└──", "    "
			}
			sb.WriteString(fmt.Sprintf("│ %s [%s]\n", prefix, t.Name()))

			if after := deps.after(); len(after) > 0 {
				sb.WriteString(fmt.Sprintf("│ %s   ⤷ depends on: %s\n", connector, strings.Join(after, ", ")))
			}
			if len(deps.MustRunBefore) > 0 {
				sb.WriteString(fmt.Sprintf("│ %s   ⤶ required before: %s\n", connector, strings.Join(deps.MustRunBefore, ", ")))
			}
		}

		sb.WriteString("│\n")
		if i < len(StageOrder)-1 {
			sb.WriteString("↓\n")
		}
	}

	sb.WriteString(fmt.Sprintf("\nTotal: %d transforms across %d stages\n", len(pipeline), len(byStage)))
	return sb.String()
}

func mermaidID(name string) string {
	return strings.NewReplacer("_", "", "-", "").Replace(name)
}

func visualizeMermaid(pipeline []Transformer) string {
	var sb strings.Builder

	sb.WriteString("```mermaid\n")
	sb.WriteString("graph TD\n")

	byStage := groupByStage(pipeline)
	for _, stage := range StageOrder {
		stageTransforms := byStage[stage]
		if len(stageTransforms) == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("    subgraph %s[\"Stage: %s\"]\n", stage, stage))
		for _, t := range stageTransforms {
			sb.WriteString(fmt.Sprintf("        %s[\"%s\"]\n", mermaidID(t.Name()), t.Name()))
		}
		sb.WriteString("    end\n")
	}

	sb.WriteString("\n")
	for _, e := range edges(pipeline) {
		sb.WriteString(fmt.Sprintf("    %s --> %s\n", mermaidID(e[0]), mermaidID(e[1])))
	}

	sb.WriteString("```\n")
	return sb.String()
}

func visualizeDOT(pipeline []Transformer) string {
	var sb strings.Builder

	sb.WriteString("digraph TransformPipeline {\n")
	sb.WriteString("    rankdir=TB;\n")
	sb.WriteString("    node [shape=box, style=rounded];\n\n")

	byStage := groupByStage(pipeline)
	for i, stage := range StageOrder {
		stageTransforms := byStage[stage]
		if len(stageTransforms) == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("    subgraph cluster_%d {\n", i))
		sb.WriteString(fmt.Sprintf("        label=\"Stage: %s\";\n", stage))
		sb.WriteString("        style=filled;\n")
		sb.WriteString("        color=lightgrey;\n\n")
		for _, t := range stageTransforms {
			sb.WriteString(fmt.Sprintf("        %q;\n", t.Name()))
		}
		sb.WriteString("    }\n\n")
	}

	for _, e := range edges(pipeline) {
		sb.WriteString(fmt.Sprintf("    %q -> %q;\n", e[0], e[1]))
	}

	sb.WriteString("}\n")
	return sb.String()
}

type jsonTransform struct {
	Name          string   `json:"name"`
	Stage         string   `json:"stage"`
	Order         int      `json:"order"`
	MustRunAfter  []string `json:"mustRunAfter"`
	MustRunBefore []string `json:"mustRunBefore"`
	Requires      []string `json:"requires"`
	Resolves      []string `json:"resolvesDirectives,omitempty"`
}

type jsonPipeline struct {
	Transforms      []jsonTransform `json:"transforms"`
	TotalTransforms int             `json:"totalTransforms"`
	TotalStages     int             `json:"totalStages"`
}

func visualizeJSON(pipeline []Transformer) (string, error) {
	out := jsonPipeline{Transforms: make([]jsonTransform, 0, len(pipeline)), TotalTransforms: len(pipeline)}
	for i, t := range pipeline {
		deps := t.Dependencies()
		out.Transforms = append(out.Transforms, jsonTransform{
			Name:          t.Name(),
			Stage:         string(t.Stage()),
			Order:         i + 1,
			MustRunAfter:  nonNil(deps.MustRunAfter),
			MustRunBefore: nonNil(deps.MustRunBefore),
			Requires:      nonNil(deps.Requires),
			Resolves:      deps.ResolvesDirectives,
		})
	}
	out.TotalStages = len(groupByStage(pipeline))

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data) + "\n", nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
