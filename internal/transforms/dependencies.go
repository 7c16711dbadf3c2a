// Package transforms holds the ordered registry of document transform stages.
//
// Transformers declare their stage group and explicit ordering constraints.
// The registry resolves the enabled set into a static execution order once,
// when the pipeline is constructed.
package transforms

import (
	"context"

	"git.home.luguber.info/inful/mdpipeline/internal/document"
)

// TransformStage represents a major phase in the transformation pipeline.
// Stages execute in the order defined by StageOrder.
type TransformStage string

const (
	// StageAnalyze derives page metadata without touching the tree (reading time, excerpt)
	StageAnalyze TransformStage = "analyze"

	// StageResolve turns directives and special spans into semantic nodes (callouts, cards, math)
	StageResolve TransformStage = "resolve"

	// StageStructure reshapes the tree (slugs, anchors, sections, image grids)
	StageStructure TransformStage = "structure"

	// StageEnrich annotates existing nodes (external links, email protection)
	StageEnrich TransformStage = "enrich"

	// StageHighlight renders fenced code blocks
	StageHighlight TransformStage = "highlight"

	// StageFinalize performs whole-tree post-processing (id de-duplication)
	StageFinalize TransformStage = "finalize"
)

// StageOrder defines the execution order of transformation stages.
var StageOrder = []TransformStage{
	StageAnalyze,
	StageResolve,
	StageStructure,
	StageEnrich,
	StageHighlight,
	StageFinalize,
}

// Transformer is a single named document transform.
//
// Transform must be idempotent: running it on its own output changes nothing.
// A returned error never aborts the document; the runner records it as a
// skipped stage and restores the tree.
type Transformer interface {
	// Name returns the unique identifier for this transformer (lowercase snake_case)
	Name() string

	// Stage returns the pipeline stage where this transform executes
	Stage() TransformStage

	// Dependencies declares ordering constraints and capabilities
	Dependencies() TransformDependencies

	// Transform mutates doc.Tree and doc.Meta
	Transform(ctx context.Context, doc *document.Document) error
}

// TransformDependencies declares explicit ordering constraints and capabilities.
type TransformDependencies struct {
	// MustRunAfter lists transforms that must complete before this one when
	// both are enabled.
	MustRunAfter []string

	// MustRunBefore lists transforms that must run after this one when both
	// are enabled.
	MustRunBefore []string

	// Requires lists transforms that must be enabled whenever this one is.
	// Each entry also implies MustRunAfter.
	Requires []string

	// --- Capability Flags (for documentation and validation) ---

	// ModifiesTree indicates this transform changes the visible tree
	ModifiesTree bool

	// ProducesMetadata indicates this transform writes Document.Meta
	ProducesMetadata bool

	// PerformsLookups indicates this transform may block on external data
	PerformsLookups bool

	// ResolvesDirectives lists the directive names this transform consumes.
	// A directive name is resolved by at most one enabled transform.
	ResolvesDirectives []string
}

func (d TransformDependencies) after() []string {
	if len(d.Requires) == 0 {
		return d.MustRunAfter
	}
	out := append([]string{}, d.MustRunAfter...)
	for _, r := range d.Requires {
		if !contains(out, r) {
			out = append(out, r)
		}
	}
	return out
}

// StageIndex returns the numeric index of a stage in StageOrder.
// Returns -1 if the stage is not found.
func StageIndex(stage TransformStage) int {
	for i, s := range StageOrder {
		if s == stage {
			return i
		}
	}
	return -1
}

// IsValidStage returns true if the stage is defined in StageOrder.
func IsValidStage(stage TransformStage) bool {
	return StageIndex(stage) >= 0
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
