package transforms

import (
	"context"
	"strings"
	"testing"

	"git.home.luguber.info/inful/mdpipeline/internal/document"
)

// Mock transformer for testing
type mockTransformer struct {
	name         string
	stage        TransformStage
	dependencies TransformDependencies
	fn           func(ctx context.Context, doc *document.Document) error
}

func (m mockTransformer) Name() string                        { return m.name }
func (m mockTransformer) Stage() TransformStage               { return m.stage }
func (m mockTransformer) Dependencies() TransformDependencies { return m.dependencies }
func (m mockTransformer) Transform(ctx context.Context, doc *document.Document) error {
	if m.fn == nil {
		return nil
	}
	return m.fn(ctx, doc)
}

func names(ts []Transformer) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Name()
	}
	return out
}

// TestTopologicalSort_Simple tests basic linear dependencies
func TestTopologicalSort_Simple(t *testing.T) {
	transforms := []Transformer{
		mockTransformer{name: "third", stage: StageStructure, dependencies: TransformDependencies{MustRunAfter: []string{"second"}}},
		mockTransformer{name: "first", stage: StageStructure},
		mockTransformer{name: "second", stage: StageStructure, dependencies: TransformDependencies{MustRunAfter: []string{"first"}}},
	}

	result, err := topologicalSort(transforms)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got := strings.Join(names(result), ","); got != "first,second,third" {
		t.Errorf("Expected first,second,third, got %s", got)
	}
}

// TestTopologicalSort_ComplexGraph tests a diamond dependency graph
func TestTopologicalSort_ComplexGraph(t *testing.T) {
	transforms := []Transformer{
		mockTransformer{name: "d", stage: StageStructure, dependencies: TransformDependencies{MustRunAfter: []string{"b", "c"}}},
		mockTransformer{name: "c", stage: StageStructure, dependencies: TransformDependencies{MustRunAfter: []string{"a"}}},
		mockTransformer{name: "b", stage: StageStructure, dependencies: TransformDependencies{MustRunAfter: []string{"a"}}},
		mockTransformer{name: "a", stage: StageStructure},
	}

	result, err := topologicalSort(transforms)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got := strings.Join(names(result), ","); got != "a,b,c,d" {
		t.Errorf("Expected a,b,c,d, got %s", got)
	}
}

func TestTopologicalSort_MustRunBeforeAndRequires(t *testing.T) {
	transforms := []Transformer{
		mockTransformer{name: "sectionize", stage: StageStructure, dependencies: TransformDependencies{MustRunAfter: []string{"heading_anchors"}}},
		mockTransformer{name: "heading_anchors", stage: StageStructure, dependencies: TransformDependencies{Requires: []string{"slug"}}},
		mockTransformer{name: "slug", stage: StageStructure},
		mockTransformer{name: "image_grid", stage: StageStructure, dependencies: TransformDependencies{MustRunBefore: []string{"figure"}}},
		mockTransformer{name: "figure", stage: StageStructure},
	}

	result, err := topologicalSort(transforms)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	got := strings.Join(names(result), ",")
	if got != "image_grid,figure,slug,heading_anchors,sectionize" {
		t.Errorf("unexpected order %s", got)
	}
}

func TestTopologicalSort_Cycle(t *testing.T) {
	transforms := []Transformer{
		mockTransformer{name: "a", stage: StageStructure, dependencies: TransformDependencies{MustRunAfter: []string{"b"}}},
		mockTransformer{name: "b", stage: StageStructure, dependencies: TransformDependencies{MustRunAfter: []string{"a"}}},
		mockTransformer{name: "c", stage: StageStructure},
	}

	_, err := topologicalSort(transforms)
	if err == nil {
		t.Fatal("Expected cycle error")
	}
	if !strings.Contains(err.Error(), "circular dependency") || !strings.Contains(err.Error(), "[a b]") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestTopologicalSort_Duplicate(t *testing.T) {
	_, err := topologicalSort([]Transformer{
		mockTransformer{name: "a", stage: StageStructure},
		mockTransformer{name: "a", stage: StageStructure},
	})
	if err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestBuildPipeline_GroupsByStage(t *testing.T) {
	transforms := []Transformer{
		mockTransformer{name: "unique_ids", stage: StageFinalize},
		mockTransformer{name: "code_blocks", stage: StageHighlight},
		mockTransformer{name: "callouts", stage: StageResolve, dependencies: TransformDependencies{Requires: []string{"directives"}}},
		mockTransformer{name: "directives", stage: StageResolve},
		mockTransformer{name: "reading_time", stage: StageAnalyze},
		mockTransformer{name: "external_links", stage: StageEnrich},
		mockTransformer{name: "slug", stage: StageStructure},
	}

	result, err := BuildPipeline(transforms)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	want := "reading_time,directives,callouts,slug,external_links,code_blocks,unique_ids"
	if got := strings.Join(names(result), ","); got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}
}

func TestBuildPipeline_CrossStageContradiction(t *testing.T) {
	_, err := BuildPipeline([]Transformer{
		mockTransformer{name: "diagram", stage: StageResolve, dependencies: TransformDependencies{MustRunAfter: []string{"code_blocks"}}},
		mockTransformer{name: "code_blocks", stage: StageHighlight},
	})
	if err == nil || !strings.Contains(err.Error(), "later stage") {
		t.Fatalf("expected stage contradiction, got %v", err)
	}

	_, err = BuildPipeline([]Transformer{
		mockTransformer{name: "diagram", stage: StageResolve, dependencies: TransformDependencies{MustRunBefore: []string{"code_blocks"}}},
		mockTransformer{name: "code_blocks", stage: StageHighlight},
	})
	if err != nil {
		t.Fatalf("forward cross-stage constraint should be accepted: %v", err)
	}
}

func TestBuildPipeline_InvalidStage(t *testing.T) {
	_, err := BuildPipeline([]Transformer{mockTransformer{name: "x", stage: "bogus"}})
	if err == nil {
		t.Fatal("expected invalid stage error")
	}
}
