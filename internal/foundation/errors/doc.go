// Package errors provides the classified error primitives used across the
// rendering pipeline.
//
// The pipeline taxonomy maps onto categories:
//   - ParseError: CategoryParse, aborts a single document, carries a position
//   - StageSkip: CategoryStage, a node was left untouched and processing went on
//   - LookupFailure: CategoryLookup, an external fetch failed and a placeholder was used
//   - RenderWarning: CategoryRender, output fell back to a default rendering
//
// Example usage:
//
//	err := errors.ParseError("unterminated directive fence").
//		WithPosition("posts/intro.md", 12, 1).
//		Build()
package errors
