package stages

import (
	"context"

	"git.home.luguber.info/inful/mdpipeline/internal/document"
	"git.home.luguber.info/inful/mdpipeline/internal/foundation/errors"
	"git.home.luguber.info/inful/mdpipeline/internal/transforms"
)

// gitDates sets Meta.Updated from the last commit touching the source.
// An explicit updated field in front matter wins.
type gitDates struct {
	dates DateSource
}

func (gitDates) Name() string                     { return NameGitDates }
func (gitDates) Stage() transforms.TransformStage { return transforms.StageAnalyze }
func (gitDates) Dependencies() transforms.TransformDependencies {
	return transforms.TransformDependencies{ProducesMetadata: true, PerformsLookups: true}
}

func (s gitDates) Transform(_ context.Context, doc *document.Document) error {
	if s.dates == nil || doc.Path == "" {
		return nil
	}
	if _, ok := doc.FrontMatter["updated"]; ok {
		return nil
	}
	t, ok, err := s.dates.LastModified(doc.Path)
	if err != nil {
		return errors.StageSkip(NameGitDates, "last commit lookup failed").WithCause(err).Build()
	}
	if ok {
		doc.Meta.Updated = &t
	}
	return nil
}
