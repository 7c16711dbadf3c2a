// Package stages implements the semantic document transforms.
//
// Each stage owns one concern and declares its ordering constraints. The
// catalog is registered once per pipeline; Enabled selects the capability
// set from configuration.
package stages

import (
	"context"
	"slices"
	"time"

	"git.home.luguber.info/inful/mdpipeline/internal/config"
	"git.home.luguber.info/inful/mdpipeline/internal/lookup"
	"git.home.luguber.info/inful/mdpipeline/internal/transforms"
)

// Stage names.
const (
	NameReadingTime     = "reading_time"
	NameExcerpt         = "excerpt"
	NameGitDates        = "git_dates"
	NameDirectives      = "directives"
	NameCallouts        = "callouts"
	NameGitHubCard      = "github_card"
	NameDiagram         = "diagram"
	NameMath            = "math"
	NameImageGrid       = "image_grid"
	NameFigure          = "figure"
	NameSlug            = "slug"
	NameHeadingAnchors  = "heading_anchors"
	NameSectionize      = "sectionize"
	NameExternalLinks   = "external_links"
	NameEmailProtection = "email_protection"
	NameCodeBlocks      = "code_blocks"
	NameUniqueIDs       = "unique_ids"
)

// RepoFetcher looks up repository data for cards.
type RepoFetcher interface {
	Repo(ctx context.Context, ref string) (*lookup.Repo, error)
}

// DateSource reports when a source file last changed.
type DateSource interface {
	LastModified(path string) (time.Time, bool, error)
}

// DiagramRenderer turns diagram source into SVG markup.
type DiagramRenderer interface {
	Render(ctx context.Context, lang, source string) (string, error)
}

// Deps are the collaborators of stages that reach outside the document.
// Nil collaborators degrade their stage to placeholders or a no-op.
type Deps struct {
	Repos    RepoFetcher
	Dates    DateSource
	Diagrams DiagramRenderer
}

// Catalog returns every stage.
func Catalog(deps Deps) []transforms.Transformer {
	return []transforms.Transformer{
		readingTime{},
		excerpt{},
		gitDates{dates: deps.Dates},
		directives{},
		callouts{},
		githubCard{repos: deps.Repos},
		diagram{renderer: deps.Diagrams},
		mathSpans{},
		imageGrid{},
		figure{},
		slug{},
		headingAnchors{},
		sectionize{},
		externalLinks{},
		emailProtection{},
		codeBlocks{},
		uniqueIDs{},
	}
}

// NewRegistry registers the catalog.
func NewRegistry(deps Deps) (*transforms.Registry, error) {
	return transforms.NewRegistry(Catalog(deps)...)
}

// optional stages are off unless enabled by configuration.
var optional = []string{NameGitDates}

// Enabled returns the configured capability set in catalog order: every
// stage except the optional ones, plus pipeline.enable, minus
// pipeline.disable. Names unknown to the catalog are kept so the registry
// can report them.
func Enabled(cfg *config.Config) []string {
	var out []string
	for _, t := range Catalog(Deps{}) {
		name := t.Name()
		on := !slices.Contains(optional, name)
		if name == NameGitDates && cfg.Git.Dates {
			on = true
		}
		if slices.Contains(cfg.Pipeline.Enable, name) {
			on = true
		}
		if slices.Contains(cfg.Pipeline.Disable, name) {
			on = false
		}
		if on {
			out = append(out, name)
		}
	}
	for _, name := range cfg.Pipeline.Enable {
		if !slices.Contains(out, name) && !slices.Contains(cfg.Pipeline.Disable, name) {
			if _, known := catalogNames()[name]; !known {
				out = append(out, name)
			}
		}
	}
	return out
}

func catalogNames() map[string]struct{} {
	names := make(map[string]struct{})
	for _, t := range Catalog(Deps{}) {
		names[t.Name()] = struct{}{}
	}
	return names
}
