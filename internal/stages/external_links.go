package stages

import (
	"context"
	"net/url"
	"strings"

	"git.home.luguber.info/inful/mdpipeline/internal/ast"
	"git.home.luguber.info/inful/mdpipeline/internal/document"
	"git.home.luguber.info/inful/mdpipeline/internal/transforms"
)

// externalLinks opens off-site links in a new tab and marks them. Without a
// configured site URL every absolute link counts as off-site.
type externalLinks struct{}

func (externalLinks) Name() string                     { return NameExternalLinks }
func (externalLinks) Stage() transforms.TransformStage { return transforms.StageEnrich }
func (externalLinks) Dependencies() transforms.TransformDependencies {
	return transforms.TransformDependencies{ModifiesTree: true}
}

func (externalLinks) Transform(_ context.Context, doc *document.Document) error {
	cfg := configOf(doc)
	site := siteHost(cfg.Site.URL)
	label := cfg.I18n.ExternalLink

	_ = ast.Walk(doc.Tree, func(n *ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || !n.IsElement("a") {
			return ast.WalkContinue, nil
		}
		if n.Attrs.HasClass("external-link") || n.Attrs.HasClass("card-github") {
			return ast.WalkSkipChildren, nil
		}
		if !IsExternal(n.Attrs.Value("href"), site) {
			return ast.WalkContinue, nil
		}
		n.Attrs.Set("target", "_blank")
		n.Attrs.Set("rel", "noopener noreferrer")
		n.Attrs.AddClass("external-link")
		n.AppendChild(ast.NewElement("span", ast.Attrs("class", "external-link-icon", "aria-hidden", "true")))
		if label != "" {
			n.AppendChild(ast.NewElement("span", ast.Attrs("class", "sr-only"), ast.NewText(" "+label)))
		}
		return ast.WalkSkipChildren, nil
	})
	return nil
}

func siteHost(siteURL string) string {
	if siteURL == "" {
		return ""
	}
	u, err := url.Parse(siteURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// IsExternal reports whether href points at a host other than site. Relative
// links, fragments and non-web schemes are never external.
func IsExternal(href, site string) bool {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil || u.Host == "" {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https", "":
	default:
		return false
	}
	return site == "" || !strings.EqualFold(u.Hostname(), site)
}
