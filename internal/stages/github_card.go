package stages

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/mdpipeline/internal/ast"
	"git.home.luguber.info/inful/mdpipeline/internal/directive"
	"git.home.luguber.info/inful/mdpipeline/internal/document"
	"git.home.luguber.info/inful/mdpipeline/internal/foundation/errors"
	"git.home.luguber.info/inful/mdpipeline/internal/lookup"
	"git.home.luguber.info/inful/mdpipeline/internal/transforms"
)

// githubCard expands ::github{repo="owner/repo"} into a repository card.
// Failed lookups render a placeholder card instead of failing the document.
type githubCard struct {
	repos RepoFetcher
}

func (githubCard) Name() string                     { return NameGitHubCard }
func (githubCard) Stage() transforms.TransformStage { return transforms.StageResolve }
func (githubCard) Dependencies() transforms.TransformDependencies {
	return transforms.TransformDependencies{
		Requires:           []string{NameDirectives},
		ModifiesTree:       true,
		PerformsLookups:    true,
		ResolvesDirectives: []string{"github"},
	}
}

func (s githubCard) Transform(ctx context.Context, doc *document.Document) error {
	var err error
	ast.Visit(doc.Tree, func(parent *ast.Node, index int, n *ast.Node) bool {
		if err != nil || parent == nil || n.Kind != ast.KindDirective || directive.Classify(n.Tag) != directive.KindGitHubCard {
			return true
		}
		ref := n.Attrs.Value("repo")
		switch {
		case n.Form != ast.FormLeaf:
			doc.Skip(NameGitHubCard, n, `github cards must be leaf directives: ::github{repo="owner/repo"}`)
			parent.Children[index] = cardError(n, `Invalid directive: use ::github{repo="owner/repo"}`)
			return false
		case !lookup.ValidRef(ref):
			doc.Skip(NameGitHubCard, n, "invalid repository reference "+strconv.Quote(ref))
			parent.Children[index] = cardError(n, "Invalid repository: "+strconv.Quote(ref))
			return false
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
			return false
		}
		parent.Children[index] = s.card(ctx, doc, n, ref)
		return false
	})
	return err
}

func (s githubCard) card(ctx context.Context, doc *document.Document, n *ast.Node, ref string) *ast.Node {
	var (
		repo *lookup.Repo
		err  error
	)
	if s.repos == nil {
		err = errors.LookupFailure("repository lookups are not configured").WithContext("repo", ref).Build()
	} else {
		repo, err = s.repos.Repo(ctx, ref)
	}
	if err != nil {
		doc.AddDiagnostic(NameGitHubCard, n, err)
		out := cardShell(ref, nil)
		out.Attrs.AddClass("fetch-error")
		out.Pos = n.Pos
		return out
	}
	out := cardShell(ref, repo)
	out.Pos = n.Pos
	return out
}

// CardID returns the stable element id of the card for ref.
func CardID(ref string) string {
	return "gc-" + uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/"+ref)).String()
}

// cardShell builds the card markup. A nil repo yields the placeholder.
func cardShell(ref string, repo *lookup.Repo) *ast.Node {
	owner, name, _ := strings.Cut(ref, "/")
	href := "https://github.com/" + ref
	description := "Repository data unavailable"
	var avatar *ast.Node
	if repo != nil {
		if repo.HTMLURL != "" {
			href = repo.HTMLURL
		}
		description = repo.Description
		if description == "" {
			description = "No description provided"
		}
		if repo.Owner.AvatarURL != "" {
			avatar = ast.NewElement("img", ast.Attrs("src", repo.Owner.AvatarURL, "alt", "", "loading", "lazy"))
		}
	}

	avatarBox := ast.NewElement("div", ast.Attrs("class", "gc-avatar"))
	if avatar != nil {
		avatarBox.AppendChild(avatar)
	}
	titlebar := ast.NewElement("div", ast.Attrs("class", "gc-titlebar"),
		ast.NewElement("div", ast.Attrs("class", "gc-titlebar-left"),
			ast.NewElement("div", ast.Attrs("class", "gc-owner"),
				avatarBox,
				ast.NewElement("div", ast.Attrs("class", "gc-user"), ast.NewText(owner))),
			ast.NewElement("div", ast.Attrs("class", "gc-divider"), ast.NewText("/")),
			ast.NewElement("div", ast.Attrs("class", "gc-repo"), ast.NewText(name))),
		ast.NewElement("div", ast.Attrs("class", "github-logo", "aria-hidden", "true")))

	card := ast.NewElement("a", ast.Attrs(
		"id", CardID(ref),
		"class", "card-github no-styling",
		"href", href,
		"target", "_blank",
		"rel", "noopener noreferrer",
		"data-repo", ref),
		titlebar,
		ast.NewElement("div", ast.Attrs("class", "gc-description"), ast.NewText(description)))
	if repo != nil {
		card.AppendChild(infobar(repo))
	}
	return card
}

func infobar(repo *lookup.Repo) *ast.Node {
	bar := ast.NewElement("div", ast.Attrs("class", "gc-infobar"),
		ast.NewElement("div", ast.Attrs("class", "gc-stars"), ast.NewText(CompactNumber(repo.Stars))),
		ast.NewElement("div", ast.Attrs("class", "gc-forks"), ast.NewText(CompactNumber(repo.Forks))))
	if id := repo.LicenseID(); id != "" {
		bar.AppendChild(ast.NewElement("div", ast.Attrs("class", "gc-license"), ast.NewText(id)))
	}
	if repo.Language != "" {
		bar.AppendChild(ast.NewElement("span", ast.Attrs("class", "gc-language"), ast.NewText(repo.Language)))
	}
	return bar
}

// cardError is the visible marker left for a misused github directive.
func cardError(n *ast.Node, msg string) *ast.Node {
	tag := "div"
	if n.Form == ast.FormText {
		tag = "span"
	}
	out := ast.NewElement(tag, ast.Attrs("class", "card-error"), ast.NewText(msg))
	out.Pos = n.Pos
	return out
}

// CardRefs returns the valid repository references of every github card
// directive in the tree, in document order and without duplicates.
func CardRefs(root *ast.Node) []string {
	var refs []string
	seen := make(map[string]bool)
	for _, n := range ast.FindAll(root, func(n *ast.Node) bool {
		return n.Kind == ast.KindDirective && n.Form == ast.FormLeaf && directive.Classify(n.Tag) == directive.KindGitHubCard
	}) {
		ref := n.Attrs.Value("repo")
		if lookup.ValidRef(ref) && !seen[ref] {
			seen[ref] = true
			refs = append(refs, ref)
		}
	}
	return refs
}

// CompactNumber formats counts the way repository pages do: 999, 1.2k, 3.4M.
func CompactNumber(n int) string {
	switch {
	case n < 1000:
		return strconv.Itoa(n)
	case n < 1_000_000:
		return trimZero(strconv.FormatFloat(float64(n)/1000, 'f', 1, 64)) + "k"
	default:
		return trimZero(strconv.FormatFloat(float64(n)/1_000_000, 'f', 1, 64)) + "M"
	}
}

func trimZero(s string) string { return strings.TrimSuffix(s, ".0") }
