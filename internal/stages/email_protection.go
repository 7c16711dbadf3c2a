package stages

import (
	"context"
	"encoding/base64"
	"regexp"
	"strings"

	"git.home.luguber.info/inful/mdpipeline/internal/ast"
	"git.home.luguber.info/inful/mdpipeline/internal/config"
	"git.home.luguber.info/inful/mdpipeline/internal/document"
	"git.home.luguber.info/inful/mdpipeline/internal/foundation/errors"
	"git.home.luguber.info/inful/mdpipeline/internal/transforms"
)

var emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9-]+(?:\.[A-Za-z0-9-]+)*\.[A-Za-z]{2,}`)

// emailProtection replaces mailto links and bare addresses with links whose
// target is encoded. A client script decodes data-email on click.
type emailProtection struct{}

func (emailProtection) Name() string                     { return NameEmailProtection }
func (emailProtection) Stage() transforms.TransformStage { return transforms.StageEnrich }
func (emailProtection) Dependencies() transforms.TransformDependencies {
	return transforms.TransformDependencies{
		MustRunAfter: []string{NameExternalLinks},
		ModifiesTree: true,
	}
}

func (emailProtection) Transform(_ context.Context, doc *document.Document) error {
	method := configOf(doc).Email.Method
	protectLinks(doc.Tree, method)
	rewriteChildren(doc.Tree, func(parent *ast.Node, children []*ast.Node) []*ast.Node {
		if !scanForEmails(parent) {
			return children
		}
		out := make([]*ast.Node, 0, len(children))
		for _, c := range children {
			if c.Kind != ast.KindText {
				out = append(out, c)
				continue
			}
			out = append(out, splitEmails(c.Value, method)...)
		}
		return out
	})
	return nil
}

func protectLinks(root *ast.Node, method config.EmailMethod) {
	_ = ast.Walk(root, func(n *ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || !n.IsElement("a") {
			return ast.WalkContinue, nil
		}
		href := n.Attrs.Value("href")
		if !strings.HasPrefix(strings.ToLower(href), "mailto:") {
			return ast.WalkSkipChildren, nil
		}
		addr, _, _ := strings.Cut(href[len("mailto:"):], "?")
		if strings.TrimSpace(n.TextContent()) == addr {
			n.Children = []*ast.Node{ast.NewText(Obfuscate(addr))}
		}
		n.Attrs.Set("href", "#")
		n.Attrs.AddClass("protected-email")
		n.Attrs.Set("data-email", Encode(addr, method))
		n.Attrs.Set("data-email-method", string(method))
		return ast.WalkSkipChildren, nil
	})
}

// scanForEmails reports whether text directly under n may hold addresses.
// Links and code are left alone.
func scanForEmails(n *ast.Node) bool {
	switch n.Kind {
	case ast.KindRoot, ast.KindDirective:
		return true
	case ast.KindElement:
		return !n.IsElement("a", "code", "pre", "kbd", "script", "style") && !decorative(n)
	default:
		return false
	}
}

func splitEmails(s string, method config.EmailMethod) []*ast.Node {
	matches := emailPattern.FindAllStringIndex(s, -1)
	if matches == nil {
		return []*ast.Node{ast.NewText(s)}
	}
	var out []*ast.Node
	last := 0
	for _, m := range matches {
		if m[0] > last {
			out = append(out, ast.NewText(s[last:m[0]]))
		}
		out = append(out, protectedEmail(s[m[0]:m[1]], method))
		last = m[1]
	}
	if last < len(s) {
		out = append(out, ast.NewText(s[last:]))
	}
	return out
}

func protectedEmail(addr string, method config.EmailMethod) *ast.Node {
	return ast.NewElement("a", ast.Attrs(
		"href", "#",
		"class", "protected-email",
		"data-email", Encode(addr, method),
		"data-email-method", string(method)),
		ast.NewText(Obfuscate(addr)))
}

// Obfuscate returns the human-readable display form: "a [at] b [dot] c".
func Obfuscate(addr string) string {
	return strings.NewReplacer("@", " [at] ", ".", " [dot] ").Replace(addr)
}

// Encode applies the reversible email encoding.
func Encode(addr string, method config.EmailMethod) string {
	if method == config.EmailROT13 {
		return rot13(addr)
	}
	return base64.StdEncoding.EncodeToString([]byte(addr))
}

// decode reverses Encode.
func decode(encoded string, method config.EmailMethod) (string, error) {
	if method == config.EmailROT13 {
		return rot13(encoded), nil
	}
	b, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", errors.ValidationError("invalid encoded email").WithCause(err).Build()
	}
	return string(b), nil
}

func rot13(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return 'a' + (r-'a'+13)%26
		case r >= 'A' && r <= 'Z':
			return 'A' + (r-'A'+13)%26
		default:
			return r
		}
	}, s)
}
