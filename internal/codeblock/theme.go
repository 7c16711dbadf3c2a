package codeblock

import (
	"fmt"
	"sort"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/styles"

	"git.home.luguber.info/inful/mdpipeline/internal/foundation/errors"
)

// ThemeCSS returns token colours for both themes, each scoped to a
// [data-theme='<name>'] ancestor so a page switches themes by changing one
// attribute without re-rendering code blocks.
func ThemeCSS(light, dark string) (string, error) {
	var sb strings.Builder
	for _, name := range []string{light, dark} {
		style, ok := styles.Registry[name]
		if !ok {
			return "", errors.ConfigError(fmt.Sprintf("unknown code theme %q", name)).Build()
		}
		writeThemeCSS(&sb, name, style)
	}
	return sb.String(), nil
}

func writeThemeCSS(sb *strings.Builder, name string, style *chroma.Style) {
	scope := fmt.Sprintf("[data-theme='%s'] .expressive-code", name)

	bg := style.Get(chroma.Background)
	sb.WriteString(scope + " {")
	if bg.Background.IsSet() {
		sb.WriteString(" --code-background: " + bg.Background.String() + ";")
	}
	if bg.Colour.IsSet() {
		sb.WriteString(" --code-foreground: " + bg.Colour.String() + ";")
	}
	sb.WriteString(" }\n")

	type rule struct{ class, decl string }
	var rules []rule
	for tt, cls := range chroma.StandardTypes {
		if cls == "" || tt < 0 {
			continue
		}
		if decl := entryCSS(style.Get(tt), bg); decl != "" {
			rules = append(rules, rule{class: ClassPrefix + cls, decl: decl})
		}
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].class < rules[j].class })
	for _, r := range rules {
		fmt.Fprintf(sb, "%s .%s { %s }\n", scope, r.class, r.decl)
	}
}

// entryCSS renders the parts of e that differ from the background entry.
func entryCSS(e, bg chroma.StyleEntry) string {
	var decls []string
	if e.Colour.IsSet() && e.Colour != bg.Colour {
		decls = append(decls, "color: "+e.Colour.String())
	}
	if e.Background.IsSet() && e.Background != bg.Background {
		decls = append(decls, "background-color: "+e.Background.String())
	}
	if e.Bold == chroma.Yes {
		decls = append(decls, "font-weight: bold")
	}
	if e.Italic == chroma.Yes {
		decls = append(decls, "font-style: italic")
	}
	if e.Underline == chroma.Yes {
		decls = append(decls, "text-decoration: underline")
	}
	if len(decls) == 0 {
		return ""
	}
	return strings.Join(decls, "; ") + ";"
}
