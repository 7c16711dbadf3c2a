// Package directive holds the generic directive syntax shared by the parser
// and the stages that resolve directives into their semantic targets.
//
// Directive names map onto a closed set of kinds. Anything outside the set
// is KindUnknown and passes through the pipeline untouched.
package directive

import (
	"sort"
	"strings"
)

// LabelAttr marks the paragraph holding a container directive's label. It
// is always the container's first child.
const LabelAttr = "data-directive-label"

// Kind is the closed set of directive kinds stages know how to resolve.
type Kind int

const (
	KindUnknown Kind = iota
	KindCallout
	KindGitHubCard
)

func (k Kind) String() string {
	switch k {
	case KindCallout:
		return "callout"
	case KindGitHubCard:
		return "github-card"
	default:
		return "unknown"
	}
}

// GenericCalloutNames introduce a callout whose kind comes from the type
// attribute.
var GenericCalloutNames = []string{"callout", "admonition", "aside"}

// Classify maps a directive name onto its kind.
func Classify(name string) Kind {
	n := strings.ToLower(name)
	switch {
	case n == "github":
		return KindGitHubCard
	case isGenericCallout(n):
		return KindCallout
	default:
		if _, ok := calloutAliases[n]; ok {
			return KindCallout
		}
		return KindUnknown
	}
}

func isGenericCallout(n string) bool {
	for _, g := range GenericCalloutNames {
		if n == g {
			return true
		}
	}
	return false
}

// CalloutKind is a normalized callout style.
type CalloutKind string

const (
	CalloutNote      CalloutKind = "note"
	CalloutTip       CalloutKind = "tip"
	CalloutImportant CalloutKind = "important"
	CalloutWarning   CalloutKind = "warning"
	CalloutCaution   CalloutKind = "caution"
	CalloutDanger    CalloutKind = "danger"
)

var calloutAliases = map[string]CalloutKind{
	"note":      CalloutNote,
	"info":      CalloutNote,
	"abstract":  CalloutNote,
	"tip":       CalloutTip,
	"hint":      CalloutTip,
	"success":   CalloutTip,
	"important": CalloutImportant,
	"warning":   CalloutWarning,
	"attention": CalloutWarning,
	"caution":   CalloutCaution,
	"danger":    CalloutDanger,
	"error":     CalloutDanger,
	"bug":       CalloutDanger,
}

// NormalizeCallout resolves a callout name or alias. Unknown names fall back
// to note and report ok=false.
func NormalizeCallout(name string) (kind CalloutKind, ok bool) {
	if k, found := calloutAliases[strings.ToLower(strings.TrimSpace(name))]; found {
		return k, true
	}
	return CalloutNote, false
}

// Title returns the default display title of a callout kind.
func (k CalloutKind) Title() string {
	s := string(k)
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// CalloutNames returns every directive name resolved as a callout, sorted.
func CalloutNames() []string {
	names := make([]string, 0, len(calloutAliases)+len(GenericCalloutNames))
	for n := range calloutAliases {
		names = append(names, n)
	}
	names = append(names, GenericCalloutNames...)
	sort.Strings(names)
	return names
}
