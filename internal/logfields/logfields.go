package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyDocument   = "document"
	KeyStage      = "stage"
	KeyGroup      = "stage_group"
	KeyNode       = "node"
	KeyDirective  = "directive"
	KeyLanguage   = "language"
	KeyReference  = "reference"
	KeyOutcome    = "outcome"
	KeyAttempt    = "attempt"
	KeyPath       = "path"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Document(p string) slog.Attr     { return slog.String(KeyDocument, p) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func Group(name string) slog.Attr     { return slog.String(KeyGroup, name) }
func Node(desc string) slog.Attr      { return slog.String(KeyNode, desc) }
func Directive(name string) slog.Attr { return slog.String(KeyDirective, name) }
func Language(l string) slog.Attr     { return slog.String(KeyLanguage, l) }
func Reference(r string) slog.Attr    { return slog.String(KeyReference, r) }
func Outcome(o string) slog.Attr      { return slog.String(KeyOutcome, o) }
func Attempt(n int) slog.Attr         { return slog.Int(KeyAttempt, n) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
