// Package document holds the per-source unit of work threaded through the
// transform stages.
package document

import (
	"fmt"
	"time"

	"git.home.luguber.info/inful/mdpipeline/internal/ast"
	"git.home.luguber.info/inful/mdpipeline/internal/config"
	"git.home.luguber.info/inful/mdpipeline/internal/foundation/errors"
)

// Document is created per source file, passed by reference through every
// stage and discarded after rendering.
type Document struct {
	Path   string
	Source []byte
	// Body is Source without the front matter block.
	Body []byte
	// BodyLine is the 1-based line of Source where Body starts.
	BodyLine    int
	FrontMatter map[string]any

	Tree        *ast.Node
	Meta        Meta
	Diagnostics []Diagnostic

	Config *config.Config
}

// Meta is page-level metadata derived by the metadata stages.
type Meta struct {
	ReadingTime ReadingTime    `json:"reading_time"`
	Excerpt     string         `json:"excerpt,omitempty"`
	Updated     *time.Time     `json:"updated,omitempty"`
	Headings    []Heading      `json:"headings,omitempty"`
	Directives  map[string]int `json:"directives,omitempty"`
}

// ReadingTime is the reading time estimate of a document.
type ReadingTime struct {
	Words   int    `json:"words"`
	Minutes int    `json:"minutes"`
	Text    string `json:"text"`
}

// Heading is a table-of-contents entry.
type Heading struct {
	Depth int    `json:"depth"`
	Slug  string `json:"slug"`
	Text  string `json:"text"`
}

// Diagnostic is a non-fatal problem recorded while transforming.
type Diagnostic struct {
	Stage string
	Node  string
	Err   *errors.ClassifiedError
}

func (d Diagnostic) String() string {
	if d.Node != "" {
		return fmt.Sprintf("%s (%s): %v", d.Stage, d.Node, d.Err)
	}
	return fmt.Sprintf("%s: %v", d.Stage, d.Err)
}

// New creates a document for a source already split into front matter and body.
func New(path string, source, body []byte, bodyLine int, fm map[string]any, cfg *config.Config) *Document {
	if fm == nil {
		fm = map[string]any{}
	}
	return &Document{
		Path:        path,
		Source:      source,
		Body:        body,
		BodyLine:    bodyLine,
		FrontMatter: fm,
		Config:      cfg,
	}
}

// AddDiagnostic records err for stage. Unclassified errors become StageSkip.
func (d *Document) AddDiagnostic(stage string, n *ast.Node, err error) {
	if err == nil {
		return
	}
	ce, ok := errors.AsClassified(err)
	if !ok {
		ce = errors.StageSkip(stage, err.Error()).WithCause(err).Build()
	}
	diag := Diagnostic{Stage: stage, Err: ce}
	if n != nil {
		diag.Node = Describe(n)
		if _, has := ce.Context().Get(errors.ContextLine); !has && !n.Pos.IsZero() {
			ce = ce.WithContext(errors.ContextFile, d.Path).
				WithContext(errors.ContextLine, n.Pos.Line).
				WithContext(errors.ContextColumn, n.Pos.Column)
			diag.Err = ce
		}
	}
	d.Diagnostics = append(d.Diagnostics, diag)
}

// Skip records that stage left n untouched.
func (d *Document) Skip(stage string, n *ast.Node, msg string) {
	d.AddDiagnostic(stage, n, errors.StageSkip(stage, msg).Build())
}

// Degraded reports whether the output contains placeholders or skipped nodes.
func (d *Document) Degraded() bool {
	for _, diag := range d.Diagnostics {
		switch diag.Err.Category() {
		case errors.CategoryStage, errors.CategoryLookup:
			return true
		}
	}
	return false
}

// HasTransientFailure reports whether a diagnostic is worth a whole-document retry.
func (d *Document) HasTransientFailure() bool {
	for _, diag := range d.Diagnostics {
		if diag.Err.IsTransient() {
			return true
		}
	}
	return false
}

// TransientError returns the first transient diagnostic, or nil.
func (d *Document) TransientError() error {
	for _, diag := range d.Diagnostics {
		if diag.Err.IsTransient() {
			return diag.Err
		}
	}
	return nil
}

// String returns a front matter string field.
func (d *Document) String(key string) (string, bool) {
	v, ok := d.FrontMatter[key].(string)
	return v, ok
}

// Bool returns a front matter boolean field.
func (d *Document) Bool(key string) (bool, bool) {
	v, ok := d.FrontMatter[key].(bool)
	return v, ok
}

// Describe returns a short node label for logs, like "h2" or "directive:note".
func Describe(n *ast.Node) string {
	switch n.Kind {
	case ast.KindElement:
		return n.Tag
	case ast.KindDirective, ast.KindComponent:
		return n.Kind.String() + ":" + n.Tag
	case ast.KindCodeBlock:
		if n.Lang != "" {
			return "code:" + n.Lang
		}
		return "code"
	default:
		return n.Kind.String()
	}
}
