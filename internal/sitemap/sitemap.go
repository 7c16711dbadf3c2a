// Package sitemap decides which pages are listed in the sitemap and writes
// the sitemap document.
package sitemap

import (
	"encoding/xml"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"git.home.luguber.info/inful/mdpipeline/internal/config"
	"git.home.luguber.info/inful/mdpipeline/internal/foundation/errors"
)

// Filter drops optional pages that are switched off.
type Filter struct {
	// optional maps a page pathname to whether it is enabled.
	optional map[string]bool
}

// NewFilter returns the filter for the configured page flags.
func NewFilter(pages config.PagesConfig) Filter {
	return Filter{optional: map[string]bool{
		"/sponsor/":   pages.Sponsor,
		"/guestbook/": pages.Guestbook,
		"/bangumi/":   pages.Bangumi,
		"/gallery/":   pages.Gallery,
	}}
}

// Include reports whether page, an absolute URL or a pathname, belongs in
// the sitemap. Only exact pathname matches are filtered.
func (f Filter) Include(page string) bool {
	pathname := page
	if u, err := url.Parse(page); err == nil && u.Path != "" {
		pathname = u.Path
	}
	enabled, ok := f.optional[pathname]
	return !ok || enabled
}

// Apply returns the pages Include accepts, in order.
func (f Filter) Apply(pages []string) []string {
	out := make([]string, 0, len(pages))
	for _, p := range pages {
		if f.Include(p) {
			out = append(out, p)
		}
	}
	return out
}

// PagePath maps a source path to its route, like "posts/hello.md" to
// "/posts/hello/". Index files map to their directory.
func PagePath(source string) string {
	p := strings.TrimSuffix(path.Clean("/"+strings.ReplaceAll(source, "\\", "/")), path.Ext(source))
	if path.Base(p) == "index" {
		p = path.Dir(p)
	}
	if !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return p
}

// Entry is one sitemap URL.
type Entry struct {
	Loc     string
	LastMod *time.Time
}

type urlset struct {
	XMLName xml.Name  `xml:"urlset"`
	XMLNS   string    `xml:"xmlns,attr"`
	URLs    []urlElem `xml:"url"`
}

type urlElem struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// Write encodes entries as a sitemap.
func Write(w io.Writer, entries []Entry) error {
	set := urlset{XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	for _, e := range entries {
		u := urlElem{Loc: e.Loc}
		if e.LastMod != nil {
			u.LastMod = e.LastMod.UTC().Format("2006-01-02")
		}
		set.URLs = append(set.URLs, u)
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return errors.FileSystemError("failed to write sitemap").WithCause(err).Build()
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		return errors.InternalError("failed to encode sitemap").WithCause(err).Build()
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// Entries builds filtered sitemap entries for rendered sources below site.
func Entries(site string, f Filter, sources []string, lastMod map[string]*time.Time) []Entry {
	base := strings.TrimRight(site, "/")
	var out []Entry
	for _, src := range sources {
		route := PagePath(src)
		if !f.Include(route) {
			continue
		}
		out = append(out, Entry{Loc: base + route, LastMod: lastMod[src]})
	}
	return out
}
