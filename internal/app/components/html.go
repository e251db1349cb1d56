// Package components renders the pages and partials of the web client as
// templ components.
package components

import (
	"context"
	"io"
	"strings"

	"github.com/Oudwins/tailwind-merge-go/pkg/twmerge"
	"github.com/a-h/templ"
)

// Class joins tailwind classes, later classes overriding conflicting
// earlier ones.
func Class(classes ...string) string {
	return twmerge.Merge(strings.Join(classes, " "))
}

// html is a small element writer. The first write error sticks and every
// later call is a no-op.
type html struct {
	ctx context.Context
	w   io.Writer
	err error
}

func newHTML(ctx context.Context, w io.Writer) *html {
	return &html{ctx: ctx, w: w}
}

func (h *html) raw(s string) {
	if h.err != nil {
		return
	}
	_, h.err = io.WriteString(h.w, s)
}

func (h *html) text(s string) {
	h.raw(templ.EscapeString(s))
}

// open writes a start tag; attrs are name/value pairs. A pair whose value is
// "" is dropped unless the name is in boolean form, e.g. "required=".
func (h *html) open(tag string, attrs ...string) {
	h.raw("<" + tag)
	for i := 0; i+1 < len(attrs); i += 2 {
		name, value := attrs[i], attrs[i+1]
		if strings.HasSuffix(name, "=") {
			h.raw(" " + strings.TrimSuffix(name, "="))
			continue
		}
		if value == "" {
			continue
		}
		h.raw(" " + name + `="` + templ.EscapeString(value) + `"`)
	}
	h.raw(">")
}

func (h *html) close(tag string) {
	h.raw("</" + tag + ">")
}

// el writes a complete element with escaped text content.
func (h *html) el(tag, content string, attrs ...string) {
	h.open(tag, attrs...)
	h.text(content)
	h.close(tag)
}

func (h *html) render(c templ.Component) {
	if h.err != nil || c == nil {
		return
	}
	h.err = c.Render(h.ctx, h.w)
}

// safeURL drops URLs templ considers unsafe, such as javascript: links.
func safeURL(u string) string {
	return string(templ.URL(u))
}
