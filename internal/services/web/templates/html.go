package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// HTML accumulates markup and remembers the first write error, so component
// bodies can stay linear.
type HTML struct {
	w   io.Writer
	err error
}

// NewHTML wraps w.
func NewHTML(w io.Writer) *HTML {
	return &HTML{w: w}
}

// Raw writes trusted markup.
func (h *HTML) Raw(markup string) {
	if h.err != nil {
		return
	}
	_, h.err = io.WriteString(h.w, markup)
}

// Text writes escaped text.
func (h *HTML) Text(text string) {
	h.Raw(templ.EscapeString(text))
}

// Attr writes name="value" with the value escaped, preceded by a space.
func (h *HTML) Attr(name string, value string) {
	h.Raw(" " + name + `="` + templ.EscapeString(value) + `"`)
}

// Component renders a nested component.
func (h *HTML) Component(ctx context.Context, component templ.Component) {
	if h.err != nil || component == nil {
		return
	}
	h.err = component.Render(ctx, h.w)
}

// Err returns the first write or render error.
func (h *HTML) Err() error {
	return h.err
}
