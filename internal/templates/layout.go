package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

const pageStyle = `body { font-family: system-ui, sans-serif; max-width: 40rem; margin: 2rem auto; padding: 0 1rem; color: #222; }
nav { display: flex; justify-content: space-between; align-items: center; margin-bottom: 2rem; }
nav img { width: 2rem; height: 2rem; border-radius: 50%; vertical-align: middle; }
label { display: block; margin-top: 1rem; }
input { width: 100%; padding: .5rem; box-sizing: border-box; }
button, .button { margin-top: 1rem; padding: .5rem 1rem; display: inline-block; }
.error { background: #fde2e1; padding: .75rem; border-radius: 4px; }
.flash { background: #fff4d6; padding: .75rem; border-radius: 4px; }
.providers a { margin-right: .5rem; }`

// htmlWriter keeps the first write error so components can emit markup
// without checking every call.
type htmlWriter struct {
	ctx context.Context
	w   io.Writer
	err error
}

func newHTMLWriter(ctx context.Context, w io.Writer) *htmlWriter {
	return &htmlWriter{ctx: ctx, w: w}
}

// raw writes trusted markup as-is.
func (h *htmlWriter) raw(s string) {
	if h.err == nil {
		_, h.err = io.WriteString(h.w, s)
	}
}

// text writes an escaped value, safe in element bodies and quoted attributes.
func (h *htmlWriter) text(s string) {
	h.raw(templ.EscapeString(s))
}

// url writes a sanitized, escaped URL for href and src attributes.
func (h *htmlWriter) url(s string) {
	h.text(string(templ.URL(s)))
}

func (h *htmlWriter) component(c templ.Component) {
	if h.err == nil {
		h.err = c.Render(h.ctx, h.w)
	}
}

// component wraps a body-writing function as a templ.Component.
func component(body func(h *htmlWriter)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTMLWriter(ctx, w)
		body(h)
		return h.err
	})
}

// layout renders the document shell around content.
func layout(title string, content templ.Component) templ.Component {
	return component(func(h *htmlWriter) {
		h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1"><title>`)
		h.text(title)
		h.raw(` · fedlink</title><style>`)
		h.raw(pageStyle)
		h.raw(`</style></head><body>`)
		h.component(content)
		h.raw(`</body></html>`)
	})
}

func navbar(props NavbarProps) templ.Component {
	return component(func(h *htmlWriter) {
		h.raw(`<nav><a href="/">fedlink</a>`)
		if props.SignedIn {
			h.raw(`<span>`)
			if props.AvatarURL != "" {
				h.raw(`<img src="`)
				h.url(props.AvatarURL)
				h.raw(`" alt="">`)
			}
			h.text(props.FullName)
			h.raw(`<form method="post" action="/sign-out" style="display:inline">`)
			csrfField(h, props.CSRFToken)
			h.raw(`<button type="submit">Sign out</button></form></span>`)
		} else {
			h.raw(`<span><a href="/sign-in">Sign in</a> · <a href="/join">Join</a></span>`)
		}
		h.raw(`</nav>`)
	})
}

func flashes(messages []string) templ.Component {
	return component(func(h *htmlWriter) {
		for _, msg := range messages {
			h.raw(`<p class="flash">`)
			h.text(msg)
			h.raw(`</p>`)
		}
	})
}

func errorBanner(h *htmlWriter, msg string) {
	if msg == "" {
		return
	}
	h.raw(`<p class="error">`)
	h.text(msg)
	h.raw(`</p>`)
}

func providerButtons(list []OAuthProvider) templ.Component {
	return component(func(h *htmlWriter) {
		if len(list) == 0 {
			return
		}
		h.raw(`<p class="providers">`)
		for _, p := range list {
			h.raw(`<a class="button" href="/auth/`)
			h.text(p.Name)
			h.raw(`">Continue with `)
			h.text(p.DisplayName)
			h.raw(`</a>`)
		}
		h.raw(`</p>`)
	})
}

func csrfField(h *htmlWriter, token string) {
	hiddenField(h, "csrf_token", token)
}

func hiddenField(h *htmlWriter, name, value string) {
	h.raw(`<input type="hidden" name="`)
	h.text(name)
	h.raw(`" value="`)
	h.text(value)
	h.raw(`">`)
}

// inputField renders a labelled input. Required fields carry the
// required attribute; extra is appended verbatim.
func inputField(h *htmlWriter, label, typ, name, value string, required bool, extra string) {
	h.raw(`<label>`)
	h.text(label)
	h.raw(` <input type="`)
	h.raw(typ)
	h.raw(`" name="`)
	h.text(name)
	h.raw(`"`)
	if typ != "password" {
		h.raw(` value="`)
		h.text(value)
		h.raw(`"`)
	}
	if required {
		h.raw(` required`)
	}
	h.raw(extra)
	h.raw(`></label>`)
}
