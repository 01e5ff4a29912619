package handlers

import (
	"bytes"
	"log/slog"
	"net/http"
)

type resultKind int

const (
	kindRendered resultKind = iota
	kindRedirect
	kindFailed
)

// Result is what an endpoint decided to do with a request. Endpoints return
// one and serve writes it out.
type Result struct {
	kind   resultKind
	View   string
	Data   any
	Status int
	Target string
	Flash  string
	Err    error
}

func Rendered(view string, data any, status int) Result {
	return Result{kind: kindRendered, View: view, Data: data, Status: status}
}

// Redirect is always a 303 so a POST is followed by a GET.
func Redirect(target string) Result {
	return Result{kind: kindRedirect, Target: target, Status: http.StatusSeeOther}
}

func Failed(status int, err error) Result {
	return Result{kind: kindFailed, Status: status, Err: err}
}

// WithFlash queues msg for the next page the browser renders.
func (r Result) WithFlash(msg string) Result {
	r.Flash = msg
	return r
}

func (r Result) IsRendered() bool { return r.kind == kindRendered }
func (r Result) IsRedirect() bool { return r.kind == kindRedirect }
func (r Result) IsFailed() bool   { return r.kind == kindFailed }

// Page carries the state every layout needs.
type Page struct {
	Flashes []string
	Error   string
}

func (p *Page) setFlashes(msgs []string) { p.Flashes = msgs }

type flashable interface {
	setFlashes([]string)
}

func (h *Handler) serve(endpoint func(*http.Request) Result) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.write(w, r, endpoint(r))
	}
}

func (h *Handler) write(w http.ResponseWriter, r *http.Request, res Result) {
	switch res.kind {
	case kindRedirect:
		if res.Flash != "" {
			if err := h.sessions.AddFlash(w, r, res.Flash); err != nil {
				h.log.WarnContext(r.Context(), "failed to save flash", slog.String("error", err.Error()))
			}
		}
		http.Redirect(w, r, res.Target, res.Status)

	case kindRendered:
		if p, ok := res.Data.(flashable); ok {
			p.setFlashes(h.sessions.Flashes(w, r))
		}

		var buf bytes.Buffer
		if err := h.views.Render(&buf, res.View, res.Data); err != nil {
			h.log.ErrorContext(r.Context(), "failed to render template",
				slog.String("view", res.View),
				slog.String("error", err.Error()))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(res.Status)
		_, _ = buf.WriteTo(w)

	default:
		attrs := []any{slog.Int("status", res.Status), slog.String("path", r.URL.Path)}
		if res.Err != nil {
			attrs = append(attrs, slog.String("error", res.Err.Error()))
		}
		if res.Status >= http.StatusInternalServerError {
			h.log.ErrorContext(r.Context(), "request failed", attrs...)
		} else {
			h.log.DebugContext(r.Context(), "request rejected", attrs...)
		}
		http.Error(w, http.StatusText(res.Status), res.Status)
	}
}
