package web

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/tabconv/internal/core"
	"github.com/JonMunkholm/tabconv/internal/logging"
	"github.com/JonMunkholm/tabconv/internal/web/templates"
)

func sessionID(r *http.Request) string {
	return chi.URLParam(r, "sessionID")
}

// parseIntParam reads an integer query parameter, falling back to
// defaultVal when absent or invalid.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return n
}

// formList reads a repeated form field, also splitting comma-separated
// values so "columns=a,b" and "columns=a&columns=b" are equivalent.
func formList(r *http.Request, name string) []string {
	if err := r.ParseForm(); err != nil {
		return nil
	}
	var out []string
	for _, v := range r.Form[name] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// writeJSON encodes v as JSON. Encoding errors are logged since headers
// are already sent.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Error("json encode error", "error", err)
	}
}

func renderHTML(w http.ResponseWriter, r *http.Request, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render error", "error", err)
	}
}

// sessionView gathers what a session card shows.
func (s *Server) sessionView(id string, report *core.CleanReport) (templates.SessionView, error) {
	info, err := s.service.Session(id)
	if err != nil {
		return templates.SessionView{}, err
	}
	v := templates.SessionView{Info: info, Report: report}
	if info.State == core.StateFailed {
		return v, nil
	}
	v.Preview, err = s.service.Preview(id, s.cfg.Preview.DefaultRows)
	return v, err
}

// renderSession re-renders the session card for HTMX requests.
func (s *Server) renderSession(w http.ResponseWriter, r *http.Request, id string, report *core.CleanReport) {
	v, err := s.sessionView(id, report)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	renderHTML(w, r, templates.SessionCard(v))
}
