package web

import (
	"net/http"

	"github.com/JonMunkholm/tabconv/internal/core"
	"github.com/JonMunkholm/tabconv/internal/web/templates"
)

// CleanResponse is the JSON body of a clean request.
type CleanResponse struct {
	Report  core.CleanReport  `json:"report"`
	Warning *core.UserMessage `json:"warning,omitempty"`
	Session core.SessionInfo  `json:"session"`
}

func (s *Server) handleClean(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	d, err := core.ParseDirective(r.FormValue("directive"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	report, err := s.service.Clean(withRequestMeta(r.Context(), r), id, d)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if isHTMX(r) {
		s.renderSession(w, r, id, &report)
		return
	}
	info, err := s.service.Session(id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	resp := CleanResponse{Report: report, Session: info}
	if err := report.Err(); err != nil {
		msg := core.MapError(err)
		resp.Warning = &msg
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// handleProject narrows the session to the posted columns. Posting no
// columns restores all of them.
func (s *Server) handleProject(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	if err := s.service.Project(withRequestMeta(r.Context(), r), id, formList(r, "columns")); err != nil {
		s.respondError(w, r, err)
		return
	}

	if isHTMX(r) {
		s.renderSession(w, r, id, nil)
		return
	}
	info, err := s.service.Session(id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, info)
}

func (s *Server) handleDiscard(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	info, err := s.service.Session(id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.service.Discard(withRequestMeta(r.Context(), r), id); err != nil {
		s.respondError(w, r, err)
		return
	}

	if isHTMX(r) {
		renderHTML(w, r, templates.Discarded(info.FileName))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
