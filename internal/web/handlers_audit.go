package web

import (
	"errors"
	"net/http"

	"github.com/JonMunkholm/tabconv/internal/web/templates"
)

var errAuditDisabled = errors.New("audit trail is not configured")

// handleAuditLog lists recent audit events, optionally for one session
// (?session=ID), limited by ?limit=N.
func (s *Server) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	if s.audit == nil {
		writeJSON(w, r, http.StatusNotFound, ErrorResponse{
			Error:   errAuditDisabled.Error(),
			Message: errAuditDisabled.Error(),
			Code:    "AUD001",
		})
		return
	}

	events, err := s.audit.Recent(r.Context(), r.URL.Query().Get("session"), parseIntParam(r, "limit", 0))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if isHTMX(r) {
		renderHTML(w, r, templates.AuditLog(events))
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"events": events})
}
