package web

import (
	"mime"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/tabconv/internal/core"
	"github.com/JonMunkholm/tabconv/internal/web/templates"
)

// SessionResponse is the JSON body of GET /api/sessions/{id}.
type SessionResponse struct {
	Session core.SessionInfo `json:"session"`
	Summary *core.Summary    `json:"summary,omitempty"`
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	info, err := s.service.Session(id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	resp := SessionResponse{Session: info}
	if info.State != core.StateFailed {
		sum, err := s.service.Summary(id)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		resp.Summary = &sum
	}

	if isHTMX(r) && resp.Summary != nil {
		renderHTML(w, r, templates.SummaryTable(*resp.Summary))
		return
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	p, err := s.service.Preview(sessionID(r), parseIntParam(r, "rows", 0))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if isHTMX(r) {
		renderHTML(w, r, templates.PreviewTable(p))
		return
	}
	writeJSON(w, r, http.StatusOK, p)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	req := core.ChartRequest{Columns: formList(r, "columns")}
	if kind := r.FormValue("kind"); kind != "" {
		k, err := core.ParseChartKind(kind)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		req.Kind = k
	}

	data, err := s.service.Chart(withRequestMeta(r.Context(), r), sessionID(r), req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if isHTMX(r) {
		renderHTML(w, r, templates.ChartTable(data))
		return
	}
	writeJSON(w, r, http.StatusOK, data)
}

// handleConvert serializes the session's table and sends it as a download.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("format")
	if key == "" {
		key = r.FormValue("format")
	}
	format, err := core.ParseFormat(key)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	art, err := s.service.Convert(withRequestMeta(r.Context(), r), sessionID(r), format)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", art.MIMEType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": art.FileName}))
	w.Header().Set("Content-Length", strconv.Itoa(len(art.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(art.Data)
}
