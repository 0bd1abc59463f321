package web

import (
	"net/http"

	"github.com/JonMunkholm/tabconv/internal/core"
	"github.com/JonMunkholm/tabconv/internal/web/templates"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	renderHTML(w, r, templates.UploadPage(templates.UploadPageParams{
		MaxFiles:      s.cfg.Upload.MaxFiles,
		MaxFileSizeMB: s.cfg.Upload.MaxFileSize >> 20,
	}))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// FormatInfo describes one supported format.
type FormatInfo struct {
	Key       string `json:"key"`
	Label     string `json:"label"`
	Extension string `json:"extension"`
	MIMEType  string `json:"mime_type"`
}

func formatInfos(fs []core.Format) []FormatInfo {
	out := make([]FormatInfo, len(fs))
	for i, f := range fs {
		out[i] = FormatInfo{Key: f.Key(), Label: f.String(), Extension: f.Extension(), MIMEType: f.MIMEType()}
	}
	return out
}

func (s *Server) handleFormats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"inputs":     formatInfos(core.InputFormats()),
		"targets":    formatInfos(core.ConversionTargets()),
		"directives": core.Directives(),
		"charts":     core.ChartKinds(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"uploads":  s.service.Limiter().Status(),
		"sessions": s.service.SessionCount(),
	})
}
