package templates

import (
	"context"
	"strconv"
	"time"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/tabconv/internal/core"
)

// AuditLog renders recent audit events, newest first.
func AuditLog(events []core.AuditEvent) templ.Component {
	return component(func(_ context.Context, h *htmlWriter) {
		if len(events) == 0 {
			h.raw(`<p class="muted">No audit events.</p>`)
			return
		}
		h.raw(`<table class="audit"><thead><tr>`,
			`<th>time</th><th>action</th><th>severity</th><th>file</th><th>format</th>`,
			`<th>rows</th><th>columns</th><th>code</th><th>detail</th></tr></thead><tbody>`)
		for _, e := range events {
			h.raw(`<tr><td>`)
			h.text(e.CreatedAt.UTC().Format(time.RFC3339))
			h.raw(`</td><td>`)
			h.text(string(e.Action))
			h.raw(`</td><td>`)
			h.text(string(e.Severity))
			h.raw(`</td><td>`)
			h.text(e.FileName)
			h.raw(`</td><td>`)
			h.text(e.Format)
			h.raw(`</td><td>`, strconv.Itoa(e.Rows), `</td><td>`, strconv.Itoa(e.Columns), `</td><td>`)
			h.text(e.ErrorCode)
			h.raw(`</td><td>`)
			h.text(e.Detail)
			h.raw(`</td></tr>`)
		}
		h.raw(`</tbody></table>`)
	})
}
