package templates

import (
	"context"
	"strconv"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/tabconv/internal/core"
)

// UploadPageParams configures the upload form.
type UploadPageParams struct {
	MaxFiles      int
	MaxFileSizeMB int64
}

// UploadPage is the landing page: a multi-file form whose results are
// swapped into #results.
func UploadPage(p UploadPageParams) templ.Component {
	return Layout("tabconv", component(func(ctx context.Context, h *htmlWriter) {
		accept := ""
		for i, f := range core.InputFormats() {
			if i > 0 {
				accept += ","
			}
			accept += f.Extension()
		}

		h.raw(`<h1>Upload tables</h1>`,
			`<p class="muted">Supported: `)
		labels := make([]string, 0, len(core.InputFormats()))
		for _, f := range core.InputFormats() {
			labels = append(labels, f.String())
		}
		h.text(join(labels))
		h.raw(`. Up to `, strconv.Itoa(p.MaxFiles), ` files, `,
			strconv.FormatInt(p.MaxFileSizeMB, 10), ` MB each.</p>`)

		h.raw(`<form hx-post="/api/upload" hx-encoding="multipart/form-data" hx-target="#results" hx-swap="innerHTML">`,
			`<input type="file" name="files" multiple required accept="`, attr(accept), `">`,
			`<button type="submit">Upload</button></form>`,
			`<div id="results"></div>`)
	}))
}

// BatchResult lists each file of a batch: an error alert for failed files
// and a session card for parsed ones, in upload order.
func BatchResult(batch core.BatchResult, sessions map[string]SessionView) templ.Component {
	return component(func(ctx context.Context, h *htmlWriter) {
		h.raw(`<section class="batch" data-batch="`, attr(batch.BatchID), `">`)
		if n := batch.Failed(); n > 0 {
			h.raw(`<p class="muted">`)
			h.textf("%d of %d files could not be processed.", n, len(batch.Files))
			h.raw(`</p>`)
		}
		for _, f := range batch.Files {
			if f.Error != nil {
				h.raw(`<div class="session failed"><h3>`)
				h.text(f.FileName)
				h.raw(`</h3>`)
				h.render(ctx, ErrorAlert(f.Error.Message, f.Error.Action, f.Error.Code))
				h.raw(`</div>`)
				continue
			}
			if v, ok := sessions[f.SessionID]; ok {
				h.render(ctx, SessionCard(v))
			}
		}
		h.raw(`</section>`)
	})
}

// ErrorAlert renders a user-facing error with its support code.
func ErrorAlert(message, action, code string) templ.Component {
	return component(func(_ context.Context, h *htmlWriter) {
		h.raw(`<div class="alert" role="alert"><strong>`)
		h.text(message)
		h.raw(`</strong>`)
		if action != "" {
			h.raw(` `)
			h.text(action)
		}
		if code != "" {
			h.raw(` <code>`)
			h.text(code)
			h.raw(`</code>`)
		}
		h.raw(`</div>`)
	})
}
