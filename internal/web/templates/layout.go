package templates

import (
	"context"

	"github.com/a-h/templ"
)

const htmxSrc = "https://unpkg.com/htmx.org@2.0.4"

// Layout wraps body in the page shell.
func Layout(title string, body templ.Component) templ.Component {
	return component(func(ctx context.Context, h *htmlWriter) {
		h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`,
			`<meta name="viewport" content="width=device-width, initial-scale=1">`,
			`<meta name="htmx-config" content='`, htmxConfig, `'>`,
			`<title>`)
		h.text(title)
		h.raw(`</title><script src="`, htmxSrc, `"></script>`,
			`<style>`, pageCSS, `</style></head><body><main>`)
		h.render(ctx, body)
		h.raw(`</main></body></html>`)
	})
}

// htmxConfig makes error responses swap too, so alerts reach the page.
const htmxConfig = `{"responseHandling":[{"code":"204","swap":false},{"code":"[2-5]..","swap":true}]}`

const pageCSS = `body{font-family:system-ui,sans-serif;margin:2rem;color:#1f2933}
main{max-width:72rem;margin:auto}
table{border-collapse:collapse;margin:.5rem 0;font-size:.875rem}
th,td{border:1px solid #cbd2d9;padding:.25rem .5rem;text-align:left}
th small{display:block;color:#7b8794;font-weight:normal}
.session{border:1px solid #cbd2d9;border-radius:.5rem;padding:1rem;margin:1rem 0}
.alert{border-left:4px solid #e12d39;background:#ffe3e3;padding:.5rem 1rem;margin:.5rem 0}
.alert code{color:#7b8794}
.actions form{display:inline-block;margin:.25rem 1rem .25rem 0}
.muted{color:#7b8794}`
