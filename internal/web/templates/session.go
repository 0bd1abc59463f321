package templates

import (
	"context"
	"strconv"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/tabconv/internal/core"
)

// SessionView is everything a session card shows.
type SessionView struct {
	Info    core.SessionInfo
	Preview core.Preview
	Report  *core.CleanReport
}

// SessionCard renders one file's preview together with its clean, project,
// chart, convert and discard controls. Actions re-render the card in place.
func SessionCard(v SessionView) templ.Component {
	return component(func(ctx context.Context, h *htmlWriter) {
		id := v.Info.ID
		base := "/api/sessions/" + id
		cardID := "session-" + id

		h.raw(`<div class="session" id="`, attr(cardID), `">`, `<h3>`)
		h.text(v.Info.FileName)
		h.raw(`</h3><p class="muted">`)
		h.textf("%s · %d rows · %d columns · %s", v.Info.Format, v.Info.Rows, len(v.Info.Columns), v.Info.State)
		if len(v.Info.Directives) > 0 {
			names := make([]string, len(v.Info.Directives))
			for i, d := range v.Info.Directives {
				names[i] = d.Label()
			}
			h.text(" · cleaned: " + join(names))
		}
		h.raw(`</p>`)

		if v.Report != nil {
			if err := v.Report.Err(); err != nil {
				msg := core.MapError(err)
				h.render(ctx, ErrorAlert(msg.Message, msg.Action, msg.Code))
			}
		}

		h.render(ctx, PreviewTable(v.Preview))

		target := ` hx-target="#` + attr(cardID) + `" hx-swap="outerHTML"`
		h.raw(`<div class="actions">`)

		h.raw(`<form hx-post="`, attr(base+"/clean"), `"`, target, `><select name="directive">`)
		for _, d := range core.Directives() {
			h.raw(`<option value="`, attr(string(d)), `">`)
			h.text(d.Label())
			h.raw(`</option>`)
		}
		h.raw(`</select><button type="submit">Clean</button></form>`)

		h.raw(`<form hx-post="`, attr(base+"/project"), `"`, target, `>`)
		selected := make(map[string]bool, len(v.Info.Columns))
		for _, c := range v.Info.Columns {
			selected[c] = true
		}
		for _, c := range v.Info.AllColumns {
			h.raw(`<label><input type="checkbox" name="columns" value="`, attr(c), `"`)
			if selected[c] {
				h.raw(` checked`)
			}
			h.raw(`> `)
			h.text(c)
			h.raw(`</label> `)
		}
		h.raw(`<button type="submit">Select columns</button></form>`)

		if len(v.Info.Numeric) > 0 {
			h.raw(`<form hx-post="`, attr(base+"/chart"), `" hx-target="#chart-`, attr(id), `"><select name="kind">`)
			for _, k := range core.ChartKinds() {
				h.raw(`<option value="`, attr(string(k)), `">`)
				h.text(string(k))
				h.raw(`</option>`)
			}
			h.raw(`</select><button type="submit">Chart</button></form>`)
		}

		h.raw(`<span>Download as: `)
		for _, f := range core.ConversionTargets() {
			h.raw(`<a href="`, attr(base+"/convert?format="+f.Key()), `" download>`)
			h.text(f.String())
			h.raw(`</a> `)
		}
		h.raw(`</span>`)

		h.raw(`<button hx-delete="`, attr(base), `"`, target, `>Discard</button>`)
		h.raw(`</div><div id="chart-`, attr(id), `"></div></div>`)
	})
}

// PreviewTable renders the first rows with each column's kind under its name.
func PreviewTable(p core.Preview) templ.Component {
	return component(func(_ context.Context, h *htmlWriter) {
		h.raw(`<table class="preview"><thead><tr>`)
		for i, c := range p.Columns {
			h.raw(`<th>`)
			h.text(c)
			if i < len(p.Kinds) {
				h.raw(`<small>`)
				h.text(p.Kinds[i])
				h.raw(`</small>`)
			}
			h.raw(`</th>`)
		}
		h.raw(`</tr></thead><tbody>`)
		for _, row := range p.Rows {
			h.raw(`<tr>`)
			for _, cell := range row {
				h.raw(`<td>`)
				h.text(cell)
				h.raw(`</td>`)
			}
			h.raw(`</tr>`)
		}
		h.raw(`</tbody></table><p class="muted">`)
		h.textf("Showing %d of %d rows", len(p.Rows), p.Total)
		h.raw(`</p>`)
	})
}

// SummaryTable renders per-column statistics.
func SummaryTable(s core.Summary) templ.Component {
	return component(func(_ context.Context, h *htmlWriter) {
		h.raw(`<table class="summary"><thead><tr>`,
			`<th>column</th><th>kind</th><th>count</th><th>missing</th>`,
			`<th>mean</th><th>std</th><th>min</th><th>50%</th><th>max</th>`,
			`<th>unique</th><th>top</th><th>freq</th></tr></thead><tbody>`)
		for _, f := range s.Fields {
			h.raw(`<tr><td>`)
			h.text(f.Name)
			h.raw(`</td><td>`)
			h.text(f.Kind)
			h.raw(`</td><td>`, strconv.Itoa(f.Count), `</td><td>`, strconv.Itoa(f.Missing), `</td>`)
			if n := f.Numeric; n != nil {
				for _, x := range []float64{n.Mean, n.Std, n.Min, n.P50, n.Max} {
					h.raw(`<td>`, strconv.FormatFloat(x, 'g', 6, 64), `</td>`)
				}
			} else {
				h.raw(`<td></td><td></td><td></td><td></td><td></td>`)
			}
			if c := f.Categorical; c != nil {
				h.raw(`<td>`, strconv.Itoa(c.Unique), `</td><td>`)
				h.text(c.Top)
				h.raw(`</td><td>`, strconv.Itoa(c.Freq), `</td>`)
			} else {
				h.raw(`<td></td><td></td><td></td>`)
			}
			h.raw(`</tr>`)
		}
		h.raw(`</tbody></table>`)
	})
}

// ChartTable renders chart series as a table; drawing is left to the
// browser.
func ChartTable(data *core.ChartData) templ.Component {
	return component(func(_ context.Context, h *htmlWriter) {
		h.raw(`<table class="chart" data-kind="`, attr(string(data.Kind)), `"><thead><tr><th>#</th>`)
		for _, s := range data.Series {
			h.raw(`<th>`)
			h.text(s.Name)
			h.raw(`</th>`)
		}
		h.raw(`</tr></thead><tbody>`)
		for i, idx := range data.Index {
			h.raw(`<tr><td>`, strconv.Itoa(idx), `</td>`)
			for _, s := range data.Series {
				h.raw(`<td>`)
				if i < len(s.Values) && s.Values[i] != nil {
					h.raw(strconv.FormatFloat(*s.Values[i], 'g', -1, 64))
				}
				h.raw(`</td>`)
			}
			h.raw(`</tr>`)
		}
		h.raw(`</tbody></table>`)
	})
}

// Discarded replaces a discarded session card.
func Discarded(fileName string) templ.Component {
	return component(func(_ context.Context, h *htmlWriter) {
		h.raw(`<p class="muted">`)
		h.text(fileName + " discarded.")
		h.raw(`</p>`)
	})
}
