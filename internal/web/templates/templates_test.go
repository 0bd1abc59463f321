package templates

import (
	"bytes"
	"context"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/tabconv/internal/core"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func TestErrorAlert_Escapes(t *testing.T) {
	out := render(t, ErrorAlert("<b>bad</b>", "retry", "FILE002"))
	assert.Contains(t, out, "&lt;b&gt;bad&lt;/b&gt;")
	assert.Contains(t, out, "<code>FILE002</code>")
}

func TestUploadPage(t *testing.T) {
	out := render(t, UploadPage(UploadPageParams{MaxFiles: 20, MaxFileSizeMB: 200}))
	assert.Contains(t, out, `name="files" multiple`)
	assert.Contains(t, out, `accept=".csv,.xlsx,.json,.parquet,.txt"`)
	assert.Contains(t, out, "Up to 20 files, 200 MB each.")
}

func TestSessionCard(t *testing.T) {
	v := SessionView{
		Info: core.SessionInfo{
			ID:         "abc",
			FileName:   "report.xlsx",
			Format:     "excel",
			State:      core.StateProjected,
			Rows:       2,
			Columns:    []string{"b"},
			AllColumns: []string{"a", "b"},
			Numeric:    []string{"b"},
		},
		Preview: core.Preview{Columns: []string{"b"}, Kinds: []string{"int"}, Rows: [][]string{{"1"}, {"2"}}, Total: 2},
	}
	out := render(t, SessionCard(v))

	assert.Contains(t, out, `id="session-abc"`)
	assert.Contains(t, out, `value="a">`, "unselected column is unchecked")
	assert.Contains(t, out, `value="b" checked>`)
	assert.Contains(t, out, `/api/sessions/abc/convert?format=parquet`)
	assert.Contains(t, out, `hx-post="/api/sessions/abc/chart"`)
	assert.Contains(t, out, "Showing 2 of 2 rows")
}

func TestBatchResult_ShowsFailures(t *testing.T) {
	batch := core.BatchResult{
		BatchID: "b1",
		Files: []core.FileResult{
			{FileName: "notes.pdf", Error: &core.UserMessage{Message: "Unsupported file type", Code: "FILE006"}, Err: core.ErrUnsupportedFormat},
			{SessionID: "s1", FileName: "data.csv"},
		},
	}
	out := render(t, BatchResult(batch, map[string]SessionView{
		"s1": {Info: core.SessionInfo{ID: "s1", FileName: "data.csv"}},
	}))
	assert.Contains(t, out, "1 of 2 files could not be processed.")
	assert.Contains(t, out, "FILE006")
	assert.Contains(t, out, `id="session-s1"`)
}

func TestChartTable(t *testing.T) {
	one := 1.5
	out := render(t, ChartTable(&core.ChartData{
		Kind:   core.ChartLine,
		Index:  []int{0, 1},
		Series: []core.ChartSeries{{Name: "y", Values: []*float64{&one, nil}}},
	}))
	assert.Contains(t, out, `data-kind="line"`)
	assert.Contains(t, out, "<td>1.5</td>")
	assert.Contains(t, out, "<tr><td>1</td><td></td></tr>")
}
