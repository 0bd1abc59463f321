package web

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/tabconv/internal/config"
	"github.com/JonMunkholm/tabconv/internal/core"
)

const scenarioCSV = "a,b\n1,2\n1,2\n3,\n"

func testConfig() *config.Config {
	return &config.Config{
		Server:   config.ServerConfig{Port: 8080, RequestTimeout: time.Minute, ShutdownTimeout: time.Second},
		Upload:   config.UploadConfig{MaxFileSize: 1 << 20, MaxFiles: 5, MaxConcurrent: 2, MaxWaitTime: time.Second, Timeout: time.Minute},
		Session:  config.SessionConfig{TTL: time.Hour, CleanupInterval: time.Minute},
		Preview:  config.PreviewConfig{DefaultRows: 5, MaxRows: 100},
		Security: config.SecurityConfig{EnableCSP: true},
		Logging:  config.LoggingConfig{Level: "error", Format: "text"},
	}
}

func newTestServer(t *testing.T, cfg *config.Config, audit AuditLog) *Server {
	t.Helper()
	svc := core.NewService(core.ServiceConfig{
		MaxFileSize:    cfg.Upload.MaxFileSize,
		MaxFiles:       cfg.Upload.MaxFiles,
		SessionTTL:     cfg.Session.TTL,
		PreviewRows:    cfg.Preview.DefaultRows,
		MaxPreviewRows: cfg.Preview.MaxRows,
		MaxConcurrent:  cfg.Upload.MaxConcurrent,
		MaxWait:        cfg.Upload.MaxWaitTime,
	}, nil)
	return NewServer(svc, cfg, audit)
}

type upload struct {
	name string
	data string
}

func multipartBody(t *testing.T, files ...upload) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		part, err := mw.CreateFormFile("files", f.name)
		require.NoError(t, err)
		_, err = part.Write([]byte(f.data))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func do(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func uploadBatch(t *testing.T, s *Server, files ...upload) core.BatchResult {
	t.Helper()
	body, ct := multipartBody(t, files...)
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", ct)
	rec := do(s, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var batch core.BatchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &batch))
	return batch
}

func postForm(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var e ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e), rec.Body.String())
	return e
}

func TestHealthAndSecurityHeaders(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)
	rec := do(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
}

func TestIndexPage(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)
	rec := do(s, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `hx-post="/api/upload"`)
}

func TestUploadCleanConvertFlow(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)

	batch := uploadBatch(t, s,
		upload{"notes.pdf", "%PDF-1.4"},
		upload{"scenario.csv", scenarioCSV},
	)
	require.Len(t, batch.Files, 2)
	require.NotNil(t, batch.Files[0].Error)
	assert.Equal(t, "FILE006", batch.Files[0].Error.Code)
	assert.Nil(t, batch.Files[1].Error)
	id := batch.Files[1].SessionID
	base := "/api/sessions/" + id

	rec := do(s, postForm(base+"/clean", url.Values{"directive": {"Remove Duplicates"}}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var cleaned CleanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cleaned))
	assert.Equal(t, 1, cleaned.Report.RowsRemoved)
	assert.Equal(t, 2, cleaned.Session.Rows)

	rec = do(s, postForm(base+"/clean", url.Values{"directive": {"fill-missing-mean"}}))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(s, httptest.NewRequest(http.MethodGet, base+"/preview?rows=10", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var preview core.Preview
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &preview))
	assert.Equal(t, [][]string{{"1", "2"}, {"3", "2"}}, preview.Rows)

	rec = do(s, httptest.NewRequest(http.MethodGet, base+"/convert?format=json", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=scenario.json", rec.Header().Get("Content-Disposition"))
	assert.JSONEq(t, `[{"a":1,"b":2},{"a":3,"b":2}]`, rec.Body.String())

	rec = do(s, httptest.NewRequest(http.MethodDelete, base, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(s, httptest.NewRequest(http.MethodGet, base, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "SES001", decodeError(t, rec).Code)
}

func TestProjectAndSummary(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)
	id := uploadBatch(t, s, upload{"s.csv", scenarioCSV}).Files[0].SessionID
	base := "/api/sessions/" + id

	rec := do(s, postForm(base+"/project", url.Values{"columns": {"b"}}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var info core.SessionInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, []string{"b"}, info.Columns)

	rec = do(s, postForm(base+"/project", url.Values{"columns": {"b,zzz"}}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "COL001", decodeError(t, rec).Code)

	rec = do(s, httptest.NewRequest(http.MethodGet, base, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Summary)
	assert.Equal(t, 1, resp.Summary.Columns)
	assert.Equal(t, "b", resp.Summary.Fields[0].Name)
}

func TestChart(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)
	id := uploadBatch(t, s, upload{"s.csv", scenarioCSV}).Files[0].SessionID

	rec := do(s, postForm("/api/sessions/"+id+"/chart", url.Values{"kind": {"Scatter Plot"}}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var data core.ChartData
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &data))
	assert.Equal(t, core.ChartScatter, data.Kind)
	assert.Len(t, data.Series, 2)
}

func TestChart_UnknownKind(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)
	id := uploadBatch(t, s, upload{"s.csv", scenarioCSV}).Files[0].SessionID

	rec := do(s, postForm("/api/sessions/"+id+"/chart", url.Values{"kind": {"pie"}}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "CHT003", decodeError(t, rec).Code)
}

func TestUploadErrors(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)

	t.Run("no files", func(t *testing.T) {
		body, ct := multipartBody(t)
		req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
		req.Header.Set("Content-Type", ct)
		rec := do(s, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "FILE004", decodeError(t, rec).Code)
	})

	t.Run("too many files", func(t *testing.T) {
		files := make([]upload, 6)
		for i := range files {
			files[i] = upload{"f.csv", "a\n1\n"}
		}
		body, ct := multipartBody(t, files...)
		req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
		req.Header.Set("Content-Type", ct)
		rec := do(s, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "UPL003", decodeError(t, rec).Code)
	})

	t.Run("unsupported conversion target", func(t *testing.T) {
		id := uploadBatch(t, s, upload{"s.csv", scenarioCSV}).Files[0].SessionID
		rec := do(s, httptest.NewRequest(http.MethodGet, "/api/sessions/"+id+"/convert?format=pdf", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "FILE006", decodeError(t, rec).Code)
	})
}

func TestUpload_HTMXRendersFragment(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)
	body, ct := multipartBody(t, upload{"scenario.csv", scenarioCSV}, upload{"notes.pdf", "x"})
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("HX-Request", "true")

	rec := do(s, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), `class="session" id="session-`)
	assert.Contains(t, rec.Body.String(), "FILE006")
}

func TestAPIKeyRequired(t *testing.T) {
	cfg := testConfig()
	cfg.Security.RequireAPIKey = true
	cfg.Security.APIKeys = []string{"secret"}
	s := newTestServer(t, cfg, nil)

	rec := do(s, httptest.NewRequest(http.MethodGet, "/api/formats", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/formats", nil)
	req.Header.Set("X-API-Key", "secret")
	rec = do(s, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code, "health check stays open")
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerSecond: 0.001, Burst: 1}
	s := newTestServer(t, cfg, nil)

	assert.Equal(t, http.StatusOK, do(s, httptest.NewRequest(http.MethodGet, "/healthz", nil)).Code)
	rec := do(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE001", decodeError(t, rec).Code)
}

type fakeAuditLog struct {
	session string
	limit   int
}

func (f *fakeAuditLog) Recent(_ context.Context, sessionID string, limit int) ([]core.AuditEvent, error) {
	f.session, f.limit = sessionID, limit
	return []core.AuditEvent{{SessionID: sessionID, Action: core.ActionUpload, FileName: "a.csv"}}, nil
}

func TestAuditLog(t *testing.T) {
	rec := do(newTestServer(t, testConfig(), nil), httptest.NewRequest(http.MethodGet, "/api/audit", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	fake := &fakeAuditLog{}
	rec = do(newTestServer(t, testConfig(), fake), httptest.NewRequest(http.MethodGet, "/api/audit?session=s1&limit=5", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "s1", fake.session)
	assert.Equal(t, 5, fake.limit)

	var body struct {
		Events []core.AuditEvent `json:"events"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Events, 1)
	assert.Equal(t, core.ActionUpload, body.Events[0].Action)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{core.ErrSessionNotFound, http.StatusNotFound},
		{core.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{core.ErrTooManyUploads, http.StatusServiceUnavailable},
		{core.ErrUnknownDirective, http.StatusBadRequest},
		{core.ErrSessionFailed, http.StatusConflict},
		{core.ErrSerialization, http.StatusInternalServerError},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{assert.AnError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
