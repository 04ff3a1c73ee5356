package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/dqboard/internal/config"
	"github.com/KaramelBytes/dqboard/internal/logging"
	"github.com/KaramelBytes/dqboard/internal/session"
)

const peopleCSV = "a,b,c\n1,x,10\n2,y,20\n2,y,20\n3,,1000\n"

func newTestServer(t *testing.T, tweak func(*config.Global)) http.Handler {
	t.Helper()
	cfg := config.Defaults()
	cfg.RateLimitRPS = 0
	if tweak != nil {
		tweak(cfg)
	}
	store := session.NewStore(time.Hour, logging.Discard())
	return New(cfg, store, logging.Discard()).Handler()
}

func multipartBody(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = io.WriteString(fw, content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func do(t *testing.T, h http.Handler, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func postJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	return do(t, h, http.MethodPost, path, r, "application/json")
}

func upload(t *testing.T, h http.Handler, filename, content string) string {
	t.Helper()
	body, ct := multipartBody(t, filename, content)
	w := do(t, h, http.MethodPost, "/api/sessions", body, ct)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp SummaryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.ID)
	return resp.ID
}

func decodeMap(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m), w.Body.String())
	return m
}

func panels(t *testing.T, h http.Handler, id string) []string {
	t.Helper()
	w := do(t, h, http.MethodGet, "/api/sessions/"+id+"/panels", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Panels []string `json:"panels"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Panels
}

func TestUploadAndSummary(t *testing.T) {
	h := newTestServer(t, nil)
	id := upload(t, h, "people.csv", peopleCSV)

	w := do(t, h, http.MethodGet, "/api/sessions/"+id, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	m := decodeMap(t, w)
	assert.Equal(t, "people.csv", m["name"])
	assert.EqualValues(t, 4, m["rows"])
	assert.EqualValues(t, 3, m["columns"])
	head := m["head"].(map[string]any)
	assert.Equal(t, []any{"a", "b", "c"}, head["columns"])
	assert.Len(t, head["rows"], 4)
}

func TestUploadRejectsBadInput(t *testing.T) {
	h := newTestServer(t, nil)

	body, ct := multipartBody(t, "notes.pdf", "%PDF")
	w := do(t, h, http.MethodPost, "/api/sessions", body, ct)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "/errors/upload/unsupported-format", decodeMap(t, w)["type"])

	body, ct = multipartBody(t, "", "")
	w = do(t, h, http.MethodPost, "/api/sessions", body, ct)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "/errors/validation", decodeMap(t, w)["type"])
}

func TestUploadTooLarge(t *testing.T) {
	h := newTestServer(t, func(c *config.Global) { c.MaxUploadMB = 1 })
	big := "a\n" + strings.Repeat("123456789\n", 200_000)
	body, ct := multipartBody(t, "big.csv", big)
	w := do(t, h, http.MethodPost, "/api/sessions", body, ct)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestUnknownSession(t *testing.T) {
	h := newTestServer(t, nil)
	w := do(t, h, http.MethodGet, "/api/sessions/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
	assert.Equal(t, "/errors/session/not-found", decodeMap(t, w)["type"])
}

func TestOneShotPanelShownOnce(t *testing.T) {
	h := newTestServer(t, nil)
	id := upload(t, h, "people.csv", peopleCSV)

	w := postJSON(t, h, "/api/sessions/"+id+"/info", "")
	require.Equal(t, http.StatusOK, w.Code)
	m := decodeMap(t, w)
	assert.Equal(t, "info", m["action"])
	assert.Contains(t, m["result"].(map[string]any)["text"], "RangeIndex: 4 entries")

	assert.Equal(t, []string{"show_info"}, panels(t, h, id))
	assert.Empty(t, panels(t, h, id))
}

func TestConvertClosesStickyPanelAfterRender(t *testing.T) {
	h := newTestServer(t, nil)
	id := upload(t, h, "people.csv", peopleCSV)

	require.Equal(t, http.StatusOK, postJSON(t, h, "/api/sessions/"+id+"/dtypes", "").Code)
	assert.Equal(t, []string{"show_type_analysis"}, panels(t, h, id))
	assert.Equal(t, []string{"show_type_analysis"}, panels(t, h, id))

	w := postJSON(t, h, "/api/sessions/"+id+"/convert", `{"column":"a","type":"str"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []string{"show_type_analysis", "show_type_converted"}, panels(t, h, id))
	assert.Empty(t, panels(t, h, id))
}

func TestFailedRenameKeepsDatasetAndClearsPanels(t *testing.T) {
	h := newTestServer(t, nil)
	id := upload(t, h, "people.csv", peopleCSV)
	require.Equal(t, http.StatusOK, postJSON(t, h, "/api/sessions/"+id+"/columns", "").Code)

	w := postJSON(t, h, "/api/sessions/"+id+"/rename", `{"mapping":{"a":"c"}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, panels(t, h, id))

	m := decodeMap(t, do(t, h, http.MethodGet, "/api/sessions/"+id, nil, ""))
	assert.Equal(t, []any{"a", "b", "c"}, m["head"].(map[string]any)["columns"])

	w = postJSON(t, h, "/api/sessions/"+id+"/rename", `{"mapping":{"a":"id"}}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{"id", "b", "c"}, decodeMap(t, w)["columns"])
}

func TestDuplicates(t *testing.T) {
	h := newTestServer(t, nil)
	id := upload(t, h, "people.csv", peopleCSV)

	w := postJSON(t, h, "/api/sessions/"+id+"/duplicates", "")
	require.Equal(t, http.StatusOK, w.Code)
	res := decodeMap(t, w)["result"].(map[string]any)
	assert.EqualValues(t, 1, res["count"])
	assert.Equal(t, []any{1.0, 2.0}, res["rows"])

	w = postJSON(t, h, "/api/sessions/"+id+"/duplicates/remove", "")
	require.Equal(t, http.StatusOK, w.Code)
	m := decodeMap(t, w)
	assert.EqualValues(t, 3, m["rows"])
	assert.EqualValues(t, 1, m["result"].(map[string]any)["removed"])
	assert.Equal(t, []string{"show_duplicates_handled"}, panels(t, h, id))
}

func TestHandleOutliersRecomputesBounds(t *testing.T) {
	h := newTestServer(t, nil)
	id := upload(t, h, "people.csv", peopleCSV)

	w := postJSON(t, h, "/api/sessions/"+id+"/outliers", `{"column":"c"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{3.0}, decodeMap(t, w)["result"].(map[string]any)["rows"])

	w = postJSON(t, h, "/api/sessions/"+id+"/outliers/handle", `{"column":"c","method":"drop"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	m := decodeMap(t, w)
	assert.EqualValues(t, 3, m["rows"])
	assert.EqualValues(t, 1, m["result"].(map[string]any)["affected"])
}

func TestInfiniteValuesStayOutOfReports(t *testing.T) {
	h := newTestServer(t, nil)
	id := upload(t, h, "inf.csv", "x\n1\n2\n3\ninf\n")

	w := postJSON(t, h, "/api/sessions/"+id+"/visualize", `{"column":"x"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decodeMap(t, w)["result"].(map[string]any)
	hist := res["histogram"].(map[string]any)
	assert.EqualValues(t, 1, hist["non_finite"])
	assert.EqualValues(t, 3, res["boxplot"].(map[string]any)["count"])

	w = postJSON(t, h, "/api/sessions/"+id+"/outliers", `{"column":"x"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	bounds := decodeMap(t, w)["result"].(map[string]any)
	assert.EqualValues(t, 4, bounds["upper"])
	assert.Equal(t, []any{3.0}, bounds["rows"])

	w = postJSON(t, h, "/api/sessions/"+id+"/outliers/handle", `{"column":"x","method":"clip"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 4, decodeMap(t, w)["rows"])

	w = do(t, h, http.MethodGet, "/api/sessions/"+id+"/plots/x/histogram.png", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandleOutliersValidation(t *testing.T) {
	h := newTestServer(t, nil)
	id := upload(t, h, "people.csv", peopleCSV)

	w := postJSON(t, h, "/api/sessions/"+id+"/outliers/handle", `{"column":"c","method":"trim"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	m := decodeMap(t, w)
	assert.Equal(t, "/errors/validation", m["type"])
	details := m["details"].([]any)
	require.Len(t, details, 1)
	assert.Equal(t, "method", details[0].(map[string]any)["field"])

	w = postJSON(t, h, "/api/sessions/"+id+"/outliers/handle", `{"column":"b","method":"clip"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = postJSON(t, h, "/api/sessions/"+id+"/outliers/handle", `{"column":"zzz","method":"clip"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCorrelationWithoutNumericColumns(t *testing.T) {
	h := newTestServer(t, nil)
	id := upload(t, h, "names.csv", "name\nx\ny\n")

	w := postJSON(t, h, "/api/sessions/"+id+"/correlation", "")
	require.Equal(t, http.StatusOK, w.Code)
	m := decodeMap(t, w)
	assert.NotEmpty(t, m["message"])
	assert.Nil(t, m["result"].(map[string]any)["matrix"])
	assert.Equal(t, []string{"show_correlation"}, panels(t, h, id))
}

func TestHandleMissing(t *testing.T) {
	h := newTestServer(t, nil)
	id := upload(t, h, "people.csv", peopleCSV)

	w := postJSON(t, h, "/api/sessions/"+id+"/missing", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decodeMap(t, w)["result"].(map[string]any)["total"])

	w = postJSON(t, h, "/api/sessions/"+id+"/missing/handle", `{"method":"mode","column":"b"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 0, decodeMap(t, w)["result"].(map[string]any)["total"])
}

func TestDownloadAndPlots(t *testing.T) {
	h := newTestServer(t, func(c *config.Global) { c.CSVBOM = true })
	id := upload(t, h, "people.csv", peopleCSV)

	w := do(t, h, http.MethodGet, "/api/sessions/"+id+"/download", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="people_cleaned.csv"`, w.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "\ufeffa,b,c\n"))

	w = do(t, h, http.MethodGet, "/api/sessions/"+id+"/plots/c/histogram.png", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")))

	w = do(t, h, http.MethodGet, "/api/sessions/"+id+"/plots/c/boxplot.png", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, http.MethodGet, "/api/sessions/"+id+"/plots/b/boxplot.png", nil, "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestDeleteSession(t *testing.T) {
	h := newTestServer(t, nil)
	id := upload(t, h, "people.csv", peopleCSV)
	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, "/api/sessions/"+id, nil, "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/sessions/"+id, nil, "").Code)
}

func TestMetricsAndHealth(t *testing.T) {
	h := newTestServer(t, nil)
	id := upload(t, h, "people.csv", peopleCSV)
	require.Equal(t, http.StatusOK, postJSON(t, h, "/api/sessions/"+id+"/info", "").Code)

	w := do(t, h, http.MethodGet, "/healthz", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decodeMap(t, w)["sessions"])

	w = do(t, h, http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "dqboard_sessions_active 1")
	assert.Contains(t, body, `dqboard_operations_total{operation="info",result="ok"} 1`)
}

func TestRateLimit(t *testing.T) {
	h := newTestServer(t, func(c *config.Global) {
		c.RateLimitRPS = 1
		c.RateLimitBurst = 1
	})
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/sessions/x", nil, "").Code)
	w := do(t, h, http.MethodGet, "/api/sessions/x", nil, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Equal(t, "/errors/rate-limit", decodeMap(t, w)["type"])
}
