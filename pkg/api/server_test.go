package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/David-Botos/sensor-ingress/pkg/content"
	"github.com/David-Botos/sensor-ingress/pkg/converter"
	"github.com/David-Botos/sensor-ingress/pkg/pipeline"
	"github.com/David-Botos/sensor-ingress/pkg/store"
	"github.com/David-Botos/sensor-ingress/pkg/transfer"
)

const exportCSV = `Report time,Asset name,Install location,Project,Content
2025-10-09 14:04:20,Before Scrub,Outlet,projectD,"CO2: 400; Temperature: 21.5"
2025-10-09 14:05:20,Before Scrub,Outlet,projectD,"CO2: 410; HLR Operation Mode: 2"
`

func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	db, err := sqlx.Open("sqlite3", "file:"+filepath.Join(t.TempDir(), "sensors.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	logger := zap.NewNop()
	s, err := store.New(db, converter.DialectSQLite, nil, store.Options{}, logger)
	require.NoError(t, err)
	require.NoError(t, s.EnsureSchema(context.Background()))

	p, err := pipeline.New(pipeline.BasicConfig(content.DefaultLabelTable()), nil, logger)
	require.NoError(t, err)

	m, err := transfer.NewManager(p, s, nil, logger)
	require.NoError(t, err)

	srv, err := NewServer(m, Options{MaxUploadBytes: 1 << 20}, logger)
	require.NoError(t, err)
	return srv.Router()
}

func uploadRequest(t *testing.T, field, filename, body string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func do(h http.Handler, req *http.Request) (*httptest.ResponseRecorder, map[string]interface{}) {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var body map[string]interface{}
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return rec, body
}

func TestNewServerRequiresManager(t *testing.T) {
	_, err := NewServer(nil, Options{}, nil)
	assert.Error(t, err)
}

func TestDebug(t *testing.T) {
	h := newTestServer(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hello, World!", rec.Body.String())
}

func TestCORSHeaders(t *testing.T) {
	h := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/debug", nil)
	req.Header.Set("Origin", "http://dashboard.local")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestUploadThenQuery(t *testing.T) {
	h := newTestServer(t)

	rec, body := do(h, uploadRequest(t, "file", "export.csv", exportCSV))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, body["ok"])
	assert.NotEmpty(t, body["batch_id"])
	assert.Equal(t, 4.0, body["received_rows"])
	assert.Equal(t, 4.0, body["inserted_rows"])
	assert.Equal(t, 0.0, body["skipped_rows"])

	// status labels are excluded from "all"
	rec, body = do(h, httptest.NewRequest(http.MethodGet, "/get?sensor_type=all&start=0&end=1900000000000", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	rows := body["rows"].([]interface{})
	require.Len(t, rows, 3)
	first := rows[0].([]interface{})
	require.Len(t, first, 11)
	assert.Equal(t, "Before Scrub", first[2])
	assert.Equal(t, "projectD", first[7])
	assert.Equal(t, 1760018660000.0, first[8])

	rec, body = do(h, httptest.NewRequest(http.MethodGet,
		"/get?sensor_type=CO2&asset_name=Before+Scrub&project=projectD&start=1760018700000&end=1760018800000", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	rows = body["rows"].([]interface{})
	require.Len(t, rows, 1)
	assert.Equal(t, 410.0, rows[0].([]interface{})[10])

	rec, body = do(h, httptest.NewRequest(http.MethodGet, "/get/param", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, []interface{}{"Before Scrub"}, data["asset_name"])
	assert.ElementsMatch(t, []interface{}{"CO2", "Temperature"}, data["sensor_type"])
}

func TestUploadErrors(t *testing.T) {
	tests := []struct {
		name   string
		req    func(t *testing.T) *http.Request
		status int
	}{
		{"wrong field", func(t *testing.T) *http.Request {
			return uploadRequest(t, "upload", "export.csv", exportCSV)
		}, http.StatusBadRequest},
		{"not multipart", func(t *testing.T) *http.Request {
			return httptest.NewRequest(http.MethodPost, "/upload", bytes.NewBufferString(exportCSV))
		}, http.StatusBadRequest},
		{"unsupported type", func(t *testing.T) *http.Request {
			return uploadRequest(t, "file", "export.xls", exportCSV)
		}, http.StatusUnsupportedMediaType},
		{"empty csv", func(t *testing.T) *http.Request {
			return uploadRequest(t, "file", "export.csv", "")
		}, http.StatusBadRequest},
		{"no content column", func(t *testing.T) *http.Request {
			return uploadRequest(t, "file", "export.csv", "Report time,Asset name\n2025-10-09 14:04:20,Before Scrub\n")
		}, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(t)

			rec, body := do(h, tt.req(t))
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, false, body["ok"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestGetRejectsBadRange(t *testing.T) {
	h := newTestServer(t)

	for _, target := range []string{
		"/get?sensor_type=all&end=10",
		"/get?sensor_type=all&start=yesterday&end=10",
		"/get?sensor_type=all&start=0&end=",
	} {
		rec, body := do(h, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.Equal(t, false, body["ok"], target)
	}
}
