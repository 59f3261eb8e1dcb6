package web

import (
	"bytes"
	"compress/gzip"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"sheetsearch/config"
	"sheetsearch/loader"
	"sheetsearch/session"
)

type testServer struct {
	srv     *Server
	handler http.Handler
	store   *session.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWith(t, config.Default())
}

func newTestServerWith(t *testing.T, cfg config.Config) *testServer {
	t.Helper()
	require.NoError(t, cfg.Validate())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := session.NewStore(cfg.SnapshotTTL, cfg.MaxSnapshots)
	srv := New(cfg, store, loader.New(cfg.LoaderOptions(), logger), logger)
	return &testServer{srv: srv, handler: srv.Handler(), store: store}
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func peopleWorkbook(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	rows := [][]any{
		{"Name", "Age", "Date", "City"},
		{"Alice", 10, 20230115, "Paris"},
		{"bob", 20, 20230201, "Oslo"},
		{"ALICE", 30, 20230310, "Lima"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func uploadRequest(t *testing.T, name string, data []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if name != "" {
		part, err := mw.CreateFormFile("file", name)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// upload posts the people workbook and returns the snapshot path.
func (ts *testServer) upload(t *testing.T) string {
	t.Helper()
	rec := ts.do(uploadRequest(t, "people.xlsx", peopleWorkbook(t), nil))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	loc := rec.Header().Get("Location")
	require.True(t, strings.HasPrefix(loc, "/sheets/"), loc)
	return loc
}

func formRequest(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestUploadPage(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Upload your Excel file")
	assert.NotContains(t, rec.Body.String(), `name="search"`)
}

func TestUploadAndDisplay(t *testing.T) {
	ts := newTestServer(t)
	loc := ts.upload(t)

	rec := ts.do(httptest.NewRequest(http.MethodGet, loc, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Uploaded DataFrame:")
	assert.Contains(t, body, "2023-01-15", "designated date column is normalized")
	assert.Contains(t, body, "Filter by Age (numeric):")
	assert.Contains(t, body, "Filter by Date (date):")
	assert.Contains(t, body, "Filter by Name:")
	assert.Contains(t, body, `value="10"`, "numeric input starts at the column minimum")
	assert.Contains(t, body, "Search and Filter")
}

func TestUploadWithoutFile(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(uploadRequest(t, "", nil, map[string]string{"date_columns": "Date"}))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.Equal(t, 0, ts.store.Len())
}

func TestUploadRejects(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(uploadRequest(t, "legacy.xls", []byte("x"), nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid file type")

	rec = ts.do(uploadRequest(t, "broken.xlsx", []byte("not a workbook"), nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Failed to read spreadsheet")
}

func TestUploadTooManyRows(t *testing.T) {
	ts := newTestServer(t)
	ts.srv.cfg.MaxRows = 2

	rec := ts.do(uploadRequest(t, "people.xlsx", peopleWorkbook(t), nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Too many rows")
}

func TestUploadCompressedTooLarge(t *testing.T) {
	cfg := config.Default()
	cfg.MaxUploadMB = 1
	cfg.MaxExpandedMB = 1
	ts := newTestServerWith(t, cfg)

	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	_, err := gw.Write([]byte("A,B\n"))
	require.NoError(t, err)
	line := []byte("1234567890,1234567890\n")
	for written := 0; written < 8<<20; written += len(line) {
		_, err = gw.Write(line)
		require.NoError(t, err)
	}
	require.NoError(t, gw.Close())
	require.Less(t, gz.Len(), 1<<20)

	rec := ts.do(uploadRequest(t, "bomb.csv.gz", gz.Bytes(), nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "too large once decompressed")
	assert.Equal(t, 0, ts.store.Len())
}

func TestUploadCSVRowLimit(t *testing.T) {
	cfg := config.Default()
	cfg.MaxRows = 5
	ts := newTestServerWith(t, cfg)

	csv := "A\n" + strings.Repeat("1\n", 6)
	rec := ts.do(uploadRequest(t, "rows.csv", []byte(csv), nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Too many rows (> 5)")
}

func TestUploadExtraDateColumns(t *testing.T) {
	ts := newTestServer(t)
	csv := "Name,Shipped\nx,20240102\ny,20240305\n"

	rec := ts.do(uploadRequest(t, "orders.csv", []byte(csv), map[string]string{"date_columns": "Ship*"}))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = ts.do(httptest.NewRequest(http.MethodGet, rec.Header().Get("Location"), nil))
	assert.Contains(t, rec.Body.String(), "Filter by Shipped (date):")
	assert.Contains(t, rec.Body.String(), "2024-03-05")
}

func TestUnknownSnapshotRedirects(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/sheets/1b4e28ba-2fa1-11d2-883f-0016d3cca427", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestFilter(t *testing.T) {
	ts := newTestServer(t)
	loc := ts.upload(t)

	tests := []struct {
		name    string
		form    url.Values
		present []string
		absent  []string
	}{
		{
			name:    "numeric",
			form:    url.Values{"op_1": {">="}, "value_1": {"20"}},
			present: []string{"bob", "ALICE"},
			absent:  []string{"Paris"},
		},
		{
			name:    "pattern",
			form:    url.Values{"pattern_0": {"ali"}},
			present: []string{"Paris", "Lima"},
			absent:  []string{"Oslo"},
		},
		{
			name:    "date",
			form:    url.Values{"op_2": {"<"}, "value_2": {"2023-02-01"}},
			present: []string{"Paris"},
			absent:  []string{"Oslo", "Lima"},
		},
		{
			name:    "search then filter",
			form:    url.Values{"search": {"ALI"}, "op_1": {">"}, "value_1": {"15"}},
			present: []string{"Lima"},
			absent:  []string{"Paris", "Oslo"},
		},
		{
			name:    "nothing configured",
			form:    url.Values{"value_1": {"99"}},
			present: []string{"Paris", "Oslo", "Lima"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(formRequest(loc+"/filter", tt.form))
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			body := rec.Body.String()
			assert.Contains(t, body, "Filtered DataFrame:")
			for _, s := range tt.present {
				assert.Contains(t, body, s)
			}
			for _, s := range tt.absent {
				assert.NotContains(t, body, s)
			}
		})
	}
}

func TestFilterBadInput(t *testing.T) {
	ts := newTestServer(t)
	loc := ts.upload(t)

	for _, form := range []url.Values{
		{"op_1": {"=~"}, "value_1": {"1"}},
		{"op_1": {">"}, "value_1": {"ten"}},
		{"op_2": {">"}, "value_2": {"yesterday"}},
		{"operation": {"mode"}},
	} {
		rec := ts.do(formRequest(loc+"/filter", form))
		assert.Equal(t, http.StatusBadRequest, rec.Code, form.Encode())
	}
}

func TestFilterSummary(t *testing.T) {
	ts := newTestServer(t)
	loc := ts.upload(t)

	rec := ts.do(formRequest(loc+"/filter", url.Values{"op_1": {">"}, "value_1": {"10"}, "operation": {"sum"}}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "50.00")
}

func TestFilterLeavesSnapshotIntact(t *testing.T) {
	ts := newTestServer(t)
	loc := ts.upload(t)

	rec := ts.do(formRequest(loc+"/filter", url.Values{"pattern_3": {"oslo"}}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "Paris")

	rec = ts.do(httptest.NewRequest(http.MethodGet, loc, nil))
	assert.Contains(t, rec.Body.String(), "Paris")
	assert.Contains(t, rec.Body.String(), "3 of 3 rows")
}
