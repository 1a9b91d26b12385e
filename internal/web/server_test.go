package web

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NeilMisra99/payprompt-ai-sub001/internal/config"
	"github.com/NeilMisra99/payprompt-ai-sub001/internal/importer"
	"github.com/NeilMisra99/payprompt-ai-sub001/internal/reminder"
	"github.com/NeilMisra99/payprompt-ai-sub001/internal/store"
)

const testAPIKey = "test-key"

var testTenant = uuid.MustParse("6f1e1a3e-9f2d-4c9a-9a75-0d3b8f1c2e4d")

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: 8080},
		Import: config.ImportConfig{
			MaxFileSize:   1 << 20,
			Epsilon:       "0.01",
			DefaultStatus: "draft",
			Timeout:       time.Minute,
		},
		Rate: config.RateLimitConfig{Enabled: false},
		Security: config.SecurityConfig{
			RequireAPIKey: true,
			APIKeys:       []string{testAPIKey + ":" + testTenant.String()},
		},
		Logging: config.LoggingConfig{Level: "error", Format: "text"},
	}
}

// fakeStreamer emits fixed chunks, or fails after a number of them.
type fakeStreamer struct {
	chunks    []string
	failAfter int // -1: never fail
}

func (f *fakeStreamer) Stream(ctx context.Context, req reminder.Request, emit func(string) error) error {
	for i, chunk := range f.chunks {
		if f.failAfter >= 0 && i == f.failAfter {
			return context.DeadlineExceeded
		}
		if err := emit(chunk); err != nil {
			return err
		}
	}
	if f.failAfter >= 0 {
		return context.DeadlineExceeded
	}
	return nil
}

func newTestServer(t *testing.T, st store.Store, streamer ReminderStreamer) *Server {
	t.Helper()
	srv, err := NewServer(testConfig(), st, streamer)
	require.NoError(t, err)
	return srv
}

func multipartBody(t *testing.T, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for field, content := range files {
		fw, err := w.CreateFormFile(field, field+".csv")
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func doImport(t *testing.T, srv *Server, path string, files map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, files)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-API-Key", testAPIKey)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

const (
	testClientsCSV = "name,email\nAcme Corp,billing@acme.com\n"

	testInvoicesCSV = "invoice_number,client_email,issue_date,due_date,subtotal,tax,discount,total,status\n" +
		"INV-001,billing@acme.com,2026-01-10,2026-02-10,100,10,0,110,sent\n"

	testItemsCSV = "invoice_number,description,quantity,price,amount\n" +
		"INV-001,Consulting,3,9.99,29.97\n"
)

func decodeImportResponse(t *testing.T, rec *httptest.ResponseRecorder) importResponse {
	t.Helper()
	var resp importResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestHealthz_NoAuthRequired(t *testing.T) {
	srv := newTestServer(t, store.NewMemory(), nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuth_MissingKey(t *testing.T) {
	srv := newTestServer(t, store.NewMemory(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/import/status", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "AUTH_MISSING_KEY")
}

func TestAuth_WrongKey(t *testing.T) {
	srv := newTestServer(t, store.NewMemory(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/import/status", nil)
	req.Header.Set("X-API-Key", "not-the-key")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "AUTH_INVALID_KEY")
}

func TestImportStatus(t *testing.T) {
	srv := newTestServer(t, store.NewMemory(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/import/status", nil)
	req.Header.Set("X-API-Key", testAPIKey)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Kinds []struct {
			Kind       string `json:"kind"`
			NaturalKey string `json:"natural_key"`
		} `json:"kinds"`
		MaxFileSize int64 `json:"max_file_size"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Kinds, 3)
	assert.Equal(t, "clients", resp.Kinds[0].Kind)
	assert.Equal(t, "email", resp.Kinds[0].NaturalKey)
	assert.Equal(t, int64(1<<20), resp.MaxFileSize)
}

func TestImportPreview_PersistsNothing(t *testing.T) {
	st := store.NewMemory()
	srv := newTestServer(t, st, nil)

	rec := doImport(t, srv, "/api/import/preview", map[string]string{
		"clients":  testClientsCSV,
		"invoices": testInvoicesCSV,
		"items":    testItemsCSV,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeImportResponse(t, rec)
	assert.True(t, resp.DryRun)
	assert.Nil(t, resp.Commit)

	lookup, err := st.Lookup(context.Background(), testTenant)
	require.NoError(t, err)
	assert.Empty(t, lookup.ClientIDsByEmail, "preview must not write to the store")
}

func TestImport_CommitsBatch(t *testing.T) {
	st := store.NewMemory()
	srv := newTestServer(t, st, nil)

	rec := doImport(t, srv, "/api/import", map[string]string{
		"clients":  testClientsCSV,
		"invoices": testInvoicesCSV,
		"items":    testItemsCSV,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeImportResponse(t, rec)
	assert.False(t, resp.DryRun)
	require.NotNil(t, resp.Commit)
	assert.Equal(t, 1, resp.Commit.ClientsCreated)
	assert.Equal(t, 1, resp.Commit.InvoicesCreated)
	assert.Equal(t, 1, resp.Commit.ItemsCreated)

	inv, err := st.InvoiceByNumber(context.Background(), testTenant, "INV-001")
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", inv.ClientName)
}

func TestImport_ReimportIsConflict(t *testing.T) {
	st := store.NewMemory()
	srv := newTestServer(t, st, nil)

	first := doImport(t, srv, "/api/import", map[string]string{
		"clients":  testClientsCSV,
		"invoices": testInvoicesCSV,
	})
	require.Equal(t, http.StatusOK, first.Code)

	second := doImport(t, srv, "/api/import", map[string]string{
		"clients":  testClientsCSV,
		"invoices": testInvoicesCSV,
	})
	require.Equal(t, http.StatusOK, second.Code)

	resp := decodeImportResponse(t, second)
	// The client already exists (no-op); the invoice number collides.
	require.NotNil(t, resp.Commit)
	assert.Equal(t, 0, resp.Commit.ClientsCreated)
	assert.Equal(t, 0, resp.Commit.InvoicesCreated)
	require.Len(t, resp.Report.Unresolved, 1)
	assert.Contains(t, resp.Report.Unresolved[0].Reasons, "duplicate_key:invoice_number")
}

func TestImport_NoFiles(t *testing.T) {
	srv := newTestServer(t, store.NewMemory(), nil)

	rec := doImport(t, srv, "/api/import", map[string]string{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "BAD_REQUEST")
}

func TestImport_UnparseableHeader(t *testing.T) {
	srv := newTestServer(t, store.NewMemory(), nil)

	rec := doImport(t, srv, "/api/import", map[string]string{
		"invoices": "completely,unrelated,columns\n1,2,3\n",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "PARSE_FAILED")
}

func TestImport_FileTooLarge(t *testing.T) {
	srv := newTestServer(t, store.NewMemory(), nil)

	big := "name,email\n" + strings.Repeat("Acme,billing@acme.com\n", 1<<16)
	require.Greater(t, int64(len(big)), testConfig().Import.MaxFileSize)

	rec := doImport(t, srv, "/api/import", map[string]string{"clients": big})

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func seedInvoice(t *testing.T, st *store.Memory) {
	t.Helper()
	rec := importer.InvoiceRecord{
		InvoiceNumber: "INV-001",
		ClientEmail:   "billing@acme.com",
		Status:        importer.StatusSent,
	}
	_, err := st.CommitBatch(context.Background(), testTenant, importer.Batch{
		ClientsToCreate: []importer.ClientRecord{{Name: "Acme", Email: "billing@acme.com"}},
		Invoices: []importer.ResolvedInvoice{
			{InvoiceRecord: rec, Client: importer.ClientRef{Email: "billing@acme.com", InBatch: true}},
		},
	})
	require.NoError(t, err)
}

func postReminder(srv *Server, invoiceNumber, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/invoices/"+invoiceNumber+"/reminder", strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-API-Key", testAPIKey)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestReminder_StreamsSSE(t *testing.T) {
	st := store.NewMemory()
	seedInvoice(t, st)
	srv := newTestServer(t, st, &fakeStreamer{chunks: []string{"Dear ", "Acme,"}, failAfter: -1})

	rec := postReminder(srv, "INV-001", `{"tone":"firm","business_name":"PayPrompt"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, `data: {"text":"Dear "}`)
	assert.Contains(t, body, `data: {"text":"Acme,"}`)
	assert.Contains(t, body, "event: done")
}

func TestReminder_StreamFailureEmitsErrorEvent(t *testing.T) {
	st := store.NewMemory()
	seedInvoice(t, st)
	srv := newTestServer(t, st, &fakeStreamer{chunks: []string{"Dear "}, failAfter: 1})

	rec := postReminder(srv, "INV-001", "")

	// Headers were already sent as 200; failure is signaled in-band.
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `data: {"text":"Dear "}`)
	assert.Contains(t, body, "event: error")
	assert.NotContains(t, body, "event: done")
}

func TestReminder_UnknownInvoice(t *testing.T) {
	srv := newTestServer(t, store.NewMemory(), &fakeStreamer{failAfter: -1})

	rec := postReminder(srv, "INV-999", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "NOT_FOUND")
}

func TestReminder_DisabledStreamer(t *testing.T) {
	st := store.NewMemory()
	seedInvoice(t, st)
	srv := newTestServer(t, st, nil)

	rec := postReminder(srv, "INV-001", "")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "UNAVAILABLE")
}

func TestRateLimiter_Returns429(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 2}
	srv, err := NewServer(cfg, store.NewMemory(), nil)
	require.NoError(t, err)
	defer srv.Shutdown(context.Background())

	var last int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.RemoteAddr = "203.0.113.9:1234"
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)
		last = rec.Code
	}

	assert.Equal(t, http.StatusTooManyRequests, last)
}

func TestShutdown_StopsRateLimiterCleanup(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 2}
	srv, err := NewServer(cfg, store.NewMemory(), nil)
	require.NoError(t, err)

	require.NoError(t, srv.Shutdown(context.Background()))

	select {
	case <-srv.limiter.done:
	default:
		t.Fatal("cleanup goroutine was not signalled to stop")
	}
}
