package trace

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BurairCodes/Expense-tracker/internal/log"
	"github.com/BurairCodes/Expense-tracker/internal/metrics"
)

func newTestMiddleware(buf *bytes.Buffer, m *metrics.Metrics) *Middleware {
	logger := log.New(log.Config{Format: "json", Output: buf})
	return NewMiddleware(func(*http.Request) string { return "203.0.113.9" }, logger, m)
}

func TestMiddlewareAssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	var seen string
	h := newTestMiddleware(&buf, nil).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		w.WriteHeader(http.StatusCreated)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/expenses", nil))

	assert.Equal(t, http.StatusCreated, rec.Code)
	_, err := uuid.Parse(seen)
	require.NoError(t, err)
	assert.Equal(t, seen, rec.Header().Get(HeaderRequestID))
	assert.Contains(t, buf.String(), `"request_id":"`+seen+`"`)
	assert.Contains(t, buf.String(), "HTTP request completed")
}

func TestMiddlewareInstallsRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	h := newTestMiddleware(&buf, nil).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).InfoContext(r.Context(), "inside handler")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/income", nil)
	id := uuid.NewString()
	req.Header.Set(HeaderRequestID, id)
	h.ServeHTTP(httptest.NewRecorder(), req)

	for _, line := range bytes.Split(buf.Bytes(), []byte("\n")) {
		if bytes.Contains(line, []byte("inside handler")) {
			assert.Contains(t, string(line), `"request_id":"`+id+`"`)
			assert.Contains(t, string(line), `"component":"trace"`)
			return
		}
	}
	t.Fatalf("handler log line missing: %s", buf.String())
}

func TestMiddlewareKeepsValidIncomingID(t *testing.T) {
	var buf bytes.Buffer
	h := newTestMiddleware(&buf, nil).Middleware(http.NotFoundHandler())

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, id)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, id, rec.Header().Get(HeaderRequestID))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "not-a-uuid\n")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.NotEqual(t, "not-a-uuid\n", rec.Header().Get(HeaderRequestID))
}

func TestMiddlewareRecordsRoutePattern(t *testing.T) {
	var buf bytes.Buffer
	m := metrics.New()
	r := chi.NewRouter()
	r.Use(newTestMiddleware(&buf, m).Middleware)
	r.Get("/api/{collection}", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("[]"))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/income", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, 1, testutil.CollectAndCount(m.Registry(), "tracker_http_requests_total"))
	assert.Contains(t, dump(t, m), `route="/api/{collection}"`)
}

func dump(t *testing.T, m *metrics.Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	return rec.Body.String()
}

func TestGetRequestIDMissing(t *testing.T) {
	assert.Empty(t, GetRequestID(httptest.NewRequest(http.MethodGet, "/", nil).Context()))
}
