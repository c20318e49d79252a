package api

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnnaBNana/timetravel/internal/store"
	"github.com/AnnaBNana/timetravel/internal/testutil"
)

var testTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// newTestRouter builds the API over in-memory backends with a pinned
// clock so response bodies are deterministic.
func newTestRouter(t *testing.T) (*gin.Engine, *testutil.FixedClock) {
	t.Helper()
	clock := testutil.NewFixedClock(testTime)
	records := store.NewMemoryRecords(store.WithClock(clock.Now))
	versioned := store.NewMemoryVersioned(store.WithClock(clock.Now))
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(records, versioned, log).Router(), clock
}

func doRequest(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doRequest(t, router, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok": true}`, w.Body.String())
}

func TestGetRecord_NotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doRequest(t, router, http.MethodGet, "/records/nonexistent-slug", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetRecord_InvalidSlug(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doRequest(t, router, http.MethodGet, "/records/bad%20slug", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPostRecord_InvalidBody(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, body := range []string{`[1, 2]`, `{"a": 5}`, `"nope"`} {
		w := doRequest(t, router, http.MethodPost, "/records/anna", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body %s", body)
	}
}

func TestUpsert_CreateThenUpdate(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doRequest(t, router, http.MethodPost, "/records/anna", `{"name": "Anna"}`)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	w = doRequest(t, router, http.MethodPost, "/records/anna", `{"species": "human"}`)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doRequest(t, router, http.MethodGet, "/records/anna", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"slug": "anna",
		"data": {"name": "Anna", "species": "human"},
		"timestamp": "2024-05-01T12:00:00Z"
	}`, w.Body.String())
}

func TestUpsert_CreateExcludesDeletions(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doRequest(t, router, http.MethodPost, "/records/anna", `{"name": "Anna", "ghost": null, "blank": ""}`)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doRequest(t, router, http.MethodGet, "/records/anna", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"Anna"`)
	assert.NotContains(t, w.Body.String(), "ghost")
	assert.NotContains(t, w.Body.String(), "blank")
}

func TestVersionedFlow(t *testing.T) {
	router, clock := newTestRouter(t)
	g := goldie.New(t)

	// Create version 1.
	w := doRequest(t, router, http.MethodPost, "/records/1/latest", `{"name": "Anna"}`)
	require.Equal(t, http.StatusNoContent, w.Code)

	// Update to version 2 a minute later.
	clock.Advance(time.Minute)
	w = doRequest(t, router, http.MethodPost, "/records/1/latest", `{"name": "Anna", "species": "human"}`)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doRequest(t, router, http.MethodGet, "/records/1/latest", "")
	require.Equal(t, http.StatusOK, w.Code)
	g.Assert(t, "record_latest", w.Body.Bytes())

	w = doRequest(t, router, http.MethodGet, "/records/1/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	g.Assert(t, "record_v1", w.Body.Bytes())

	w = doRequest(t, router, http.MethodGet, "/records/1/versions", "")
	require.Equal(t, http.StatusOK, w.Code)
	g.Assert(t, "versions", w.Body.Bytes())
}

func TestVersioned_NoOpUpdateKeepsVersion(t *testing.T) {
	router, clock := newTestRouter(t)

	w := doRequest(t, router, http.MethodPost, "/records/anna/latest", `{"name": "Anna"}`)
	require.Equal(t, http.StatusNoContent, w.Code)

	clock.Advance(time.Hour)
	w = doRequest(t, router, http.MethodPost, "/records/anna/latest", `{"name": "Anna"}`)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doRequest(t, router, http.MethodGet, "/records/anna/versions", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"versions": [1]}`, w.Body.String())
}

func TestVersioned_NotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doRequest(t, router, http.MethodGet, "/records/none/1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(t, router, http.MethodGet, "/records/none/versions", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(t, router, http.MethodPost, "/records/anna/latest", `{"name": "Anna"}`)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doRequest(t, router, http.MethodGet, "/records/anna/999", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(t, router, http.MethodGet, "/records/anna/not-a-version", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPostVersions_Reserved(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doRequest(t, router, http.MethodPost, "/records/anna/versions", `{"name": "Anna"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequestID_Stamped(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doRequest(t, router, http.MethodGet, "/health", "")
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
}

func TestRequestID_PassedThrough(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-Id", "given-id")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "given-id", w.Header().Get("X-Request-Id"))
}

func TestNoRoute(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doRequest(t, router, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
