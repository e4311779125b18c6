package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/figure-timeline/internal/middleware"
)

const editorOrigin = "http://localhost:5173"

// trivialHandler is a minimal http.Handler that always returns 200.
var trivialHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func corsRequest(method, path, origin string) *httptest.ResponseRecorder {
	h := middleware.NewCORSHandler([]string{editorOrigin})(trivialHandler)
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Origin", origin)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// TestCORSHandler_AllowedOrigin covers the simple requests the timeline
// editor makes against item and export routes.
func TestCORSHandler_AllowedOrigin(t *testing.T) {
	for _, path := range []string{"/items", "/items/1", "/export"} {
		t.Run(path, func(t *testing.T) {
			rec := corsRequest(http.MethodGet, path, editorOrigin)

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, editorOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

// TestCORSHandler_PreflightForSave checks the preflight a browser sends
// before PUT /items/{id} with a JSON body.
func TestCORSHandler_PreflightForSave(t *testing.T) {
	h := middleware.NewCORSHandler([]string{editorOrigin})(trivialHandler)

	req := httptest.NewRequest(http.MethodOptions, "/items/1", nil)
	req.Header.Set("Origin", editorOrigin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	// Browsers send Access-Control-Request-Headers in lowercase.
	req.Header.Set("Access-Control-Request-Headers", "content-type")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.True(t, rec.Code == http.StatusNoContent || rec.Code == http.StatusOK,
		"expected 2xx for OPTIONS preflight, got %d", rec.Code)
	assert.Equal(t, editorOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPut)
}

// A disallowed origin gets no Access-Control-Allow-Origin header; the
// browser then blocks the response even though it is a 200.
func TestCORSHandler_DisallowedOrigin(t *testing.T) {
	rec := corsRequest(http.MethodGet, "/items", "http://evil.example.com")

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

// TestCORSHandler_ExposesRequestID verifies that the editor can read the
// request ID header on a cross-origin response.
func TestCORSHandler_ExposesRequestID(t *testing.T) {
	rec := corsRequest(http.MethodPut, "/items/1", editorOrigin)

	assert.Contains(t, rec.Header().Get("Access-Control-Expose-Headers"), "X-Request-Id")
}
