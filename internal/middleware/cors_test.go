package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/itinerary/internal/middleware"
)

const plannerOrigin = "http://localhost:5173"

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestCORSHandler_AllowedOrigin(t *testing.T) {
	h := middleware.NewCORSHandler([]string{plannerOrigin})(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/trip/9b2f6c1e-8d59-4a57-9d0a-3f1f3c7f5a10", nil)
	req.Header.Set("Origin", plannerOrigin)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, plannerOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
}

// The planner saves with POST and a JSON body, which always triggers a
// preflight. rs/cors compares request headers in lowercase.
func TestCORSHandler_SavePreflight(t *testing.T) {
	h := middleware.NewCORSHandler([]string{plannerOrigin})(okHandler)

	req := httptest.NewRequest(http.MethodOptions, "/trip", nil)
	req.Header.Set("Origin", plannerOrigin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "content-type")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Less(t, rec.Code, 300, "preflight should succeed, got %d", rec.Code)
	assert.Equal(t, plannerOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
}

func TestCORSHandler_DisallowedOrigin(t *testing.T) {
	h := middleware.NewCORSHandler([]string{plannerOrigin})(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/trip", nil)
	req.Header.Set("Origin", "http://evil.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
