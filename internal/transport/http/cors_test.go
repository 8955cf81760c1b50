package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCORS(t *testing.T) {
	t.Parallel()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("allowed origin gets headers", func(t *testing.T) {
		handler := CORS([]string{"http://localhost:3000"})(next)
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
			t.Fatalf("expected allow-origin header, got %q", got)
		}
	})

	t.Run("unknown origin gets no headers", func(t *testing.T) {
		handler := CORS([]string{"http://localhost:3000"})(next)
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "http://evil.example")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Fatalf("expected no allow-origin header, got %q", got)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("non-preflight request should pass through, got %d", rec.Code)
		}
	})

	t.Run("preflight from unknown origin is forbidden", func(t *testing.T) {
		handler := CORS([]string{"http://localhost:3000"})(next)
		req := httptest.NewRequest(http.MethodOptions, "/reservations", nil)
		req.Header.Set("Origin", "http://evil.example")
		req.Header.Set("Access-Control-Request-Method", "POST")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("preflight from allowed origin short-circuits", func(t *testing.T) {
		handler := CORS([]string{"http://localhost:3000"})(next)
		req := httptest.NewRequest(http.MethodOptions, "/reservations", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Access-Control-Request-Method", "POST")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
		if rec.Header().Get("Access-Control-Allow-Methods") == "" {
			t.Fatalf("expected allow-methods header")
		}
	})

	t.Run("wildcard allows everything", func(t *testing.T) {
		handler := CORS([]string{"*"})(next)
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "http://anything.example")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Fatalf("expected wildcard allow-origin, got %q", got)
		}
	})
}
