package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/jwebster45206/dialogue-engine/pkg/storage"
)

func TestHealthHandler_ServeHTTP(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))

	tests := []struct {
		name            string
		setupStorage    func() storage.Storage
		expectedStatus  int
		expectedHealth  string
		expectedStorage string
	}{
		{
			name: "all healthy",
			setupStorage: func() storage.Storage {
				m := storage.NewMockStorage()
				m.SetPingSuccess()
				return m
			},
			expectedStatus:  http.StatusOK,
			expectedHealth:  "healthy",
			expectedStorage: "healthy",
		},
		{
			name: "unhealthy storage",
			setupStorage: func() storage.Storage {
				m := storage.NewMockStorage()
				m.SetPingError(errors.New("connection failed"))
				return m
			},
			expectedStatus:  http.StatusServiceUnavailable,
			expectedHealth:  "degraded",
			expectedStorage: "unhealthy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHealthHandler(tt.setupStorage(), logger)

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, rr.Code)
			}
			if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Expected Content-Type application/json, got %s", ct)
			}

			var response HealthResponse
			if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if response.Status != tt.expectedHealth {
				t.Errorf("Expected status %s, got %s", tt.expectedHealth, response.Status)
			}
			if response.Components["storage"] != tt.expectedStorage {
				t.Errorf("Expected storage %s, got %s", tt.expectedStorage, response.Components["storage"])
			}
			if response.Service != "dialogue-engine" {
				t.Errorf("Expected service dialogue-engine, got %s", response.Service)
			}
		})
	}
}

// brokenWriter fails every body write and records what the handler attempted.
type brokenWriter struct {
	header   http.Header
	statuses []int
	writes   []string
}

func (w *brokenWriter) Header() http.Header { return w.header }

func (w *brokenWriter) WriteHeader(status int) { w.statuses = append(w.statuses, status) }

func (w *brokenWriter) Write(b []byte) (int, error) {
	w.writes = append(w.writes, string(b))
	return 0, errors.New("connection reset")
}

func TestHealthHandler_EncodeFailureFallsBackToError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	handler := NewHealthHandler(storage.NewMockStorage(), logger)

	w := &brokenWriter{header: http.Header{}}
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if len(w.statuses) != 2 || w.statuses[0] != http.StatusOK || w.statuses[1] != http.StatusInternalServerError {
		t.Fatalf("Expected statuses [200 500], got %v", w.statuses)
	}
	if len(w.writes) != 2 {
		t.Fatalf("Expected 2 write attempts, got %d", len(w.writes))
	}
	if w.writes[1] != "Internal server error\n" {
		t.Errorf("Expected fallback error body, got %q", w.writes[1])
	}
}
