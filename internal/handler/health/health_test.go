package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/elecmate/studyquiz/internal/handler/health"
)

type mockChecker struct{ err error }

func (m mockChecker) Check(_ context.Context) error { return m.err }

func TestHandler(t *testing.T) {
	tests := []struct {
		name       string
		checks     map[string]health.Checker
		wantStatus int
		wantBody   map[string]string
	}{
		{
			name: "all healthy",
			checks: map[string]health.Checker{
				"content":  mockChecker{},
				"sessions": mockChecker{},
			},
			wantStatus: http.StatusOK,
			wantBody:   map[string]string{"content": "ok", "sessions": "ok"},
		},
		{
			name: "session store down",
			checks: map[string]health.Checker{
				"content":  mockChecker{},
				"sessions": mockChecker{err: errors.New("refused")},
			},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   map[string]string{"content": "ok", "sessions": "error"},
		},
		{
			name: "func checker",
			checks: map[string]health.Checker{
				"content": health.CheckerFunc(func(context.Context) error { return errors.New("empty catalog") }),
			},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   map[string]string{"content": "error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := health.NewHandler(slog.Default(), tt.checks)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			h.Routes().ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			var body map[string]struct{ Status, Error string }
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decoding response: %v", err)
			}

			for name, want := range tt.wantBody {
				if got := body[name].Status; got != want {
					t.Errorf("%s status = %q, want %q", name, got, want)
				}
				if want == "error" && body[name].Error == "" {
					t.Errorf("%s: expected error detail", name)
				}
			}
		})
	}
}
