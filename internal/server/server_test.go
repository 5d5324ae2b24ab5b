package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestJWTAuthWithExclusions(t *testing.T) {
	// middleware-заглушка: отклоняет всё, что до неё дошло.
	deny := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})
	}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	wrapped := JWTAuthWithExclusions(deny, "/", "/health/", "/metrics")(next)

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{"корень исключён точным совпадением", "/", http.StatusNoContent},
		{"health исключён по префиксу", "/health/ready", http.StatusNoContent},
		{"metrics исключён", "/metrics", http.StatusNoContent},
		{"API-путь проходит через middleware", "/api/v1/media/abc", http.StatusUnauthorized},
		{"корневой префикс не расширяется на все пути", "/anything", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			wrapped.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.wantStatus {
				t.Errorf("путь %s: статус %d, ожидался %d", tt.path, rec.Code, tt.wantStatus)
			}
		})
	}
}
