package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

// TestRouterIntegration_RefreshRouteChain は
// CORS -> Logging -> RateLimit のミドルウェアチェーンがchi.Routerで正しく動作することを検証する。
func TestRouterIntegration_RefreshRouteChain(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	rl := NewRateLimiter(RateLimiterConfig{
		RefreshRate:     1,
		RefreshBurst:    2,
		CleanupInterval: time.Minute,
	}, logger)
	defer rl.Stop()

	r := chi.NewRouter()
	r.Use(NewCORSMiddleware("http://localhost:8080"))
	r.Use(NewLoggingMiddleware(logger))

	r.Get("/api/launches", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Group(func(r chi.Router) {
		r.Use(rl.RefreshMiddleware())
		r.Post("/api/launches/refresh", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	})

	do := func(method, path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		req.RemoteAddr = "192.0.2.10:40000"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	// 再取得は2回まで通り、3回目は429
	for i := 0; i < 2; i++ {
		if w := do(http.MethodPost, "/api/launches/refresh"); w.Code != http.StatusOK {
			t.Errorf("refresh %d: status = %d, want 200", i, w.Code)
		}
	}
	w := do(http.MethodPost, "/api/launches/refresh")
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("refresh 3: status = %d, want 429", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:8080" {
		t.Errorf("429レスポンスにCORSヘッダーがない: %q", got)
	}

	// 一覧取得はレート制限の対象外
	for i := 0; i < 5; i++ {
		if w := do(http.MethodGet, "/api/launches"); w.Code != http.StatusOK {
			t.Errorf("list %d: status = %d, want 200", i, w.Code)
		}
	}
}
