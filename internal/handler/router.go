package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/launchdeck/internal/boundary"
	"github.com/hitoshi/launchdeck/internal/geo"
	"github.com/hitoshi/launchdeck/internal/location"
	"github.com/hitoshi/launchdeck/internal/middleware"
	"github.com/hitoshi/launchdeck/internal/model"
	"github.com/hitoshi/launchdeck/internal/security"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	Logger *slog.Logger

	// ミドルウェア依存
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Boundary          *boundary.Boundary

	// 一覧画面
	Directory DirectoryService

	// 詳細画面
	Details  DetailLoader
	Location location.Provider
	MapSize  geo.MapSize

	// セキュリティ
	Sanitizer security.ContentSanitizerService
	Guard     security.SSRFGuardService

	// GET /metrics。nilの場合はルートを登録しない
	Metrics http.Handler
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → (画面) Boundary / (再取得) RateLimit
//
// 画面ルートは Boundary の内側に置き、描画中の障害は回復画面に置き換える。
// JSON API は Recovery が統一エラーフォーマットの500を返す。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware(deps.Logger))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))

	dirHandler := NewDirectoryHandler(deps.Directory, deps.Sanitizer, deps.Guard)
	padHandler := NewLaunchpadHandler(deps.Details, deps.Location, deps.Sanitizer, deps.MapSize)

	// --- 運用ルート ---
	r.Get("/health", Health)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}
	r.Handle("/static/*", staticHandler())

	// 回復画面の "Try Again"
	r.Post(boundary.ResetPath, deps.Boundary.ResetHandler().ServeHTTP)

	// --- 画面ルート ---
	// ミドルウェアスタック: Boundary
	r.Group(func(r chi.Router) {
		r.Use(deps.Boundary.Middleware)

		r.Get("/", dirHandler.Index)
		r.With(deps.RateLimiter.RefreshMiddlewareWith(rejectPage)).Post("/refresh", dirHandler.Refresh)
		r.Get("/launches/{id}", dirHandler.Select)

		r.Route("/launchpads/{id}", func(r chi.Router) {
			r.Get("/", padHandler.Show)
			r.Get("/directions", padHandler.Directions)
		})
		r.Get("/settings", padHandler.Settings)
	})

	// --- JSON API ---
	r.Route("/api", func(r chi.Router) {
		r.Get("/launches", dirHandler.APIList)
		r.With(deps.RateLimiter.RefreshMiddleware()).Post("/launches/refresh", dirHandler.APIRefresh)
		r.Get("/launchpads/{id}", padHandler.APIShow)
	})

	return r
}

// Health はヘルスチェックに応答する。
// GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// rejectPage はフォームからの再取得が制限を超えたときに案内画面を返す。
func rejectPage(w http.ResponseWriter, _ *http.Request, apiErr *model.APIError) {
	renderNotice(w, http.StatusTooManyRequests, apiErr, "/")
}
