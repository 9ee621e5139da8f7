package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/atelier/internal/metrics"
	"github.com/hitoshi/atelier/internal/middleware"
)

// HealthChecker はDB疎通確認のインターフェース。*sql.DBが実装する。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	ViewerBuilder     middleware.ViewerBuilder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	CSRFConfig        middleware.CSRFConfig
	Logger            *slog.Logger

	// ヘルスチェック・メトリクス
	HealthChecker   HealthChecker
	MetricsGatherer prometheus.Gatherer

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig
	Collector   metrics.MetricsCollector

	// コンテンツ
	WorkService WorkServiceInterface

	// パスワードゲート
	GateHandler *GateHandler

	// 掲載実績
	PressService PressServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORS → SecurityHeaders → Logging → Recovery → CSRF → Viewer → RateLimit(General)
//
// 閲覧者ミドルウェアは未認証でも401を返さない。ポートフォリオは匿名でも
// （リダクション付きで）閲覧できるため、認証の強制は/clients/meのように
// RequireAuthを明示的に重ねたルートに限る。
// /health と /metrics はミドルウェアチェーンの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	authHandler := NewAuthHandler(deps.AuthService, deps.Collector, deps.AuthConfig)
	workHandler := NewWorkHandler(deps.WorkService)
	pressHandler := NewPressHandler(deps.PressService)

	// --- ミドルウェアチェーンの外のルート ---

	r.Get("/health", newHealthHandler(deps.HealthChecker))

	if deps.MetricsGatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.MetricsGatherer))
	}

	// --- 通常のAPIルート ---

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
		r.Use(middleware.NewSecurityHeadersMiddleware())
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
		r.Use(middleware.NewRecoveryMiddleware())
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))
		r.Use(middleware.NewViewerMiddleware(deps.ViewerBuilder))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// CSRFトークン取得
		r.Handle("/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig))

		// 実績（匿名閲覧可・開示判定付き）
		r.Route("/api/work", func(r chi.Router) {
			r.Get("/", workHandler.ListWork)
			r.Get("/{slug}", workHandler.GetWork)
		})

		// 掲載実績（匿名閲覧可）
		r.Get("/api/press", pressHandler.ListMentions)

		// パスワードゲート（ログインセッションとは独立）
		r.Route("/api/gate/{storageKey}", func(r chi.Router) {
			r.Get("/", deps.GateHandler.Status)
			r.Post("/", deps.GateHandler.Unlock)
		})

		// クライアントログイン
		r.Route("/clients", func(r chi.Router) {
			// ログイン試行には専用レート制限を追加
			r.With(deps.RateLimiter.LoginMiddleware()).Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)
			r.With(middleware.RequireAuth()).Get("/me", authHandler.Me)
		})
	})

	return r
}

// newHealthHandler はDB疎通確認付きのヘルスチェックハンドラーを返す。
func newHealthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status := "ok"
		statusCode := http.StatusOK

		if checker != nil {
			if err := checker.PingContext(ctx); err != nil {
				status = "unavailable"
				statusCode = http.StatusServiceUnavailable
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		json.NewEncoder(w).Encode(map[string]string{"status": status})
	}
}
