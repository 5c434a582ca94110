package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/transgate/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	CodeValidator     middleware.CodeValidator
	HTTPMetrics       middleware.HTTPMetrics

	// サービス
	ActivationService  ActivationServiceInterface
	TranslationService TranslationServiceInterface

	// ヘルスチェック
	DB Pinger

	// Prometheusエクスポーター
	MetricsHandler http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORSMiddleware → LoggingMiddleware → RecoveryMiddleware
//
// 翻訳ルートには追加で AuthMiddleware → RateLimit(Translate) を適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// 全ルートに効くミドルウェア
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.HTTPMetrics))
	r.Use(middleware.NewRecoveryMiddleware())

	activationHandler := NewActivationHandler(deps.ActivationService)
	translationHandler := NewTranslationHandler(deps.TranslationService)

	// --- 授権不要のルート ---

	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.General)

		r.Post("/api/activate", activationHandler.Activate)
		r.Get("/api/check", activationHandler.Check)
	})

	// --- 授権が必要なルート ---
	// ミドルウェアスタック: Auth → RateLimit(Translate)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.CodeValidator))
		r.Use(deps.RateLimiter.Translate)

		r.Post("/api/translate", translationHandler.Translate)
		r.Get("/api/languages", translationHandler.Languages)
	})

	// 運用エンドポイント
	r.Get("/health", NewHealthHandler(deps.DB))
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	return r
}
