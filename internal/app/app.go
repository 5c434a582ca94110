// Package app はアプリケーションの初期化と起動を担う。
package app

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/transgate/internal/activation"
	"github.com/hitoshi/transgate/internal/cache"
	"github.com/hitoshi/transgate/internal/config"
	"github.com/hitoshi/transgate/internal/database"
	"github.com/hitoshi/transgate/internal/handler"
	"github.com/hitoshi/transgate/internal/logger"
	"github.com/hitoshi/transgate/internal/metrics"
	"github.com/hitoshi/transgate/internal/middleware"
	"github.com/hitoshi/transgate/internal/model"
	"github.com/hitoshi/transgate/internal/provider"
	"github.com/hitoshi/transgate/internal/repository"
	"github.com/hitoshi/transgate/internal/translation"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	case CommandIssue:
		return runIssue(cfg, w, args[1:])
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB・Redis接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. Redis接続
	redisStore, err := cache.NewRedisStore(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer redisStore.Close()

	slog.Info("redis connection established")

	// 3. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 4. リポジトリとキャッシュの初期化
	codeRepo := repository.NewPostgresActivationCodeRepo(db)
	authCache := cache.NewAuthCodeCache(redisStore)
	resultCache := cache.NewTranslationResultCache(redisStore, cfg.TranslationCacheTTL)

	// 5. ドメインサービスの初期化
	engine := activation.NewEngine(codeRepo, authCache, collector, activation.Config{
		Buffer: cfg.AuthCacheBuffer,
	})

	translationProvider := provider.NewOpenAIProvider(provider.OpenAIConfig{
		APIKey:  cfg.TranslationAPIKey,
		BaseURL: cfg.TranslationAPIURL,
		Model:   cfg.TranslationModel,
		Timeout: cfg.TranslateTimeout,
	})
	translationService := translation.NewService(translationProvider, resultCache, collector)

	// 6. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitGeneral, cfg.RateLimitTranslate)
	defer rateLimiter.Stop()

	deps := &handler.RouterDeps{
		Logger:            slog.Default(),
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		CodeValidator:     engine,
		HTTPMetrics:       collector,

		ActivationService:  engine,
		TranslationService: translationService,

		DB: db,

		MetricsHandler: metrics.Handler(registry),
	}

	router := handler.NewRouter(deps)

	// 7. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runIssue は未使用の激活コードをまとめて発行し、標準出力に印字する。
// 使い方: transgate issue -n 10 -days 30
func runIssue(cfg *config.Config, w io.Writer, args []string) error {
	fs := flag.NewFlagSet("issue", flag.ContinueOnError)
	count := fs.Int("n", 1, "発行するコードの数")
	validDays := fs.Int("days", 30, "激活後の有効日数")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("failed to parse issue flags: %w", err)
	}

	if *count < 1 || *validDays < 1 {
		return fmt.Errorf("invalid issue flags: n=%d days=%d", *count, *validDays)
	}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	codeRepo := repository.NewPostgresActivationCodeRepo(db)

	codes := make([]*model.ActivationCode, 0, *count)
	for i := 0; i < *count; i++ {
		codes = append(codes, &model.ActivationCode{
			Code:      uuid.NewString(),
			ValidDays: *validDays,
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := codeRepo.CreateBatch(ctx, codes); err != nil {
		return fmt.Errorf("failed to create activation codes: %w", err)
	}

	for _, code := range codes {
		fmt.Fprintln(w, code.Code)
	}

	slog.Info("activation codes issued",
		slog.Int("count", *count),
		slog.Int("valid_days", *validDays),
	)
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
