// Package config は環境変数からのアプリケーション設定読み込みを提供する。
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// Translation API
	TranslationAPIURL string
	TranslationAPIKey string
	TranslationModel  string
	TranslateTimeout  time.Duration

	// Authorization cache
	// AuthCacheBuffer はキャッシュTTLと永続側到期判定のクロックずれを
	// 吸収するための猶予時間。
	AuthCacheBuffer time.Duration

	// Translation cache
	TranslationCacheTTL time.Duration

	// Rate Limit（req/min単位）
	RateLimitGeneral   int
	RateLimitTranslate int

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.RedisURL = os.Getenv("REDIS_URL")
	if cfg.RedisURL == "" {
		missing = append(missing, "REDIS_URL")
	}

	cfg.TranslationAPIKey = os.Getenv("TRANSLATION_API_KEY")
	if cfg.TranslationAPIKey == "" {
		missing = append(missing, "TRANSLATION_API_KEY")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.TranslationAPIURL = getEnvString("TRANSLATION_API_URL", "")
	cfg.TranslationModel = getEnvString("TRANSLATION_MODEL", "gpt-3.5-turbo")
	cfg.TranslateTimeout = getEnvDuration("TRANSLATE_TIMEOUT", 30*time.Second)
	cfg.AuthCacheBuffer = getEnvDuration("AUTH_CACHE_BUFFER", 10*time.Second)
	cfg.TranslationCacheTTL = getEnvDuration("TRANSLATION_CACHE_TTL", 7*24*time.Hour)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitTranslate = getEnvInt("RATE_LIMIT_TRANSLATE", 60)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "*")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
