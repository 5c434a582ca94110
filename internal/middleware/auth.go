// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

const (
	// authTokenHeader は授権トークン（激活コード）を運ぶリクエストヘッダー。
	authTokenHeader = "X-Auth-Token"
	// deviceIDHeader は端末の機器識別子を運ぶリクエストヘッダー。
	deviceIDHeader = "X-Device-Id"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// deviceIDContextKey はリクエストコンテキストに機器識別子を格納するためのキー。
var deviceIDContextKey = contextKey("device_id")

// CodeValidator は授権コードの検証に必要なインターフェース。
// activation.Engineの部分集合として定義する。
type CodeValidator interface {
	Validate(ctx context.Context, code, deviceID string) bool
}

// NewAuthMiddleware はX-Auth-Token/X-Device-Idヘッダーを検証するミドルウェアを返す。
// 検証を通過したリクエストには機器識別子をコンテキストに注入する。
// ヘッダー欠落・検証失敗には401と {"success":false,"error":...} 形式のボディを返す。
// OPTIONSプリフライトはCORSミドルウェアが先に応答するため、ここには到達しない。
func NewAuthMiddleware(validator CodeValidator) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(authTokenHeader)
			if token == "" {
				slog.Warn("request missing auth token",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
				)
				writeUnauthorized(w, "機能が利用できません。先に激活コードを有効化してください。")
				return
			}

			deviceID := r.Header.Get(deviceIDHeader)
			if deviceID == "" {
				slog.Warn("request missing device id",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
				)
				writeUnauthorized(w, "端末識別子がありません。再度激活してください。")
				return
			}

			if !validator.Validate(r.Context(), token, deviceID) {
				slog.Warn("authorization rejected",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
				)
				writeUnauthorized(w, "授権コードが無効・期限切れ、または別の端末にバインドされています。")
				return
			}

			ctx := context.WithValue(r.Context(), deviceIDContextKey, deviceID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// DeviceIDFromContext はリクエストコンテキストから機器識別子を取得する。
// 授権ミドルウェアを通過したリクエストでのみ有効。
func DeviceIDFromContext(ctx context.Context) (string, error) {
	deviceID, ok := ctx.Value(deviceIDContextKey).(string)
	if !ok || deviceID == "" {
		return "", fmt.Errorf("device ID not found in context")
	}
	return deviceID, nil
}

// ContextWithDeviceID はコンテキストに機器識別子を注入する。テスト用。
func ContextWithDeviceID(ctx context.Context, deviceID string) context.Context {
	return context.WithValue(ctx, deviceIDContextKey, deviceID)
}

// writeUnauthorized は401レスポンスを書き込む。
// ボディの形式はクライアント互換のため {"success":false,"error":...} に固定。
func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   message,
	})
}
