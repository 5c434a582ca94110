// Package cache は授権キャッシュと翻訳結果キャッシュを提供する。
// どちらも使い捨て可能な揮発ストアであり、失っても正しさは損なわれない。
package cache

import (
	"context"
	"time"
)

// Store はTTL付きキーバリューストアのインターフェース。
// Redis実装とテスト用インメモリ実装がある。
type Store interface {
	// Get は値を取得する。キーが存在しない（または期限切れの）場合はfalseを返す。
	Get(ctx context.Context, key string) (string, bool, error)

	// Set は値をTTL付きで格納する。既存キーは上書きされTTLも設定し直される。
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete はキーを削除する。存在しないキーの削除はエラーにしない。
	Delete(ctx context.Context, key string) error

	// RefreshTTL は値を変えずにTTLだけを設定し直す。
	RefreshTTL(ctx context.Context, key string, ttl time.Duration) error
}
