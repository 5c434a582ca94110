package cache

import (
	"context"
	"time"
)

// translationKeyPrefix は翻訳結果キャッシュのRedisキープレフィックス。
const translationKeyPrefix = "transgate:translation:"

// TranslationResultCache は翻訳結果のスライディングTTLキャッシュ。
// キーは(原文, ソース言語, ターゲット言語)のフィンガープリント、値は訳文そのもの。
type TranslationResultCache struct {
	store Store
	ttl   time.Duration
}

// NewTranslationResultCache はTranslationResultCacheを生成する。
// ttlは固定TTLウィンドウ（既定7日）。
func NewTranslationResultCache(store Store, ttl time.Duration) *TranslationResultCache {
	return &TranslationResultCache{store: store, ttl: ttl}
}

// Get はフィンガープリントに対応する訳文を取得する。
func (c *TranslationResultCache) Get(ctx context.Context, fingerprint string) (string, bool, error) {
	return c.store.Get(ctx, translationKeyPrefix+fingerprint)
}

// Set は訳文を全TTLウィンドウ付きで格納する。
func (c *TranslationResultCache) Set(ctx context.Context, fingerprint, translatedText string) error {
	return c.store.Set(ctx, translationKeyPrefix+fingerprint, translatedText, c.ttl)
}

// Refresh はヒットしたエントリのTTLを全ウィンドウに戻す。
// 高頻度の言語ペアは継続アクセスがある限り失効しない。
func (c *TranslationResultCache) Refresh(ctx context.Context, fingerprint string) error {
	return c.store.RefreshTTL(ctx, translationKeyPrefix+fingerprint, c.ttl)
}
