// Package translation は翻訳オーケストレーションと結果キャッシュを提供する。
//
// 訳文は言語ペアに対して決定的で呼び出し元に依存しないため、結果キャッシュに
// ユーザー・端末の次元はない。キャッシュはヒットのたびにTTLを全ウィンドウへ
// 戻すスライディング方式で、高頻度の言語ペアは実質失効しない。
package translation

import (
	"context"
	"log/slog"
	"time"

	"github.com/hitoshi/transgate/internal/cache"
	"github.com/hitoshi/transgate/internal/model"
)

// Provider は外部翻訳APIのインターフェース。
// 1回の同期呼び出しで訳文を返す。リトライはしない。
type Provider interface {
	// Translate は原文を翻訳して返す。言語はプロンプト用の表示名で渡す。
	Translate(ctx context.Context, text, sourceLangName, targetLangName string) (string, error)
}

// Metrics は翻訳サービスが記録する計測のインターフェース。
type Metrics interface {
	RecordTranslationCacheHit()
	RecordTranslationCacheMiss()
	RecordTranslationLatency(d time.Duration)
	RecordTranslationFailure()
}

// Service は翻訳のキャッシュアサイドオーケストレーター。
type Service struct {
	provider Provider
	cache    *cache.TranslationResultCache
	metrics  Metrics
}

// NewService はServiceを生成する。metricsはnil可。
func NewService(provider Provider, resultCache *cache.TranslationResultCache, metrics Metrics) *Service {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Service{
		provider: provider,
		cache:    resultCache,
		metrics:  metrics,
	}
}

// Translate は原文を翻訳する。
//
//  1. フィンガープリントで結果キャッシュを引く。ヒットならTTLを全ウィンドウへ
//     戻してそのまま返す（外部APIは呼ばない）。
//  2. ミスなら外部翻訳APIを1回だけ同期呼び出しする。失敗は即座に
//     エラー結果として返し、何もキャッシュしない。
//  3. 成功した訳文はキャッシュしてから返す。キャッシュに書けなかった場合は
//     エラー結果を返す（フェイルクローズ）。
func (s *Service) Translate(ctx context.Context, text, sourceLang, targetLang string) *model.TranslateResult {
	key := Fingerprint(text, sourceLang, targetLang)

	cached, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		// 読み取り失敗はmiss扱いで外部APIに進む
		slog.Warn("translation cache read failed",
			slog.String("error", err.Error()),
		)
		ok = false
	}

	if ok {
		s.metrics.RecordTranslationCacheHit()
		if err := s.cache.Refresh(ctx, key); err != nil {
			// 訳文自体は有効なので返す。スライディングウィンドウが縮むだけ。
			slog.Warn("failed to refresh translation cache ttl",
				slog.String("error", err.Error()),
			)
		}
		return s.successResult(cached, sourceLang, targetLang)
	}

	s.metrics.RecordTranslationCacheMiss()

	start := time.Now()
	translated, err := s.provider.Translate(ctx, text, LanguageName(sourceLang), LanguageName(targetLang))
	s.metrics.RecordTranslationLatency(time.Since(start))

	if err != nil {
		s.metrics.RecordTranslationFailure()
		slog.Error("translation api call failed",
			slog.String("error", err.Error()),
			slog.String("source_lang", sourceLang),
			slog.String("target_lang", targetLang),
		)
		return s.failureResult(model.NewTranslationFailedError("翻訳サービスの呼び出しに失敗しました"), sourceLang, targetLang)
	}

	if translated == "" {
		s.metrics.RecordTranslationFailure()
		return s.failureResult(model.NewTranslationFailedError("APIが空の訳文を返しました"), sourceLang, targetLang)
	}

	if err := s.cache.Set(ctx, key, translated); err != nil {
		// 書けなかった結果は返さない。部分的な状態を作らないためのフェイルクローズ。
		s.metrics.RecordTranslationFailure()
		slog.Error("failed to cache translation result",
			slog.String("error", err.Error()),
		)
		return s.failureResult(model.NewTranslationFailedError("翻訳結果の保存に失敗しました"), sourceLang, targetLang)
	}

	return s.successResult(translated, sourceLang, targetLang)
}

func (s *Service) successResult(translatedText, sourceLang, targetLang string) *model.TranslateResult {
	return &model.TranslateResult{
		TranslatedText: translatedText,
		SourceLang:     sourceLang,
		TargetLang:     targetLang,
		Success:        true,
	}
}

func (s *Service) failureResult(apiErr *model.APIError, sourceLang, targetLang string) *model.TranslateResult {
	return &model.TranslateResult{
		SourceLang: sourceLang,
		TargetLang: targetLang,
		Success:    false,
		Error:      apiErr.Message,
	}
}

// nopMetrics は計測なしのMetrics実装。
type nopMetrics struct{}

func (nopMetrics) RecordTranslationCacheHit()               {}
func (nopMetrics) RecordTranslationCacheMiss()              {}
func (nopMetrics) RecordTranslationLatency(_ time.Duration) {}
func (nopMetrics) RecordTranslationFailure()                {}
