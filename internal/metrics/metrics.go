// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する実装。
// 激活エンジン・翻訳サービス・HTTPミドルウェアがそれぞれ必要な部分集合の
// インターフェース越しに利用する。
type Collector struct {
	authCacheHit         prometheus.Counter
	authCacheMiss        prometheus.Counter
	bindOutcome          *prometheus.CounterVec
	translationCacheHit  prometheus.Counter
	translationCacheMiss prometheus.Counter
	translationLatency   prometheus.Histogram
	translationFail      prometheus.Counter
	httpStatus           *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		authCacheHit: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "transgate_auth_cache_hit_total",
			Help: "授権キャッシュヒットの合計数",
		}),
		authCacheMiss: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "transgate_auth_cache_miss_total",
			Help: "授権キャッシュミス（正本からの再構築）の合計数",
		}),
		bindOutcome: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "transgate_bind_outcome_total",
			Help: "激活コードバインドの結果別の合計数",
		}, []string{"outcome"}),
		translationCacheHit: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "transgate_translation_cache_hit_total",
			Help: "翻訳結果キャッシュヒットの合計数",
		}),
		translationCacheMiss: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "transgate_translation_cache_miss_total",
			Help: "翻訳結果キャッシュミスの合計数",
		}),
		translationLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "transgate_translation_latency_seconds",
			Help:    "外部翻訳API呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		translationFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "transgate_translation_fail_total",
			Help: "翻訳失敗の合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "transgate_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.authCacheHit,
		c.authCacheMiss,
		c.bindOutcome,
		c.translationCacheHit,
		c.translationCacheMiss,
		c.translationLatency,
		c.translationFail,
		c.httpStatus,
	)

	return c
}

// RecordAuthCacheHit は授権キャッシュヒットを記録する。
func (c *Collector) RecordAuthCacheHit() {
	c.authCacheHit.Inc()
}

// RecordAuthCacheMiss は授権キャッシュミスを記録する。
func (c *Collector) RecordAuthCacheMiss() {
	c.authCacheMiss.Inc()
}

// RecordBindOutcome はバインド結果を記録する。
func (c *Collector) RecordBindOutcome(outcome string) {
	c.bindOutcome.WithLabelValues(outcome).Inc()
}

// RecordTranslationCacheHit は翻訳キャッシュヒットを記録する。
func (c *Collector) RecordTranslationCacheHit() {
	c.translationCacheHit.Inc()
}

// RecordTranslationCacheMiss は翻訳キャッシュミスを記録する。
func (c *Collector) RecordTranslationCacheMiss() {
	c.translationCacheMiss.Inc()
}

// RecordTranslationLatency は外部翻訳APIのレイテンシを記録する。
func (c *Collector) RecordTranslationLatency(d time.Duration) {
	c.translationLatency.Observe(d.Seconds())
}

// RecordTranslationFailure は翻訳失敗を記録する。
func (c *Collector) RecordTranslationFailure() {
	c.translationFail.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
