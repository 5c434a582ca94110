package middleware

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// cleanupInterval は未使用リミッターの掃除周期。
const cleanupInterval = 10 * time.Minute

// clientLimiter はクライアントごとのレートリミッターと最終アクセス時刻を保持する。
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter はクライアント単位のトークンバケット式レート制限を提供する。
// 一般APIと翻訳APIで別々の制限値を持つ。
type RateLimiter struct {
	mu                sync.Mutex
	generalLimiters   map[string]*clientLimiter
	translateLimiters map[string]*clientLimiter
	generalPerMin     int
	translatePerMin   int
	stopCh            chan struct{}
}

// NewRateLimiter は分あたりの許可リクエスト数を指定してRateLimiterを生成する。
// バックグラウンドで未使用リミッターの掃除goroutineを起動する。
func NewRateLimiter(generalPerMin, translatePerMin int) *RateLimiter {
	rl := &RateLimiter{
		generalLimiters:   make(map[string]*clientLimiter),
		translateLimiters: make(map[string]*clientLimiter),
		generalPerMin:     generalPerMin,
		translatePerMin:   translatePerMin,
		stopCh:            make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Stop は掃除goroutineを停止する。
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

// General は一般APIに対するレート制限ミドルウェアを返す。
// 授権前のエンドポイントにも適用されるため、キーにはリモートアドレスを使う。
func (rl *RateLimiter) General(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientKey(r)
		limiter := rl.getOrCreate(rl.generalLimiters, key, rl.generalPerMin)
		if !limiter.Allow() {
			slog.Warn("rate limit exceeded",
				slog.String("tier", "general"),
				slog.String("key", key),
				slog.String("path", r.URL.Path),
			)
			writeRateLimitResponse(w, rl.generalPerMin)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Translate は翻訳APIに対するレート制限ミドルウェアを返す。
// 授権ミドルウェアの後段に置き、機器識別子をキーとして制限する。
func (rl *RateLimiter) Translate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientKey(r)
		limiter := rl.getOrCreate(rl.translateLimiters, key, rl.translatePerMin)
		if !limiter.Allow() {
			slog.Warn("rate limit exceeded",
				slog.String("tier", "translate"),
				slog.String("key", key),
				slog.String("path", r.URL.Path),
			)
			writeRateLimitResponse(w, rl.translatePerMin)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientKey はレート制限のキーを決定する。
// 授権済みリクエストは機器識別子、それ以外はリモートアドレスを使う。
func clientKey(r *http.Request) string {
	if deviceID, err := DeviceIDFromContext(r.Context()); err == nil {
		return deviceID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// getOrCreate はキーに対応するリミッターを取得、なければ生成する。
func (rl *RateLimiter) getOrCreate(m map[string]*clientLimiter, key string, perMin int) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cl, ok := m[key]
	if !ok {
		cl = &clientLimiter{
			limiter: rate.NewLimiter(rate.Limit(float64(perMin)/60.0), perMin),
		}
		m[key] = cl
	}
	cl.lastSeen = time.Now()
	return cl.limiter
}

// cleanupLoop は一定周期で長期間未使用のリミッターを削除する。
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

// cleanup は掃除周期の2倍以上アクセスのないリミッターを削除する。
func (rl *RateLimiter) cleanup() {
	ttl := cleanupInterval * 2
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for _, m := range []map[string]*clientLimiter{rl.generalLimiters, rl.translateLimiters} {
		for key, cl := range m {
			if now.Sub(cl.lastSeen) > ttl {
				delete(m, key)
			}
		}
	}
}

// writeRateLimitResponse は429レスポンスをRetry-Afterヘッダー付きで書き込む。
func writeRateLimitResponse(w http.ResponseWriter, perMin int) {
	retryAfter := int(math.Ceil(60.0 / float64(perMin)))
	if retryAfter < 1 {
		retryAfter = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusTooManyRequests)
	w.Write([]byte(`{"success":false,"error":"リクエストが多すぎます。しばらくしてから再試行してください。"}`))
}
