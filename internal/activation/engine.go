// Package activation は激活コードのバインド・検証の状態機械を提供する。
//
// 正しさの拠り所は永続ストアの条件付き更新（BindIfUnused）只一点で、
// それ以外の操作はすべて冪等であり、キャッシュはいつ失われても
// 正本から再構築できる。
package activation

import (
	"context"
	"log/slog"
	"time"

	"github.com/hitoshi/transgate/internal/cache"
	"github.com/hitoshi/transgate/internal/model"
	"github.com/hitoshi/transgate/internal/repository"
)

// DefaultBuffer はキャッシュTTLと永続側到期判定のずれを吸収する既定の猶予時間。
const DefaultBuffer = 10 * time.Second

// Config は激活エンジンの設定。
type Config struct {
	// Buffer はキャッシュ到期タイムスタンプに加算する猶予時間。0の場合はDefaultBuffer。
	Buffer time.Duration
}

// Metrics は激活エンジンが記録する計測のインターフェース。
type Metrics interface {
	RecordAuthCacheHit()
	RecordAuthCacheMiss()
	RecordBindOutcome(outcome string)
}

// バインド結果のメトリクスラベル。失敗はAPIErrorのコードをそのまま使う。
const (
	outcomeFirstBind = "FIRST_BIND"
	outcomeRebind    = "REBIND"
)

// Engine は激活コードのバインド・検証・状態確認を提供する。
// 永続ストアを正本とし、授権キャッシュをキャッシュアサイドで維持する。
type Engine struct {
	repo      repository.ActivationCodeRepository
	authCache *cache.AuthCodeCache
	metrics   Metrics
	buffer    time.Duration
}

// NewEngine はEngineを生成する。metricsはnil可。
func NewEngine(repo repository.ActivationCodeRepository, authCache *cache.AuthCodeCache, metrics Metrics, config Config) *Engine {
	buffer := config.Buffer
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Engine{
		repo:      repo,
		authCache: authCache,
		metrics:   metrics,
		buffer:    buffer,
	}
}

// Activate は激活コードをユーザー・端末にバインドする。
// 未使用コードへの初回バインドは永続ストアの条件付き更新で行い、
// 並行バインドでは高々1件しか勝者になれない。敗者は確定済みレコードを
// 読み直し、既使用分岐として決定的な結果に再分類される。
// 失敗もエラーではなくSuccess=falseの結果値として返す。
func (e *Engine) Activate(ctx context.Context, code string, userID int64, deviceID string) *model.ActivationResult {
	rec, err := e.repo.FindByCode(ctx, code)
	if err != nil {
		slog.Error("failed to find activation code",
			slog.String("error", err.Error()),
		)
		return failureResult(model.NewSystemError())
	}
	if rec == nil {
		return e.bindFailure(model.NewCodeNotFoundError())
	}

	if rec.IsUsed {
		return e.resolveUsed(ctx, rec, userID, deviceID)
	}

	// 未使用コード: 条件付き更新によるバインド（比較交換はストア側で原子的）
	rowsAffected, err := e.repo.BindIfUnused(ctx, code, userID, deviceID)
	if err != nil {
		slog.Error("failed to bind activation code",
			slog.String("error", err.Error()),
			slog.Int64("user_id", userID),
		)
		return failureResult(model.NewSystemError())
	}

	if rowsAffected == 0 {
		// 競合に敗北。1回だけ再読込し、既使用分岐として再分類する（自動リトライはしない）
		rec, err = e.repo.FindByCode(ctx, code)
		if err != nil {
			slog.Error("failed to re-read activation code after bind race",
				slog.String("error", err.Error()),
			)
			return failureResult(model.NewSystemError())
		}
		if rec == nil || !rec.IsUsed {
			return e.bindFailure(model.NewBindRaceError())
		}
		return e.resolveUsed(ctx, rec, userID, deviceID)
	}

	// 勝者: 確定したexpire_atを正本から読み直す
	rec, err = e.repo.FindByCode(ctx, code)
	if err != nil {
		slog.Error("failed to re-read activation code after bind",
			slog.String("error", err.Error()),
		)
		return failureResult(model.NewSystemError())
	}
	if rec == nil || rec.ExpireAt == nil {
		return e.bindFailure(model.NewBindRaceError())
	}

	e.metrics.RecordBindOutcome(outcomeFirstBind)
	e.refreshCache(ctx, rec)

	slog.Info("activation code bound",
		slog.Int64("user_id", userID),
		slog.Time("expire_at", *rec.ExpireAt),
	)

	return e.grantResult(rec)
}

// resolveUsed は使用済みレコードに対するバインド要求を分類する。
// 到期 → 端末不一致 → ユーザー不一致の順に判定し、同一ユーザー・同一端末
// （または端末未記録）の再バインドは冪等に既存の授権を返す。
// expire_at・used_atは決して更新しない。
func (e *Engine) resolveUsed(ctx context.Context, rec *model.ActivationCode, userID int64, deviceID string) *model.ActivationResult {
	if rec.IsExpired(time.Now()) {
		return e.bindFailure(model.NewCodeExpiredError())
	}
	if !rec.BoundToDevice(deviceID) {
		return e.bindFailure(model.NewDeviceConflictError())
	}
	if rec.UsedBy != nil && *rec.UsedBy != userID {
		return e.bindFailure(model.NewCodeAlreadyUsedError())
	}

	e.metrics.RecordBindOutcome(outcomeRebind)
	e.refreshCache(ctx, rec)
	return e.grantResult(rec)
}

// Validate は授権コードと端末の組が有効かを判定する。翻訳APIのゲートとして使う。
//
//  1. キャッシュにエントリがあり未到期なら端末照合のみで判定する（正本は見ない）。
//  2. キャッシュ側で到期していればエントリを削除して拒否する。バッファの構成上、
//     このとき正本も必ず到期済みであり、正本への折り返しは不要。
//  3. キャッシュmiss時は正本から再構築する。キャッシュの消失・再起動を
//     生き延びるための調停経路。
//
// キャッシュ読み取りの失敗は正本への折り返しで回復する（フェイルオープン）。
// 正本読み取りの失敗は拒否する（フェイルクローズ）。
func (e *Engine) Validate(ctx context.Context, code, deviceID string) bool {
	if code == "" {
		return false
	}

	entry, err := e.authCache.Get(ctx, code)
	if err != nil {
		slog.Warn("auth cache read failed, falling back to durable store",
			slog.String("error", err.Error()),
		)
		entry = nil
	}

	if entry != nil {
		e.metrics.RecordAuthCacheHit()
		if entry.ExpireMillis <= time.Now().UnixMilli() {
			if err := e.authCache.Delete(ctx, code); err != nil {
				slog.Warn("failed to delete expired auth cache entry",
					slog.String("error", err.Error()),
				)
			}
			return false
		}
		return entry.DeviceID == "" || entry.DeviceID == deviceID
	}

	// キャッシュmiss: 正本から判定して再構築する
	e.metrics.RecordAuthCacheMiss()
	rec, err := e.repo.FindByCode(ctx, code)
	if err != nil {
		slog.Error("failed to find activation code during validation",
			slog.String("error", err.Error()),
		)
		return false
	}
	if rec == nil || !rec.IsUsed {
		return false
	}
	if !rec.BoundToDevice(deviceID) {
		return false
	}
	if rec.ExpireAt == nil || rec.IsExpired(time.Now()) {
		return false
	}

	e.refreshCache(ctx, rec)
	return true
}

// CheckUserStatus はユーザーの授権状態を返す。端末照合は行わない（状態照会であり
// ゲートではない）。有効な授権があればキャッシュを温め直し、バインドと同じ形の
// 結果を返す。
func (e *Engine) CheckUserStatus(ctx context.Context, userID int64) *model.ActivationResult {
	rec, err := e.repo.FindActiveByUser(ctx, userID)
	if err != nil {
		slog.Error("failed to find active code by user",
			slog.String("error", err.Error()),
			slog.Int64("user_id", userID),
		)
		return failureResult(model.NewSystemError())
	}
	if rec == nil {
		return failureResult(model.NewNotAuthorizedError())
	}

	e.refreshCache(ctx, rec)
	return e.grantResult(rec)
}

// refreshCache は永続レコードから授権キャッシュを再構築する。
// TTLは max(到期まで+バッファ, バッファ)。書き込み失敗は授権自体を妨げないため
// ログに残すだけでエラーにはしない。
func (e *Engine) refreshCache(ctx context.Context, rec *model.ActivationCode) {
	if rec.ExpireAt == nil {
		return
	}

	entry := cache.AuthEntry{
		ExpireMillis: rec.ExpireAt.UnixMilli() + e.buffer.Milliseconds(),
	}
	if rec.DeviceID != nil {
		entry.DeviceID = *rec.DeviceID
	}

	ttl := time.Until(*rec.ExpireAt) + e.buffer
	if ttl < e.buffer {
		ttl = e.buffer
	}

	if err := e.authCache.Save(ctx, rec.Code, entry, ttl); err != nil {
		slog.Error("failed to refresh auth cache",
			slog.String("error", err.Error()),
		)
	}
}

// grantResult は授権成功の結果値を組み立てる。Tokenはコード文字列そのもの。
func (e *Engine) grantResult(rec *model.ActivationCode) *model.ActivationResult {
	return &model.ActivationResult{
		Success:         true,
		Message:         "激活に成功しました。",
		Token:           rec.Code,
		ExpireAt:        rec.ExpireAt,
		ExpireTimestamp: rec.ExpireAt.UnixMilli() + e.buffer.Milliseconds(),
	}
}

// bindFailure はバインド失敗を結果別メトリクスに記録した上で結果値に変換する。
func (e *Engine) bindFailure(apiErr *model.APIError) *model.ActivationResult {
	e.metrics.RecordBindOutcome(apiErr.Code)
	return failureResult(apiErr)
}

// failureResult はAPIErrorをSuccess=falseの結果値に変換する。
func failureResult(apiErr *model.APIError) *model.ActivationResult {
	return &model.ActivationResult{
		Success: false,
		Message: apiErr.Message,
	}
}

// nopMetrics は計測なしのMetrics実装。
type nopMetrics struct{}

func (nopMetrics) RecordAuthCacheHit()        {}
func (nopMetrics) RecordAuthCacheMiss()       {}
func (nopMetrics) RecordBindOutcome(_ string) {}
