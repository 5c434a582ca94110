// Package model はドメインモデルを定義する。
package model

import "time"

// ActivationCode は発行済みの激活コード（ライセンス）を表す。
// 永続ストアが正本であり、キャッシュはこのレコードからの射影に過ぎない。
type ActivationCode struct {
	ID        int64
	Code      string
	ValidDays int
	IsUsed    bool
	UsedBy    *int64     // 初回バインドしたユーザーID。未使用の間はnil。
	DeviceID  *string    // 初回バインドした端末の機器識別子。未使用の間はnil。
	UsedAt    *time.Time // 初回バインド時刻。
	ExpireAt  *time.Time // 授権の到期時刻。バインド時に確定し以後不変。
	CreatedAt time.Time
}

// IsExpired はコードが到期済みかどうかを返す。
// 未バインド（ExpireAtがnil）のコードは到期扱いにしない。
func (c *ActivationCode) IsExpired(now time.Time) bool {
	return c.ExpireAt != nil && c.ExpireAt.Before(now)
}

// BoundToDevice は指定端末にバインド済みかどうかを返す。
// 端末が記録されていない場合はどの端末とも衝突しない。
func (c *ActivationCode) BoundToDevice(deviceID string) bool {
	return c.DeviceID == nil || *c.DeviceID == deviceID
}

// ActivationResult はバインド／状態確認APIのレスポンス形を表す。
// 失敗もエラーではなくSuccess=falseの結果値として返す。
type ActivationResult struct {
	Success bool
	Message string

	// Token はクライアントが保存する授権トークン。コード文字列そのもの。
	Token string

	// ExpireAt は授権の到期時刻。
	ExpireAt *time.Time

	// ExpireTimestamp は到期時刻+バッファのエポックミリ秒。
	// クライアント側のローカル判定用で、キャッシュの格納値と同じ値。
	ExpireTimestamp int64
}
