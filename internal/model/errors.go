// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: activation, validation, translation, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeNotFound          = "CODE_NOT_FOUND"
	ErrCodeAlreadyUsed       = "CODE_ALREADY_USED"
	ErrCodeDeviceConflict    = "DEVICE_CONFLICT"
	ErrCodeExpired           = "CODE_EXPIRED"
	ErrCodeBindRace          = "BIND_RACE"
	ErrCodeNotAuthorized     = "NOT_AUTHORIZED"
	ErrCodeTranslationFailed = "TRANSLATION_FAILED"
	ErrCodeSystem            = "SYSTEM_ERROR"
)

// NewSystemError はストア到達不能などの内部エラーを生成する。
// 原因の詳細はログにのみ残し、ユーザーには汎用メッセージを返す。
func NewSystemError() *APIError {
	return &APIError{
		Code:     ErrCodeSystem,
		Message:  "システムエラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewCodeNotFoundError は激活コード未登録エラーを生成する。
func NewCodeNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeNotFound,
		Message:  "激活コードが存在しません。",
		Category: "activation",
		Action:   "コードの綴りを確認してください。",
	}
}

// NewCodeAlreadyUsedError は他ユーザー使用済みエラーを生成する。
func NewCodeAlreadyUsedError() *APIError {
	return &APIError{
		Code:     ErrCodeAlreadyUsed,
		Message:  "この激活コードは既に他のユーザーに使用されています。",
		Category: "activation",
		Action:   "未使用のコードで再度お試しください。",
	}
}

// NewDeviceConflictError は端末不一致エラーを生成する。
func NewDeviceConflictError() *APIError {
	return &APIError{
		Code:     ErrCodeDeviceConflict,
		Message:  "この激活コードは別の端末にバインドされています。",
		Category: "activation",
		Action:   "最初に激活した端末でご利用ください。",
	}
}

// NewCodeExpiredError は授権到期エラーを生成する。
func NewCodeExpiredError() *APIError {
	return &APIError{
		Code:     ErrCodeExpired,
		Message:  "授権の有効期限が切れています。",
		Category: "activation",
		Action:   "新しい激活コードを取得してください。",
	}
}

// NewBindRaceError はバインド競合エラーを生成する。
// 条件付き更新が0件だったが、再読込でも使用済みに遷移していなかった場合に使う。
func NewBindRaceError() *APIError {
	return &APIError{
		Code:     ErrCodeBindRace,
		Message:  "激活に失敗しました。",
		Category: "activation",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewNotAuthorizedError は未授権エラーを生成する。
func NewNotAuthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeNotAuthorized,
		Message:  "未授権または期限切れです。激活してからご利用ください。",
		Category: "activation",
		Action:   "激活コードを入力して授権を有効化してください。",
	}
}

// NewTranslationFailedError は翻訳失敗エラーを生成する。
func NewTranslationFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeTranslationFailed,
		Message:  fmt.Sprintf("翻訳に失敗しました: %s", reason),
		Category: "translation",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
