// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/transgate/internal/model"
)

// ActivationCodeRepository は激活コードの永続化インターフェース。
// 永続ストアがバインド状態と到期の唯一の正本となる。
type ActivationCodeRepository interface {
	// FindByCode は指定コードのレコードを取得する。見つからない場合はnilを返す。
	FindByCode(ctx context.Context, code string) (*model.ActivationCode, error)

	// FindActiveByUser は指定ユーザーにバインド済みで未到期のレコードを1件取得する。
	// 見つからない場合はnilを返す。
	FindActiveByUser(ctx context.Context, userID int64) (*model.ActivationCode, error)

	// BindIfUnused は未使用のコードに限りユーザー・端末をバインドする条件付き更新を行い、
	// 更新件数を返す。is_usedのfalse→true遷移はこの1文の中で原子的に行われるため、
	// 同一コードへの並行バインドは高々1件しか成功しない。
	// used_atは現在時刻、expire_atはused_at + valid_days日に確定する。
	BindIfUnused(ctx context.Context, code string, userID int64, deviceID string) (int64, error)

	// CreateBatch は未使用コードをまとめて登録する。発行サブコマンド用。
	CreateBatch(ctx context.Context, codes []*model.ActivationCode) error
}
