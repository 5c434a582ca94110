package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/transgate/internal/model"
)

// PostgresActivationCodeRepo はPostgreSQLを使用した激活コードリポジトリ。
type PostgresActivationCodeRepo struct {
	db *sql.DB
}

// NewPostgresActivationCodeRepo はPostgresActivationCodeRepoを生成する。
func NewPostgresActivationCodeRepo(db *sql.DB) *PostgresActivationCodeRepo {
	return &PostgresActivationCodeRepo{db: db}
}

// FindByCode は指定コードのレコードを取得する。見つからない場合はnilを返す。
func (r *PostgresActivationCodeRepo) FindByCode(ctx context.Context, code string) (*model.ActivationCode, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, code, valid_days, is_used, used_by, device_id, used_at, expire_at, created_at
		 FROM activation_codes
		 WHERE code = $1`,
		code,
	)

	rec, err := scanActivationCode(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find activation code: %w", err)
	}

	return rec, nil
}

// FindActiveByUser は指定ユーザーにバインド済みで未到期のレコードを1件取得する。
// 見つからない場合はnilを返す。
func (r *PostgresActivationCodeRepo) FindActiveByUser(ctx context.Context, userID int64) (*model.ActivationCode, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, code, valid_days, is_used, used_by, device_id, used_at, expire_at, created_at
		 FROM activation_codes
		 WHERE used_by = $1 AND expire_at > now()
		 LIMIT 1`,
		userID,
	)

	rec, err := scanActivationCode(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find active code by user: %w", err)
	}

	return rec, nil
}

// BindIfUnused は未使用のコードに限りユーザー・端末をバインドし、更新件数を返す。
// WHERE句のis_used = FALSEが比較、SET句が交換に相当し、1文のUPDATEとして
// 原子的に実行される。並行バインドでは勝者以外の更新件数が0になる。
func (r *PostgresActivationCodeRepo) BindIfUnused(ctx context.Context, code string, userID int64, deviceID string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE activation_codes
		 SET is_used = TRUE,
		     used_by = $2,
		     device_id = $3,
		     used_at = now(),
		     expire_at = now() + make_interval(days => valid_days)
		 WHERE code = $1 AND is_used = FALSE`,
		code, userID, deviceID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to bind activation code: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

// CreateBatch は未使用コードをまとめて登録する。
// 同一トランザクションで全件登録し、途中で失敗した場合は何も残さない。
func (r *PostgresActivationCodeRepo) CreateBatch(ctx context.Context, codes []*model.ActivationCode) error {
	if len(codes) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, c := range codes {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO activation_codes (code, valid_days)
			 VALUES ($1, $2)`,
			c.Code, c.ValidDays,
		)
		if err != nil {
			return fmt.Errorf("failed to insert activation code: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// rowScanner はsql.Rowとsql.Rowsの共通部分。
type rowScanner interface {
	Scan(dest ...any) error
}

// scanActivationCode は1行をActivationCodeに読み込む。
// NULL許容列はsql.Null*経由でポインタへ変換する。
func scanActivationCode(row rowScanner) (*model.ActivationCode, error) {
	rec := &model.ActivationCode{}
	var (
		usedBy   sql.NullInt64
		deviceID sql.NullString
		usedAt   sql.NullTime
		expireAt sql.NullTime
	)

	err := row.Scan(
		&rec.ID, &rec.Code, &rec.ValidDays, &rec.IsUsed,
		&usedBy, &deviceID, &usedAt, &expireAt, &rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if usedBy.Valid {
		rec.UsedBy = &usedBy.Int64
	}
	if deviceID.Valid {
		rec.DeviceID = &deviceID.String
	}
	if usedAt.Valid {
		t := usedAt.Time
		rec.UsedAt = &t
	}
	if expireAt.Valid {
		t := expireAt.Time
		rec.ExpireAt = &t
	}

	return rec, nil
}

// compile-time interface check
var _ ActivationCodeRepository = (*PostgresActivationCodeRepo)(nil)
