package cache

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// authKeyPrefix は授権キャッシュのRedisキープレフィックス。
const authKeyPrefix = "transgate:code:"

// AuthEntry は激活コード1件分のキャッシュ値を表す。
// 永続レコードからの射影で、到期判定と端末照合に必要な2項目のみを持つ。
type AuthEntry struct {
	// ExpireMillis は到期時刻+バッファのエポックミリ秒。
	ExpireMillis int64
	// DeviceID はバインド済み端末の機器識別子。未記録の場合は空文字列。
	DeviceID string
}

// AuthCodeCache は激活コードの授権キャッシュ。
// 格納形式は "<epochMillis>|<deviceId>"。形式はクライアントとの互換のため固定。
type AuthCodeCache struct {
	store Store
}

// NewAuthCodeCache はAuthCodeCacheを生成する。
func NewAuthCodeCache(store Store) *AuthCodeCache {
	return &AuthCodeCache{store: store}
}

// Get は指定コードのキャッシュエントリを取得する。missの場合はnilを返す。
func (c *AuthCodeCache) Get(ctx context.Context, code string) (*AuthEntry, error) {
	raw, ok, err := c.store.Get(ctx, authKeyPrefix+code)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	entry, err := decodeAuthEntry(raw)
	if err != nil {
		// 壊れたエントリは正本から再構築できるのでmiss扱いで捨てる
		_ = c.store.Delete(ctx, authKeyPrefix+code)
		return nil, nil
	}

	return entry, nil
}

// Save はエントリをTTL付きで格納する。
// 同じキーへの再書き込みは常に安全で、バインド・検証の両経路から冪等に呼ばれる。
func (c *AuthCodeCache) Save(ctx context.Context, code string, entry AuthEntry, ttl time.Duration) error {
	return c.store.Set(ctx, authKeyPrefix+code, encodeAuthEntry(entry), ttl)
}

// Delete は指定コードのエントリを削除する。
func (c *AuthCodeCache) Delete(ctx context.Context, code string) error {
	return c.store.Delete(ctx, authKeyPrefix+code)
}

// encodeAuthEntry はエントリを "<epochMillis>|<deviceId>" に符号化する。
func encodeAuthEntry(entry AuthEntry) string {
	return fmt.Sprintf("%d|%s", entry.ExpireMillis, entry.DeviceID)
}

// decodeAuthEntry は "<epochMillis>|<deviceId>" を復号する。
// 機器識別子に"|"が含まれても先頭の区切りだけで分割する。
func decodeAuthEntry(raw string) (*AuthEntry, error) {
	parts := strings.SplitN(raw, "|", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("malformed auth cache entry: %q", raw)
	}

	millis, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed auth cache timestamp: %w", err)
	}

	return &AuthEntry{
		ExpireMillis: millis,
		DeviceID:     parts[1],
	}, nil
}
