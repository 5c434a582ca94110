package cache

import (
	"context"
	"testing"
	"time"
)

func TestAuthCodeCache_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	c := NewAuthCodeCache(NewInMemoryStore())

	entry := AuthEntry{ExpireMillis: 1700000000000, DeviceID: "device-a"}
	if err := c.Save(ctx, "CODE-1", entry, time.Hour); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := c.Get(ctx, "CODE-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got == nil {
		t.Fatal("expected entry")
	}
	if got.ExpireMillis != entry.ExpireMillis {
		t.Errorf("expireMillis = %d, want %d", got.ExpireMillis, entry.ExpireMillis)
	}
	if got.DeviceID != "device-a" {
		t.Errorf("deviceID = %q, want %q", got.DeviceID, "device-a")
	}
}

func TestAuthCodeCache_Get_Miss(t *testing.T) {
	c := NewAuthCodeCache(NewInMemoryStore())

	got, err := c.Get(context.Background(), "NO-SUCH-CODE")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != nil {
		t.Error("expected miss")
	}
}

func TestAuthCodeCache_EmptyDeviceID_RoundTrips(t *testing.T) {
	ctx := context.Background()
	c := NewAuthCodeCache(NewInMemoryStore())

	// 端末未記録のレコードは空文字列で格納される
	if err := c.Save(ctx, "CODE-1", AuthEntry{ExpireMillis: 123}, time.Hour); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := c.Get(ctx, "CODE-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got == nil {
		t.Fatal("expected entry")
	}
	if got.DeviceID != "" {
		t.Errorf("deviceID = %q, want empty", got.DeviceID)
	}
}

func TestAuthCodeCache_CorruptEntry_TreatedAsMissAndDeleted(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	c := NewAuthCodeCache(store)

	// 符号化形式に合わない値を直接仕込む
	if err := store.Set(ctx, "transgate:code:BAD", "not-a-timestamp", time.Hour); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, err := c.Get(ctx, "BAD")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != nil {
		t.Error("expected corrupt entry to be treated as miss")
	}

	// 壊れたエントリは削除されていること
	if _, ok, _ := store.Get(ctx, "transgate:code:BAD"); ok {
		t.Error("expected corrupt entry to be deleted")
	}
}

func TestAuthCodeCache_Delete(t *testing.T) {
	ctx := context.Background()
	c := NewAuthCodeCache(NewInMemoryStore())

	if err := c.Save(ctx, "CODE-1", AuthEntry{ExpireMillis: 123}, time.Hour); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := c.Delete(ctx, "CODE-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	got, _ := c.Get(ctx, "CODE-1")
	if got != nil {
		t.Error("expected entry to be deleted")
	}
}

func TestDecodeAuthEntry_DeviceIDContainingSeparator(t *testing.T) {
	// 機器識別子に区切り文字が含まれても先頭の区切りだけで分割する
	entry, err := decodeAuthEntry("1700000000000|dev|ice")
	if err != nil {
		t.Fatalf("decodeAuthEntry() error = %v", err)
	}
	if entry.DeviceID != "dev|ice" {
		t.Errorf("deviceID = %q, want %q", entry.DeviceID, "dev|ice")
	}
}

func TestInMemoryStore_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	if err := store.Set(ctx, "k", "v", 10*time.Millisecond); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if _, ok, _ := store.Get(ctx, "k"); !ok {
		t.Fatal("expected hit before expiry")
	}

	time.Sleep(20 * time.Millisecond)

	if _, ok, _ := store.Get(ctx, "k"); ok {
		t.Error("expected miss after expiry")
	}
}

func TestInMemoryStore_RefreshTTL_ExtendsWindow(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	if err := store.Set(ctx, "k", "v", 20*time.Millisecond); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := store.RefreshTTL(ctx, "k", time.Hour); err != nil {
		t.Fatalf("RefreshTTL() error = %v", err)
	}

	time.Sleep(30 * time.Millisecond)

	if _, ok, _ := store.Get(ctx, "k"); !ok {
		t.Error("expected refreshed entry to survive original TTL")
	}
}

func TestTranslationResultCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewTranslationResultCache(NewInMemoryStore(), time.Hour)

	if err := c.Set(ctx, "fp-1", "こんにちは"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, ok, err := c.Get(ctx, "fp-1")
	if err != nil || !ok {
		t.Fatalf("Get() ok=%v err=%v", ok, err)
	}
	if got != "こんにちは" {
		t.Errorf("got = %q, want %q", got, "こんにちは")
	}

	if err := c.Refresh(ctx, "fp-1"); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
}
