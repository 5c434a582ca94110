package cache

import (
	"context"
	"sync"
	"time"
)

// memoryEntry は値と絶対到期時刻を保持する。
type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// InMemoryStore はテスト・ローカル開発用のスレッドセーフなStore実装。
// キーごとに独立したTTLを持つ。
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

// NewInMemoryStore はInMemoryStoreを生成する。
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		entries: make(map[string]memoryEntry),
	}
}

// Get は値を取得する。期限切れエントリは削除した上でmiss扱いにする。
func (s *InMemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return "", false, nil
	}

	if time.Now().After(entry.expiresAt) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return "", false, nil
	}

	return entry.value, true, nil
}

// Set は値をTTL付きで格納する。
func (s *InMemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = memoryEntry{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

// Delete はキーを削除する。
func (s *InMemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

// RefreshTTL は既存エントリのTTLだけを設定し直す。キーが無ければ何もしない。
func (s *InMemoryStore) RefreshTTL(_ context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil
	}
	entry.expiresAt = time.Now().Add(ttl)
	s.entries[key] = entry
	return nil
}

// Len は格納されているエントリ数を返す（期限切れ含む）。
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// compile-time interface check
var _ Store = (*InMemoryStore)(nil)
