package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
)

func TestRedisStore_Get_Hit(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisStoreFromClient(client)

	mock.ExpectGet("transgate:code:CODE-1").SetVal("1700000000000|device-a")

	val, ok, err := store.Get(context.Background(), "transgate:code:CODE-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !ok {
		t.Fatal("expected hit")
	}
	if val != "1700000000000|device-a" {
		t.Errorf("val = %q", val)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRedisStore_Get_MissIsNotAnError(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisStoreFromClient(client)

	mock.ExpectGet("transgate:code:NOPE").RedisNil()

	_, ok, err := store.Get(context.Background(), "transgate:code:NOPE")
	if err != nil {
		t.Fatalf("Get() miss should not be an error, got %v", err)
	}
	if ok {
		t.Error("expected miss")
	}
}

func TestRedisStore_Get_ErrorPropagated(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisStoreFromClient(client)

	mock.ExpectGet("k").SetErr(errors.New("connection reset"))

	_, _, err := store.Get(context.Background(), "k")
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestRedisStore_Set_WithTTL(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisStoreFromClient(client)

	mock.ExpectSet("k", "v", time.Hour).SetVal("OK")

	if err := store.Set(context.Background(), "k", "v", time.Hour); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRedisStore_Delete(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisStoreFromClient(client)

	mock.ExpectDel("k").SetVal(1)

	if err := store.Delete(context.Background(), "k"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
}

func TestRedisStore_RefreshTTL(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisStoreFromClient(client)

	mock.ExpectExpire("k", 7*24*time.Hour).SetVal(true)

	if err := store.RefreshTTL(context.Background(), "k", 7*24*time.Hour); err != nil {
		t.Fatalf("RefreshTTL() error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
