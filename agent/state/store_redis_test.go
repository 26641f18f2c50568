package state

import (
	"context"
	"errors"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

func newUnreachableRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	client := goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	store, err := NewRedisStore(client, WithKeyPrefix("test:"))
	if err != nil {
		t.Fatalf("NewRedisStore() error = %v", err)
	}
	return store
}

func TestNewRedisStoreRequiresClient(t *testing.T) {
	t.Parallel()

	if _, err := NewRedisStore(nil); err == nil {
		t.Fatal("expected error for nil client")
	}
}

func TestNewRedisStoreRejectsNegativeTTL(t *testing.T) {
	t.Parallel()

	client := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()

	if _, err := NewRedisStore(client, WithTTL(-time.Second)); err == nil {
		t.Fatal("expected error for negative ttl")
	}
}

func TestRedisStoreRejectsEmptySessionBeforeDialing(t *testing.T) {
	t.Parallel()

	store := newUnreachableRedisStore(t)
	ctx := context.Background()

	if _, err := store.Load(ctx, " "); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("Load() error = %v, want ErrInvalidSession", err)
	}
	if err := store.Delete(ctx, ""); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("Delete() error = %v, want ErrInvalidSession", err)
	}
	if err := store.Save(ctx, &Conversation{}); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("Save() error = %v, want ErrInvalidSession", err)
	}
	if err := store.Save(ctx, nil); !errors.Is(err, ErrNilConversation) {
		t.Fatalf("Save(nil) error = %v, want ErrNilConversation", err)
	}
}

func TestRedisStoreWrapsTransportErrors(t *testing.T) {
	t.Parallel()

	store := newUnreachableRedisStore(t)

	_, err := store.Load(context.Background(), "abc")
	if err == nil {
		t.Fatal("expected error from unreachable redis")
	}
	if errors.Is(err, ErrStateNotFound) {
		t.Fatalf("Load() error = %v, must not be ErrStateNotFound", err)
	}
}
