package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// RedisStore persists conversations through a native Redis connection.
type RedisStore struct {
	keyspace
	client goredis.UniversalClient
}

func NewRedisStore(client goredis.UniversalClient, opts ...StoreOption) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	o, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	return &RedisStore{keyspace: o.keyspace, client: client}, nil
}

func (s *RedisStore) Load(ctx context.Context, sessionID string) (*Conversation, error) {
	key, err := s.key(sessionID)
	if err != nil {
		return nil, err
	}

	payload, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return decodeConversation(payload)
}

func (s *RedisStore) Save(ctx context.Context, c *Conversation) error {
	payload, err := encodeConversation(c, time.Now())
	if err != nil {
		return err
	}
	key, err := s.key(c.SessionID)
	if err != nil {
		return err
	}

	// zero expiration keeps the key forever
	if err := s.client.Set(ctx, key, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	key, err := s.key(sessionID)
	if err != nil {
		return err
	}
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}
