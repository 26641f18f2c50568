package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

type Config struct {
	URL         string        `envconfig:"URL" required:"true"`
	PoolSize    int           `split_words:"true" default:"10"`
	DialTimeout time.Duration `split_words:"true" default:"5s"`
}

func NewClient(ctx context.Context, cfg Config) (*goredis.Client, error) {
	raw := strings.TrimSpace(cfg.URL)
	if raw == "" {
		return nil, errors.New("redis url is required")
	}

	opts, err := goredis.ParseURL(raw)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}

	client := goredis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}

func MustNew(ctx context.Context, cfg Config) *goredis.Client {
	client, err := NewClient(ctx, cfg)
	if err != nil {
		panic(err)
	}
	return client
}
