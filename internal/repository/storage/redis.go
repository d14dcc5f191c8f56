package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
)

const (
	pingInitialInterval = 100 * time.Millisecond
	pingMaxInterval     = 2 * time.Second
	pingMaxElapsedTime  = 30 * time.Second
)

type Storage struct {
	Connection *redis.Client
}

// New - connects to Redis, retrying the ping with exponential backoff:
// at boot the container next door is often not accepting connections yet.
func New(ctx context.Context, addr string) (*Storage, error) {
	conn := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = pingInitialInterval
	bo.MaxInterval = pingMaxInterval
	bo.MaxElapsedTime = pingMaxElapsedTime

	operation := func() error {
		return conn.Ping(ctx).Err()
	}

	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Storage{Connection: conn}, nil
}

func (that *Storage) Close() error {
	return that.Connection.Close()
}
