package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Client wraps the go-redis client.
type Client struct {
	*redis.Client
	logger *zap.Logger
}

// Options holds connection settings.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// NewClient creates a Redis client and verifies connectivity.
func NewClient(ctx context.Context, opts Options, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}

	logger.Info("redis connected", zap.String("addr", opts.Addr), zap.Int("db", opts.DB))
	return &Client{Client: rdb, logger: logger}, nil
}

// Close closes the connection pool and logs the result.
func (c *Client) Close() error {
	err := c.Client.Close()
	if err != nil {
		c.logger.Warn("redis close failed", zap.Error(err))
	}
	return err
}
