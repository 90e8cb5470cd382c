package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when a QR entry is absent or has expired.
var ErrNotFound = errors.New("qr entry not found")

// qrTTL bounds how long a cached QR artifact outlives its last write.
// Entries for deleted links that miss the explicit delete path expire here.
const qrTTL = 24 * time.Hour

// QRCache stores generated QR artifacts keyed by short code. Entries are
// derived data: safe to lose, safe to regenerate, no ownership invariant.
type QRCache interface {
	SaveQR(ctx context.Context, shortCode, base64PNG string) error
	GetQR(ctx context.Context, shortCode string) (string, error)
	DeleteQR(ctx context.Context, shortCode string) error
}

type redisQRCache struct {
	client *redis.Client
}

// Connect establishes a Redis connection, retrying a few times so the
// service survives the cache starting after it does.
func Connect(ctx context.Context, redisURL string, attempts int) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	for i := 0; i < attempts; i++ {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = client.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			return client, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Second):
		}
	}

	return nil, fmt.Errorf("failed to connect to redis: %w", err)
}

// NewQRCache creates a Redis-backed QR cache on an injected client. The
// caller owns the client's lifetime.
func NewQRCache(client *redis.Client) QRCache {
	return &redisQRCache{client: client}
}

func qrKey(shortCode string) string {
	return "qr:" + shortCode
}

// SaveQR stores the artifact and (re)sets its TTL to 24 hours.
func (c *redisQRCache) SaveQR(ctx context.Context, shortCode, base64PNG string) error {
	return c.client.Set(ctx, qrKey(shortCode), base64PNG, qrTTL).Err()
}

func (c *redisQRCache) GetQR(ctx context.Context, shortCode string) (string, error) {
	val, err := c.client.Get(ctx, qrKey(shortCode)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (c *redisQRCache) DeleteQR(ctx context.Context, shortCode string) error {
	return c.client.Del(ctx, qrKey(shortCode)).Err()
}
