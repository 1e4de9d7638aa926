package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/commercekit/payments/internal/shared/config"
)

// NewRedisClient connects to the Redis instance backing the gift
// certificate locks. The connection is verified up front: a payment
// service that cannot take locks must fail at startup, not on the
// first authorization.
func NewRedisClient(cfg *config.RedisConfig) (redis.UniversalClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:       cfg.Address,
		Password:   cfg.Password,
		DB:         cfg.DB,
		ClientName: "payments",
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return client, nil
}

// Close closes the Redis client.
func Close(client redis.UniversalClient) error {
	return client.Close()
}
