package cache

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
)

// RedisStore implements Store on a redis instance with store-native expiry
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to redis and returns a Store with the given TTL
func NewRedisStore(ctx context.Context, addr string, ttl time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:            addr,
		MaxRetries:      3,
		MinRetryBackoff: 8 * time.Millisecond,
		MaxRetryBackoff: 512 * time.Millisecond,
		DialTimeout:     5 * time.Second,
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    5 * time.Second,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, oops.With("redis_addr", addr, "context", "failed to connect to redis").Wrap(err)
	}

	return &RedisStore{client: client, ttl: ttl}, nil
}

func (s *RedisStore) IsMember(ctx context.Context, userID, channelID int64) (bool, error) {
	value, err := s.client.Get(ctx, subscriptionKey(userID, channelID)).Result()
	if err != nil {
		if stderrors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, oops.With("user_id", userID, "channel_id", channelID).Wrap(err)
	}

	return value == "1", nil
}

func (s *RedisStore) MarkMember(ctx context.Context, userID, channelID int64) error {
	err := s.client.Set(ctx, subscriptionKey(userID, channelID), "1", s.ttl).Err()
	if err != nil {
		return oops.With("user_id", userID, "channel_id", channelID).Wrap(err)
	}

	return nil
}

// Close releases the underlying redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func subscriptionKey(userID, channelID int64) string {
	return fmt.Sprintf("sub:%d:%d", userID, channelID)
}
