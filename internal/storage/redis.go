package storage

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const friendKeyPrefix = "friends:"

func friendKey(code string) string {
	return friendKeyPrefix + code
}

// RedisStore keeps one set per code. Both sides of an edge are written in a
// single MULTI/EXEC so a failed write never leaves a one-sided edge.
type RedisStore struct {
	Redis *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{Redis: rdb}
}

func (s *RedisStore) AddFriendPair(ctx context.Context, codeA, codeB string) error {
	if err := checkPair(codeA, codeB); err != nil {
		return err
	}
	_, err := s.Redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, friendKey(codeA), codeB)
		pipe.SAdd(ctx, friendKey(codeB), codeA)
		return nil
	})
	return err
}

func (s *RedisStore) RemoveFriendPair(ctx context.Context, codeA, codeB string) error {
	if err := checkPair(codeA, codeB); err != nil {
		return err
	}
	_, err := s.Redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SRem(ctx, friendKey(codeA), codeB)
		pipe.SRem(ctx, friendKey(codeB), codeA)
		return nil
	})
	return err
}

func (s *RedisStore) GetFriends(ctx context.Context, code string) ([]string, error) {
	codes, err := s.Redis.SMembers(ctx, friendKey(code)).Result()
	if err != nil {
		return nil, err
	}
	return sorted(codes), nil
}

func (s *RedisStore) Close() error {
	return s.Redis.Close()
}
