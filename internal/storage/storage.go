// Package storage persists friend edges. The core only ever talks to the
// Storage interface; the backend is picked by config.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"pairchat/backend/internal/config"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var (
	ErrUnknownBackend = errors.New("unknown friend store backend")
	ErrInvalidPair    = errors.New("friend pair needs two distinct non-empty codes")
)

// Storage is the external friend store. Writes are symmetric: after
// AddFriendPair(a, b) both GetFriends(a) and GetFriends(b) see the other code,
// or neither does when an error is returned.
type Storage interface {
	AddFriendPair(ctx context.Context, codeA, codeB string) error
	RemoveFriendPair(ctx context.Context, codeA, codeB string) error
	GetFriends(ctx context.Context, code string) ([]string, error)
	Close() error
}

// Open connects the backend named in cfg.FriendStore.
func Open(ctx context.Context, cfg *config.Config) (Storage, error) {
	switch cfg.FriendStore {
	case config.FriendStoreMemory:
		return NewMemoryStore(), nil

	case config.FriendStoreRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("failed to connect redis: %w", err)
		}
		log.Info().Str("module", "storage").Str("addr", cfg.RedisAddr).Msg("redis friend store ready")
		return NewRedisStore(rdb), nil

	case config.FriendStorePostgres:
		db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
		if err != nil {
			return nil, fmt.Errorf("failed to connect postgres: %w", err)
		}
		store := NewPostgresStore(db)
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, err
		}
		log.Info().Str("module", "storage").Msg("postgres friend store ready, migrations complete")
		return store, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.FriendStore)
}

func checkPair(codeA, codeB string) error {
	if codeA == "" || codeB == "" || codeA == codeB {
		return ErrInvalidPair
	}
	return nil
}

func sorted(codes []string) []string {
	sort.Strings(codes)
	return codes
}
