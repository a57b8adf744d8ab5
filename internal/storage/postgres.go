package storage

import (
	"context"
	"errors"
	"fmt"

	"pairchat/backend/internal/models"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostgresStore keeps one FriendList row per code and updates both rows of an
// edge inside one transaction.
type PostgresStore struct {
	DB *gorm.DB
}

func NewPostgresStore(db *gorm.DB) *PostgresStore {
	return &PostgresStore{DB: db}
}

// Migrate creates the friend_lists table.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if err := s.DB.WithContext(ctx).AutoMigrate(&models.FriendList{}); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// lockList ensures the row for code exists and returns it locked for update.
func lockList(tx *gorm.DB, code string) (*models.FriendList, error) {
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.FriendList{Code: code}).Error; err != nil {
		return nil, err
	}
	var list models.FriendList
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("code = ?", code).
		First(&list).Error; err != nil {
		return nil, err
	}
	return &list, nil
}

// lockPair locks both rows in code order, so two transactions touching the
// same pair always queue on the same row first.
func lockPair(tx *gorm.DB, codeA, codeB string) (*models.FriendList, *models.FriendList, error) {
	lo, hi := codeA, codeB
	if hi < lo {
		lo, hi = hi, lo
	}
	lists := make(map[string]*models.FriendList, 2)
	for _, code := range []string{lo, hi} {
		list, err := lockList(tx, code)
		if err != nil {
			return nil, nil, err
		}
		lists[code] = list
	}
	return lists[codeA], lists[codeB], nil
}

// updatePair applies edit to both lists of an edge inside one transaction and
// saves the rows edit reports as changed.
func (s *PostgresStore) updatePair(ctx context.Context, codeA, codeB string, edit func(list *models.FriendList, friend string) bool) error {
	if err := checkPair(codeA, codeB); err != nil {
		return err
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		listA, listB, err := lockPair(tx, codeA, codeB)
		if err != nil {
			return err
		}
		for _, edge := range []struct {
			list   *models.FriendList
			friend string
		}{{listA, codeB}, {listB, codeA}} {
			if !edit(edge.list, edge.friend) {
				continue
			}
			if err := tx.Save(edge.list).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *PostgresStore) AddFriendPair(ctx context.Context, codeA, codeB string) error {
	return s.updatePair(ctx, codeA, codeB, (*models.FriendList).Add)
}

func (s *PostgresStore) RemoveFriendPair(ctx context.Context, codeA, codeB string) error {
	return s.updatePair(ctx, codeA, codeB, (*models.FriendList).Remove)
}

func (s *PostgresStore) GetFriends(ctx context.Context, code string) ([]string, error) {
	var list models.FriendList
	err := s.DB.WithContext(ctx).Where("code = ?", code).First(&list).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return []string{}, nil
	}
	if err != nil {
		log.Error().Err(err).Str("module", "storage").Str("code", code).Msg("failed to load friend list")
		return nil, err
	}
	return sorted(append([]string(nil), list.Friends...)), nil
}

func (s *PostgresStore) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
