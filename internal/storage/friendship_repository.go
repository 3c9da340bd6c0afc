package storage

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"socialchat/internal/models"
)

// FriendshipRepository defines the interface for friendship data operations.
type FriendshipRepository interface {
	// CreatePair 写入两个方向的好友行，已存在的行保持不变。
	CreatePair(ctx context.Context, userID1, userID2 string) error
	Exists(ctx context.Context, userID, friendID string) (bool, error)
	GetFriendIDs(ctx context.Context, userID string) ([]string, error)
}

type gormFriendshipRepository struct {
	db *gorm.DB
}

// NewGormFriendshipRepository creates a new GormFriendshipRepository.
func NewGormFriendshipRepository(db *gorm.DB) FriendshipRepository {
	return &gormFriendshipRepository{db: db}
}

func (r *gormFriendshipRepository) CreatePair(ctx context.Context, userID1, userID2 string) error {
	rows := models.FriendshipPair(userID1, userID2)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
}

// Exists checks whether the (userID -> friendID) edge is present.
func (r *gormFriendshipRepository) Exists(ctx context.Context, userID, friendID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Friendship{}).
		Where("user_id = ? AND friend_id = ?", userID, friendID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetFriendIDs retrieves a list of user IDs who are friends with the given userID.
// 每个方向各有一行，所以只需查 user_id 一侧。
func (r *gormFriendshipRepository) GetFriendIDs(ctx context.Context, userID string) ([]string, error) {
	friendIDs := []string{}
	err := r.db.WithContext(ctx).
		Model(&models.Friendship{}).
		Where("user_id = ?", userID).
		Pluck("friend_id", &friendIDs).Error
	if err != nil {
		return nil, err
	}
	return friendIDs, nil
}
