package storage

import (
	"context"

	"gorm.io/gorm"

	"socialchat/internal/models"
)

// MessageRepository 定义了消息数据操作的接口。
type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	GetByID(ctx context.Context, id string) (*models.Message, error)
	// GetConversation 返回两人之间双向的全部消息，按创建时间升序，不分页。
	GetConversation(ctx context.Context, userID1, userID2 string) ([]*models.Message, error)
	// MarkRead 把 senderID 发给 receiverID 的未读消息标记为已读，返回受影响行数。
	MarkRead(ctx context.Context, senderID, receiverID string) (int64, error)
}

// gormMessageRepository 使用 GORM 实现 MessageRepository。
type gormMessageRepository struct {
	db *gorm.DB
}

// NewGormMessageRepository 创建一个新的基于 GORM 的 MessageRepository。
func NewGormMessageRepository(db *gorm.DB) MessageRepository {
	return &gormMessageRepository{db: db}
}

// Create 在数据库中创建一条新的消息记录。
func (r *gormMessageRepository) Create(ctx context.Context, message *models.Message) error {
	return r.db.WithContext(ctx).Omit("Sender", "Receiver").Create(message).Error
}

// GetByID 通过ID检索消息，并带上双方用户名。
func (r *gormMessageRepository) GetByID(ctx context.Context, id string) (*models.Message, error) {
	var message models.Message
	err := r.db.WithContext(ctx).
		Preload("Sender", selectUserRef).
		Preload("Receiver", selectUserRef).
		Where("id = ?", id).
		First(&message).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}

func (r *gormMessageRepository) GetConversation(ctx context.Context, userID1, userID2 string) ([]*models.Message, error) {
	messages := []*models.Message{}
	err := r.db.WithContext(ctx).
		Preload("Sender", selectUserRef).
		Preload("Receiver", selectUserRef).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", userID1, userID2, userID2, userID1).
		Order("created_at ASC").
		Order("id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *gormMessageRepository) MarkRead(ctx context.Context, senderID, receiverID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("sender_id = ? AND receiver_id = ? AND read = ?", senderID, receiverID, false).
		Update("read", true)
	return result.RowsAffected, result.Error
}

func selectUserRef(db *gorm.DB) *gorm.DB {
	return db.Select("id", "username")
}
