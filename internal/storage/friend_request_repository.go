package storage

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"socialchat/internal/models"
)

// FriendRequestRepository defines the interface for friend request data operations.
type FriendRequestRepository interface {
	// Create 插入一条 pending 请求。同一对用户已有 pending 请求时返回 gorm.ErrDuplicatedKey。
	Create(ctx context.Context, request *models.FriendRequest) error
	FindPendingBetween(ctx context.Context, userID1, userID2 string) (*models.FriendRequest, error)
	GetByID(ctx context.Context, id string) (*models.FriendRequest, error)
	// ResolvePending 只在请求仍为 pending 且接收者匹配时更新状态，否则返回 gorm.ErrRecordNotFound。
	ResolvePending(ctx context.Context, id, receiverID string, status models.FriendRequestStatus) error
	ListPendingReceived(ctx context.Context, receiverID string) ([]*models.FriendRequest, error)
	ListPendingSent(ctx context.Context, senderID string) ([]*models.FriendRequest, error)
	PendingReceiverIDsFrom(ctx context.Context, senderID string) ([]string, error)
	ListAcceptedWithoutFriendship(ctx context.Context) ([]*models.FriendRequest, error)
}

type gormFriendRequestRepository struct {
	db *gorm.DB
}

func NewGormFriendRequestRepository(db *gorm.DB) FriendRequestRepository {
	return &gormFriendRequestRepository{db: db}
}

func (r *gormFriendRequestRepository) Create(ctx context.Context, request *models.FriendRequest) error {
	request.PairKey = models.PairKeyFor(request.SenderID, request.ReceiverID)
	if request.Status == "" {
		request.Status = models.FriendRequestStatusPending
	}
	return r.db.WithContext(ctx).Create(request).Error
}

// FindPendingBetween checks if there is an existing pending request between two users (in either direction).
func (r *gormFriendRequestRepository) FindPendingBetween(ctx context.Context, userID1, userID2 string) (*models.FriendRequest, error) {
	var request models.FriendRequest
	err := r.db.WithContext(ctx).
		Where("pair_key = ? AND status = ?", models.PairKeyFor(userID1, userID2), models.FriendRequestStatusPending).
		First(&request).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // 没有 pending 请求不算错误
		}
		return nil, err
	}
	return &request, nil
}

func (r *gormFriendRequestRepository) GetByID(ctx context.Context, id string) (*models.FriendRequest, error) {
	var request models.FriendRequest
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *gormFriendRequestRepository) ResolvePending(ctx context.Context, id, receiverID string, status models.FriendRequestStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.FriendRequest{}).
		Where("id = ? AND receiver_id = ? AND status = ?", id, receiverID, models.FriendRequestStatusPending).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListPendingReceived 返回发给 receiverID 的 pending 请求，预加载发送者。
func (r *gormFriendRequestRepository) ListPendingReceived(ctx context.Context, receiverID string) ([]*models.FriendRequest, error) {
	requests := []*models.FriendRequest{}
	err := r.db.WithContext(ctx).
		Preload("Sender", selectBasicInfo).
		Where("receiver_id = ? AND status = ?", receiverID, models.FriendRequestStatusPending).
		Order("created_at DESC").
		Find(&requests).Error
	return requests, err
}

// ListPendingSent 返回 senderID 发出的 pending 请求，预加载接收者。
func (r *gormFriendRequestRepository) ListPendingSent(ctx context.Context, senderID string) ([]*models.FriendRequest, error) {
	requests := []*models.FriendRequest{}
	err := r.db.WithContext(ctx).
		Preload("Receiver", selectBasicInfo).
		Where("sender_id = ? AND status = ?", senderID, models.FriendRequestStatusPending).
		Order("created_at DESC").
		Find(&requests).Error
	return requests, err
}

func (r *gormFriendRequestRepository) PendingReceiverIDsFrom(ctx context.Context, senderID string) ([]string, error) {
	ids := []string{}
	err := r.db.WithContext(ctx).
		Model(&models.FriendRequest{}).
		Where("sender_id = ? AND status = ?", senderID, models.FriendRequestStatusPending).
		Pluck("receiver_id", &ids).Error
	return ids, err
}

// ListAcceptedWithoutFriendship 找出已接受但缺少任一方向好友行的请求，供 admin 补数据使用。
func (r *gormFriendRequestRepository) ListAcceptedWithoutFriendship(ctx context.Context) ([]*models.FriendRequest, error) {
	requests := []*models.FriendRequest{}
	err := r.db.WithContext(ctx).
		Where("status = ?", models.FriendRequestStatusAccepted).
		Where(`NOT EXISTS (SELECT 1 FROM friends f WHERE f.user_id = friend_requests.sender_id AND f.friend_id = friend_requests.receiver_id)
			OR NOT EXISTS (SELECT 1 FROM friends f WHERE f.user_id = friend_requests.receiver_id AND f.friend_id = friend_requests.sender_id)`).
		Find(&requests).Error
	return requests, err
}

func selectBasicInfo(db *gorm.DB) *gorm.DB {
	return db.Select("id", "username", "email")
}
