package services

import (
	"context"
	"errors"
	"strings"

	"socialchat/internal/apperr"
	"socialchat/internal/imtypes"
	"socialchat/internal/logger"
	"socialchat/internal/models"
	"socialchat/internal/relay"
	"socialchat/internal/storage"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// FriendRequestLists 是待处理请求的两个视图。
type FriendRequestLists struct {
	Received []*models.FriendRequestView `json:"received"`
	Sent     []*models.FriendRequestView `json:"sent"`
}

// FriendRequestResolvedEvent 推送给请求发送者。
type FriendRequestResolvedEvent struct {
	RequestID string                     `json:"requestId"`
	Status    models.FriendRequestStatus `json:"status"`
	Receiver  *models.UserBasicInfo      `json:"receiver,omitempty"`
}

// FriendRequestService defines the interface for friend request operations.
type FriendRequestService interface {
	Create(ctx context.Context, senderID, receiverID string) (*models.FriendRequest, error)
	// Resolve 只能由接收者把 pending 请求改为 accepted 或 rejected；接受时在同一事务中写入双向好友关系。
	Resolve(ctx context.Context, requestID, receiverID string, status models.FriendRequestStatus) (*models.FriendRequest, error)
	List(ctx context.Context, userID string) (*FriendRequestLists, error)
	GetFriendsList(ctx context.Context, userID string) ([]*models.UserBasicInfo, error)
	// BackfillFriendships 为缺少好友行的 accepted 请求补写好友关系，返回处理的请求数。
	BackfillFriendships(ctx context.Context) (int, error)
}

type friendRequestService struct {
	db             *gorm.DB
	userRepo       storage.UserRepository
	friendRepo     storage.FriendRequestRepository
	friendshipRepo storage.FriendshipRepository
	publisher      relay.Publisher
}

// NewFriendRequestService creates a new FriendRequestService instance.
// publisher 为 nil 时不推送实时事件。
func NewFriendRequestService(
	db *gorm.DB,
	userRepo storage.UserRepository,
	friendRepo storage.FriendRequestRepository,
	friendshipRepo storage.FriendshipRepository,
	publisher relay.Publisher,
) FriendRequestService {
	return &friendRequestService{
		db:             db,
		userRepo:       userRepo,
		friendRepo:     friendRepo,
		friendshipRepo: friendshipRepo,
		publisher:      publisher,
	}
}

// Create 校验后插入一条 pending 请求，并通知接收者。
func (s *friendRequestService) Create(ctx context.Context, senderID, receiverID string) (*models.FriendRequest, error) {
	receiverID = strings.TrimSpace(receiverID)
	if receiverID == "" {
		return nil, ErrMissingReceiver
	}
	if senderID == receiverID {
		return nil, ErrSelfRequest
	}

	// 1. 接收者必须存在
	if _, err := s.userRepo.GetBasicInfoByID(ctx, receiverID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReceiverNotFound
		}
		return nil, apperr.Store("Error checking receiver", err)
	}

	// 2. 已经是好友（任一方向存在好友行）
	for _, pair := range [][2]string{{senderID, receiverID}, {receiverID, senderID}} {
		areFriends, err := s.friendshipRepo.Exists(ctx, pair[0], pair[1])
		if err != nil {
			return nil, apperr.Store("Error checking friendship status", err)
		}
		if areFriends {
			return nil, ErrAlreadyFriends
		}
	}

	// 3. 任一方向已有 pending 请求
	existing, err := s.friendRepo.FindPendingBetween(ctx, senderID, receiverID)
	if err != nil {
		return nil, apperr.Store("Error checking existing requests", err)
	}
	if existing != nil {
		return nil, ErrDuplicateRequest
	}

	request := &models.FriendRequest{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Status:     models.FriendRequestStatusPending,
	}
	if err := s.friendRepo.Create(ctx, request); err != nil {
		// 并发创建时由部分唯一索引拒绝
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateRequest
		}
		return nil, apperr.Store("Error creating friend request", err)
	}

	logger.Info("好友请求已创建",
		zap.String("requestId", request.ID),
		zap.String("senderId", senderID),
		zap.String("receiverId", receiverID))

	view := &models.FriendRequestView{ID: request.ID, Status: request.Status, CreatedAt: request.CreatedAt}
	if sender, err := s.userRepo.GetBasicInfoByID(ctx, senderID); err == nil {
		view.Sender = sender
	}
	relay.PublishToRooms(ctx, s.publisher, imtypes.EventFriendRequest, view, receiverID)

	return request, nil
}

func (s *friendRequestService) Resolve(ctx context.Context, requestID, receiverID string, status models.FriendRequestStatus) (*models.FriendRequest, error) {
	if !status.IsResolution() {
		return nil, ErrInvalidStatus
	}

	var resolved *models.FriendRequest
	txErr := storage.WithTx(ctx, s.db, func(tx *gorm.DB) error {
		txFriendRepo := storage.NewGormFriendRequestRepository(tx)
		txFriendshipRepo := storage.NewGormFriendshipRepository(tx)

		// 1. 条件更新：id、接收者和 pending 状态必须同时匹配
		if err := txFriendRepo.ResolvePending(ctx, requestID, receiverID, status); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRequestNotFound
			}
			return apperr.Store("Error updating request status", err)
		}

		request, err := txFriendRepo.GetByID(ctx, requestID)
		if err != nil {
			return apperr.Store("Error verifying friend request", err)
		}

		// 2. 接受时写入双向好友关系
		if status == models.FriendRequestStatusAccepted {
			if err := txFriendshipRepo.CreatePair(ctx, request.SenderID, request.ReceiverID); err != nil {
				return apperr.Store("Error creating friendship", err)
			}
		}

		resolved = request
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	logger.Info("好友请求已处理",
		zap.String("requestId", requestID),
		zap.String("status", string(status)),
		zap.String("receiverId", receiverID))

	// 事务提交后再通知发送者
	event := FriendRequestResolvedEvent{RequestID: resolved.ID, Status: resolved.Status}
	if receiver, err := s.userRepo.GetBasicInfoByID(ctx, receiverID); err == nil {
		event.Receiver = receiver
	}
	relay.PublishToRooms(ctx, s.publisher, imtypes.EventFriendRequestResolved, event, resolved.SenderID)

	return resolved, nil
}

// List 返回用户收到的和发出的 pending 请求，各自带上对方的基本信息。
func (s *friendRequestService) List(ctx context.Context, userID string) (*FriendRequestLists, error) {
	received, err := s.friendRepo.ListPendingReceived(ctx, userID)
	if err != nil {
		return nil, apperr.Store("Error fetching received requests", err)
	}
	sent, err := s.friendRepo.ListPendingSent(ctx, userID)
	if err != nil {
		return nil, apperr.Store("Error fetching sent requests", err)
	}

	lists := &FriendRequestLists{
		Received: make([]*models.FriendRequestView, 0, len(received)),
		Sent:     make([]*models.FriendRequestView, 0, len(sent)),
	}
	for _, r := range received {
		view := &models.FriendRequestView{ID: r.ID, Status: r.Status, CreatedAt: r.CreatedAt}
		if r.Sender != nil {
			view.Sender = r.Sender.BasicInfo()
		}
		lists.Received = append(lists.Received, view)
	}
	for _, r := range sent {
		view := &models.FriendRequestView{ID: r.ID, Status: r.Status, CreatedAt: r.CreatedAt}
		if r.Receiver != nil {
			view.Receiver = r.Receiver.BasicInfo()
		}
		lists.Sent = append(lists.Sent, view)
	}
	return lists, nil
}

// GetFriendsList retrieves the basic info for all friends of the given user.
func (s *friendRequestService) GetFriendsList(ctx context.Context, userID string) ([]*models.UserBasicInfo, error) {
	friendIDs, err := s.friendshipRepo.GetFriendIDs(ctx, userID)
	if err != nil {
		return nil, apperr.Store("Error fetching friends list", err)
	}
	if len(friendIDs) == 0 {
		return []*models.UserBasicInfo{}, nil
	}

	friendsInfo, err := s.userRepo.GetMultipleBasicInfoByIDs(ctx, friendIDs)
	if err != nil {
		return nil, apperr.Store("Error fetching friends list", err)
	}
	return friendsInfo, nil
}

func (s *friendRequestService) BackfillFriendships(ctx context.Context) (int, error) {
	requests, err := s.friendRepo.ListAcceptedWithoutFriendship(ctx)
	if err != nil {
		return 0, apperr.Store("Error listing accepted requests", err)
	}

	for i, r := range requests {
		if err := s.friendshipRepo.CreatePair(ctx, r.SenderID, r.ReceiverID); err != nil {
			return i, apperr.Store("Error creating friendship", err)
		}
		logger.Info("补写好友关系", zap.String("requestId", r.ID), zap.String("senderId", r.SenderID), zap.String("receiverId", r.ReceiverID))
	}
	return len(requests), nil
}
