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

// MessageService 定义了消息相关服务的接口。
type MessageService interface {
	// Send 持久化一条消息，提交后再推送给双方的个人房间。
	Send(ctx context.Context, senderID, receiverID, content string) (*models.Message, error)
	// Conversation 返回两人之间的全部消息，按创建时间升序。
	Conversation(ctx context.Context, userID, counterpartID string) ([]*models.Message, error)
	// MarkRead 把 counterpartID 发给 userID 的消息全部标记为已读，可重复调用。
	MarkRead(ctx context.Context, userID, counterpartID string) (int64, error)
}

// messageService 是 MessageService 的实现。
type messageService struct {
	msgRepo   storage.MessageRepository
	userRepo  storage.UserRepository
	publisher relay.Publisher
}

// NewMessageService 创建一个新的 MessageService 实例。
func NewMessageService(msgRepo storage.MessageRepository, userRepo storage.UserRepository, publisher relay.Publisher) MessageService {
	return &messageService{
		msgRepo:   msgRepo,
		userRepo:  userRepo,
		publisher: publisher,
	}
}

func (s *messageService) Send(ctx context.Context, senderID, receiverID, content string) (*models.Message, error) {
	receiverID = strings.TrimSpace(receiverID)
	// 只含空白的内容视为缺失，不限制长度
	if receiverID == "" || strings.TrimSpace(content) == "" {
		return nil, ErrMessageFields
	}

	if _, err := s.userRepo.GetBasicInfoByID(ctx, receiverID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReceiverNotFound
		}
		return nil, apperr.Store("Error sending message", err)
	}

	msg := &models.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
	}
	if err := s.msgRepo.Create(ctx, msg); err != nil {
		return nil, apperr.Store("Error sending message", err)
	}

	stored, err := s.msgRepo.GetByID(ctx, msg.ID)
	if err != nil {
		return nil, apperr.Store("Error sending message", err)
	}

	logger.Debug("消息已保存", zap.String("messageId", stored.ID), zap.String("senderId", senderID), zap.String("receiverId", receiverID))

	// 只有落库成功的消息才会被实时推送
	relay.PublishToRooms(ctx, s.publisher, imtypes.EventReceiveMessage, stored, receiverID, senderID)
	return stored, nil
}

func (s *messageService) Conversation(ctx context.Context, userID, counterpartID string) ([]*models.Message, error) {
	if strings.TrimSpace(counterpartID) == "" {
		return nil, ErrMissingCounterpart
	}
	messages, err := s.msgRepo.GetConversation(ctx, userID, counterpartID)
	if err != nil {
		return nil, apperr.Store("Error getting messages", err)
	}
	return messages, nil
}

func (s *messageService) MarkRead(ctx context.Context, userID, counterpartID string) (int64, error) {
	if strings.TrimSpace(counterpartID) == "" {
		return 0, ErrMissingCounterpart
	}
	n, err := s.msgRepo.MarkRead(ctx, counterpartID, userID)
	if err != nil {
		return 0, apperr.Store("Error marking messages as read", err)
	}
	return n, nil
}
