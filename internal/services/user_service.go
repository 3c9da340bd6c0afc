package services

import (
	"context"
	"errors"
	"strings"

	"socialchat/internal/apperr"
	"socialchat/internal/config"
	"socialchat/internal/models"
	"socialchat/internal/storage"

	"gorm.io/gorm"
)

// SearchResult 是搜索结果中的一个用户。
type SearchResult struct {
	models.UserBasicInfo
	RequestSent bool `json:"requestSent"`
}

// ProfileUpdate 是资料更新请求，nil 或空字符串表示不修改。
type ProfileUpdate struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
}

// UserService 定义了用户相关服务的接口。
type UserService interface {
	GetProfile(ctx context.Context, userID string) (*models.UserBasicInfo, error)
	UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*models.UserBasicInfo, error)
	// Search 模糊匹配用户名或邮箱，排除自己和已有好友，并标注是否已发出待处理请求。
	Search(ctx context.Context, callerID, query string) ([]*SearchResult, error)
}

// userService 是 UserService 的实现。
type userService struct {
	userRepo       storage.UserRepository
	friendRepo     storage.FriendRequestRepository
	friendshipRepo storage.FriendshipRepository
	searchCfg      config.SearchConfig
}

// NewUserService 创建一个新的 UserService 实例。
func NewUserService(userRepo storage.UserRepository, friendRepo storage.FriendRequestRepository, friendshipRepo storage.FriendshipRepository, searchCfg config.SearchConfig) UserService {
	if searchCfg.Limit <= 0 {
		searchCfg.Limit = 10
	}
	if searchCfg.MinQueryLength <= 0 {
		searchCfg.MinQueryLength = 2
	}
	return &userService{
		userRepo:       userRepo,
		friendRepo:     friendRepo,
		friendshipRepo: friendshipRepo,
		searchCfg:      searchCfg,
	}
}

// GetProfile 获取用户的个人资料。
func (s *userService) GetProfile(ctx context.Context, userID string) (*models.UserBasicInfo, error) {
	info, err := s.userRepo.GetBasicInfoByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, apperr.Store("Error fetching user profile", err)
	}
	return info, nil
}

// UpdateProfile 更新用户名和/或邮箱。
func (s *userService) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*models.UserBasicInfo, error) {
	fields := map[string]interface{}{}
	var username, email string

	if update.Username != nil && *update.Username != "" {
		username = strings.TrimSpace(*update.Username)
		if len([]rune(username)) < 3 {
			return nil, ErrInvalidUsername
		}
		fields["username"] = username
	}
	if update.Email != nil && *update.Email != "" {
		email = strings.TrimSpace(*update.Email)
		if !isValidEmail(email) {
			return nil, ErrInvalidEmail
		}
		fields["email"] = email
	}
	if len(fields) == 0 {
		return nil, ErrEmptyUpdate
	}

	// 与其他用户冲突时提前返回，唯一索引兜底
	existing, err := s.userRepo.FindByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, apperr.Store("Error updating profile", err)
	}
	if existing != nil && existing.ID != userID {
		return nil, ErrUserExists
	}

	if err := s.userRepo.UpdateFields(ctx, userID, fields); err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, ErrProfileNotFound
		case errors.Is(err, gorm.ErrDuplicatedKey):
			return nil, ErrUserExists
		default:
			return nil, apperr.Store("Error updating profile", err)
		}
	}

	return s.GetProfile(ctx, userID)
}

func (s *userService) Search(ctx context.Context, callerID, query string) ([]*SearchResult, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < s.searchCfg.MinQueryLength {
		return nil, ErrQueryTooShort
	}

	users, err := s.userRepo.SearchUsers(ctx, query, callerID, s.searchCfg.Limit)
	if err != nil {
		return nil, apperr.Store("Database search error", err)
	}

	pendingTo, err := s.friendRepo.PendingReceiverIDsFrom(ctx, callerID)
	if err != nil {
		return nil, apperr.Store("Error fetching friend requests", err)
	}
	friendIDs, err := s.friendshipRepo.GetFriendIDs(ctx, callerID)
	if err != nil {
		return nil, apperr.Store("Error fetching friends list", err)
	}

	requested := toSet(pendingTo)
	friends := toSet(friendIDs)

	results := make([]*SearchResult, 0, len(users))
	for _, u := range users {
		if _, ok := friends[u.ID]; ok {
			continue
		}
		_, sent := requested[u.ID]
		results = append(results, &SearchResult{UserBasicInfo: *u, RequestSent: sent})
	}
	return results, nil
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
