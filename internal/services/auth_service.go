package services

import (
	"context"
	"errors"
	"strings"

	"socialchat/internal/apperr"
	"socialchat/internal/auth"
	"socialchat/internal/config"
	"socialchat/internal/logger"
	"socialchat/internal/models"
	"socialchat/internal/storage"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RegisterInput 是注册请求体。
type RegisterInput struct {
	Username string `json:"username" validate:"required,min=3"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// LoginInput 是登录请求体。
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResult 是注册和登录成功后的结果。
type AuthResult struct {
	Token string
	User  *models.User
}

// AuthService 定义了用户认证服务的接口。
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, input LoginInput) (*AuthResult, error)
	// SignOut 吊销令牌。令牌缺失或无效时什么也不做。
	SignOut(ctx context.Context, tokenString string) error
}

// authService 是 AuthService 的实现。
type authService struct {
	userRepo  storage.UserRepository
	blacklist auth.TokenBlacklist
	authCfg   config.AuthConfig
}

// NewAuthService 创建一个新的 AuthService 实例。blacklist 可以为 nil。
func NewAuthService(userRepo storage.UserRepository, blacklist auth.TokenBlacklist, authCfg config.AuthConfig) AuthService {
	return &authService{
		userRepo:  userRepo,
		blacklist: blacklist,
		authCfg:   authCfg,
	}
}

// Register 处理用户注册逻辑。
func (s *authService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)

	if input.Username == "" || input.Email == "" || input.Password == "" {
		return nil, ErrRegisterMissingFields
	}
	if err := validate.Struct(input); err != nil {
		return nil, fieldErrors(err, map[string]error{
			"Username":     ErrInvalidUsername,
			"Email":        ErrInvalidEmail,
			"Password.max": ErrPasswordTooLong,
			"Password":     ErrInvalidPassword,
		}, ErrRegisterMissingFields)
	}
	// max 按字符计数，bcrypt 按字节限制
	if len(input.Password) > auth.MaxPasswordBytes {
		return nil, ErrPasswordTooLong
	}

	existing, err := s.userRepo.FindByUsernameOrEmail(ctx, input.Username, input.Email)
	if err != nil {
		return nil, apperr.Store("Error checking existing user", err)
	}
	if existing != nil {
		return nil, ErrUserExists
	}

	hashedPassword, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, apperr.Internal("Error creating user", err)
	}

	newUser := &models.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hashedPassword,
	}
	if err := s.userRepo.Create(ctx, newUser); err != nil {
		// 并发注册时由唯一索引兜底
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUserExists
		}
		return nil, apperr.Store("Error creating user profile", err)
	}

	token, err := auth.GenerateToken(newUser.ID, s.authCfg)
	if err != nil {
		return nil, apperr.Internal("Error creating user", err)
	}

	logger.Info("用户注册成功", zap.String("userId", newUser.ID), zap.String("username", newUser.Username))
	return &AuthResult{Token: token, User: newUser}, nil
}

// Login 处理用户登录逻辑。邮箱不存在和密码错误返回同一个错误。
func (s *authService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	email := strings.TrimSpace(input.Email)
	if email == "" || input.Password == "" {
		return nil, ErrLoginMissingFields
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, apperr.Store("Error fetching user profile", err)
	}

	if !auth.CheckPasswordHash(input.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(user.ID, s.authCfg)
	if err != nil {
		return nil, apperr.Internal("Error logging in", err)
	}

	return &AuthResult{Token: token, User: user}, nil
}

func (s *authService) SignOut(ctx context.Context, tokenString string) error {
	if tokenString == "" || s.blacklist == nil {
		return nil
	}

	claims, err := auth.ValidateToken(ctx, tokenString, s.authCfg.JWTSecretKey, s.blacklist)
	if err != nil {
		if errors.Is(err, auth.ErrBlacklistUnavailable) {
			return apperr.Store("Error signing out", err)
		}
		// 过期、无效或已吊销的令牌无需再处理
		return nil
	}

	if err := auth.Revoke(ctx, claims, s.blacklist); err != nil {
		return apperr.Store("Error signing out", err)
	}
	logger.Info("用户已登出", zap.String("userId", claims.UserID))
	return nil
}
