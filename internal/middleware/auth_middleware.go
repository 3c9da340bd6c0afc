package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"socialchat/internal/apperr"
	"socialchat/internal/auth"
	"socialchat/internal/config"
	"socialchat/internal/logger"
	"socialchat/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// contextKey 是用于在 context.Context 中存储值的自定义类型，以避免键冲突。
type contextKey string

const identityKey contextKey = "identity"

// 认证失败的分类。
var (
	ErrMissingCredential = apperr.Auth("MissingCredential", "Authorization header missing or invalid format", "Header must be in format: Bearer <token>")
	ErrEmptyCredential   = apperr.Auth("MissingCredential", "No token provided", "Token is required for authentication")
	ErrExpiredCredential = apperr.Auth("ExpiredCredential", "Token has expired", "Please log in again")
	ErrInvalidCredential = apperr.Auth("InvalidCredential", "Invalid token", "Token verification failed")
	ErrRevokedCredential = apperr.Auth("InvalidCredential", "Invalid token", "Token has been revoked")
	ErrMalformedPayload  = apperr.Auth("MalformedPayload", "Invalid token format", "Token payload is missing required fields")
	ErrUnknownUser       = apperr.Auth("UnknownUser", "User not found", "Token refers to a non-existent user")
	ErrStoreUnavailable  = apperr.Store("Error verifying user", nil).WithDetails("Database error during user verification")
)

// Identity 是认证通过后附加到请求上下文的最小用户信息。
type Identity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// UserLookup resolves a token subject to a live user row.
type UserLookup interface {
	GetBasicInfoByID(ctx context.Context, id string) (*models.UserBasicInfo, error)
}

// AuthGate 校验 Bearer 令牌并把用户身份写入上下文。
type AuthGate struct {
	secret    string
	blacklist auth.TokenBlacklist
	users     UserLookup
}

// NewAuthGate creates an AuthGate. blacklist 可以为 nil。
func NewAuthGate(authCfg config.AuthConfig, blacklist auth.TokenBlacklist, users UserLookup) *AuthGate {
	return &AuthGate{secret: authCfg.JWTSecretKey, blacklist: blacklist, users: users}
}

// Middleware 是一个 HTTP 中间件，用于验证 JWT 并将用户信息添加到上下文中。
func (g *AuthGate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, _, err := g.Authenticate(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			appErr := apperr.Write(w, err)
			if appErr.Kind == apperr.KindStore {
				logger.Error("认证时查询用户失败", zap.Error(appErr.Err))
			}
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

// Authenticate 执行完整的校验流程，只读一次存储。
func (g *AuthGate) Authenticate(ctx context.Context, authHeader string) (*Identity, *auth.Claims, error) {
	tokenString, err := BearerToken(authHeader)
	if err != nil {
		return nil, nil, err
	}
	return g.AuthenticateToken(ctx, tokenString)
}

// AuthenticateToken 校验裸令牌并确认用户仍然存在。socket 连接通过查询参数传令牌时使用。
func (g *AuthGate) AuthenticateToken(ctx context.Context, tokenString string) (*Identity, *auth.Claims, error) {
	claims, err := g.VerifyToken(ctx, tokenString)
	if err != nil {
		return nil, nil, err
	}

	info, err := g.users.GetBasicInfoByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrUnknownUser
		}
		return nil, nil, ErrStoreUnavailable.With(err)
	}

	return &Identity{ID: info.ID, Username: info.Username, Email: info.Email}, claims, nil
}

// VerifyToken 只校验签名、有效期、吊销状态和 payload，不查用户。
func (g *AuthGate) VerifyToken(ctx context.Context, tokenString string) (*auth.Claims, error) {
	claims, err := auth.ValidateToken(ctx, tokenString, g.secret, g.blacklist)
	switch {
	case err == nil:
		return claims, nil
	case errors.Is(err, auth.ErrTokenExpired):
		return nil, ErrExpiredCredential
	case errors.Is(err, auth.ErrTokenRevoked):
		return nil, ErrRevokedCredential
	case errors.Is(err, auth.ErrTokenMalformedPayload):
		return nil, ErrMalformedPayload
	case errors.Is(err, auth.ErrBlacklistUnavailable):
		return nil, apperr.Store("Error verifying token", err)
	default:
		return nil, ErrInvalidCredential.With(err)
	}
}

// BearerToken 从 "Bearer <token>" 格式的头部中取出令牌。
func BearerToken(authHeader string) (string, error) {
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", ErrMissingCredential
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", ErrEmptyCredential
	}
	return token, nil
}

// WithIdentity 返回携带 identity 的新上下文。
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFromContext 从上下文中获取认证后的用户身份。
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(identityKey).(*Identity)
	return identity, ok && identity != nil
}
