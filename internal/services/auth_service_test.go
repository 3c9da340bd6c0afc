package services_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialchat/internal/apperr"
	"socialchat/internal/auth"
	"socialchat/internal/redis"
	"socialchat/internal/services"
)

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input services.RegisterInput
		want  error
	}{
		{"missing password", services.RegisterInput{Username: "alice", Email: "a@x.com"}, services.ErrRegisterMissingFields},
		{"blank username", services.RegisterInput{Username: "   ", Email: "a@x.com", Password: "secret1"}, services.ErrRegisterMissingFields},
		{"short username", services.RegisterInput{Username: " al ", Email: "a@x.com", Password: "secret1"}, services.ErrInvalidUsername},
		{"bad email", services.RegisterInput{Username: "alice", Email: "not-an-email", Password: "secret1"}, services.ErrInvalidEmail},
		{"short password", services.RegisterInput{Username: "alice", Email: "a@x.com", Password: "123"}, services.ErrInvalidPassword},
		{"long password", services.RegisterInput{Username: "alice", Email: "a@x.com", Password: strings.Repeat("p", 80)}, services.ErrPasswordTooLong},
		{"long multibyte password", services.RegisterInput{Username: "alice", Email: "a@x.com", Password: strings.Repeat("密", 30)}, services.ErrPasswordTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Register(ctx, tt.input)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, http.StatusBadRequest, apperr.From(err).Status())
		})
	}
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.auth.Register(ctx, services.RegisterInput{Username: " alice ", Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "alice", res.User.Username)
	assert.NotEmpty(t, res.User.ID)

	claims, err := auth.ValidateToken(ctx, res.Token, testAuthCfg.JWTSecretKey, nil)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)

	_, err = env.auth.Register(ctx, services.RegisterInput{Username: "alice", Email: "other@x.com", Password: "secret1"})
	assert.ErrorIs(t, err, services.ErrUserExists)
	_, err = env.auth.Register(ctx, services.RegisterInput{Username: "alice2", Email: "a@x.com", Password: "secret1"})
	assert.ErrorIs(t, err, services.ErrUserExists)

	login, err := env.auth.Login(ctx, services.LoginInput{Email: " a@x.com ", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, login.User.ID)

	_, err = env.auth.Login(ctx, services.LoginInput{Email: "a@x.com", Password: "wrong-pass"})
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	_, err = env.auth.Login(ctx, services.LoginInput{Email: "nobody@x.com", Password: "secret1"})
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	_, err = env.auth.Login(ctx, services.LoginInput{Email: "a@x.com"})
	assert.ErrorIs(t, err, services.ErrLoginMissingFields)
}

func TestSignOutRevokesToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	blacklist := redis.NewRedisTokenBlacklist(client)
	authSvc := services.NewAuthService(env.users, blacklist, testAuthCfg)

	res, err := authSvc.Register(ctx, services.RegisterInput{Username: "alice", Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)

	require.NoError(t, authSvc.SignOut(ctx, res.Token))
	_, err = auth.ValidateToken(ctx, res.Token, testAuthCfg.JWTSecretKey, blacklist)
	assert.ErrorIs(t, err, auth.ErrTokenRevoked)

	// 重复登出和无效令牌都不报错
	assert.NoError(t, authSvc.SignOut(ctx, res.Token))
	assert.NoError(t, authSvc.SignOut(ctx, "garbage"))
	assert.NoError(t, authSvc.SignOut(ctx, ""))
}
