package services_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"socialchat/internal/config"
	"socialchat/internal/imtypes"
	"socialchat/internal/models"
	"socialchat/internal/services"
	"socialchat/internal/storage"
	"socialchat/internal/storage/storagetest"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []imtypes.RelayEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev imtypes.RelayEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Events() []imtypes.RelayEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]imtypes.RelayEvent(nil), p.events...)
}

func (p *recordingPublisher) Rooms(event string) []string {
	var rooms []string
	for _, ev := range p.Events() {
		if ev.Event == event {
			rooms = append(rooms, ev.Room)
		}
	}
	return rooms
}

type testEnv struct {
	db          *gorm.DB
	users       storage.UserRepository
	requests    storage.FriendRequestRepository
	friendships storage.FriendshipRepository
	messages    storage.MessageRepository
	publisher   *recordingPublisher

	auth    services.AuthService
	user    services.UserService
	friends services.FriendRequestService
	message services.MessageService
}

var testAuthCfg = config.AuthConfig{JWTSecretKey: "svc-secret", JWTExpiry: time.Hour, Issuer: "test"}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := storagetest.Open(t)
	env := &testEnv{
		db:          db,
		users:       storage.NewGormUserRepository(db),
		requests:    storage.NewGormFriendRequestRepository(db),
		friendships: storage.NewGormFriendshipRepository(db),
		messages:    storage.NewGormMessageRepository(db),
		publisher:   &recordingPublisher{},
	}
	env.auth = services.NewAuthService(env.users, nil, testAuthCfg)
	env.user = services.NewUserService(env.users, env.requests, env.friendships, config.SearchConfig{Limit: 10, MinQueryLength: 2})
	env.friends = services.NewFriendRequestService(db, env.users, env.requests, env.friendships, env.publisher)
	env.message = services.NewMessageService(env.messages, env.users, env.publisher)
	return env
}

func (e *testEnv) register(t *testing.T, username, email string) *models.User {
	t.Helper()
	res, err := e.auth.Register(context.Background(), services.RegisterInput{
		Username: username,
		Email:    email,
		Password: "secret1",
	})
	require.NoError(t, err)
	return res.User
}

func (e *testEnv) befriend(t *testing.T, a, b *models.User) {
	t.Helper()
	ctx := context.Background()
	req, err := e.friends.Create(ctx, a.ID, b.ID)
	require.NoError(t, err)
	_, err = e.friends.Resolve(ctx, req.ID, b.ID, models.FriendRequestStatusAccepted)
	require.NoError(t, err)
}

func decodePayload(t *testing.T, raw json.RawMessage, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(raw, v))
}
