package storage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialchat/internal/storage"
	"socialchat/internal/storage/storagetest"
)

func TestCreatePairIsSymmetricAndIdempotent(t *testing.T) {
	db := storagetest.Open(t)
	ctx := context.Background()
	alice := storagetest.CreateUser(t, db, "alice", "alice@x.io")
	bob := storagetest.CreateUser(t, db, "bob", "bob@x.io")
	repo := storage.NewGormFriendshipRepository(db)

	require.NoError(t, repo.CreatePair(ctx, alice.ID, bob.ID))
	require.NoError(t, repo.CreatePair(ctx, bob.ID, alice.ID))

	ok, err := repo.Exists(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.Exists(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ids, err := repo.GetFriendIDs(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{bob.ID}, ids)

	ids, err = repo.GetFriendIDs(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{alice.ID}, ids)
}

func TestGetFriendIDsEmpty(t *testing.T) {
	db := storagetest.Open(t)
	repo := storage.NewGormFriendshipRepository(db)

	ids, err := repo.GetFriendIDs(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, ids)
}
