package storage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"socialchat/internal/models"
	"socialchat/internal/storage"
	"socialchat/internal/storage/storagetest"
)

func TestUserUniqueConstraints(t *testing.T) {
	db := storagetest.Open(t)
	ctx := context.Background()
	repo := storage.NewGormUserRepository(db)

	require.NoError(t, repo.Create(ctx, &models.User{Username: "alice", Email: "alice@x.io", PasswordHash: "h"}))
	err := repo.Create(ctx, &models.User{Username: "alice", Email: "other@x.io", PasswordHash: "h"})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	found, err := repo.FindByUsernameOrEmail(ctx, "nobody", "alice@x.io")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "alice", found.Username)

	found, err = repo.FindByUsernameOrEmail(ctx, "nobody", "nobody@x.io")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestSearchUsers(t *testing.T) {
	db := storagetest.Open(t)
	ctx := context.Background()
	repo := storage.NewGormUserRepository(db)
	alice := storagetest.CreateUser(t, db, "Alice", "alice@x.io")
	storagetest.CreateUser(t, db, "alicia", "alicia@y.io")
	storagetest.CreateUser(t, db, "bob", "bob@x.io")
	storagetest.CreateUser(t, db, "b_o", "bo@z.io")

	t.Run("case insensitive on username and email", func(t *testing.T) {
		users, err := repo.SearchUsers(ctx, "ALI", "nobody", 10)
		require.NoError(t, err)
		assert.Len(t, users, 2)
	})

	t.Run("excludes caller", func(t *testing.T) {
		users, err := repo.SearchUsers(ctx, "ali", alice.ID, 10)
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, "alicia", users[0].Username)
	})

	t.Run("wildcards match literally", func(t *testing.T) {
		users, err := repo.SearchUsers(ctx, "b_", "nobody", 10)
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, "b_o", users[0].Username)

		users, err = repo.SearchUsers(ctx, "%", "nobody", 10)
		require.NoError(t, err)
		assert.Empty(t, users)
	})

	t.Run("limit", func(t *testing.T) {
		users, err := repo.SearchUsers(ctx, "o", "nobody", 1)
		require.NoError(t, err)
		assert.Len(t, users, 1)
	})

	t.Run("non-ascii letters", func(t *testing.T) {
		storagetest.CreateUser(t, db, "Émile", "emile@fr.io")

		users, err := repo.SearchUsers(ctx, "Émi", "nobody", 10)
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, "Émile", users[0].Username)

		users, err = repo.SearchUsers(ctx, "ÉMILE", "nobody", 10)
		require.NoError(t, err)
		require.Len(t, users, 1)
	})
}

func TestUpdateFieldsMissingUser(t *testing.T) {
	db := storagetest.Open(t)
	repo := storage.NewGormUserRepository(db)

	err := repo.UpdateFields(context.Background(), "missing", map[string]interface{}{"username": "zzz"})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
