package users

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/shopfront-backend/pkg/db"
	"github.com/angelmondragon/shopfront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/shopfront-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestRepositoryCreateLinksRoles(t *testing.T) {
	client := dbtest.Open(t)
	ctx := context.Background()

	roles, err := NewRoleRepository(client.DB()).FindByNames(ctx, enums.RoleUser, enums.RoleAdmin)
	require.NoError(t, err)
	require.Len(t, roles, 2)

	repo := NewRepository(client.DB())
	created, err := repo.Create(ctx, CreateUserDTO{
		Username:     "alice",
		Email:        "Alice@Example.com",
		PasswordHash: "hash",
		Roles:        roles,
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", created.Email)

	loaded, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []enums.Role{enums.RoleUser, enums.RoleAdmin}, FromModel(loaded).Roles)
	assert.True(t, loaded.IsActive)
}

func TestRepositoryFindByUsernameOrEmail(t *testing.T) {
	client := dbtest.Open(t)
	ctx := context.Background()
	seeded := dbtest.SeedUser(t, client, "bob")
	repo := NewRepository(client.DB())

	byName, err := repo.FindByUsernameOrEmail(ctx, " bob ")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, byName.ID)

	byEmail, err := repo.FindByUsernameOrEmail(ctx, "BOB@example.com")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, byEmail.ID)
	assert.Len(t, byEmail.Roles, 1)

	_, err = repo.FindByUsernameOrEmail(ctx, "nobody")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryExistsAndUniqueness(t *testing.T) {
	client := dbtest.Open(t)
	ctx := context.Background()
	carol := dbtest.SeedUser(t, client, "carol")
	repo := NewRepository(client.DB())

	exists, err := repo.ExistsByUsername(ctx, "carol")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByEmail(ctx, "carol@example.com", carol.ID)
	require.NoError(t, err)
	assert.False(t, exists, "own email must not count as taken")

	exists, err = repo.ExistsByEmail(ctx, "carol@example.com", uuid.Nil)
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = repo.Create(ctx, CreateUserDTO{Username: "carol", Email: "other@example.com", PasswordHash: "x"})
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err, ""))
}

func TestRepositoryUpdates(t *testing.T) {
	client := dbtest.Open(t)
	ctx := context.Background()
	dave := dbtest.SeedUser(t, client, "dave")
	repo := NewRepository(client.DB())

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.UpdateLastLogin(ctx, dave.ID, now))
	require.NoError(t, repo.UpdateEmail(ctx, dave.ID, "dave@shop.test"))
	require.NoError(t, repo.UpdatePasswordHash(ctx, dave.ID, "new-hash"))

	loaded, err := repo.FindByID(ctx, dave.ID)
	require.NoError(t, err)
	assert.Equal(t, "dave@shop.test", loaded.Email)
	assert.Equal(t, "new-hash", loaded.PasswordHash)
	require.NotNil(t, loaded.LastLoginAt)
	assert.True(t, now.Equal(loaded.LastLoginAt.UTC()))
}
