package users

import (
	"context"
	"testing"

	"github.com/angelmondragon/shopfront-backend/pkg/db/dbtest"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (Service, *Repository) {
	t.Helper()
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	svc, err := NewService(ServiceParams{Repo: repo})
	require.NoError(t, err)
	return svc, repo
}

func TestNewServiceRequiresRepo(t *testing.T) {
	_, err := NewService(ServiceParams{})
	assert.Error(t, err)
}

func TestServiceMe(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, CreateUserDTO{Username: "erin", Email: "erin@example.com", PasswordHash: "x"})
	require.NoError(t, err)

	me, err := svc.Me(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "erin", me.Username)

	_, err = svc.Me(ctx, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestServiceUpdateMeEmailConflict(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	frank, err := repo.Create(ctx, CreateUserDTO{Username: "frank", Email: "frank@example.com", PasswordHash: "x"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, CreateUserDTO{Username: "gina", Email: "gina@example.com", PasswordHash: "x"})
	require.NoError(t, err)

	_, err = svc.UpdateMe(ctx, frank.ID, UpdateMeRequest{Email: "GINA@example.com"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	updated, err := svc.UpdateMe(ctx, frank.ID, UpdateMeRequest{Email: "frank@new.example.com"})
	require.NoError(t, err)
	assert.Equal(t, "frank@new.example.com", updated.Email)
}
