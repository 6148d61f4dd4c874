package comments

import (
	"context"
	"testing"
	"time"

	product "github.com/angelmondragon/shopfront-backend/internal/products"
	"github.com/angelmondragon/shopfront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/angelmondragon/shopfront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndPageComments(t *testing.T) {
	client := dbtest.Open(t)
	svc, err := NewService(NewRepository(client.DB()), product.NewRepository(client.DB()))
	require.NoError(t, err)
	ctx := context.Background()

	author := dbtest.SeedUser(t, client, "xena")
	p := dbtest.SeedProduct(t, client, "Tent", "120.00", 1)

	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, client.DB().Create(&models.Comment{
			UserID:    author.ID,
			ProductID: p.ID,
			Content:   "note",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}).Error)
	}

	first, err := svc.ListForProduct(ctx, p.ID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	assert.Equal(t, "xena", first.Items[0].Username)
	assert.True(t, first.Items[0].CreatedAt.After(first.Items[1].CreatedAt))
	require.NotEmpty(t, first.NextCursor)

	second, err := svc.ListForProduct(ctx, p.ID, pagination.Params{Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.Empty(t, second.NextCursor)

	_, err = svc.ListForProduct(ctx, uuid.New(), pagination.Params{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.ListForProduct(ctx, p.ID, pagination.Params{Cursor: "%%%"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	created, err := svc.Create(ctx, author.ID, CreateCommentRequest{ProductID: p.ID, Content: "  sturdy  "})
	require.NoError(t, err)
	assert.Equal(t, "sturdy", created.Content)
	assert.Equal(t, "xena", created.Username)

	_, err = svc.Create(ctx, author.ID, CreateCommentRequest{ProductID: uuid.New(), Content: "hm"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestDeleteCommentAuthorization(t *testing.T) {
	client := dbtest.Open(t)
	svc, err := NewService(NewRepository(client.DB()), product.NewRepository(client.DB()))
	require.NoError(t, err)
	ctx := context.Background()

	author := dbtest.SeedUser(t, client, "yara")
	stranger := dbtest.SeedUser(t, client, "zed")
	admin := dbtest.SeedUser(t, client, "boss", enums.RoleUser, enums.RoleAdmin)
	p := dbtest.SeedProduct(t, client, "Rope", "9.00", 1)

	mine, err := svc.Create(ctx, author.ID, CreateCommentRequest{ProductID: p.ID, Content: "mine"})
	require.NoError(t, err)
	theirs, err := svc.Create(ctx, author.ID, CreateCommentRequest{ProductID: p.ID, Content: "again"})
	require.NoError(t, err)

	err = svc.Delete(ctx, stranger.ID, []enums.Role{enums.RoleUser}, mine.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	require.NoError(t, svc.Delete(ctx, author.ID, []enums.Role{enums.RoleUser}, mine.ID))
	require.NoError(t, svc.Delete(ctx, admin.ID, []enums.Role{enums.RoleUser, enums.RoleAdmin}, theirs.ID))

	err = svc.Delete(ctx, author.ID, nil, mine.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
