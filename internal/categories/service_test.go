package categories

import (
	"context"
	"testing"

	"github.com/angelmondragon/shopfront-backend/pkg/db"
	"github.com/angelmondragon/shopfront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (Service, *db.Client) {
	t.Helper()
	client := dbtest.Open(t)
	svc, err := NewService(ServiceParams{Repo: NewRepository(client.DB()), DB: client})
	require.NoError(t, err)
	return svc, client
}

func strPtr(s string) *string { return &s }

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	assert.Error(t, err)

	client := dbtest.Open(t)
	_, err = NewService(ServiceParams{Repo: NewRepository(client.DB())})
	assert.Error(t, err)
}

func TestCreateEnforcesCaseInsensitiveUniqueness(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CategoryRequest{Name: "Shoes", CategoryURL: strPtr("shoes")})
	require.NoError(t, err)
	assert.Equal(t, "Shoes", created.Name)
	assert.Zero(t, created.ProductCount)

	_, err = svc.Create(ctx, CategoryRequest{Name: "SHOES"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	_, err = svc.Create(ctx, CategoryRequest{Name: "Boots", CategoryURL: strPtr("Shoes")})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	// Blank slugs are not compared.
	_, err = svc.Create(ctx, CategoryRequest{Name: "Hats", CategoryURL: strPtr("  ")})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CategoryRequest{Name: "Gloves"})
	require.NoError(t, err)
}

func TestUpdateKeepsOwnNameAndRejectsOthers(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	shoes, err := svc.Create(ctx, CategoryRequest{Name: "Shoes"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CategoryRequest{Name: "Bags"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, shoes.ID, CategoryRequest{Name: "shoes", CategoryURL: strPtr("all-shoes")})
	require.NoError(t, err)
	assert.Equal(t, "shoes", updated.Name)
	require.NotNil(t, updated.CategoryURL)
	assert.Equal(t, "all-shoes", *updated.CategoryURL)

	_, err = svc.Update(ctx, shoes.ID, CategoryRequest{Name: "bags"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	_, err = svc.Update(ctx, uuid.New(), CategoryRequest{Name: "Nope"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestGetByURLAndProductCount(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CategoryRequest{Name: "Books", CategoryURL: strPtr("books")})
	require.NoError(t, err)

	product := dbtest.SeedProduct(t, client, "Novel", "12.50", 3)
	require.NoError(t, client.DB().Model(&models.Product{}).Where("id = ?", product.ID).Update("category_id", created.ID).Error)

	found, err := svc.GetByURL(ctx, "BOOKS")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.EqualValues(t, 1, found.ProductCount)

	_, err = svc.GetByURL(ctx, "missing")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.GetByURL(ctx, " ")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestListPagesAndSorts(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, name := range []string{"Cameras", "Audio", "Books"} {
		_, err := svc.Create(ctx, CategoryRequest{Name: name})
		require.NoError(t, err)
	}

	page, err := svc.List(ctx, pagination.PageParams{Page: 0, Size: 2, SortBy: "name"})
	require.NoError(t, err)
	require.Len(t, page.Content, 2)
	assert.Equal(t, "Audio", page.Content[0].Name)
	assert.Equal(t, "Books", page.Content[1].Name)
	assert.EqualValues(t, 3, page.TotalElements)
	assert.Equal(t, 2, page.TotalPages)
	assert.False(t, page.Last)

	desc, err := svc.List(ctx, pagination.PageParams{Page: 1, Size: 2, SortBy: "name", Direction: "DESC"})
	require.NoError(t, err)
	require.Len(t, desc.Content, 1)
	assert.Equal(t, "Audio", desc.Content[0].Name)
	assert.True(t, desc.Last)

	_, err = svc.List(ctx, pagination.PageParams{SortBy: "password"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestDeleteDetachesProducts(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CategoryRequest{Name: "Toys"})
	require.NoError(t, err)
	product := dbtest.SeedProduct(t, client, "Yo-yo", "2.00", 10)
	require.NoError(t, client.DB().Model(&models.Product{}).Where("id = ?", product.ID).Update("category_id", created.ID).Error)

	require.NoError(t, svc.Delete(ctx, created.ID))

	var reloaded models.Product
	require.NoError(t, client.DB().First(&reloaded, "id = ?", product.ID).Error)
	assert.Nil(t, reloaded.CategoryID)

	err = svc.Delete(ctx, created.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
