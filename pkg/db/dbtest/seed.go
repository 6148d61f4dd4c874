package dbtest

import (
	"testing"

	"github.com/angelmondragon/shopfront-backend/pkg/db"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/angelmondragon/shopfront-backend/pkg/enums"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// SeedUser inserts an active user holding roles (USER when none are given).
func SeedUser(t testing.TB, client *db.Client, username string, roles ...enums.Role) *models.User {
	t.Helper()
	if len(roles) == 0 {
		roles = []enums.Role{enums.RoleUser}
	}

	var rows []models.Role
	require.NoError(t, client.DB().Where("name IN ?", roles).Find(&rows).Error)
	require.Len(t, rows, len(roles))

	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "not-a-real-hash",
		IsActive:     true,
		Roles:        rows,
	}
	require.NoError(t, client.DB().Omit("Roles.*").Create(user).Error)
	return user
}

// SeedCategory inserts a category.
func SeedCategory(t testing.TB, client *db.Client, name string) *models.Category {
	t.Helper()
	category := &models.Category{Name: name}
	require.NoError(t, client.DB().Create(category).Error)
	return category
}

// SeedProduct inserts a product with the given price and stock.
func SeedProduct(t testing.TB, client *db.Client, name, price string, quantity int) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Quantity: quantity,
	}
	require.NoError(t, client.DB().Create(product).Error)
	return product
}

// ProductStock reads the current quantity of a product.
func ProductStock(t testing.TB, client *db.Client, product *models.Product) int {
	t.Helper()
	var quantity int
	require.NoError(t, client.DB().Raw("SELECT quantity FROM products WHERE id = ?", product.ID).Scan(&quantity).Error)
	return quantity
}
