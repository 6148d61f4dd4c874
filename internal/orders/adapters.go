package orders

import (
	"context"

	"github.com/angelmondragon/shopfront-backend/internal/cart"
	product "github.com/angelmondragon/shopfront-backend/internal/products"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type productInventory struct {
	products *product.Repository
}

// NewInventory adapts the product repository's stock arithmetic.
func NewInventory(products *product.Repository) Inventory {
	return productInventory{products: products}
}

func (p productInventory) Reserve(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) (bool, error) {
	return p.products.WithTx(tx).DecrementStock(ctx, productID, qty)
}

func (p productInventory) Release(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return nil
	}
	return p.products.WithTx(tx).IncrementStock(ctx, productID, qty)
}

type cartStore struct {
	carts *cart.Repository
	items *cart.CartItemRepository
}

// NewCartStore adapts the cart repositories for checkout.
func NewCartStore(carts *cart.Repository, items *cart.CartItemRepository) CartStore {
	return cartStore{carts: carts, items: items}
}

func (c cartStore) FindCartID(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	found, err := c.carts.FindByUser(ctx, userID)
	if err != nil {
		return uuid.Nil, err
	}
	return found.ID, nil
}

func (c cartStore) LockLines(ctx context.Context, tx *gorm.DB, cartID uuid.UUID) ([]models.CartItem, error) {
	if err := c.carts.WithTx(tx).Lock(ctx, cartID); err != nil {
		return nil, err
	}
	return c.items.WithTx(tx).ListWithProducts(ctx, cartID)
}

func (c cartStore) Clear(ctx context.Context, tx *gorm.DB, cartID uuid.UUID) error {
	_, err := c.items.WithTx(tx).Clear(ctx, cartID)
	return err
}
