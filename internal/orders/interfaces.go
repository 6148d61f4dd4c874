package orders

import (
	"context"

	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for orders and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
}

// Inventory moves stock in and out of products inside the caller's transaction.
type Inventory interface {
	// Reserve takes qty units; false means not enough stock was on hand.
	Reserve(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) (bool, error)
	Release(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error
}

// CartStore is the cart surface needed to turn a cart into an order.
type CartStore interface {
	FindCartID(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
	// LockLines locks the cart and returns its lines with fresh product rows.
	LockLines(ctx context.Context, tx *gorm.DB, cartID uuid.UUID) ([]models.CartItem, error)
	Clear(ctx context.Context, tx *gorm.DB, cartID uuid.UUID) error
}
