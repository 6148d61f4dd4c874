package cart

import (
	"context"
	"errors"

	"github.com/angelmondragon/shopfront-backend/pkg/db"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrLineLimit means merging would push a line past MaxLineQuantity.
var ErrLineLimit = errors.New("cart line quantity limit exceeded")

// CartItemRepository manages cart lines.
type CartItemRepository struct {
	db *gorm.DB
}

// NewCartItemRepository binds the repository to the provided DB handle.
func NewCartItemRepository(db *gorm.DB) *CartItemRepository {
	return &CartItemRepository{db: db}
}

// WithTx scopes the repository to the provided transaction.
func (r *CartItemRepository) WithTx(tx *gorm.DB) *CartItemRepository {
	if tx == nil {
		return r
	}
	return &CartItemRepository{db: tx}
}

// ListWithProducts returns the cart lines with their products, oldest first.
func (r *CartItemRepository) ListWithProducts(ctx context.Context, cartID uuid.UUID) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("cart_id = ?", cartID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&items).Error
	return items, err
}

// AddQuantity merges qty into the (cart, product) line, creating it when absent.
func (r *CartItemRepository) AddQuantity(ctx context.Context, cartID, productID uuid.UUID, qty int) error {
	merged, err := r.increment(ctx, cartID, productID, qty)
	if err != nil || merged {
		return err
	}

	line := &models.CartItem{CartID: cartID, ProductID: productID, Quantity: qty}
	if err := r.db.WithContext(ctx).Omit("Product").Create(line).Error; err != nil {
		if !db.IsUniqueViolation(err, "") {
			return err
		}
		// Lost the insert race; the line now exists.
		_, err = r.increment(ctx, cartID, productID, qty)
		return err
	}
	return nil
}

// increment adds qty to an existing line as long as the result stays within
// MaxLineQuantity. A line that exists but is too full yields ErrLineLimit.
func (r *CartItemRepository) increment(ctx context.Context, cartID, productID uuid.UUID, qty int) (bool, error) {
	line := r.db.WithContext(ctx).Model(&models.CartItem{}).Where("cart_id = ? AND product_id = ?", cartID, productID)
	res := line.Session(&gorm.Session{}).
		Where("quantity <= ?", MaxLineQuantity-qty).
		Updates(map[string]any{"quantity": gorm.Expr("quantity + ?", qty)})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return true, nil
	}

	var n int64
	if err := line.Session(&gorm.Session{}).Count(&n).Error; err != nil {
		return false, err
	}
	if n > 0 {
		return false, ErrLineLimit
	}
	return false, nil
}

// SetQuantity overwrites the line quantity. Returns false when no line exists.
func (r *CartItemRepository) SetQuantity(ctx context.Context, cartID, productID uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Update("quantity", qty)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Remove deletes the line for productID if present.
func (r *CartItemRepository) Remove(ctx context.Context, cartID, productID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Delete(&models.CartItem{}).Error
}

// Clear deletes every line in the cart and reports how many were removed.
func (r *CartItemRepository) Clear(ctx context.Context, cartID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}
