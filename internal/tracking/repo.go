package tracking

import (
	"context"

	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository manages persistence for order tracking events.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, event *models.OrderTracking) error
	ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.OrderTracking, error)
	ListByOrderIDs(ctx context.Context, orderIDs []uuid.UUID) ([]models.OrderTracking, error)
	Latest(ctx context.Context, orderID uuid.UUID) (*models.OrderTracking, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a tracking repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, event *models.OrderTracking) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repository) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.OrderTracking, error) {
	var events []models.OrderTracking
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *repository) ListByOrderIDs(ctx context.Context, orderIDs []uuid.UUID) ([]models.OrderTracking, error) {
	if len(orderIDs) == 0 {
		return nil, nil
	}
	var events []models.OrderTracking
	if err := r.db.WithContext(ctx).
		Where("order_id IN ?", orderIDs).
		Order("id ASC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// Latest returns the highest-sequence event for the order.
func (r *repository) Latest(ctx context.Context, orderID uuid.UUID) (*models.OrderTracking, error) {
	var event models.OrderTracking
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id DESC").
		First(&event).Error; err != nil {
		return nil, err
	}
	return &event, nil
}
