package tracking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/angelmondragon/shopfront-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrNoHistory is returned when an order has no tracking rows.
var ErrNoHistory = errors.New("order has no tracking history")

// Service records and reads the append-only status history of orders.
type Service interface {
	// Append writes a new event using tx when non-nil.
	Append(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, status enums.OrderStatus, location string) (*models.OrderTracking, error)
	History(ctx context.Context, orderID uuid.UUID) ([]models.OrderTracking, error)
	HistoryFor(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID][]models.OrderTracking, error)
	// CurrentStatus reads the latest event using tx when non-nil.
	CurrentStatus(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (enums.OrderStatus, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService wires a tracking service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("tracking repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) Append(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, status enums.OrderStatus, location string) (*models.OrderTracking, error) {
	if orderID == uuid.Nil {
		return nil, fmt.Errorf("order id is required")
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid order status %q", status)
	}

	event := &models.OrderTracking{
		OrderID:   orderID,
		Status:    status,
		Timestamp: s.now().UTC(),
	}
	if location != "" {
		event.Location = &location
	}
	if err := s.repo.WithTx(tx).Create(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *service) History(ctx context.Context, orderID uuid.UUID) ([]models.OrderTracking, error) {
	if orderID == uuid.Nil {
		return nil, fmt.Errorf("order id is required")
	}
	return s.repo.ListByOrderID(ctx, orderID)
}

func (s *service) HistoryFor(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID][]models.OrderTracking, error) {
	events, err := s.repo.ListByOrderIDs(ctx, orderIDs)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID][]models.OrderTracking, len(orderIDs))
	for _, event := range events {
		out[event.OrderID] = append(out[event.OrderID], event)
	}
	return out, nil
}

func (s *service) CurrentStatus(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (enums.OrderStatus, error) {
	if orderID == uuid.Nil {
		return "", fmt.Errorf("order id is required")
	}
	latest, err := s.repo.WithTx(tx).Latest(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNoHistory
		}
		return "", err
	}
	return latest.Status, nil
}
