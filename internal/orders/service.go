package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/shopfront-backend/internal/tracking"
	"github.com/angelmondragon/shopfront-backend/pkg/db"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/angelmondragon/shopfront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
	"github.com/angelmondragon/shopfront-backend/pkg/metrics"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	msgCartMissing    = "User's cart is empty or does not exist."
	msgCartEmpty      = "Cannot create an order from an empty cart."
	msgNotCancellable = "Order cannot be cancelled as it is already being processed."
	msgOrderNotFound  = "Order not found"
	msgOrderForbidden = "User does not have permission to access this order."
)

// Service drives the cart-to-order transition and the order lifecycle.
type Service interface {
	CreateFromCart(ctx context.Context, userID uuid.UUID) (*OrderDetail, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]OrderDetail, error)
	GetDetails(ctx context.Context, actor Actor, orderID uuid.UUID) (*OrderDetail, error)
	Cancel(ctx context.Context, actor Actor, orderID uuid.UUID) error
}

// ServiceParams bundles the order service collaborators.
type ServiceParams struct {
	Repo      Repository
	DB        db.TxRunner
	Carts     CartStore
	Inventory Inventory
	Tracking  tracking.Service
	Metrics   *metrics.OrderMetrics
	Logger    *logger.Logger
}

type service struct {
	repo      Repository
	tx        db.TxRunner
	carts     CartStore
	inventory Inventory
	tracking  tracking.Service
	metrics   *metrics.OrderMetrics
	logg      *logger.Logger
	now       func() time.Time
}

// NewService builds the order service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if params.Inventory == nil {
		return nil, fmt.Errorf("inventory required")
	}
	if params.Tracking == nil {
		return nil, fmt.Errorf("tracking service required")
	}
	return &service{
		repo:      params.Repo,
		tx:        params.DB,
		carts:     params.Carts,
		inventory: params.Inventory,
		tracking:  params.Tracking,
		metrics:   params.Metrics,
		logg:      params.Logger,
		now:       time.Now,
	}, nil
}

type stockError struct {
	product string
}

func (e *stockError) Error() string {
	return "Not enough stock for product: " + e.product
}

func (s *service) CreateFromCart(ctx context.Context, userID uuid.UUID) (*OrderDetail, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	cartID, err := s.carts.FindCartID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidState, msgCartMissing)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}

	order := &models.Order{UserID: userID, OrderDate: s.now().UTC()}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		lines, err := s.carts.LockLines(ctx, tx, cartID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart items")
		}
		if len(lines) == 0 {
			return pkgerrors.New(pkgerrors.CodeInvalidState, msgCartEmpty)
		}

		total := decimal.Zero
		for _, line := range lines {
			if line.Product == nil {
				return pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
			}
			if line.Product.Quantity < line.Quantity {
				return &stockError{product: line.Product.Name}
			}
			ok, err := s.inventory.Reserve(ctx, tx, line.ProductID, line.Quantity)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decrement stock")
			}
			if !ok {
				return &stockError{product: line.Product.Name}
			}

			item := models.OrderItem{
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				Price:     line.Product.Price,
			}
			total = total.Add(item.LineTotal())
			order.Items = append(order.Items, item)
		}
		order.TotalAmount = total

		if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
		}
		if _, err := s.tracking.Append(ctx, tx, order.ID, enums.OrderStatusPending, enums.TrackingLocationWarehouse); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "append tracking")
		}
		if err := s.carts.Clear(ctx, tx, cartID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
		}
		return nil
	})
	if err != nil {
		var stockErr *stockError
		if errors.As(err, &stockErr) {
			s.metrics.IncStockRejected()
			return nil, pkgerrors.New(pkgerrors.CodeInvalidState, stockErr.Error())
		}
		return nil, err
	}

	s.metrics.IncPlaced(order.TotalAmount)
	logCtx := s.logg.WithOrderID(ctx, order.ID.String())
	logCtx = s.logg.WithFields(logCtx, map[string]any{
		"user_id":      userID.String(),
		"total_amount": order.TotalAmount.StringFixed(2),
		"line_count":   len(order.Items),
	})
	s.logg.Info(logCtx, "order.placed")

	return s.detail(ctx, order.ID)
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID) ([]OrderDetail, error) {
	orders, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	ids := make([]uuid.UUID, 0, len(orders))
	for _, order := range orders {
		ids = append(ids, order.ID)
	}
	histories, err := s.tracking.HistoryFor(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load tracking")
	}

	out := make([]OrderDetail, 0, len(orders))
	for i := range orders {
		out = append(out, buildDetail(&orders[i], histories[orders[i].ID]))
	}
	return out, nil
}

func (s *service) GetDetails(ctx context.Context, actor Actor, orderID uuid.UUID) (*OrderDetail, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, mapLoadError(err)
	}
	if err := authorize(actor, order); err != nil {
		return nil, err
	}
	history, err := s.tracking.History(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load tracking")
	}
	detail := buildDetail(order, history)
	return &detail, nil
}

func (s *service) Cancel(ctx context.Context, actor Actor, orderID uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.repo.WithTx(tx).FindForUpdate(ctx, orderID)
		if err != nil {
			return mapLoadError(err)
		}
		if err := authorize(actor, order); err != nil {
			return err
		}

		status, err := s.tracking.CurrentStatus(ctx, tx, order.ID)
		if err != nil {
			if errors.Is(err, tracking.ErrNoHistory) {
				return pkgerrors.New(pkgerrors.CodeInvalidState, "Order has no tracking history.")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order status")
		}
		if !status.IsCancellable() {
			return pkgerrors.New(pkgerrors.CodeInvalidState, msgNotCancellable).
				WithDetails(map[string]any{"status": status})
		}

		for _, item := range order.Items {
			if err := s.inventory.Release(ctx, tx, item.ProductID, item.Quantity); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "restore stock")
			}
		}
		if _, err := s.tracking.Append(ctx, tx, order.ID, enums.OrderStatusCancelled, enums.TrackingLocationCustomerRequest); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "append tracking")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.metrics.IncCancelled()
	logCtx := s.logg.WithOrderID(ctx, orderID.String())
	s.logg.Info(s.logg.WithUserID(logCtx, actor.UserID.String()), "order.cancelled")
	return nil
}

func (s *service) detail(ctx context.Context, orderID uuid.UUID) (*OrderDetail, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, mapLoadError(err)
	}
	history, err := s.tracking.History(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load tracking")
	}
	detail := buildDetail(order, history)
	return &detail, nil
}

func authorize(actor Actor, order *models.Order) error {
	if order.UserID == actor.UserID || actor.IsAdmin() {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, msgOrderForbidden)
}

func mapLoadError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, msgOrderNotFound)
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
}
