package orders

import (
	"time"

	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/angelmondragon/shopfront-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Actor is the authenticated caller an order operation runs for.
type Actor struct {
	UserID uuid.UUID
	Roles  []enums.Role
}

// IsAdmin reports whether the caller may act on any user's orders.
func (a Actor) IsAdmin() bool {
	return enums.HasRole(a.Roles, enums.RoleAdmin)
}

// OrderItemView is one order line with its snapshotted unit price.
type OrderItemView struct {
	ProductID   uuid.UUID       `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    *string         `json:"imageUrl,omitempty"`
}

// TrackingView is one status event.
type TrackingView struct {
	Status    enums.OrderStatus `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Location  *string           `json:"location,omitempty"`
}

// OrderDetail is the order projection returned by every order endpoint.
type OrderDetail struct {
	ID              uuid.UUID         `json:"id"`
	Username        string            `json:"username"`
	OrderDate       time.Time         `json:"orderDate"`
	TotalAmount     decimal.Decimal   `json:"totalAmount"`
	Status          enums.OrderStatus `json:"status"`
	OrderItems      []OrderItemView   `json:"orderItems"`
	TrackingHistory []TrackingView    `json:"trackingHistory"`
}

func buildDetail(order *models.Order, history []models.OrderTracking) OrderDetail {
	detail := OrderDetail{
		ID:              order.ID,
		OrderDate:       order.OrderDate,
		TotalAmount:     order.TotalAmount,
		OrderItems:      make([]OrderItemView, 0, len(order.Items)),
		TrackingHistory: make([]TrackingView, 0, len(history)),
	}
	if order.User != nil {
		detail.Username = order.User.Username
	}
	for _, item := range order.Items {
		view := OrderItemView{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		}
		if item.Product != nil {
			view.ProductName = item.Product.Name
			view.ImageURL = item.Product.ImageURL
		}
		detail.OrderItems = append(detail.OrderItems, view)
	}
	for _, event := range history {
		detail.TrackingHistory = append(detail.TrackingHistory, TrackingView{
			Status:    event.Status,
			Timestamp: event.Timestamp,
			Location:  event.Location,
		})
	}
	// history is ascending by sequence, so the last row is current.
	if n := len(history); n > 0 {
		detail.Status = history[n-1].Status
	}
	return detail
}
