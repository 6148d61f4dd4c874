package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/shopfront-backend/pkg/enums"
)

// OrderTracking is an append-only status event. ID is a monotonically increasing
// sequence and is the authoritative ordering key; Timestamp is informational.
type OrderTracking struct {
	ID        int64             `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID   uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index"`
	Status    enums.OrderStatus `gorm:"column:status;not null"`
	Location  *string           `gorm:"column:location"`
	Timestamp time.Time         `gorm:"column:timestamp;not null"`
}

func (OrderTracking) TableName() string {
	return "order_tracking"
}
