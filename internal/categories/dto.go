package categories

import (
	"time"

	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/google/uuid"
)

// CategoryRequest is the create/update payload.
type CategoryRequest struct {
	Name        string  `json:"name" validate:"required,max=100"`
	CategoryURL *string `json:"categoryUrl,omitempty" validate:"omitempty,max=512"`
}

// CategoryDTO is the public category projection.
type CategoryDTO struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	CategoryURL  *string   `json:"categoryUrl,omitempty"`
	ProductCount int64     `json:"productCount"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// categoryRow is a category joined with its product count.
type categoryRow struct {
	models.Category
	ProductCount int64 `gorm:"column:product_count"`
}

func toDTO(row categoryRow) CategoryDTO {
	return CategoryDTO{
		ID:           row.ID,
		Name:         row.Name,
		CategoryURL:  row.CategoryURL,
		ProductCount: row.ProductCount,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}
