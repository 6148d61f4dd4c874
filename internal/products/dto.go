package product

import (
	"time"

	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductRequest is the admin create/update payload.
type ProductRequest struct {
	Name        string          `json:"name" validate:"required,max=255"`
	Description *string         `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity" validate:"gte=0,lte=2147483647"`
	CategoryID  *uuid.UUID      `json:"categoryId,omitempty"`
	ImageURL    *string         `json:"imageUrl,omitempty" validate:"omitempty,max=1024"`
}

// CategorySummary is the embedded category reference on product responses.
type CategorySummary struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	CategoryURL *string   `json:"categoryUrl,omitempty"`
}

// ProductDTO is the public product projection.
type ProductDTO struct {
	ID          uuid.UUID        `json:"id"`
	Name        string           `json:"name"`
	Description *string          `json:"description,omitempty"`
	Price       decimal.Decimal  `json:"price"`
	Quantity    int              `json:"quantity"`
	Category    *CategorySummary `json:"category"`
	ImageURL    *string          `json:"imageUrl,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// FromModel maps a product (with optional preloaded category) to its DTO.
func FromModel(p *models.Product) ProductDTO {
	dto := ProductDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Quantity:    p.Quantity,
		ImageURL:    p.ImageURL,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.Category != nil {
		dto.Category = &CategorySummary{
			ID:          p.Category.ID,
			Name:        p.Category.Name,
			CategoryURL: p.Category.CategoryURL,
		}
	}
	return dto
}
