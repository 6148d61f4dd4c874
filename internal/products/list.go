package product

import "github.com/angelmondragon/shopfront-backend/pkg/pagination"

// ListProductsInput captures the browse filters and page request.
type ListProductsInput struct {
	// Name is matched as a case-insensitive substring when non-blank.
	Name string
	Page pagination.PageParams
}

var sortColumns = map[string]string{
	"name":      "products.name",
	"price":     "products.price",
	"quantity":  "products.quantity",
	"createdAt": "products.created_at",
	"updatedAt": "products.updated_at",
}
