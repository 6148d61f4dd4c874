package cart

import (
	"context"

	"github.com/google/uuid"
)

// ProductLookup is the slice of the catalog the cart needs.
type ProductLookup interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}
