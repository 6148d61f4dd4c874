package wishlist

import (
	"context"
	"fmt"

	product "github.com/angelmondragon/shopfront-backend/internal/products"
	"github.com/angelmondragon/shopfront-backend/pkg/db"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/google/uuid"
)

const msgDuplicate = "Product is already in the wishlist."

// ItemDTO is one saved product.
type ItemDTO struct {
	WishlistID uuid.UUID          `json:"wishlistId"`
	Product    product.ProductDTO `json:"product"`
}

// ProductLookup confirms a product exists before it is referenced.
type ProductLookup interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// Service manages the caller's wishlist.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]ItemDTO, error)
	Add(ctx context.Context, userID, productID uuid.UUID) (*ItemDTO, error)
	Remove(ctx context.Context, userID, productID uuid.UUID) error
}

type service struct {
	repo     *Repository
	products ProductLookup
}

// NewService builds the wishlist service.
func NewService(repo *Repository, products ProductLookup) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("wishlist repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product lookup required")
	}
	return &service{repo: repo, products: products}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]ItemDTO, error) {
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list wishlist")
	}
	out := make([]ItemDTO, 0, len(items))
	for i := range items {
		if items[i].Product == nil {
			continue
		}
		out = append(out, toDTO(&items[i]))
	}
	return out, nil
}

func (s *service) Add(ctx context.Context, userID, productID uuid.UUID) (*ItemDTO, error) {
	exists, err := s.products.Exists(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
	}

	saved, err := s.repo.Contains(ctx, userID, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check wishlist")
	}
	if saved {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, msgDuplicate)
	}

	item := &models.WishlistItem{UserID: userID, ProductID: productID}
	if err := s.repo.Add(ctx, item); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, msgDuplicate)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "add wishlist item")
	}

	loaded, err := s.repo.FindByID(ctx, item.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload wishlist item")
	}
	dto := toDTO(loaded)
	return &dto, nil
}

func (s *service) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	removed, err := s.repo.Remove(ctx, userID, productID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove wishlist item")
	}
	if !removed {
		return pkgerrors.New(pkgerrors.CodeNotFound, "Product not found in wishlist.")
	}
	return nil
}

func toDTO(item *models.WishlistItem) ItemDTO {
	return ItemDTO{WishlistID: item.ID, Product: product.FromModel(item.Product)}
}
