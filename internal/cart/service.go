package cart

import (
	"context"
	"errors"
	"fmt"

	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/google/uuid"
)

// Service manages the caller's cart. Every operation creates the cart on demand.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*View, error)
	AddItem(ctx context.Context, userID, productID uuid.UUID, qty int) (*View, error)
	SetItemQuantity(ctx context.Context, userID, productID uuid.UUID, qty int) (*View, error)
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
}

type ServiceParams struct {
	Carts    *Repository
	Items    *CartItemRepository
	Products ProductLookup
}

type service struct {
	carts    *Repository
	items    *CartItemRepository
	products ProductLookup
}

// NewService builds the cart service.
func NewService(params ServiceParams) (Service, error) {
	if params.Carts == nil {
		return nil, fmt.Errorf("cart repository is required")
	}
	if params.Items == nil {
		return nil, fmt.Errorf("cart item repository is required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product lookup is required")
	}
	return &service{carts: params.Carts, items: params.Items, products: params.Products}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*View, error) {
	cartID, err := s.cartID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, cartID)
}

func quantityError(detail string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
		WithDetails(map[string]string{"quantity": detail})
}

func (s *service) AddItem(ctx context.Context, userID, productID uuid.UUID, qty int) (*View, error) {
	switch {
	case qty <= 0:
		return nil, quantityError("must be greater than 0")
	case qty > MaxLineQuantity:
		return nil, quantityError(fmt.Sprintf("must be at most %d", MaxLineQuantity))
	}
	exists, err := s.products.Exists(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
	}

	cartID, err := s.cartID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.items.AddQuantity(ctx, cartID, productID, qty); err != nil {
		if errors.Is(err, ErrLineLimit) {
			return nil, quantityError(fmt.Sprintf("cart line would exceed %d", MaxLineQuantity))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "add cart item")
	}
	return s.view(ctx, cartID)
}

func (s *service) SetItemQuantity(ctx context.Context, userID, productID uuid.UUID, qty int) (*View, error) {
	if qty > MaxLineQuantity {
		return nil, quantityError(fmt.Sprintf("must be at most %d", MaxLineQuantity))
	}
	cartID, err := s.cartID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if qty <= 0 {
		if err := s.items.Remove(ctx, cartID, productID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove cart item")
		}
		return s.view(ctx, cartID)
	}

	updated, err := s.items.SetQuantity(ctx, cartID, productID, qty)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart item")
	}
	if !updated {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Product not in cart")
	}
	return s.view(ctx, cartID)
}

func (s *service) RemoveItem(ctx context.Context, userID, productID uuid.UUID) error {
	cartID, err := s.cartID(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.items.Remove(ctx, cartID, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove cart item")
	}
	return nil
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	cartID, err := s.cartID(ctx, userID)
	if err != nil {
		return err
	}
	if _, err := s.items.Clear(ctx, cartID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
	}
	return nil
}

func (s *service) cartID(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	cart, err := s.carts.LoadOrCreate(ctx, userID)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	return cart.ID, nil
}

func (s *service) view(ctx context.Context, cartID uuid.UUID) (*View, error) {
	lines, err := s.items.ListWithProducts(ctx, cartID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart items")
	}
	return buildView(cartID, lines), nil
}
