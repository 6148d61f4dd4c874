package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/shopfront-backend/pkg/db"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Service exposes catalog browsing and admin product management.
type Service interface {
	ListProducts(ctx context.Context, input ListProductsInput) (pagination.Page[ProductDTO], error)
	GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	CreateProduct(ctx context.Context, req ProductRequest) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, req ProductRequest) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}

type ServiceParams struct {
	Repo            *Repository
	DB              db.TxRunner
	DefaultPageSize int
	MaxPageSize     int
}

type service struct {
	repo        *Repository
	tx          db.TxRunner
	defaultSize int
	maxSize     int
}

// NewService builds the product service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("product repository is required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	svc := &service{
		repo:        params.Repo,
		tx:          params.DB,
		defaultSize: params.DefaultPageSize,
		maxSize:     params.MaxPageSize,
	}
	if svc.defaultSize <= 0 {
		svc.defaultSize = DefaultPageSize
	}
	if svc.maxSize <= 0 {
		svc.maxSize = MaxPageSize
	}
	return svc, nil
}

func (s *service) ListProducts(ctx context.Context, input ListProductsInput) (pagination.Page[ProductDTO], error) {
	input.Page = input.Page.Normalize(s.defaultSize, s.maxSize)
	if input.Page.SortBy != "" {
		if _, ok := sortColumns[input.Page.SortBy]; !ok {
			return pagination.Page[ProductDTO]{}, pkgerrors.New(pkgerrors.CodeValidation, "unsupported sort field").
				WithDetails(map[string]any{"sortBy": input.Page.SortBy})
		}
	}

	rows, total, err := s.repo.List(ctx, input)
	if err != nil {
		return pagination.Page[ProductDTO]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return pagination.NewPage(out, input.Page, total), nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	dto := FromModel(product)
	return &dto, nil
}

func (s *service) CreateProduct(ctx context.Context, req ProductRequest) (*ProductDTO, error) {
	product, err := modelFromRequest(req)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := ensureCategory(ctx, repo, product.CategoryID); err != nil {
			return err
		}
		return repo.Create(ctx, product)
	})
	if err != nil {
		return nil, wrapWrite(err, "create product")
	}
	return s.GetProduct(ctx, product.ID)
}

func (s *service) UpdateProduct(ctx context.Context, id uuid.UUID, req ProductRequest) (*ProductDTO, error) {
	product, err := modelFromRequest(req)
	if err != nil {
		return nil, err
	}
	product.ID = id

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		exists, err := repo.Exists(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
		}
		if err := ensureCategory(ctx, repo, product.CategoryID); err != nil {
			return err
		}
		return repo.Update(ctx, product)
	})
	if err != nil {
		return nil, wrapWrite(err, "update product")
	}
	return s.GetProduct(ctx, id)
}

func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		exists, err := repo.Exists(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
		}
		refs, err := repo.CountOrderReferences(ctx, id)
		if err != nil {
			return err
		}
		if refs > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "Product is referenced by existing orders and cannot be deleted")
		}
		if err := repo.DetachFromCollections(ctx, id); err != nil {
			return err
		}
		return repo.Delete(ctx, id)
	})
	if err != nil {
		return wrapWrite(err, "delete product")
	}
	return nil
}

func modelFromRequest(req ProductRequest) (*models.Product, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
			WithDetails(map[string]string{"name": "is required"})
	}
	if req.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
			WithDetails(map[string]string{"price": "must be greater than or equal to 0"})
	}
	if req.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
			WithDetails(map[string]string{"quantity": "must be greater than or equal to 0"})
	}
	return &models.Product{
		Name:        name,
		Description: req.Description,
		Price:       req.Price.Round(2),
		Quantity:    req.Quantity,
		CategoryID:  req.CategoryID,
		ImageURL:    req.ImageURL,
	}, nil
}

func ensureCategory(ctx context.Context, repo *Repository, categoryID *uuid.UUID) error {
	if categoryID == nil {
		return nil
	}
	ok, err := repo.CategoryExists(ctx, *categoryID)
	if err != nil {
		return err
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "Category not found")
	}
	return nil
}

func wrapWrite(err error, op string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, op)
}
