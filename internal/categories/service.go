package categories

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

// Service manages the category catalog.
type Service interface {
	List(ctx context.Context, params pagination.PageParams) (pagination.Page[CategoryDTO], error)
	Get(ctx context.Context, id uuid.UUID) (*CategoryDTO, error)
	GetByURL(ctx context.Context, url string) (*CategoryDTO, error)
	Create(ctx context.Context, req CategoryRequest) (*CategoryDTO, error)
	Update(ctx context.Context, id uuid.UUID, req CategoryRequest) (*CategoryDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
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

// NewService builds the category service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("category repository is required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	defaultSize := params.DefaultPageSize
	if defaultSize <= 0 {
		defaultSize = DefaultPageSize
	}
	maxSize := params.MaxPageSize
	if maxSize <= 0 {
		maxSize = MaxPageSize
	}
	return &service{
		repo:        params.Repo,
		tx:          params.DB,
		defaultSize: defaultSize,
		maxSize:     maxSize,
	}, nil
}

func (s *service) List(ctx context.Context, params pagination.PageParams) (pagination.Page[CategoryDTO], error) {
	params = params.Normalize(s.defaultSize, s.maxSize)
	if params.SortBy != "" {
		if _, ok := sortColumns[params.SortBy]; !ok {
			return pagination.Page[CategoryDTO]{}, pkgerrors.New(pkgerrors.CodeValidation, "unsupported sort field").
				WithDetails(map[string]any{"sortBy": params.SortBy})
		}
	}

	rows, total, err := s.repo.List(ctx, params)
	if err != nil {
		return pagination.Page[CategoryDTO]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list categories")
	}
	out := make([]CategoryDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDTO(row))
	}
	return pagination.NewPage(out, params, total), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*CategoryDTO, error) {
	row, err := s.repo.FindByID(ctx, id)
	return s.found(row, err)
}

func (s *service) GetByURL(ctx context.Context, url string) (*CategoryDTO, error) {
	if strings.TrimSpace(url) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "categoryUrl is required")
	}
	row, err := s.repo.FindByURL(ctx, url)
	return s.found(row, err)
}

func (s *service) found(row *categoryRow, err error) (*CategoryDTO, error) {
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load category")
	}
	dto := toDTO(*row)
	return &dto, nil
}

func (s *service) Create(ctx context.Context, req CategoryRequest) (*CategoryDTO, error) {
	name, url := normalizeRequest(req)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}

	category := &models.Category{Name: name, CategoryURL: url}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := ensureUnique(ctx, repo, name, url, uuid.Nil); err != nil {
			return err
		}
		return repo.Create(ctx, category)
	})
	if err != nil {
		return nil, mapWriteError(err, "create category")
	}
	return s.Get(ctx, category.ID)
}

func (s *service) Update(ctx context.Context, id uuid.UUID, req CategoryRequest) (*CategoryDTO, error) {
	name, url := normalizeRequest(req)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		exists, err := repo.Exists(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return pkgerrors.New(pkgerrors.CodeNotFound, "Category not found")
		}
		if err := ensureUnique(ctx, repo, name, url, id); err != nil {
			return err
		}
		return repo.Update(ctx, id, name, url)
	})
	if err != nil {
		return nil, mapWriteError(err, "update category")
	}
	return s.Get(ctx, id)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Delete(ctx, id)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "Category not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete category")
	}
	return nil
}

func ensureUnique(ctx context.Context, repo *Repository, name string, url *string, excludeID uuid.UUID) error {
	taken, err := repo.NameTaken(ctx, name, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return pkgerrors.New(pkgerrors.CodeConflict, "Category name already exists")
	}
	if url == nil {
		return nil
	}
	taken, err = repo.URLTaken(ctx, *url, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return pkgerrors.New(pkgerrors.CodeConflict, "Category URL already exists")
	}
	return nil
}

func mapWriteError(err error, op string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.New(pkgerrors.CodeConflict, "Category already exists")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, op)
}

// normalizeRequest trims input; a blank slug is treated as absent.
func normalizeRequest(req CategoryRequest) (string, *string) {
	name := strings.TrimSpace(req.Name)
	if req.CategoryURL == nil {
		return name, nil
	}
	url := strings.TrimSpace(*req.CategoryURL)
	if url == "" {
		return name, nil
	}
	return name, &url
}
