package comments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/angelmondragon/shopfront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductLookup confirms a product exists before it is referenced.
type ProductLookup interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// Service exposes product comments.
type Service interface {
	ListForProduct(ctx context.Context, productID uuid.UUID, params pagination.Params) (*CommentPage, error)
	Create(ctx context.Context, userID uuid.UUID, req CreateCommentRequest) (*CommentDTO, error)
	Delete(ctx context.Context, userID uuid.UUID, roles []enums.Role, commentID uuid.UUID) error
}

type service struct {
	repo     *Repository
	products ProductLookup
}

func NewService(repo *Repository, products ProductLookup) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("comment repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product lookup required")
	}
	return &service{repo: repo, products: products}, nil
}

func (s *service) ListForProduct(ctx context.Context, productID uuid.UUID, params pagination.Params) (*CommentPage, error) {
	if err := s.ensureProduct(ctx, productID); err != nil {
		return nil, err
	}
	cursor, err := pagination.DecodeCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor").
			WithDetails(map[string]string{"cursor": "is malformed"})
	}

	rows, err := s.repo.ListByProduct(ctx, productID, cursor, params.Limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list comments")
	}

	rows, next := pagination.Trim(rows, params.Limit, func(c models.Comment) pagination.Cursor {
		return pagination.Cursor{CreatedAt: c.CreatedAt, ID: c.ID}
	})
	page := &CommentPage{Items: make([]CommentDTO, 0, len(rows)), NextCursor: next}
	for i := range rows {
		page.Items = append(page.Items, toDTO(&rows[i]))
	}
	return page, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, req CreateCommentRequest) (*CommentDTO, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
			WithDetails(map[string]string{"content": "is required"})
	}
	if err := s.ensureProduct(ctx, req.ProductID); err != nil {
		return nil, err
	}

	comment := &models.Comment{UserID: userID, ProductID: req.ProductID, Content: content}
	if err := s.repo.Create(ctx, comment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create comment")
	}
	saved, err := s.repo.FindByID(ctx, comment.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload comment")
	}
	dto := toDTO(saved)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, userID uuid.UUID, roles []enums.Role, commentID uuid.UUID) error {
	comment, err := s.repo.FindByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "Comment not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load comment")
	}
	if comment.UserID != userID && !enums.HasRole(roles, enums.RoleAdmin) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "You do not have permission to delete this comment.")
	}
	if err := s.repo.Delete(ctx, commentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "Comment not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete comment")
	}
	return nil
}

func (s *service) ensureProduct(ctx context.Context, productID uuid.UUID) error {
	exists, err := s.products.Exists(ctx, productID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if !exists {
		return pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
	}
	return nil
}
