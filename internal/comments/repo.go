package comments

import (
	"context"

	baserepo "github.com/angelmondragon/shopfront-backend/internal/repo"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/angelmondragon/shopfront-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists product comments.
type Repository struct {
	baserepo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: baserepo.NewBase(db)}
}

func (r *Repository) Create(ctx context.Context, comment *models.Comment) error {
	return r.DB(ctx).Omit("User").Create(comment).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	var comment models.Comment
	if err := r.DB(ctx).Preload("User").First(&comment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// ListByProduct returns up to limit+1 comments older than cursor, newest first.
// The extra row tells the caller whether another page exists.
func (r *Repository) ListByProduct(ctx context.Context, productID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Comment, error) {
	query := r.DB(ctx).
		Preload("User").
		Where("product_id = ?", productID)
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Comment
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.FetchSize(limit)).
		Find(&rows).Error
	return rows, err
}

// Delete removes the comment. Returns gorm.ErrRecordNotFound when nothing matched.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.DeleteWhere(ctx, &models.Comment{}, "id = ?", id)
}
