package categories

import (
	"context"
	"strings"

	baserepo "github.com/angelmondragon/shopfront-backend/internal/repo"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/angelmondragon/shopfront-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const productCountSelect = "categories.*, (SELECT COUNT(*) FROM products p WHERE p.category_id = categories.id) AS product_count"

var sortColumns = map[string]string{
	"name":      "categories.name",
	"createdAt": "categories.created_at",
	"updatedAt": "categories.updated_at",
	"id":        "categories.id",
}

// Repository persists categories.
type Repository struct {
	baserepo.Base
}

// NewRepository binds a category repository to db.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: baserepo.NewBase(db)}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}

// List returns one page of categories with product counts plus the total row count.
func (r *Repository) List(ctx context.Context, params pagination.PageParams) ([]categoryRow, int64, error) {
	var total int64
	if err := r.DB(ctx).Model(&models.Category{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column, ok := sortColumns[params.SortBy]
	if !ok {
		column = sortColumns["name"]
	}

	var rows []categoryRow
	err := r.DB(ctx).
		Model(&models.Category{}).
		Select(productCountSelect).
		Order(column + " " + params.Direction).
		Order("categories.id").
		Offset(params.Offset()).
		Limit(params.Size).
		Scan(&rows).Error
	return rows, total, err
}

// FindByID loads one category with its product count.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*categoryRow, error) {
	return r.findOne(ctx, "categories.id = ?", id)
}

// FindByURL loads a category by its slug, ignoring case.
func (r *Repository) FindByURL(ctx context.Context, url string) (*categoryRow, error) {
	return r.findOne(ctx, "lower(categories.category_url) = ?", strings.ToLower(strings.TrimSpace(url)))
}

func (r *Repository) findOne(ctx context.Context, where string, arg any) (*categoryRow, error) {
	var rows []categoryRow
	err := r.DB(ctx).
		Model(&models.Category{}).
		Select(productCountSelect).
		Where(where, arg).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &rows[0], nil
}

// Exists reports whether a category with id exists.
func (r *Repository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.Any(ctx, &models.Category{}, "id = ?", id)
}

// NameTaken checks case-insensitive name uniqueness, ignoring excludeID.
func (r *Repository) NameTaken(ctx context.Context, name string, excludeID uuid.UUID) (bool, error) {
	return r.taken(ctx, "lower(name) = ?", strings.ToLower(strings.TrimSpace(name)), excludeID)
}

// URLTaken checks case-insensitive slug uniqueness, ignoring excludeID.
func (r *Repository) URLTaken(ctx context.Context, url string, excludeID uuid.UUID) (bool, error) {
	return r.taken(ctx, "lower(category_url) = ?", strings.ToLower(strings.TrimSpace(url)), excludeID)
}

func (r *Repository) taken(ctx context.Context, where string, value string, excludeID uuid.UUID) (bool, error) {
	q := r.DB(ctx).Model(&models.Category{}).Where(where, value)
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	err := q.Count(&count).Error
	return count > 0, err
}

// Create inserts a category.
func (r *Repository) Create(ctx context.Context, category *models.Category) error {
	return r.DB(ctx).Create(category).Error
}

// Update overwrites name and slug.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, name string, url *string) error {
	return r.DB(ctx).
		Model(&models.Category{}).
		Where("id = ?", id).
		Updates(map[string]any{"name": name, "category_url": url}).Error
}

// Delete detaches products from the category and removes it. Returns
// gorm.ErrRecordNotFound when nothing was deleted.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.DB(ctx).Model(&models.Product{}).Where("category_id = ?", id).Update("category_id", nil).Error; err != nil {
		return err
	}
	return r.DeleteWhere(ctx, &models.Category{}, "id = ?", id)
}
