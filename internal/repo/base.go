package repo

import (
	"context"

	"gorm.io/gorm"
)

// Base is embedded by the shop repositories for context binding and the
// count/delete helpers they share.
type Base struct {
	db *gorm.DB
}

func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the connection bound to ctx.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Any reports whether model has at least one row matching query.
func (b Base) Any(ctx context.Context, model any, query string, args ...any) (bool, error) {
	var count int64
	err := b.DB(ctx).Model(model).Where(query, args...).Limit(1).Count(&count).Error
	return count > 0, err
}

// DeleteWhere removes the matching rows of model. gorm.ErrRecordNotFound
// signals that nothing matched.
func (b Base) DeleteWhere(ctx context.Context, model any, query string, args ...any) error {
	res := b.DB(ctx).Where(query, args...).Delete(model)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
