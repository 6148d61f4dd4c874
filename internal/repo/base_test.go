package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type tag struct {
	ID   int
	Name string
}

func newBase(t *testing.T) Base {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&tag{}))
	require.NoError(t, conn.Create(&[]tag{{ID: 1, Name: "sale"}, {ID: 2, Name: "new"}}).Error)
	return NewBase(conn)
}

func TestDBBindsContext(t *testing.T) {
	base := newBase(t)
	ctx := context.WithValue(context.Background(), struct{}{}, "value")

	bound := base.DB(ctx)
	require.NotNil(t, bound.Statement)
	assert.Equal(t, ctx, bound.Statement.Context)
	assert.Same(t, base.db, base.DB(nil))
}

func TestAny(t *testing.T) {
	base := newBase(t)
	ctx := context.Background()

	ok, err := base.Any(ctx, &tag{}, "name = ?", "sale")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = base.Any(ctx, &tag{}, "name = ?", "clearance")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteWhereReportsMissingRows(t *testing.T) {
	base := newBase(t)
	ctx := context.Background()

	require.NoError(t, base.DeleteWhere(ctx, &tag{}, "id = ?", 1))
	assert.ErrorIs(t, base.DeleteWhere(ctx, &tag{}, "id = ?", 1), gorm.ErrRecordNotFound)

	ok, err := base.Any(ctx, &tag{}, "id = ?", 2)
	require.NoError(t, err)
	assert.True(t, ok)
}
