package orders

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/shopfront-backend/internal/cart"
	product "github.com/angelmondragon/shopfront-backend/internal/products"
	"github.com/angelmondragon/shopfront-backend/internal/tracking"
	"github.com/angelmondragon/shopfront-backend/pkg/db"
	"github.com/angelmondragon/shopfront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/angelmondragon/shopfront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
	"github.com/angelmondragon/shopfront-backend/pkg/metrics"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type harness struct {
	client  *db.Client
	svc     Service
	cart    cart.Service
	metrics *metrics.OrderMetrics
	reg     *prometheus.Registry
	logs    *bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	client := dbtest.Open(t)
	conn := client.DB()

	products := product.NewRepository(conn)
	carts := cart.NewRepository(conn)
	items := cart.NewCartItemRepository(conn)
	trackingSvc, err := tracking.NewService(tracking.NewRepository(conn))
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	orderMetrics := metrics.NewOrderMetrics(reg)
	logs := &bytes.Buffer{}

	svc, err := NewService(ServiceParams{
		Repo:      NewRepository(conn),
		DB:        client,
		Carts:     NewCartStore(carts, items),
		Inventory: NewInventory(products),
		Tracking:  trackingSvc,
		Metrics:   orderMetrics,
		Logger:    logger.New(logger.Options{ServiceName: "test", Output: logs}),
	})
	require.NoError(t, err)

	cartSvc, err := cart.NewService(cart.ServiceParams{Carts: carts, Items: items, Products: products})
	require.NoError(t, err)

	return &harness{client: client, svc: svc, cart: cartSvc, metrics: orderMetrics, reg: reg, logs: logs}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	assert.Error(t, err)
}

func TestCreateFromCartRejectsMissingOrEmptyCart(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := dbtest.SeedUser(t, h.client, "kim")

	_, err := h.svc.CreateFromCart(ctx, user.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidState))
	assert.Equal(t, msgCartMissing, pkgerrors.As(err).Message())

	_, err = h.cart.Get(ctx, user.ID)
	require.NoError(t, err)

	_, err = h.svc.CreateFromCart(ctx, user.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidState))
	assert.Equal(t, msgCartEmpty, pkgerrors.As(err).Message())
}

func TestCreateFromCartInsufficientStockRollsBack(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := dbtest.SeedUser(t, h.client, "lee")
	plenty := dbtest.SeedProduct(t, h.client, "Plenty", "1.00", 10)
	scarce := dbtest.SeedProduct(t, h.client, "Scarce", "2.00", 1)

	_, err := h.cart.AddItem(ctx, user.ID, plenty.ID, 3)
	require.NoError(t, err)
	_, err = h.cart.AddItem(ctx, user.ID, scarce.ID, 2)
	require.NoError(t, err)

	_, err = h.svc.CreateFromCart(ctx, user.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidState))
	assert.Equal(t, "Not enough stock for product: Scarce", pkgerrors.As(err).Message())

	assert.Equal(t, 10, dbtest.ProductStock(t, h.client, plenty))
	assert.Equal(t, 1, dbtest.ProductStock(t, h.client, scarce))

	var orderCount int64
	require.NoError(t, h.client.DB().Model(&models.Order{}).Count(&orderCount).Error)
	assert.Zero(t, orderCount)

	view, err := h.cart.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, view.Items, 2)
	assert.Equal(t, 1.0, counterValue(t, h.reg, "orders_rejected_stock_total"))
}

func TestCreateFromCartSnapshotsPrices(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := dbtest.SeedUser(t, h.client, "max")
	p := dbtest.SeedProduct(t, h.client, "Teapot", "19.99", 4)

	_, err := h.cart.AddItem(ctx, user.ID, p.ID, 2)
	require.NoError(t, err)

	placed, err := h.svc.CreateFromCart(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("39.98").Equal(placed.TotalAmount))
	assert.Equal(t, "max", placed.Username)
	assert.Equal(t, enums.OrderStatusPending, placed.Status)

	require.NoError(t, h.client.DB().Model(&models.Product{}).Where("id = ?", p.ID).Update("price", decimal.RequireFromString("99.00")).Error)

	reloaded, err := h.svc.GetDetails(ctx, Actor{UserID: user.ID}, placed.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.OrderItems, 1)
	assert.True(t, decimal.RequireFromString("19.99").Equal(reloaded.OrderItems[0].Price))
	assert.True(t, decimal.RequireFromString("39.98").Equal(reloaded.TotalAmount))
	assert.Contains(t, h.logs.String(), "order.placed")
}

func TestOrderLifecycleStockArithmetic(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := dbtest.SeedUser(t, h.client, "nia")
	p := dbtest.SeedProduct(t, h.client, "Widget", "7.50", 5)
	actor := Actor{UserID: user.ID, Roles: []enums.Role{enums.RoleUser}}

	_, err := h.cart.AddItem(ctx, user.ID, p.ID, 2)
	require.NoError(t, err)

	placed, err := h.svc.CreateFromCart(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, dbtest.ProductStock(t, h.client, p))
	assert.True(t, decimal.RequireFromString("15").Equal(placed.TotalAmount))
	require.Len(t, placed.TrackingHistory, 1)
	assert.Equal(t, enums.OrderStatusPending, placed.TrackingHistory[0].Status)
	require.NotNil(t, placed.TrackingHistory[0].Location)
	assert.Equal(t, enums.TrackingLocationWarehouse, *placed.TrackingHistory[0].Location)

	view, err := h.cart.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)

	require.NoError(t, h.svc.Cancel(ctx, actor, placed.ID))
	assert.Equal(t, 5, dbtest.ProductStock(t, h.client, p))

	detail, err := h.svc.GetDetails(ctx, actor, placed.ID)
	require.NoError(t, err)
	require.Len(t, detail.TrackingHistory, 2)
	assert.Equal(t, enums.OrderStatusCancelled, detail.TrackingHistory[1].Status)
	assert.Equal(t, enums.OrderStatusCancelled, detail.Status)

	err = h.svc.Cancel(ctx, actor, placed.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidState))
	assert.Equal(t, msgNotCancellable, pkgerrors.As(err).Message())
	assert.Equal(t, 5, dbtest.ProductStock(t, h.client, p))

	assert.Equal(t, 1.0, counterValue(t, h.reg, "orders_placed_total"))
	assert.Equal(t, 1.0, counterValue(t, h.reg, "orders_cancelled_total"))
}

func TestCancelRejectsProcessedOrder(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := dbtest.SeedUser(t, h.client, "oli")
	p := dbtest.SeedProduct(t, h.client, "Gadget", "3.00", 2)

	_, err := h.cart.AddItem(ctx, user.ID, p.ID, 1)
	require.NoError(t, err)
	placed, err := h.svc.CreateFromCart(ctx, user.ID)
	require.NoError(t, err)

	require.NoError(t, h.client.DB().Create(&models.OrderTracking{
		OrderID: placed.ID, Status: enums.OrderStatusProcessing, Timestamp: placed.OrderDate,
	}).Error)

	err = h.svc.Cancel(ctx, Actor{UserID: user.ID}, placed.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidState))
	assert.Equal(t, 1, dbtest.ProductStock(t, h.client, p))
}

func TestOrderAccessControl(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := dbtest.SeedUser(t, h.client, "pat")
	other := dbtest.SeedUser(t, h.client, "quinn")
	admin := dbtest.SeedUser(t, h.client, "root", enums.RoleUser, enums.RoleAdmin)
	p := dbtest.SeedProduct(t, h.client, "Thing", "1.00", 3)

	_, err := h.cart.AddItem(ctx, owner.ID, p.ID, 1)
	require.NoError(t, err)
	placed, err := h.svc.CreateFromCart(ctx, owner.ID)
	require.NoError(t, err)

	_, err = h.svc.GetDetails(ctx, Actor{UserID: other.ID, Roles: []enums.Role{enums.RoleUser}}, placed.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	err = h.svc.Cancel(ctx, Actor{UserID: other.ID}, placed.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = h.svc.GetDetails(ctx, Actor{UserID: owner.ID}, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	adminActor := Actor{UserID: admin.ID, Roles: []enums.Role{enums.RoleUser, enums.RoleAdmin}}
	detail, err := h.svc.GetDetails(ctx, adminActor, placed.ID)
	require.NoError(t, err)
	assert.Equal(t, "pat", detail.Username)
	require.NoError(t, h.svc.Cancel(ctx, adminActor, placed.ID))
	assert.Equal(t, 3, dbtest.ProductStock(t, h.client, p))
}

func TestListForUserNewestFirst(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := dbtest.SeedUser(t, h.client, "rae")
	p := dbtest.SeedProduct(t, h.client, "Card", "2.00", 10)

	var placed []uuid.UUID
	for i := 0; i < 2; i++ {
		_, err := h.cart.AddItem(ctx, user.ID, p.ID, 1)
		require.NoError(t, err)
		detail, err := h.svc.CreateFromCart(ctx, user.ID)
		require.NoError(t, err)
		placed = append(placed, detail.ID)
	}
	// Spread the order dates so newest-first is observable.
	require.NoError(t, h.client.DB().Model(&models.Order{}).Where("id = ?", placed[0]).
		Update("order_date", time.Now().UTC().Add(-time.Hour)).Error)

	list, err := h.svc.ListForUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, placed[1], list[0].ID)
	assert.Equal(t, placed[0], list[1].ID)
	assert.Len(t, list[0].TrackingHistory, 1)

	empty, err := h.svc.ListForUser(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, empty)
}

type failingInventory struct{}

func (failingInventory) Reserve(context.Context, *gorm.DB, uuid.UUID, int) (bool, error) {
	return false, errors.New("stock table locked")
}

func (failingInventory) Release(context.Context, *gorm.DB, uuid.UUID, int) error { return nil }

func TestCreateFromCartWrapsInventoryFailure(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := dbtest.SeedUser(t, h.client, "sam")
	p := dbtest.SeedProduct(t, h.client, "Bolt", "0.10", 100)
	_, err := h.cart.AddItem(ctx, user.ID, p.ID, 1)
	require.NoError(t, err)

	conn := h.client.DB()
	trackingSvc, err := tracking.NewService(tracking.NewRepository(conn))
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{
		Repo:      NewRepository(conn),
		DB:        h.client,
		Carts:     NewCartStore(cart.NewRepository(conn), cart.NewCartItemRepository(conn)),
		Inventory: failingInventory{},
		Tracking:  trackingSvc,
	})
	require.NoError(t, err)

	_, err = svc.CreateFromCart(ctx, user.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInternal))
	assert.Equal(t, 100, dbtest.ProductStock(t, h.client, p))
}

// drainingInventory empties one product inside the order transaction right
// before reserving it, as a concurrent checkout would after the stock read.
type drainingInventory struct {
	Inventory
	drain uuid.UUID
}

func (d drainingInventory) Reserve(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) (bool, error) {
	if productID == d.drain {
		if err := tx.WithContext(ctx).Model(&models.Product{}).Where("id = ?", productID).Update("quantity", 0).Error; err != nil {
			return false, err
		}
	}
	return d.Inventory.Reserve(ctx, tx, productID, qty)
}

func TestCreateFromCartLosesStockRaceOnLaterLine(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := dbtest.SeedUser(t, h.client, "tia")
	first := dbtest.SeedProduct(t, h.client, "A", "1.00", 5)
	second := dbtest.SeedProduct(t, h.client, "B", "2.00", 5)
	_, err := h.cart.AddItem(ctx, user.ID, first.ID, 2)
	require.NoError(t, err)
	_, err = h.cart.AddItem(ctx, user.ID, second.ID, 2)
	require.NoError(t, err)

	conn := h.client.DB()
	trackingSvc, err := tracking.NewService(tracking.NewRepository(conn))
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{
		Repo:      NewRepository(conn),
		DB:        h.client,
		Carts:     NewCartStore(cart.NewRepository(conn), cart.NewCartItemRepository(conn)),
		Inventory: drainingInventory{Inventory: NewInventory(product.NewRepository(conn)), drain: second.ID},
		Tracking:  trackingSvc,
		Metrics:   h.metrics,
	})
	require.NoError(t, err)

	_, err = svc.CreateFromCart(ctx, user.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidState), "got %v", err)
	assert.Equal(t, "Not enough stock for product: B", pkgerrors.As(err).Message())

	// The first line's reservation and the drain both roll back.
	assert.Equal(t, 5, dbtest.ProductStock(t, h.client, first))
	assert.Equal(t, 5, dbtest.ProductStock(t, h.client, second))

	var orderCount int64
	require.NoError(t, conn.Model(&models.Order{}).Count(&orderCount).Error)
	assert.Zero(t, orderCount)
	view, err := h.cart.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, view.Items, 2)
	assert.Equal(t, 1.0, counterValue(t, h.reg, "orders_rejected_stock_total"))
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() == name {
			return family.GetMetric()[0].GetCounter().GetValue()
		}
	}
	t.Fatalf("metric %s not registered", name)
	return 0
}
