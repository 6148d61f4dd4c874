package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/shopfront-backend/api/routes"
	"github.com/angelmondragon/shopfront-backend/internal/address"
	"github.com/angelmondragon/shopfront-backend/internal/auth"
	"github.com/angelmondragon/shopfront-backend/internal/cart"
	"github.com/angelmondragon/shopfront-backend/internal/categories"
	"github.com/angelmondragon/shopfront-backend/internal/comments"
	"github.com/angelmondragon/shopfront-backend/internal/orders"
	product "github.com/angelmondragon/shopfront-backend/internal/products"
	"github.com/angelmondragon/shopfront-backend/internal/tracking"
	"github.com/angelmondragon/shopfront-backend/internal/users"
	"github.com/angelmondragon/shopfront-backend/internal/wishlist"
	"github.com/angelmondragon/shopfront-backend/pkg/config"
	"github.com/angelmondragon/shopfront-backend/pkg/db"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
	"github.com/angelmondragon/shopfront-backend/pkg/metrics"
)

// SessionManager is the refresh-session surface shared by login and the auth middleware.
type SessionManager interface {
	Generate(ctx context.Context, userID uuid.UUID, accessID string) (string, error)
	Rotate(ctx context.Context, userID uuid.UUID, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
	HasSession(ctx context.Context, accessID string) (bool, error)
}

// ServiceDeps are the shared clients the domain services are built from.
type ServiceDeps struct {
	Config       *config.Config
	DB           *db.Client
	Sessions     SessionManager
	OrderMetrics *metrics.OrderMetrics
	Logger       *logger.Logger
}

// BuildServices wires repositories into services for every route group.
func BuildServices(deps ServiceDeps) (routes.Services, error) {
	if deps.Config == nil || deps.DB == nil || deps.Sessions == nil {
		return routes.Services{}, fmt.Errorf("config, database and session manager are required")
	}
	cfg := deps.Config
	conn := deps.DB.DB()

	userRepo := users.NewRepository(conn)
	productRepo := product.NewRepository(conn)
	cartRepo := cart.NewRepository(conn)
	cartItems := cart.NewCartItemRepository(conn)

	var (
		out routes.Services
		err error
	)

	if out.Auth, err = auth.NewService(auth.ServiceParams{
		UserRepo:          userRepo,
		SessionManager:    deps.Sessions,
		JWTConfig:         cfg.JWT,
		PasswordConfig:    cfg.Password,
		LegacyBcryptLogin: cfg.FeatureFlags.LegacyBcryptLogin,
		Logger:            deps.Logger,
	}); err != nil {
		return out, fmt.Errorf("auth service: %w", err)
	}

	registerParams := auth.RegisterServiceParams{DB: deps.DB, PasswordConfig: cfg.Password}
	if out.Register, err = auth.NewRegisterService(registerParams); err != nil {
		return out, fmt.Errorf("register service: %w", err)
	}
	if out.AdminRegister, err = auth.NewAdminRegisterService(registerParams); err != nil {
		return out, fmt.Errorf("admin register service: %w", err)
	}

	if out.Users, err = users.NewService(users.ServiceParams{Repo: userRepo}); err != nil {
		return out, fmt.Errorf("user service: %w", err)
	}

	if out.Categories, err = categories.NewService(categories.ServiceParams{
		Repo:            categories.NewRepository(conn),
		DB:              deps.DB,
		DefaultPageSize: cfg.Catalog.DefaultPageSize,
		MaxPageSize:     cfg.Catalog.MaxPageSize,
	}); err != nil {
		return out, fmt.Errorf("category service: %w", err)
	}

	if out.Products, err = product.NewService(product.ServiceParams{
		Repo:            productRepo,
		DB:              deps.DB,
		DefaultPageSize: cfg.Catalog.DefaultPageSize,
		MaxPageSize:     cfg.Catalog.MaxPageSize,
	}); err != nil {
		return out, fmt.Errorf("product service: %w", err)
	}

	if out.Cart, err = cart.NewService(cart.ServiceParams{
		Carts:    cartRepo,
		Items:    cartItems,
		Products: productRepo,
	}); err != nil {
		return out, fmt.Errorf("cart service: %w", err)
	}

	trackingSvc, err := tracking.NewService(tracking.NewRepository(conn))
	if err != nil {
		return out, fmt.Errorf("tracking service: %w", err)
	}

	if out.Orders, err = orders.NewService(orders.ServiceParams{
		Repo:      orders.NewRepository(conn),
		DB:        deps.DB,
		Carts:     orders.NewCartStore(cartRepo, cartItems),
		Inventory: orders.NewInventory(productRepo),
		Tracking:  trackingSvc,
		Metrics:   deps.OrderMetrics,
		Logger:    deps.Logger,
	}); err != nil {
		return out, fmt.Errorf("order service: %w", err)
	}

	if out.Comments, err = comments.NewService(comments.NewRepository(conn), productRepo); err != nil {
		return out, fmt.Errorf("comment service: %w", err)
	}
	if out.Wishlist, err = wishlist.NewService(wishlist.NewRepository(conn), productRepo); err != nil {
		return out, fmt.Errorf("wishlist service: %w", err)
	}
	if out.Addresses, err = address.NewService(address.NewRepository(conn), deps.DB); err != nil {
		return out, fmt.Errorf("address service: %w", err)
	}

	return out, nil
}

// NewServer applies the HTTP timeouts used in every environment.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
