package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/shopfront-backend/api/controllers"
	"github.com/angelmondragon/shopfront-backend/api/middleware"
	"github.com/angelmondragon/shopfront-backend/internal/address"
	"github.com/angelmondragon/shopfront-backend/internal/auth"
	"github.com/angelmondragon/shopfront-backend/internal/cart"
	"github.com/angelmondragon/shopfront-backend/internal/categories"
	"github.com/angelmondragon/shopfront-backend/internal/comments"
	"github.com/angelmondragon/shopfront-backend/internal/orders"
	products "github.com/angelmondragon/shopfront-backend/internal/products"
	"github.com/angelmondragon/shopfront-backend/internal/users"
	"github.com/angelmondragon/shopfront-backend/internal/wishlist"
	"github.com/angelmondragon/shopfront-backend/pkg/auth/session"
	"github.com/angelmondragon/shopfront-backend/pkg/config"
	"github.com/angelmondragon/shopfront-backend/pkg/enums"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
	"github.com/angelmondragon/shopfront-backend/pkg/metrics"
	"github.com/angelmondragon/shopfront-backend/pkg/redis"
)

// Services groups every domain service the HTTP surface dispatches to.
type Services struct {
	Auth          auth.Service
	Register      auth.RegisterService
	AdminRegister auth.RegisterService
	Users         users.Service
	Categories    categories.Service
	Products      products.Service
	Cart          cart.Service
	Orders        orders.Service
	Comments      comments.Service
	Wishlist      wishlist.Service
	Addresses     address.Service
}

// Infra carries the shared clients. Nil stores disable the middleware that
// depends on them.
type Infra struct {
	Sessions    session.AccessSessionChecker
	RateLimits  middleware.RateLimitStore
	Idempotency redis.IdempotencyStore
	HTTPMetrics *metrics.HTTPMetrics
	Gatherer    prometheus.Gatherer
	Readiness   map[string]controllers.Pinger
}

func NewRouter(cfg *config.Config, logg *logger.Logger, infra Infra, svc Services) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(infra.HTTPMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginIdentifierLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterIdentifierLimit,
	)

	authenticated := middleware.Auth(cfg.JWT, infra.Sessions, logg)
	adminOnly := middleware.RequireRole(enums.RoleAdmin, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, infra.Readiness, logg))
	})
	if infra.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(infra.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, infra.RateLimits, logg)).Post("/login", controllers.AuthLogin(svc.Auth, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, infra.RateLimits, logg)).Post("/register", controllers.AuthRegister(svc.Register, logg))
		r.Post("/logout", controllers.AuthLogout(svc.Auth, cfg.JWT, logg))
		r.Post("/refresh", controllers.AuthRefresh(svc.Auth, cfg.JWT, logg))
	})

	if !cfg.App.IsProd() {
		r.With(middleware.AuthRateLimit(registerPolicy, infra.RateLimits, logg)).
			Post("/api/admin/v1/auth/register", controllers.AuthRegister(svc.AdminRegister, logg))
	}

	r.Route("/api/v1/categories", func(r chi.Router) {
		r.Get("/", controllers.CategoryList(svc.Categories, logg))
		r.Get("/url", controllers.CategoryByURL(svc.Categories, logg))
		r.Get("/{categoryId}", controllers.CategoryGet(svc.Categories, logg))
		r.Group(func(r chi.Router) {
			r.Use(authenticated, adminOnly)
			r.Post("/", controllers.CategoryCreate(svc.Categories, logg))
			r.Put("/{categoryId}", controllers.CategoryUpdate(svc.Categories, logg))
			r.Delete("/{categoryId}", controllers.CategoryDelete(svc.Categories, logg))
		})
	})

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ProductList(svc.Products, logg))
		r.Get("/{productId}", controllers.ProductGet(svc.Products, logg))
		r.Group(func(r chi.Router) {
			r.Use(authenticated, adminOnly)
			r.Post("/", controllers.ProductCreate(svc.Products, logg))
			r.Put("/{productId}", controllers.ProductUpdate(svc.Products, logg))
			r.Delete("/{productId}", controllers.ProductDelete(svc.Products, logg))
		})
	})

	r.Get("/api/v1/comments/product/{productId}", controllers.CommentList(svc.Comments, logg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(authenticated)
		if cfg.FeatureFlags.OrderIdempotency {
			r.Use(middleware.Idempotency(infra.Idempotency, logg))
		}

		r.Get("/users/me", controllers.UserMe(svc.Users, logg))
		r.Put("/users/me", controllers.UserUpdateMe(svc.Users, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(svc.Cart, logg))
			r.Post("/", controllers.CartAddItem(svc.Cart, logg))
			r.Delete("/", controllers.CartClear(svc.Cart, logg))
			r.Post("/products/{productId}", controllers.CartAddProduct(svc.Cart, logg))
			r.Put("/products/{productId}", controllers.CartSetQuantity(svc.Cart, logg))
			r.Delete("/products/{productId}", controllers.CartRemoveItem(svc.Cart, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.OrderCreate(svc.Orders, logg))
			r.Get("/", controllers.OrderList(svc.Orders, logg))
			r.Get("/{orderId}", controllers.OrderGet(svc.Orders, logg))
			r.Put("/{orderId}/cancel", controllers.OrderCancel(svc.Orders, logg))
		})

		r.Route("/comments", func(r chi.Router) {
			r.Post("/", controllers.CommentCreate(svc.Comments, logg))
			r.Delete("/{commentId}", controllers.CommentDelete(svc.Comments, logg))
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", controllers.WishlistGet(svc.Wishlist, logg))
			r.Post("/product/{productId}", controllers.WishlistAdd(svc.Wishlist, logg))
			r.Delete("/product/{productId}", controllers.WishlistRemove(svc.Wishlist, logg))
		})

		r.Route("/addresses", func(r chi.Router) {
			r.Get("/", controllers.AddressList(svc.Addresses, logg))
			r.Post("/", controllers.AddressCreate(svc.Addresses, logg))
			r.Get("/{addressId}", controllers.AddressGet(svc.Addresses, logg))
			r.Put("/{addressId}", controllers.AddressUpdate(svc.Addresses, logg))
			r.Delete("/{addressId}", controllers.AddressDelete(svc.Addresses, logg))
			r.Put("/{addressId}/set-default", controllers.AddressSetDefault(svc.Addresses, logg))
		})
	})

	return r
}
