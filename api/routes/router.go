package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hometex/storefront/api/controllers"
	"github.com/hometex/storefront/api/middleware"
	"github.com/hometex/storefront/internal/session"
	"github.com/hometex/storefront/pkg/config"
	"github.com/hometex/storefront/pkg/logger"
)

type sessionSource interface {
	Get(ctx context.Context, deviceID string) (*session.Bundle, error)
}

type rateLimiter interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
}

// Deps groups what the router wires into handlers.
type Deps struct {
	Sessions sessionSource
	Storage  controllers.Pinger
	Limiter  rateLimiter
	// Metrics serves /metrics when set.
	Metrics http.Handler
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.Window,
		cfg.AuthRateLimit.DeviceLimit,
		cfg.AuthRateLimit.EmailLimit,
	)
	signupPolicy := middleware.NewAuthRateLimitPolicy(
		"signup",
		cfg.AuthRateLimit.Window,
		cfg.AuthRateLimit.DeviceLimit,
		cfg.AuthRateLimit.EmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Storage))
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Device(deps.Sessions, logg))

		r.Route("/auth", func(r chi.Router) {
			r.Get("/me", controllers.AuthMe(logg))
			r.With(middleware.AuthRateLimit(loginPolicy, deps.Limiter, logg)).Post("/login", controllers.AuthLogin(logg))
			r.With(middleware.AuthRateLimit(signupPolicy, deps.Limiter, logg)).Post("/signup", controllers.AuthSignup(logg))
			r.Post("/logout", controllers.AuthLogout(logg))
			r.Post("/social/{provider}", controllers.AuthSocial(logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(logg))
			r.Delete("/", controllers.CartClear(logg))
			r.Put("/panel", controllers.CartSetPanel(logg))
			r.Post("/items", controllers.CartAddItem(logg))
			r.Patch("/items/{productId}", controllers.CartUpdateQuantity(logg))
			r.Delete("/items/{productId}", controllers.CartRemoveItem(logg))
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", controllers.WishlistGet(logg))
			r.Delete("/", controllers.WishlistClear(logg))
			r.Post("/items", controllers.WishlistToggle(logg))
			r.Get("/items/{productId}", controllers.WishlistCheckItem(logg))
			r.Delete("/items/{productId}", controllers.WishlistRemoveItem(logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrdersList(logg))
			r.Post("/", controllers.OrdersCreate(logg))
			r.Get("/{orderId}", controllers.OrdersGet(logg))
			r.Patch("/{orderId}/status", controllers.OrdersUpdateStatus(logg))
			r.Post("/{orderId}/cancel", controllers.OrdersCancel(logg))
		})
	})

	return r
}
