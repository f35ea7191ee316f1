package main

import (
	"net/http"
	"time"

	"github.com/diewo77/go-marketplace/auth"
	"github.com/diewo77/go-marketplace/internal/config"
	"github.com/diewo77/go-marketplace/internal/handlers"
	"github.com/diewo77/go-marketplace/internal/payments"
	"github.com/diewo77/go-marketplace/internal/policy"
	"github.com/diewo77/go-marketplace/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App is the main application handler that sets up all routes.
type App struct {
	router chi.Router
}

// NewApp wires services and handlers over conn and mounts the API.
func NewApp(conn *gorm.DB, cfg *config.Config, provider payments.Provider, log *zap.Logger) *App {
	engine := policy.NewEngine(log.Named("authz"))
	owners := policy.NewOwnershipResolver(conn)
	ids := policy.NewIdentityResolver(conn, cfg.Cache.IdentityTTL)
	lifecycle := services.NewLifecycle()
	issuer := auth.NewIssuer(cfg.Auth.Secret, cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL)

	users := handlers.NewAuthHandler(services.NewUserService(conn, engine, ids), issuer, ids, log)
	stores := handlers.NewStoreHandler(services.NewStoreService(conn, engine, owners), ids, log)
	products := handlers.NewProductHandler(services.NewProductService(conn, engine, owners), ids, log)
	orders := handlers.NewOrderHandler(services.NewOrderService(conn, engine, owners, lifecycle), ids, log)
	items := handlers.NewOrderItemHandler(services.NewOrderItemService(conn, engine, owners), ids, log)
	checkout := handlers.NewCheckoutHandler(
		services.NewCheckoutService(conn, engine, owners, lifecycle, provider, cfg.Payments, log.Named("payments")),
		ids, log)
	health := handlers.NewHealthHandler(conn)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)

	r.Get("/health", health.Live)
	r.Get("/healthz", health.Ready)

	r.Route("/api/v1", func(r chi.Router) {
		// provider callbacks and token endpoints ignore bearer tokens
		r.Post("/webhook", checkout.Webhook)
		r.Post("/users", users.Signup)
		r.Post("/token", users.Login)
		r.Post("/token/refresh", users.Refresh)
		r.Post("/token/verify", users.Verify)

		r.Group(func(r chi.Router) {
			r.Use(issuer.Middleware)

			r.Route("/users/{userID}", func(r chi.Router) {
				r.Use(auth.RequireAuth)
				r.Get("/", users.GetUser)
				r.Put("/", users.UpdateUser)
				r.Patch("/", users.UpdateUser)
			})

			r.Route("/stores", func(r chi.Router) {
				r.Get("/", stores.List)
				r.Post("/", stores.Create)
				r.Route("/{storeID}", func(r chi.Router) {
					r.Get("/", stores.Get)
					r.Put("/", stores.Update)
					r.Patch("/", stores.Update)
					r.Delete("/", stores.Delete)
					mountProducts(r, products)
					r.Route("/orders", func(r chi.Router) {
						mountOrders(r, orders, items, checkout)
					})
				})
			})
			mountProducts(r, products)
			r.Route("/orders", func(r chi.Router) {
				mountOrders(r, orders, items, checkout)
			})
			r.Route("/order-items", func(r chi.Router) {
				mountItems(r, items)
			})
		})
	})

	return &App{router: r}
}

func mountProducts(r chi.Router, h *handlers.ProductHandler) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{productID}", h.Get)
		r.Put("/{productID}", h.Update)
		r.Patch("/{productID}", h.Update)
		r.Delete("/{productID}", h.Delete)
	})
}

func mountOrders(r chi.Router, h *handlers.OrderHandler, items *handlers.OrderItemHandler, checkout *handlers.CheckoutHandler) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Route("/{orderID}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Put("/", h.Update)
		r.Patch("/", h.Update)
		r.Delete("/", h.Delete)
		r.Post("/checkout", checkout.Create)
		r.Route("/order-items", func(r chi.Router) {
			mountItems(r, items)
		})
	})
}

func mountItems(r chi.Router, h *handlers.OrderItemHandler) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{itemID}", h.Get)
	r.Put("/{itemID}", h.Update)
	r.Patch("/{itemID}", h.Update)
	r.Delete("/{itemID}", h.Delete)
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

// requestLogger logs one line per request with its status and duration.
func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}
