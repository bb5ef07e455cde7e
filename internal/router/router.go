package router

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tomoro-store/api/internal/config"
	"github.com/tomoro-store/api/internal/database"
	"github.com/tomoro-store/api/internal/enum"
	"github.com/tomoro-store/api/internal/handler"
	mw "github.com/tomoro-store/api/internal/middleware"
	"github.com/tomoro-store/api/internal/service"
	"github.com/tomoro-store/api/internal/ws"
)

// New creates a Chi router with all application routes wired up.
// Applies authentication and role-based middleware as needed.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{
			"http://localhost:5173",          // storefront dev server
			"https://store.tomoro.example",   // production storefront
			"https://admin.tomoro.example",   // production back office
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	// Auth routes (public)
	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// Catalog reads are public; the storefront browses before login.
	productHandler := handler.NewProductHandler(queries)
	productHandler.RegisterPublicRoutes(r)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/orders", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	// Order workflow service shared by customer and admin surfaces.
	newStore := func(db database.DBTX) service.Store {
		return database.New(db)
	}
	orderService := service.NewOrderService(pool, queries, newStore, service.Options{
		UseDraftStage: cfg.UseDraftStage,
		StockPolicy:   cfg.StockPolicy,
	}, hub)

	orderHandler := handler.NewOrderHandler(orderService)
	paymentHandler := handler.NewPaymentHandler(orderService, queries)
	customerHandler := handler.NewCustomerHandler(queries)
	adminOrderHandler := handler.NewAdminOrderHandler(orderService, queries)
	discountHandler := handler.NewDiscountHandler(queries)
	reportHandler := handler.NewReportHandler(queries)

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		// Customer routes
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.RoleCustomer))
			orderHandler.RegisterRoutes(r)
			paymentHandler.RegisterCustomerRoutes(r)
			customerHandler.RegisterCustomerRoutes(r)
		})

		// Back-office routes
		r.Route("/admin", func(r chi.Router) {
			r.Use(mw.RequireRole(enum.RoleAdmin, enum.RoleOwner))
			adminOrderHandler.RegisterRoutes(r)
			paymentHandler.RegisterAdminRoutes(r)
			productHandler.RegisterAdminRoutes(r)
			customerHandler.RegisterAdminRoutes(r)
			discountHandler.RegisterRoutes(r)
			reportHandler.RegisterRoutes(r)
		})
	})

	log.Println("Router initialized with all handlers")
	return r
}
