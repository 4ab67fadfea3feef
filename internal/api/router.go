package api

import (
	"log"
	"net/http"
	"strings"

	"github.com/example/ec-marketplace/internal/api/middleware"
	"github.com/example/ec-marketplace/internal/auth"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterConfig struct {
	Handlers        *Handlers
	ProductHandlers *ProductHandlers
	AuthHandlers    *AuthHandlers
	JWTService      *auth.JWTService
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	authRequired := middleware.AuthMiddleware(cfg.JWTService)
	adminOnly := func(next http.Handler) http.Handler {
		return authRequired(middleware.RequireRole("admin")(next))
	}

	// Auth
	mux.Handle("/auth/login", middleware.Metrics("/auth/login", methodHandler(map[string]http.Handler{
		http.MethodPost: http.HandlerFunc(cfg.AuthHandlers.Login),
	})))
	mux.Handle("/auth/register", middleware.Metrics("/auth/register", methodHandler(map[string]http.Handler{
		http.MethodPost: http.HandlerFunc(cfg.AuthHandlers.Register),
	})))

	// Products
	mux.Handle("/products", middleware.Metrics("/products", methodHandler(map[string]http.Handler{
		http.MethodGet:  http.HandlerFunc(cfg.ProductHandlers.GetProducts),
		http.MethodPost: adminOnly(http.HandlerFunc(cfg.ProductHandlers.CreateProduct)),
	})))
	mux.Handle("/products/", middleware.Metrics("/products/{id}", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/ratings") && r.Method == http.MethodPost:
			authRequired(http.HandlerFunc(cfg.Handlers.CreateRating)).ServeHTTP(w, r)
		case strings.HasSuffix(r.URL.Path, "/ratings") && r.Method == http.MethodGet:
			cfg.Handlers.GetRatings(w, r)
		case r.Method == http.MethodGet:
			cfg.ProductHandlers.GetProduct(w, r)
		case r.Method == http.MethodPut:
			adminOnly(http.HandlerFunc(cfg.ProductHandlers.UpdateProduct)).ServeHTTP(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})))

	// Checkout
	mux.Handle("/checkout", middleware.Metrics("/checkout", methodHandler(map[string]http.Handler{
		http.MethodPost: authRequired(http.HandlerFunc(cfg.Handlers.Checkout)),
	})))

	// Orders
	mux.Handle("/orders", middleware.Metrics("/orders", methodHandler(map[string]http.Handler{
		http.MethodGet: authRequired(http.HandlerFunc(cfg.Handlers.GetOrders)),
	})))
	mux.Handle("/orders/", middleware.Metrics("/orders/{reference}", methodHandler(map[string]http.Handler{
		http.MethodGet: authRequired(http.HandlerFunc(cfg.Handlers.GetOrder)),
	})))

	// Metrics
	mux.Handle("/metrics", promhttp.Handler())

	return withLogging(mux)
}

func methodHandler(handlers map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := handlers[r.Method]; ok {
			handler.ServeHTTP(w, r)
			return
		}
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	})
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("[API] %s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
