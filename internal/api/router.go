package api

import (
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/example/storefront/internal/api/middleware"
	"github.com/example/storefront/internal/auth"
)

type RouterConfig struct {
	Handlers     *Handlers
	AuthHandlers *AuthHandlers
	JWTService   *auth.JWTService
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	r.Use(withLogging)

	optional := middleware.OptionalAuth(cfg.JWTService)
	required := middleware.Auth(cfg.JWTService)
	admin := func(h http.Handler) http.Handler {
		return required(middleware.RequireRole("admin")(h))
	}

	h := cfg.Handlers

	// Auth
	r.Handle("/auth/register", http.HandlerFunc(cfg.AuthHandlers.Register)).Methods(http.MethodPost)
	r.Handle("/auth/login", http.HandlerFunc(cfg.AuthHandlers.Login)).Methods(http.MethodPost)

	// Products (read-only passthrough used by cart pages)
	r.Handle("/products/{id:[0-9]+}", optional(http.HandlerFunc(h.GetProduct))).Methods(http.MethodGet)

	// Cart (authenticated; guest carts live in client storage)
	r.Handle("/cart", optional(http.HandlerFunc(h.GetCart))).Methods(http.MethodGet)
	r.Handle("/cart", optional(http.HandlerFunc(h.AddToCart))).Methods(http.MethodPost)
	r.Handle("/cart", optional(http.HandlerFunc(h.UpdateCartItem))).Methods(http.MethodPut)
	r.Handle("/cart", optional(http.HandlerFunc(h.RemoveCartItem))).Methods(http.MethodDelete)

	// Orders; placement is open to guests
	r.Handle("/orders", optional(http.HandlerFunc(h.PlaceOrder))).Methods(http.MethodPost)
	r.Handle("/orders", optional(http.HandlerFunc(h.GetOrders))).Methods(http.MethodGet)
	r.Handle("/orders/track", http.HandlerFunc(h.TrackOrder)).Methods(http.MethodGet)
	r.Handle("/orders/{id:[0-9]+}", optional(http.HandlerFunc(h.GetOrder))).Methods(http.MethodGet)
	r.Handle("/orders/{id:[0-9]+}/status", admin(http.HandlerFunc(h.UpdateOrderStatus))).Methods(http.MethodPut)

	return r
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("[API] %s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
