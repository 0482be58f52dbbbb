package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/example/storefront/internal/api/middleware"
	"github.com/example/storefront/internal/cart"
	"github.com/example/storefront/internal/catalog"
	"github.com/example/storefront/internal/checkout"
	"github.com/example/storefront/internal/order"
)

type Handlers struct {
	catalog catalog.Catalog
	carts   cart.Store
	orders  order.Repository
	factory *checkout.Factory
}

func NewHandlers(c catalog.Catalog, carts cart.Store, orders order.Repository, factory *checkout.Factory) *Handlers {
	return &Handlers{
		catalog: c,
		carts:   carts,
		orders:  orders,
		factory: factory,
	}
}

// Order Handlers

func (h *Handlers) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req checkout.PlaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.IdempotencyKey = r.Header.Get("Idempotency-Key")

	// A verified identity always wins over whatever the client put in the
	// body; the body's user_id only matters for server-to-server calls.
	if userID := middleware.GetUserID(r.Context()); userID > 0 {
		req.UserID = &userID
	}

	placed, err := h.factory.Place(r.Context(), req)
	if err != nil {
		respondPlacementError(w, err)
		return
	}

	// The order exists; the originating cart is done. Guest carts live
	// client-side and are discarded by the checkout page.
	if placed.UserID != nil {
		if err := h.carts.Clear(r.Context(), cart.Authenticated(*placed.UserID)); err != nil {
			log.Printf("[API] Failed to clear cart for user %d: %v", *placed.UserID, err)
		}
	}

	respondData(w, http.StatusCreated, placed)
}

func (h *Handlers) GetOrders(w http.ResponseWriter, r *http.Request) {
	userID := requestedUserID(r)
	if userID == 0 {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	filter := order.ListFilter{
		Status: order.Status(r.URL.Query().Get("status")),
		Page:   intQuery(r, "page"),
		Limit:  intQuery(r, "limit"),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		respondError(w, http.StatusBadRequest, "invalid order status")
		return
	}

	orders, err := h.orders.FindByUser(r.Context(), userID, filter)
	if err != nil {
		respondOrderError(w, err)
		return
	}
	respondData(w, http.StatusOK, orders)
}

func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	o, err := h.orders.FindByID(r.Context(), id)
	if err != nil {
		respondOrderError(w, err)
		return
	}

	// Users can only read their own orders; admins can read all.
	if !isAdmin(r) {
		userID := middleware.GetUserID(r.Context())
		if o.UserID == nil || *o.UserID != userID {
			respondError(w, http.StatusForbidden, "forbidden")
			return
		}
	}
	respondData(w, http.StatusOK, o)
}

// TrackOrder resolves a guest order by number plus contact email. The email
// must match so order numbers alone cannot be enumerated.
func (h *Handlers) TrackOrder(w http.ResponseWriter, r *http.Request) {
	number := r.URL.Query().Get("order_number")
	email := r.URL.Query().Get("email")
	if number == "" || email == "" {
		respondError(w, http.StatusBadRequest, "order_number and email are required")
		return
	}

	o, err := h.orders.FindByNumberAndEmail(r.Context(), number, email)
	if err != nil {
		respondOrderError(w, err)
		return
	}
	respondData(w, http.StatusOK, o)
}

func (h *Handlers) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var req struct {
		Status order.Status `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.orders.UpdateStatus(r.Context(), id, req.Status); err != nil {
		respondOrderError(w, err)
		return
	}
	respondData(w, http.StatusOK, map[string]any{"id": id, "status": req.Status})
}

// Cart Handlers

func (h *Handlers) AddToCart(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.cartOwner(w, r)
	if !ok {
		return
	}

	var req struct {
		ProductID int64 `json:"product_id"`
		Quantity  int   `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.carts.Add(r.Context(), owner, req.ProductID, req.Quantity); err != nil {
		respondCartError(w, err)
		return
	}
	h.respondCart(w, r, owner)
}

func (h *Handlers) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.cartOwner(w, r)
	if !ok {
		return
	}

	var req struct {
		ProductID int64 `json:"product_id"`
		Quantity  int   `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.carts.SetQuantity(r.Context(), owner, req.ProductID, req.Quantity); err != nil {
		respondCartError(w, err)
		return
	}
	h.respondCart(w, r, owner)
}

func (h *Handlers) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.cartOwner(w, r)
	if !ok {
		return
	}

	productID, err := strconv.ParseInt(r.URL.Query().Get("product_id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "product_id is required")
		return
	}

	if err := h.carts.Remove(r.Context(), owner, productID); err != nil {
		respondCartError(w, err)
		return
	}
	h.respondCart(w, r, owner)
}

func (h *Handlers) GetCart(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.cartOwner(w, r)
	if !ok {
		return
	}
	h.respondCart(w, r, owner)
}

func (h *Handlers) respondCart(w http.ResponseWriter, r *http.Request, owner cart.Owner) {
	items, err := h.carts.Items(r.Context(), owner)
	if err != nil {
		respondCartError(w, err)
		return
	}
	summary, err := h.carts.Summarize(r.Context(), owner)
	if err != nil {
		respondCartError(w, err)
		return
	}
	respondData(w, http.StatusOK, map[string]any{
		"items":   items,
		"summary": summary,
	})
}

// Product Handlers

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	p, err := h.catalog.Product(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusNotFound, "product not found")
		return
	}
	respondData(w, http.StatusOK, p)
}

// Helpers

// cartOwner resolves the cart's owner from JWT claims, falling back to the
// user_id query parameter for server-to-server calls.
func (h *Handlers) cartOwner(w http.ResponseWriter, r *http.Request) (cart.Owner, bool) {
	userID := requestedUserID(r)
	if userID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return cart.Owner{}, false
	}
	return cart.Authenticated(userID), true
}

func requestedUserID(r *http.Request) int64 {
	if userID := middleware.GetUserID(r.Context()); userID > 0 {
		return userID
	}
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		if userID, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return userID
		}
	}
	return 0
}

func intQuery(r *http.Request, name string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(name))
	return n
}

func isAdmin(r *http.Request) bool {
	claims, ok := middleware.GetUserFromContext(r.Context())
	return ok && claims.Role == "admin"
}
