package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/example/storefront/internal/cart"
	"github.com/example/storefront/internal/checkout"
	"github.com/example/storefront/internal/inventory"
	"github.com/example/storefront/internal/order"
)

type envelope struct {
	Success       bool     `json:"success"`
	Data          any      `json:"data,omitempty"`
	Message       string   `json:"message,omitempty"`
	MissingFields []string `json:"missing_fields,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondData(w http.ResponseWriter, status int, data any) {
	respondJSON(w, status, envelope{Success: true, Data: data})
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, envelope{Success: false, Message: message})
}

// respondPlacementError maps checkout's typed errors onto the API contract:
// user-correctable failures are 400 with a specific message, write failures
// are 500 with the detail withheld.
func respondPlacementError(w http.ResponseWriter, err error) {
	var verr *checkout.ValidationError
	if errors.As(err, &verr) {
		respondJSON(w, http.StatusBadRequest, envelope{
			Success:       false,
			Message:       verr.Error(),
			MissingFields: verr.Fields,
		})
		return
	}

	var uerr *checkout.ProductUnavailableError
	if errors.As(err, &uerr) {
		respondError(w, http.StatusBadRequest, uerr.Error())
		return
	}

	var serr *inventory.InsufficientStockError
	if errors.As(err, &serr) {
		respondError(w, http.StatusBadRequest, serr.Error())
		return
	}

	var perr *checkout.PersistenceError
	if errors.As(err, &perr) {
		respondError(w, http.StatusInternalServerError, "could not place order, please try again")
		return
	}

	respondError(w, http.StatusInternalServerError, "internal error")
}

// respondCartError maps cart store errors.
func respondCartError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, cart.ErrProductUnavailable):
		respondError(w, http.StatusBadRequest, "product is unavailable")
	case errors.Is(err, cart.ErrInvalidQuantity):
		respondError(w, http.StatusBadRequest, "invalid quantity")
	default:
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

// respondOrderError maps repository lookup errors.
func respondOrderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, order.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, "order not found")
	case errors.Is(err, order.ErrOrderClosed):
		respondError(w, http.StatusConflict, "order is already delivered or cancelled")
	case errors.Is(err, order.ErrInvalidStatus):
		respondError(w, http.StatusBadRequest, "invalid order status")
	default:
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
