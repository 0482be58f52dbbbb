package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/example/storefront/internal/auth"
	"github.com/example/storefront/internal/cart"
	"github.com/example/storefront/internal/user"
)

// AuthHandlers handles registration and login. Login is also where a
// client-held guest cart gets merged into the shopper's server cart.
type AuthHandlers struct {
	users      user.Repository
	jwtService *auth.JWTService
	carts      cart.Store
}

func NewAuthHandlers(users user.Repository, jwtService *auth.JWTService, carts cart.Store) *AuthHandlers {
	return &AuthHandlers{
		users:      users,
		jwtService: jwtService,
		carts:      carts,
	}
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest carries credentials plus the browser's anonymous cart, a
// product_id → quantity map held in client storage.
type LoginRequest struct {
	Email     string        `json:"email"`
	Password  string        `json:"password"`
	GuestCart map[int64]int `json:"guest_cart,omitempty"`
}

type AuthResponse struct {
	User         *user.User        `json:"user"`
	AccessToken  string            `json:"access_token"`
	RefreshToken string            `json:"refresh_token"`
	ExpiresAt    time.Time         `json:"expires_at"`
	CartMerge    *cart.MergeReport `json:"cart_merge,omitempty"`
}

func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.Email == "" {
		respondError(w, http.StatusBadRequest, "name and email are required")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	u := &user.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         "customer",
		CreatedAt:    time.Now(),
	}
	id, err := h.users.Create(r.Context(), u)
	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			respondError(w, http.StatusConflict, "email already registered")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	u.ID = id

	h.respondTokens(w, http.StatusCreated, u, nil)
}

func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.users.FindByEmail(r.Context(), req.Email)
	if err != nil || !auth.CheckPassword(req.Password, u.PasswordHash) {
		respondError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	// Fold the anonymous cart into the server cart now that we know who
	// the shopper is. Partial merges are reported, never silently dropped.
	var merge *cart.MergeReport
	if len(req.GuestCart) > 0 {
		merge = cart.MergeGuestCart(r.Context(), h.carts, u.ID, req.GuestCart)
	}

	h.respondTokens(w, http.StatusOK, u, merge)
}

func (h *AuthHandlers) respondTokens(w http.ResponseWriter, status int, u *user.User, merge *cart.MergeReport) {
	accessToken, expiresAt, err := h.jwtService.GenerateAccessToken(u.ID, u.Email, u.Role)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	refreshToken, _, err := h.jwtService.GenerateRefreshToken(u.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    accessToken,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	respondData(w, status, AuthResponse{
		User:         u,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
		CartMerge:    merge,
	})
}
