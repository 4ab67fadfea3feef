package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/example/ec-marketplace/internal/api/middleware"
	"github.com/example/ec-marketplace/internal/checkout"
	"github.com/example/ec-marketplace/internal/domain/order"
	"github.com/example/ec-marketplace/internal/domain/rating"
	"github.com/example/ec-marketplace/internal/store"
	"github.com/google/uuid"
)

type Handlers struct {
	assembler  *checkout.Assembler
	reconciler *checkout.Reconciler
	orders     store.OrderStore
	ratings    store.RatingStore
}

func NewHandlers(assembler *checkout.Assembler, reconciler *checkout.Reconciler, orders store.OrderStore, ratings store.RatingStore) *Handlers {
	return &Handlers{
		assembler:  assembler,
		reconciler: reconciler,
		orders:     orders,
		ratings:    ratings,
	}
}

// Checkout Handlers

type checkoutRequest struct {
	Items []checkout.RequestItem `json:"items"`
}

// Checkout assembles an order from the buyer's cart. For paid orders the
// response carries the payment session token the client needs to complete
// the interactive payment.
func (h *Handlers) Checkout(w http.ResponseWriter, r *http.Request) {
	buyer, ok := requestBuyer(r)
	if !ok {
		respondJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	ord, err := h.assembler.Assemble(r.Context(), buyer, req.Items)
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrEmptyCart):
			respondJSONError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, checkout.ErrProductUnavailable):
			respondJSONError(w, "some products not found or not available", http.StatusNotFound)
		case errors.Is(err, checkout.ErrPaymentSession):
			respondJSONError(w, "payment session could not be created, please try again", http.StatusBadGateway)
		default:
			respondJSONError(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	respondJSON(w, http.StatusCreated, ord)
}

// Order Handlers

func (h *Handlers) GetOrders(w http.ResponseWriter, r *http.Request) {
	buyer, ok := requestBuyer(r)
	if !ok {
		respondJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	orders, err := h.orders.ListOrdersByBuyer(r.Context(), buyer.ID)
	if err != nil {
		respondJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

// GetOrder returns one order by reference, reconciling a pending paid order
// against the payment processor before responding. Reconciliation is lazy:
// this read path is the only place it happens.
func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	reference := extractPathParam(r.URL.Path, "/orders/")

	ord, err := h.orders.GetOrder(r.Context(), reference)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			respondJSONError(w, "order not found", http.StatusNotFound)
			return
		}
		respondJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// Buyers only see their own orders; admins see all.
	buyer, ok := requestBuyer(r)
	if !ok || (ord.Buyer.ID != buyer.ID && !isAdmin(r)) {
		respondJSONError(w, "forbidden", http.StatusForbidden)
		return
	}

	ord = h.reconciler.ReconcileOnRead(r.Context(), ord)

	respondJSON(w, http.StatusOK, ord)
}

// Rating Handlers

type ratingRequest struct {
	Value  int    `json:"value"`
	Review string `json:"review"`
}

// CreateRating records a product rating. Only buyers with a successful
// order containing the product may rate it, once.
func (h *Handlers) CreateRating(w http.ResponseWriter, r *http.Request) {
	buyer, ok := requestBuyer(r)
	if !ok {
		respondJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	productID := ratingProductID(r.URL.Path)

	var req ratingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	purchased, err := h.orders.HasSuccessfulPurchase(r.Context(), buyer.ID, productID)
	if err != nil {
		respondJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !purchased {
		respondJSONError(w, rating.ErrNotPurchased.Error(), http.StatusForbidden)
		return
	}

	rt := &rating.Rating{
		ID:        uuid.New().String(),
		ProductID: productID,
		BuyerID:   buyer.ID,
		BuyerName: buyer.Name,
		Value:     req.Value,
		Review:    req.Review,
		CreatedAt: time.Now(),
	}
	if err := rt.Validate(); err != nil {
		respondJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.ratings.CreateRating(r.Context(), rt); err != nil {
		if errors.Is(err, rating.ErrAlreadyRated) {
			respondJSONError(w, err.Error(), http.StatusConflict)
			return
		}
		respondJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusCreated, rt)
}

func (h *Handlers) GetRatings(w http.ResponseWriter, r *http.Request) {
	productID := ratingProductID(r.URL.Path)

	ratings, err := h.ratings.ListRatings(r.Context(), productID)
	if err != nil {
		respondJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, ratings)
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondJSONError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func extractPathParam(path, prefix string) string {
	return strings.TrimPrefix(path, prefix)
}

// ratingProductID extracts the product id from /products/{id}/ratings
func ratingProductID(path string) string {
	trimmed := strings.TrimPrefix(path, "/products/")
	return strings.TrimSuffix(trimmed, "/ratings")
}

// requestBuyer builds the buyer snapshot from the JWT claims in context
func requestBuyer(r *http.Request) (order.Buyer, bool) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		return order.Buyer{}, false
	}
	return order.Buyer{
		ID:      claims.UserID,
		Name:    claims.Name,
		Email:   claims.Email,
		Picture: claims.Picture,
		Role:    claims.Role,
	}, true
}

// isAdmin checks if the current user has admin role
func isAdmin(r *http.Request) bool {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		return false
	}
	return claims.Role == "admin"
}
