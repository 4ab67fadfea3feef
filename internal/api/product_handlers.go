package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/example/ec-marketplace/internal/domain/pricing"
	"github.com/example/ec-marketplace/internal/domain/product"
	"github.com/example/ec-marketplace/internal/store"
	"github.com/google/uuid"
)

// ProductHandlers serves the catalog surface: public listing and admin
// create/update.
type ProductHandlers struct {
	catalog store.CatalogStore
}

func NewProductHandlers(catalog store.CatalogStore) *ProductHandlers {
	return &ProductHandlers{catalog: catalog}
}

// productResponse adds the display price so clients never compute
// discounts themselves; it comes from the same pricing engine the
// assembler freezes prices with.
type productResponse struct {
	*product.Product
	EffectivePrice int64 `json:"effective_price"`
}

func toProductResponse(p *product.Product, now time.Time) productResponse {
	return productResponse{Product: p, EffectivePrice: p.EffectivePrice(now)}
}

func (h *ProductHandlers) GetProducts(w http.ResponseWriter, r *http.Request) {
	publishedOnly := !isAdmin(r)
	products, err := h.catalog.ListProducts(r.Context(), publishedOnly)
	if err != nil {
		respondJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	now := time.Now()
	responses := make([]productResponse, 0, len(products))
	for _, p := range products {
		responses = append(responses, toProductResponse(p, now))
	}
	respondJSON(w, http.StatusOK, responses)
}

func (h *ProductHandlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/products/")

	p, err := h.catalog.GetProduct(r.Context(), id)
	if err != nil {
		if errors.Is(err, product.ErrProductNotFound) {
			respondJSONError(w, "product not found", http.StatusNotFound)
			return
		}
		respondJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, toProductResponse(p, time.Now()))
}

type productRequest struct {
	Title     string            `json:"title"`
	Thumbnail string            `json:"thumbnail"`
	Price     int64             `json:"price"`
	Paid      bool              `json:"paid"`
	Published bool              `json:"published"`
	Stock     int               `json:"stock"`
	Discount  *pricing.Discount `json:"discount"`
}

func (h *ProductHandlers) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	now := time.Now()
	p := &product.Product{
		ID:        uuid.New().String(),
		Title:     req.Title,
		Thumbnail: req.Thumbnail,
		Price:     req.Price,
		Paid:      req.Paid,
		Published: req.Published,
		Stock:     req.Stock,
		Discount:  req.Discount,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := p.Validate(); err != nil {
		respondJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.catalog.CreateProduct(r.Context(), p); err != nil {
		respondJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

func (h *ProductHandlers) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/products/")

	existing, err := h.catalog.GetProduct(r.Context(), id)
	if err != nil {
		if errors.Is(err, product.ErrProductNotFound) {
			respondJSONError(w, "product not found", http.StatusNotFound)
			return
		}
		respondJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	existing.Title = req.Title
	existing.Thumbnail = req.Thumbnail
	existing.Price = req.Price
	existing.Paid = req.Paid
	existing.Published = req.Published
	existing.Stock = req.Stock
	existing.Discount = req.Discount
	existing.UpdatedAt = time.Now()

	if err := existing.Validate(); err != nil {
		respondJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.catalog.UpdateProduct(r.Context(), existing); err != nil {
		respondJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, existing)
}
