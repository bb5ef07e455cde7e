package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/tomoro-store/api/internal/database"
)

// DiscountStore defines the database methods needed by voucher handlers.
type DiscountStore interface {
	CreateDiscount(ctx context.Context, arg database.CreateDiscountParams) (database.Discount, error)
	ListDiscounts(ctx context.Context) ([]database.Discount, error)
}

// DiscountHandler handles the back-office voucher endpoints.
type DiscountHandler struct {
	store DiscountStore
}

// NewDiscountHandler creates a new DiscountHandler.
func NewDiscountHandler(store DiscountStore) *DiscountHandler {
	return &DiscountHandler{store: store}
}

// RegisterRoutes registers voucher endpoints on the admin subrouter.
func (h *DiscountHandler) RegisterRoutes(r chi.Router) {
	r.Post("/discounts", h.Create)
	r.Get("/discounts", h.List)
}

type createDiscountRequest struct {
	Code            string `json:"code"`
	Description     string `json:"description"`
	IsActive        *bool  `json:"is_active"`
	StartDate       string `json:"start_date"`
	EndDate         string `json:"end_date"`
	MinimumPurchase string `json:"minimum_purchase"`
	DiscountValue   string `json:"discount_value"`
	MaximumDiscount string `json:"maximum_discount"`
}

type discountResponse struct {
	ID              uuid.UUID `json:"id"`
	Code            string    `json:"code"`
	Description     *string   `json:"description"`
	IsActive        bool      `json:"is_active"`
	StartDate       time.Time `json:"start_date"`
	EndDate         time.Time `json:"end_date"`
	MinimumPurchase string    `json:"minimum_purchase"`
	DiscountValue   string    `json:"discount_value"`
	MaximumDiscount *string   `json:"maximum_discount"`
	CreatedAt       time.Time `json:"created_at"`
}

// Create handles POST /admin/discounts.
func (h *DiscountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createDiscountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Code == "" || req.DiscountValue == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "code and discount_value are required"})
		return
	}

	startDate, err := time.Parse(time.RFC3339, req.StartDate)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid start_date, use RFC3339"})
		return
	}
	endDate, err := time.Parse(time.RFC3339, req.EndDate)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid end_date, use RFC3339"})
		return
	}
	if endDate.Before(startDate) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "end_date must not precede start_date"})
		return
	}

	minimum, err := parseMoney(req.MinimumPurchase)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid minimum_purchase"})
		return
	}
	value, err := parseMoney(req.DiscountValue)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid discount_value"})
		return
	}

	params := database.CreateDiscountParams{
		Code:            req.Code,
		Description:     stringToText(req.Description),
		IsActive:        true,
		StartDate:       startDate,
		EndDate:         endDate,
		MinimumPurchase: minimum,
		DiscountValue:   value,
	}
	if req.IsActive != nil {
		params.IsActive = *req.IsActive
	}
	if req.MaximumDiscount != "" {
		maximum, err := parseMoney(req.MaximumDiscount)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid maximum_discount"})
			return
		}
		params.MaximumDiscount = maximum
	}

	discount, err := h.store.CreateDiscount(r.Context(), params)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "code already exists"})
			return
		}
		log.Printf("ERROR: create discount: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusCreated, toDiscountResponse(discount))
}

// List handles GET /admin/discounts.
func (h *DiscountHandler) List(w http.ResponseWriter, r *http.Request) {
	discounts, err := h.store.ListDiscounts(r.Context())
	if err != nil {
		log.Printf("ERROR: list discounts: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]discountResponse, len(discounts))
	for i, d := range discounts {
		resp[i] = toDiscountResponse(d)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"discounts": resp})
}

func toDiscountResponse(d database.Discount) discountResponse {
	resp := discountResponse{
		ID:              d.ID,
		Code:            d.Code,
		Description:     textToPtr(d.Description),
		IsActive:        d.IsActive,
		StartDate:       d.StartDate,
		EndDate:         d.EndDate,
		MinimumPurchase: numericToString(d.MinimumPurchase),
		DiscountValue:   numericToString(d.DiscountValue),
		CreatedAt:       d.CreatedAt,
	}
	if d.MaximumDiscount.Valid {
		s := numericToString(d.MaximumDiscount)
		resp.MaximumDiscount = &s
	}
	return resp
}
