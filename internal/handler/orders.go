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
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/tomoro-store/api/internal/database"
	"github.com/tomoro-store/api/internal/middleware"
	"github.com/tomoro-store/api/internal/service"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	CreateOrReuseDraft(ctx context.Context, req service.CreateDraftRequest) (*service.DraftResult, error)
	ListOpenOrders(ctx context.Context, customerID uuid.UUID) ([]database.Order, error)
	AddItem(ctx context.Context, req service.AddItemRequest) (*database.Order, error)
	OrderItems(ctx context.Context, customerID, orderID uuid.UUID) ([]database.OrderItem, error)
	ApplyVoucher(ctx context.Context, req service.ApplyVoucherRequest) (*database.Order, error)
	Checkout(ctx context.Context, customerID, orderID uuid.UUID) (*database.Order, error)
	DeleteDraft(ctx context.Context, customerID, orderID uuid.UUID) error
	StatusHistory(ctx context.Context, customerID uuid.UUID) ([]database.CustomerHistoryRow, error)
}

// OrderHandler handles the customer-facing order endpoints.
type OrderHandler struct {
	svc OrderServicer
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer) *OrderHandler {
	return &OrderHandler{svc: svc}
}

// RegisterRoutes registers order endpoints on the given Chi router.
// Expected to be mounted inside the authenticated customer subrouter.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/orders", h.CreateDraft)
	r.Get("/orders", h.List)
	r.Get("/orders/history", h.History)
	r.Post("/orders/{id}/items", h.AddItem)
	r.Get("/orders/{id}/items", h.ListItems)
	r.Put("/orders/{id}/voucher", h.ApplyVoucher)
	r.Post("/orders/{id}/checkout", h.Checkout)
	r.Delete("/orders/{id}", h.DeleteDraft)
}

// --- Request / Response types ---

type createDraftRequest struct {
	DeliveryType string `json:"delivery_type"`
	DeliveryFee  string `json:"delivery_fee"`
	Notes        string `json:"notes"`
}

type addItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int32  `json:"quantity"`
	Notes     string `json:"notes"`
}

type applyVoucherRequest struct {
	VoucherCode string `json:"voucher_code"`
}

type orderResponse struct {
	ID             uuid.UUID `json:"id"`
	OrderNumber    string    `json:"order_number"`
	CustomerID     uuid.UUID `json:"customer_id"`
	DeliveryType   string    `json:"delivery_type"`
	CustomerPhone  string    `json:"customer_phone"`
	Subtotal       string    `json:"subtotal"`
	DiscountAmount string    `json:"discount_amount"`
	DeliveryFee    string    `json:"delivery_fee"`
	TotalAmount    string    `json:"total_amount"`
	Notes          *string   `json:"notes"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type draftResponse struct {
	orderResponse
	Reused bool `json:"reused"`
}

type orderItemResponse struct {
	ID          uuid.UUID `json:"id"`
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Quantity    int32     `json:"quantity"`
	UnitPrice   string    `json:"unit_price"`
	TotalPrice  string    `json:"total_price"`
	Notes       *string   `json:"notes"`
}

type historyEntryResponse struct {
	ID          uuid.UUID `json:"id"`
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	Status      string    `json:"status"`
	Notes       *string   `json:"notes"`
	TotalAmount string    `json:"total_amount"`
	CreatedAt   time.Time `json:"created_at"`
}

// --- Handlers ---

// CreateDraft handles POST /orders. Returns the customer's existing open
// order when one exists, so repeated calls are safe.
func (h *OrderHandler) CreateDraft(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req createDraftRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
	}

	result, err := h.svc.CreateOrReuseDraft(r.Context(), service.CreateDraftRequest{
		CustomerID:   claims.ActorID,
		DeliveryType: req.DeliveryType,
		DeliveryFee:  req.DeliveryFee,
		Notes:        req.Notes,
	})
	if err != nil {
		respondOrderError(w, "create draft", err)
		return
	}

	status := http.StatusCreated
	if result.Reused {
		status = http.StatusOK
	}
	writeJSON(w, status, draftResponse{
		orderResponse: toOrderResponse(result.Order),
		Reused:        result.Reused,
	})
}

// List handles GET /orders.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	orders, err := h.svc.ListOpenOrders(r.Context(), claims.ActorID)
	if err != nil {
		log.Printf("ERROR: list orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOrderResponse(o)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"orders": resp})
}

// AddItem handles POST /orders/{id}/items.
func (h *OrderHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product_id"})
		return
	}

	order, err := h.svc.AddItem(r.Context(), service.AddItemRequest{
		CustomerID: claims.ActorID,
		OrderID:    orderID,
		ProductID:  productID,
		Quantity:   req.Quantity,
		Notes:      req.Notes,
	})
	if err != nil {
		respondOrderError(w, "add item", err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(*order))
}

// ListItems handles GET /orders/{id}/items.
func (h *OrderHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	items, err := h.svc.OrderItems(r.Context(), claims.ActorID, orderID)
	if err != nil {
		respondOrderError(w, "list items", err)
		return
	}

	resp := make([]orderItemResponse, len(items))
	for i, item := range items {
		resp[i] = orderItemResponse{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   numericToString(item.UnitPrice),
			TotalPrice:  numericToString(item.TotalPrice),
			Notes:       textToPtr(item.Notes),
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": resp})
}

// ApplyVoucher handles PUT /orders/{id}/voucher. An empty voucher_code
// removes the voucher from the order.
func (h *OrderHandler) ApplyVoucher(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req applyVoucherRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	order, err := h.svc.ApplyVoucher(r.Context(), service.ApplyVoucherRequest{
		CustomerID:  claims.ActorID,
		OrderID:     orderID,
		VoucherCode: req.VoucherCode,
	})
	if err != nil {
		respondOrderError(w, "apply voucher", err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(*order))
}

// Checkout handles POST /orders/{id}/checkout.
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	order, err := h.svc.Checkout(r.Context(), claims.ActorID, orderID)
	if err != nil {
		respondOrderError(w, "checkout", err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(*order))
}

// DeleteDraft handles DELETE /orders/{id}.
func (h *OrderHandler) DeleteDraft(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	if err := h.svc.DeleteDraft(r.Context(), claims.ActorID, orderID); err != nil {
		respondOrderError(w, "delete draft", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// History handles GET /orders/history.
func (h *OrderHandler) History(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	rows, err := h.svc.StatusHistory(r.Context(), claims.ActorID)
	if err != nil {
		log.Printf("ERROR: order history: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]historyEntryResponse, len(rows))
	for i, row := range rows {
		resp[i] = historyEntryResponse{
			ID:          row.ID,
			OrderID:     row.OrderID,
			OrderNumber: row.OrderNumber,
			Status:      string(row.Status),
			Notes:       textToPtr(row.Notes),
			TotalAmount: numericToString(row.TotalAmount),
			CreatedAt:   row.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"history": resp})
}

// --- Helpers ---

// respondOrderError maps known service errors to HTTP status codes and
// hides everything else behind a 500.
func respondOrderError(w http.ResponseWriter, op string, err error) {
	switch {
	case isOrderValidationError(err):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrCustomerNotFound),
		errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrPaymentNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrOrderNotMutable),
		errors.Is(err, service.ErrOrderNotPending),
		errors.Is(err, service.ErrOrderClosed),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrInsufficientStock):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		log.Printf("ERROR: %s: %v", op, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func isOrderValidationError(err error) bool {
	return errors.Is(err, service.ErrInvalidQuantity) ||
		errors.Is(err, service.ErrInvalidDeliveryType) ||
		errors.Is(err, service.ErrInvalidDeliveryFee) ||
		errors.Is(err, service.ErrInvalidPaymentMethod) ||
		errors.Is(err, service.ErrInvalidPaymentStatus) ||
		errors.Is(err, service.ErrMissingProof) ||
		errors.Is(err, service.ErrEmptyOrder) ||
		errors.Is(err, service.ErrVoucherInvalid) ||
		errors.Is(err, service.ErrVoucherMinimum) ||
		errors.Is(err, service.ErrNegativeTotal) ||
		errors.Is(err, service.ErrNothingToPay) ||
		errors.Is(err, service.ErrStatusNotAllowed)
}

func toOrderResponse(o database.Order) orderResponse {
	return orderResponse{
		ID:             o.ID,
		OrderNumber:    o.OrderNumber,
		CustomerID:     o.CustomerID,
		DeliveryType:   o.DeliveryType,
		CustomerPhone:  o.CustomerPhone,
		Subtotal:       numericToString(o.Subtotal),
		DiscountAmount: numericToString(o.DiscountAmount),
		DeliveryFee:    numericToString(o.DeliveryFee),
		TotalAmount:    numericToString(o.TotalAmount),
		Notes:          textToPtr(o.Notes),
		Status:         string(o.Status),
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
}

func numericToString(n pgtype.Numeric) string {
	if !n.Valid {
		return "0"
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return "0"
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return "0"
	}
	return d.StringFixed(2)
}

func textToPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	s := t.String
	return &s
}
