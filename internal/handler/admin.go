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
	"github.com/jackc/pgx/v5"
	"github.com/tomoro-store/api/internal/database"
	"github.com/tomoro-store/api/internal/middleware"
	"github.com/tomoro-store/api/internal/service"
)

// AdminOrderServicer defines the service methods needed by admin order handlers.
type AdminOrderServicer interface {
	AdminUpdateStatus(ctx context.Context, req service.AdminUpdateStatusRequest) (*database.Order, error)
}

// AdminOrderStore defines the database methods needed by admin order reads.
type AdminOrderStore interface {
	ListOrdersAwaitingAction(ctx context.Context) ([]database.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	ListStatusHistoryByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderStatusHistory, error)
}

// AdminOrderHandler handles the back-office order endpoints.
type AdminOrderHandler struct {
	svc   AdminOrderServicer
	store AdminOrderStore
}

// NewAdminOrderHandler creates a new AdminOrderHandler.
func NewAdminOrderHandler(svc AdminOrderServicer, store AdminOrderStore) *AdminOrderHandler {
	return &AdminOrderHandler{svc: svc, store: store}
}

// RegisterRoutes registers admin order endpoints on the given Chi router.
// Expected to be mounted inside the admin-gated subrouter.
func (h *AdminOrderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/orders", h.ListAwaiting)
	r.Get("/orders/{id}", h.Get)
	r.Patch("/orders/{id}/status", h.UpdateStatus)
	r.Get("/orders/{id}/history", h.History)
}

// --- Request / Response types ---

type adminUpdateStatusRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

type orderDetailResponse struct {
	orderResponse
	Items []orderItemResponse `json:"items"`
}

type statusHistoryResponse struct {
	ID        uuid.UUID `json:"id"`
	OrderID   uuid.UUID `json:"order_id"`
	Status    string    `json:"status"`
	Notes     *string   `json:"notes"`
	ChangedBy uuid.UUID `json:"changed_by"`
	CreatedAt time.Time `json:"created_at"`
}

// --- Handlers ---

// ListAwaiting handles GET /admin/orders. Returns orders awaiting staff
// action (PENDING and CONFIRMED).
func (h *AdminOrderHandler) ListAwaiting(w http.ResponseWriter, r *http.Request) {
	orders, err := h.store.ListOrdersAwaitingAction(r.Context())
	if err != nil {
		log.Printf("ERROR: list awaiting orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOrderResponse(o)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"orders": resp})
}

// Get handles GET /admin/orders/{id}.
func (h *AdminOrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	order, err := h.store.GetOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	items, err := h.store.ListOrderItemsByOrder(r.Context(), orderID)
	if err != nil {
		log.Printf("ERROR: list order items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	detail := orderDetailResponse{orderResponse: toOrderResponse(order)}
	detail.Items = make([]orderItemResponse, len(items))
	for i, item := range items {
		detail.Items[i] = orderItemResponse{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   numericToString(item.UnitPrice),
			TotalPrice:  numericToString(item.TotalPrice),
			Notes:       textToPtr(item.Notes),
		}
	}
	writeJSON(w, http.StatusOK, detail)
}

// UpdateStatus handles PATCH /admin/orders/{id}/status.
func (h *AdminOrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
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

	var req adminUpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status is required"})
		return
	}

	order, err := h.svc.AdminUpdateStatus(r.Context(), service.AdminUpdateStatusRequest{
		AdminID: claims.ActorID,
		OrderID: orderID,
		Status:  req.Status,
		Notes:   req.Notes,
	})
	if err != nil {
		respondOrderError(w, "admin update status", err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(*order))
}

// History handles GET /admin/orders/{id}/history. Returns the full
// append-only trail, unlike the customer view.
func (h *AdminOrderHandler) History(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	rows, err := h.store.ListStatusHistoryByOrder(r.Context(), orderID)
	if err != nil {
		log.Printf("ERROR: order status history: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]statusHistoryResponse, len(rows))
	for i, row := range rows {
		resp[i] = statusHistoryResponse{
			ID:        row.ID,
			OrderID:   row.OrderID,
			Status:    string(row.Status),
			Notes:     textToPtr(row.Notes),
			ChangedBy: row.ChangedBy,
			CreatedAt: row.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"history": resp})
}
