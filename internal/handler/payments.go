package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tomoro-store/api/internal/database"
	"github.com/tomoro-store/api/internal/middleware"
	"github.com/tomoro-store/api/internal/service"
)

// PaymentServicer defines the service methods needed by payment handlers.
type PaymentServicer interface {
	RecordPayment(ctx context.Context, req service.RecordPaymentRequest) (*service.PaymentResult, error)
	UpdatePaymentStatus(ctx context.Context, req service.UpdatePaymentStatusRequest) (*service.PaymentResult, error)
}

// PaymentStore defines the database methods needed by payment read handlers.
type PaymentStore interface {
	ListPaymentsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.Payment, error)
}

// PaymentHandler handles payment endpoints.
type PaymentHandler struct {
	svc   PaymentServicer
	store PaymentStore
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(svc PaymentServicer, store PaymentStore) *PaymentHandler {
	return &PaymentHandler{svc: svc, store: store}
}

// RegisterCustomerRoutes registers the customer-facing payment endpoints.
func (h *PaymentHandler) RegisterCustomerRoutes(r chi.Router) {
	r.Post("/orders/{id}/payments", h.Record)
}

// RegisterAdminRoutes registers the admin payment endpoints.
func (h *PaymentHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/orders/{id}/payments", h.ListForOrder)
	r.Patch("/orders/{id}/payments/{pid}/status", h.UpdateStatus)
}

// --- Request / Response types ---

type recordPaymentRequest struct {
	PaymentMethod    string `json:"payment_method"`
	BankName         string `json:"bank_name"`
	AccountNumber    string `json:"account_number"`
	AccountName      string `json:"account_name"`
	TransferProofID  string `json:"transfer_proof_id"`
	TransferProofUrl string `json:"transfer_proof_url"`
}

type updatePaymentStatusRequest struct {
	Status string `json:"status"`
}

type paymentResponse struct {
	ID               uuid.UUID  `json:"id"`
	OrderID          uuid.UUID  `json:"order_id"`
	Amount           string     `json:"amount"`
	PaymentMethod    string     `json:"payment_method"`
	PaymentStatus    string     `json:"payment_status"`
	BankName         *string    `json:"bank_name"`
	AccountNumber    *string    `json:"account_number"`
	AccountName      *string    `json:"account_name"`
	TransferProofID  string     `json:"transfer_proof_id"`
	TransferProofUrl string     `json:"transfer_proof_url"`
	CompletedAt      *time.Time `json:"completed_at"`
	CreatedAt        time.Time  `json:"created_at"`
}

type paymentResultResponse struct {
	Payment paymentResponse `json:"payment"`
	Order   orderResponse   `json:"order"`
}

// --- Handlers ---

// Record handles POST /orders/{id}/payments.
func (h *PaymentHandler) Record(w http.ResponseWriter, r *http.Request) {
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

	var req recordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	result, err := h.svc.RecordPayment(r.Context(), service.RecordPaymentRequest{
		CustomerID:       claims.ActorID,
		OrderID:          orderID,
		PaymentMethod:    req.PaymentMethod,
		BankName:         req.BankName,
		AccountNumber:    req.AccountNumber,
		AccountName:      req.AccountName,
		TransferProofID:  req.TransferProofID,
		TransferProofUrl: req.TransferProofUrl,
	})
	if err != nil {
		respondOrderError(w, "record payment", err)
		return
	}
	writeJSON(w, http.StatusCreated, paymentResultResponse{
		Payment: toPaymentResponse(result.Payment),
		Order:   toOrderResponse(result.Order),
	})
}

// UpdateStatus handles PATCH /orders/{id}/payments/{pid}/status.
func (h *PaymentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
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
	paymentID, err := uuid.Parse(chi.URLParam(r, "pid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payment ID"})
		return
	}

	var req updatePaymentStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	result, err := h.svc.UpdatePaymentStatus(r.Context(), service.UpdatePaymentStatusRequest{
		AdminID:   claims.ActorID,
		OrderID:   orderID,
		PaymentID: paymentID,
		Status:    req.Status,
	})
	if err != nil {
		respondOrderError(w, "update payment status", err)
		return
	}
	writeJSON(w, http.StatusOK, paymentResultResponse{
		Payment: toPaymentResponse(result.Payment),
		Order:   toOrderResponse(result.Order),
	})
}

// ListForOrder handles GET /orders/{id}/payments.
func (h *PaymentHandler) ListForOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	payments, err := h.store.ListPaymentsByOrder(r.Context(), orderID)
	if err != nil {
		log.Printf("ERROR: list payments: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]paymentResponse, len(payments))
	for i, p := range payments {
		resp[i] = toPaymentResponse(p)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"payments": resp})
}

func toPaymentResponse(p database.Payment) paymentResponse {
	resp := paymentResponse{
		ID:               p.ID,
		OrderID:          p.OrderID,
		Amount:           numericToString(p.Amount),
		PaymentMethod:    p.PaymentMethod,
		PaymentStatus:    string(p.PaymentStatus),
		BankName:         textToPtr(p.BankName),
		AccountNumber:    textToPtr(p.AccountNumber),
		AccountName:      textToPtr(p.AccountName),
		TransferProofID:  p.TransferProofID,
		TransferProofUrl: p.TransferProofUrl,
		CreatedAt:        p.CreatedAt,
	}
	if p.CompletedAt.Valid {
		t := p.CompletedAt.Time
		resp.CompletedAt = &t
	}
	return resp
}
