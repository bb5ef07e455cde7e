package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/tomoro-store/api/internal/auth"
	"github.com/tomoro-store/api/internal/database"
	"github.com/tomoro-store/api/internal/enum"
	"github.com/tomoro-store/api/internal/handler"
	"github.com/tomoro-store/api/internal/middleware"
	"github.com/tomoro-store/api/internal/service"
)

const testJWTSecret = "test-secret-for-handlers"

// --- Mock OrderServicer ---

type mockOrderService struct {
	createDraftFn  func(ctx context.Context, req service.CreateDraftRequest) (*service.DraftResult, error)
	listOpenFn     func(ctx context.Context, customerID uuid.UUID) ([]database.Order, error)
	addItemFn      func(ctx context.Context, req service.AddItemRequest) (*database.Order, error)
	orderItemsFn   func(ctx context.Context, customerID, orderID uuid.UUID) ([]database.OrderItem, error)
	applyVoucherFn func(ctx context.Context, req service.ApplyVoucherRequest) (*database.Order, error)
	checkoutFn     func(ctx context.Context, customerID, orderID uuid.UUID) (*database.Order, error)
	deleteDraftFn  func(ctx context.Context, customerID, orderID uuid.UUID) error
	historyFn      func(ctx context.Context, customerID uuid.UUID) ([]database.CustomerHistoryRow, error)
}

func (m *mockOrderService) CreateOrReuseDraft(ctx context.Context, req service.CreateDraftRequest) (*service.DraftResult, error) {
	return m.createDraftFn(ctx, req)
}
func (m *mockOrderService) ListOpenOrders(ctx context.Context, customerID uuid.UUID) ([]database.Order, error) {
	return m.listOpenFn(ctx, customerID)
}
func (m *mockOrderService) AddItem(ctx context.Context, req service.AddItemRequest) (*database.Order, error) {
	return m.addItemFn(ctx, req)
}
func (m *mockOrderService) OrderItems(ctx context.Context, customerID, orderID uuid.UUID) ([]database.OrderItem, error) {
	return m.orderItemsFn(ctx, customerID, orderID)
}
func (m *mockOrderService) ApplyVoucher(ctx context.Context, req service.ApplyVoucherRequest) (*database.Order, error) {
	return m.applyVoucherFn(ctx, req)
}
func (m *mockOrderService) Checkout(ctx context.Context, customerID, orderID uuid.UUID) (*database.Order, error) {
	return m.checkoutFn(ctx, customerID, orderID)
}
func (m *mockOrderService) DeleteDraft(ctx context.Context, customerID, orderID uuid.UUID) error {
	return m.deleteDraftFn(ctx, customerID, orderID)
}
func (m *mockOrderService) StatusHistory(ctx context.Context, customerID uuid.UUID) ([]database.CustomerHistoryRow, error) {
	return m.historyFn(ctx, customerID)
}

// --- Helpers ---

func setupOrderRouter(svc *mockOrderService) *chi.Mux {
	h := handler.NewOrderHandler(svc)
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(testJWTSecret))
		h.RegisterRoutes(r)
	})
	return r
}

func doAuthRequest(t *testing.T, router http.Handler, method, path string, body interface{}, actorID uuid.UUID, role string) *httptest.ResponseRecorder {
	t.Helper()

	token, err := auth.GenerateToken(testJWTSecret, actorID, role)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	var req *http.Request
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func makeNumeric(val string) pgtype.Numeric {
	var n pgtype.Numeric
	if err := n.Scan(val); err != nil {
		panic(err)
	}
	return n
}

// --- Tests ---

func TestCreateDraft_New(t *testing.T) {
	customerID := uuid.New()
	svc := &mockOrderService{
		createDraftFn: func(ctx context.Context, req service.CreateDraftRequest) (*service.DraftResult, error) {
			if req.CustomerID != customerID {
				t.Errorf("expected customer %s from token, got %s", customerID, req.CustomerID)
			}
			return &service.DraftResult{
				Order: database.Order{
					ID:          uuid.New(),
					OrderNumber: "ORD-1-abc",
					CustomerID:  customerID,
					Status:      database.OrderStatusDRAFT,
				},
			}, nil
		},
	}
	router := setupOrderRouter(svc)

	rr := doAuthRequest(t, router, http.MethodPost, "/orders", map[string]string{
		"delivery_type": "DELIVERY",
		"delivery_fee":  "5000",
	}, customerID, enum.RoleCustomer)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decodeBody(t, rr)
	if resp["reused"] != false {
		t.Errorf("expected reused=false, got %v", resp["reused"])
	}
	if resp["status"] != "DRAFT" {
		t.Errorf("expected DRAFT, got %v", resp["status"])
	}
}

func TestCreateDraft_Reused(t *testing.T) {
	customerID := uuid.New()
	svc := &mockOrderService{
		createDraftFn: func(ctx context.Context, req service.CreateDraftRequest) (*service.DraftResult, error) {
			return &service.DraftResult{
				Order:  database.Order{ID: uuid.New(), CustomerID: customerID, Status: database.OrderStatusDRAFT},
				Reused: true,
			}, nil
		},
	}
	router := setupOrderRouter(svc)

	rr := doAuthRequest(t, router, http.MethodPost, "/orders", nil, customerID, enum.RoleCustomer)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 for reused draft, got %d", rr.Code)
	}
	resp := decodeBody(t, rr)
	if resp["reused"] != true {
		t.Errorf("expected reused=true, got %v", resp["reused"])
	}
}

func TestCreateDraft_Unauthenticated(t *testing.T) {
	router := setupOrderRouter(&mockOrderService{})

	req := httptest.NewRequest(http.MethodPost, "/orders", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestAddItem_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		svcErr   error
		wantCode int
	}{
		{"invalid quantity", service.ErrInvalidQuantity, http.StatusBadRequest},
		{"order not found", service.ErrOrderNotFound, http.StatusNotFound},
		{"product not found", service.ErrProductNotFound, http.StatusNotFound},
		{"not mutable", service.ErrOrderNotMutable, http.StatusConflict},
		{"insufficient stock", service.ErrInsufficientStock, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockOrderService{
				addItemFn: func(ctx context.Context, req service.AddItemRequest) (*database.Order, error) {
					return nil, tt.svcErr
				},
			}
			router := setupOrderRouter(svc)

			rr := doAuthRequest(t, router, http.MethodPost, "/orders/"+uuid.NewString()+"/items", map[string]interface{}{
				"product_id": uuid.NewString(),
				"quantity":   1,
			}, uuid.New(), enum.RoleCustomer)

			if rr.Code != tt.wantCode {
				t.Errorf("expected %d, got %d: %s", tt.wantCode, rr.Code, rr.Body.String())
			}
		})
	}
}

func TestAddItem_OK(t *testing.T) {
	customerID := uuid.New()
	orderID := uuid.New()
	productID := uuid.New()
	svc := &mockOrderService{
		addItemFn: func(ctx context.Context, req service.AddItemRequest) (*database.Order, error) {
			if req.OrderID != orderID || req.ProductID != productID || req.Quantity != 2 {
				t.Errorf("unexpected request: %+v", req)
			}
			return &database.Order{
				ID:          orderID,
				CustomerID:  customerID,
				Status:      database.OrderStatusDRAFT,
				Subtotal:    makeNumeric("40000"),
				TotalAmount: makeNumeric("45000"),
			}, nil
		},
	}
	router := setupOrderRouter(svc)

	rr := doAuthRequest(t, router, http.MethodPost, "/orders/"+orderID.String()+"/items", map[string]interface{}{
		"product_id": productID.String(),
		"quantity":   2,
	}, customerID, enum.RoleCustomer)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decodeBody(t, rr)
	if resp["total_amount"] != "45000.00" {
		t.Errorf("expected total 45000.00, got %v", resp["total_amount"])
	}
}

func TestAddItem_InvalidProductID(t *testing.T) {
	router := setupOrderRouter(&mockOrderService{})

	rr := doAuthRequest(t, router, http.MethodPost, "/orders/"+uuid.NewString()+"/items", map[string]interface{}{
		"product_id": "not-a-uuid",
		"quantity":   1,
	}, uuid.New(), enum.RoleCustomer)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestCheckout_EmptyOrderMapsTo400(t *testing.T) {
	svc := &mockOrderService{
		checkoutFn: func(ctx context.Context, customerID, orderID uuid.UUID) (*database.Order, error) {
			return nil, service.ErrEmptyOrder
		},
	}
	router := setupOrderRouter(svc)

	rr := doAuthRequest(t, router, http.MethodPost, "/orders/"+uuid.NewString()+"/checkout", nil, uuid.New(), enum.RoleCustomer)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestCheckout_OK(t *testing.T) {
	orderID := uuid.New()
	svc := &mockOrderService{
		checkoutFn: func(ctx context.Context, customerID, id uuid.UUID) (*database.Order, error) {
			return &database.Order{ID: orderID, Status: database.OrderStatusPENDING}, nil
		},
	}
	router := setupOrderRouter(svc)

	rr := doAuthRequest(t, router, http.MethodPost, "/orders/"+orderID.String()+"/checkout", nil, uuid.New(), enum.RoleCustomer)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	resp := decodeBody(t, rr)
	if resp["status"] != "PENDING" {
		t.Errorf("expected PENDING, got %v", resp["status"])
	}
}

func TestDeleteDraft_NoContent(t *testing.T) {
	svc := &mockOrderService{
		deleteDraftFn: func(ctx context.Context, customerID, orderID uuid.UUID) error {
			return nil
		},
	}
	router := setupOrderRouter(svc)

	rr := doAuthRequest(t, router, http.MethodDelete, "/orders/"+uuid.NewString(), nil, uuid.New(), enum.RoleCustomer)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
}

func TestApplyVoucher_InvalidCodeMapsTo400(t *testing.T) {
	svc := &mockOrderService{
		applyVoucherFn: func(ctx context.Context, req service.ApplyVoucherRequest) (*database.Order, error) {
			return nil, service.ErrVoucherInvalid
		},
	}
	router := setupOrderRouter(svc)

	rr := doAuthRequest(t, router, http.MethodPut, "/orders/"+uuid.NewString()+"/voucher", map[string]string{
		"voucher_code": "EXPIRED",
	}, uuid.New(), enum.RoleCustomer)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestHistory_OK(t *testing.T) {
	customerID := uuid.New()
	svc := &mockOrderService{
		historyFn: func(ctx context.Context, id uuid.UUID) ([]database.CustomerHistoryRow, error) {
			return []database.CustomerHistoryRow{
				{
					ID:          uuid.New(),
					OrderID:     uuid.New(),
					OrderNumber: "ORD-1-abc",
					Status:      database.OrderStatusCONFIRMED,
					TotalAmount: makeNumeric("40000"),
				},
			}, nil
		},
	}
	router := setupOrderRouter(svc)

	rr := doAuthRequest(t, router, http.MethodGet, "/orders/history", nil, customerID, enum.RoleCustomer)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	resp := decodeBody(t, rr)
	history, ok := resp["history"].([]interface{})
	if !ok || len(history) != 1 {
		t.Fatalf("expected one history entry, got %v", resp["history"])
	}
	entry := history[0].(map[string]interface{})
	if entry["status"] != "CONFIRMED" {
		t.Errorf("expected CONFIRMED, got %v", entry["status"])
	}
}
