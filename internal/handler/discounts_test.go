package handler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/tomoro-store/api/internal/database"
	"github.com/tomoro-store/api/internal/enum"
	"github.com/tomoro-store/api/internal/handler"
	"github.com/tomoro-store/api/internal/middleware"
)

type mockDiscountStore struct {
	createFn func(ctx context.Context, arg database.CreateDiscountParams) (database.Discount, error)
	listFn   func(ctx context.Context) ([]database.Discount, error)
}

func (m *mockDiscountStore) CreateDiscount(ctx context.Context, arg database.CreateDiscountParams) (database.Discount, error) {
	return m.createFn(ctx, arg)
}
func (m *mockDiscountStore) ListDiscounts(ctx context.Context) ([]database.Discount, error) {
	return m.listFn(ctx)
}

func setupDiscountRouter(store *mockDiscountStore) *chi.Mux {
	h := handler.NewDiscountHandler(store)
	r := chi.NewRouter()
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.Authenticate(testJWTSecret))
		r.Use(middleware.RequireRole(enum.RoleAdmin, enum.RoleOwner))
		h.RegisterRoutes(r)
	})
	return r
}

func validDiscountBody() map[string]interface{} {
	return map[string]interface{}{
		"code":             "SAVE10",
		"description":      "Hemat 5000 untuk belanja minimal 25000",
		"start_date":       "2025-06-01T00:00:00Z",
		"end_date":         "2025-09-01T00:00:00Z",
		"minimum_purchase": "25000",
		"discount_value":   "5000",
		"maximum_discount": "5000",
	}
}

func TestCreateDiscount_OK(t *testing.T) {
	store := &mockDiscountStore{
		createFn: func(ctx context.Context, arg database.CreateDiscountParams) (database.Discount, error) {
			if arg.Code != "SAVE10" {
				t.Errorf("unexpected code %s", arg.Code)
			}
			if !arg.IsActive {
				t.Error("expected is_active to default to true")
			}
			if !arg.MaximumDiscount.Valid {
				t.Error("expected maximum_discount to be set")
			}
			return database.Discount{
				ID:              uuid.New(),
				Code:            arg.Code,
				IsActive:        arg.IsActive,
				StartDate:       arg.StartDate,
				EndDate:         arg.EndDate,
				MinimumPurchase: arg.MinimumPurchase,
				DiscountValue:   arg.DiscountValue,
				MaximumDiscount: arg.MaximumDiscount,
			}, nil
		},
	}
	router := setupDiscountRouter(store)

	rr := doAuthRequest(t, router, http.MethodPost, "/admin/discounts", validDiscountBody(), uuid.New(), enum.RoleAdmin)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decodeBody(t, rr)
	if resp["discount_value"] != "5000.00" {
		t.Errorf("expected discount_value 5000.00, got %v", resp["discount_value"])
	}
}

func TestCreateDiscount_EndBeforeStart(t *testing.T) {
	router := setupDiscountRouter(&mockDiscountStore{})

	body := validDiscountBody()
	body["start_date"] = "2025-09-01T00:00:00Z"
	body["end_date"] = "2025-06-01T00:00:00Z"
	rr := doAuthRequest(t, router, http.MethodPost, "/admin/discounts", body, uuid.New(), enum.RoleAdmin)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestCreateDiscount_MissingCode(t *testing.T) {
	router := setupDiscountRouter(&mockDiscountStore{})

	body := validDiscountBody()
	delete(body, "code")
	rr := doAuthRequest(t, router, http.MethodPost, "/admin/discounts", body, uuid.New(), enum.RoleAdmin)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestCreateDiscount_DuplicateCode(t *testing.T) {
	store := &mockDiscountStore{
		createFn: func(ctx context.Context, arg database.CreateDiscountParams) (database.Discount, error) {
			return database.Discount{}, &pgconn.PgError{Code: "23505", ConstraintName: "discounts_code_key"}
		},
	}
	router := setupDiscountRouter(store)

	rr := doAuthRequest(t, router, http.MethodPost, "/admin/discounts", validDiscountBody(), uuid.New(), enum.RoleAdmin)

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
}

func TestListDiscounts_OK(t *testing.T) {
	store := &mockDiscountStore{
		listFn: func(ctx context.Context) ([]database.Discount, error) {
			return []database.Discount{
				{
					ID:            uuid.New(),
					Code:          "SAVE10",
					IsActive:      true,
					StartDate:     time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
					EndDate:       time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
					DiscountValue: makeNumeric("5000"),
				},
			}, nil
		},
	}
	router := setupDiscountRouter(store)

	rr := doAuthRequest(t, router, http.MethodGet, "/admin/discounts", nil, uuid.New(), enum.RoleOwner)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	resp := decodeBody(t, rr)
	discounts, ok := resp["discounts"].([]interface{})
	if !ok || len(discounts) != 1 {
		t.Fatalf("expected one discount, got %v", resp["discounts"])
	}
}
