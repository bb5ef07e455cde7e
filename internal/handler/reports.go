package handler

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/tomoro-store/api/internal/database"
)

// ReportStore defines the database methods needed by report handlers.
type ReportStore interface {
	GetSalesReport(ctx context.Context, arg database.GetSalesReportParams) ([]database.GetSalesReportRow, error)
	GetTopProducts(ctx context.Context, arg database.GetTopProductsParams) ([]database.GetTopProductsRow, error)
}

// ReportHandler handles the back-office sales report endpoints.
type ReportHandler struct {
	store ReportStore
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(store ReportStore) *ReportHandler {
	return &ReportHandler{store: store}
}

// RegisterRoutes registers report endpoints on the admin subrouter.
func (h *ReportHandler) RegisterRoutes(r chi.Router) {
	r.Get("/reports/sales", h.GetSales)
	r.Get("/reports/top-products", h.GetTopProducts)
}

// --- Response types ---

type salesReportResponse struct {
	Days       []salesDay `json:"days"`
	OrderCount int64      `json:"order_count"`
	GrossSales string     `json:"gross_sales"`
	NetSales   string     `json:"net_sales"`
}

type salesDay struct {
	Day           string `json:"day"`
	OrderCount    int64  `json:"order_count"`
	GrossSales    string `json:"gross_sales"`
	DiscountTotal string `json:"discount_total"`
	DeliveryFees  string `json:"delivery_fees"`
	NetSales      string `json:"net_sales"`
}

type topProductRow struct {
	ProductID    string `json:"product_id"`
	ProductName  string `json:"product_name"`
	QuantitySold int64  `json:"quantity_sold"`
	Revenue      string `json:"revenue"`
}

// --- Handlers ---

// GetSales handles GET /admin/reports/sales. Returns settled revenue per day
// plus totals for the range.
func (h *ReportHandler) GetSales(w http.ResponseWriter, r *http.Request) {
	startDate, err := parseDateParam(r, "start_date")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid start_date format, expected YYYY-MM-DD"})
		return
	}
	endDate, err := parseDateParam(r, "end_date")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid end_date format, expected YYYY-MM-DD"})
		return
	}

	rows, err := h.store.GetSalesReport(r.Context(), database.GetSalesReportParams{
		StartDate: startDate,
		EndDate:   endDate,
	})
	if err != nil {
		log.Printf("ERROR: get sales report: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, buildSalesResponse(rows))
}

// GetTopProducts handles GET /admin/reports/top-products.
func (h *ReportHandler) GetTopProducts(w http.ResponseWriter, r *http.Request) {
	startDate, err := parseDateParam(r, "start_date")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid start_date format, expected YYYY-MM-DD"})
		return
	}
	endDate, err := parseDateParam(r, "end_date")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid end_date format, expected YYYY-MM-DD"})
		return
	}
	limit := int32(10)
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.ParseInt(s, 10, 32)
		if err != nil || n < 1 || n > 100 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = int32(n)
	}

	rows, err := h.store.GetTopProducts(r.Context(), database.GetTopProductsParams{
		StartDate: startDate,
		EndDate:   endDate,
		Limit:     limit,
	})
	if err != nil {
		log.Printf("ERROR: get top products: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]topProductRow, len(rows))
	for i, row := range rows {
		id := ""
		if row.ProductID.Valid {
			id = uuidFromPgtype(row.ProductID)
		}
		resp[i] = topProductRow{
			ProductID:    id,
			ProductName:  row.ProductName,
			QuantitySold: row.QuantitySold,
			Revenue:      fixedMoney(row.Revenue),
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"products": resp})
}

// --- Response builders ---

func buildSalesResponse(rows []database.GetSalesReportRow) salesReportResponse {
	resp := salesReportResponse{Days: make([]salesDay, 0, len(rows))}
	var orderCount int64
	gross := decimal.Zero
	net := decimal.Zero

	for _, row := range rows {
		g, _ := decimal.NewFromString(row.GrossSales)
		n, _ := decimal.NewFromString(row.NetSales)
		orderCount += row.OrderCount
		gross = gross.Add(g)
		net = net.Add(n)

		resp.Days = append(resp.Days, salesDay{
			Day:           row.Day.Time.Format("2006-01-02"),
			OrderCount:    row.OrderCount,
			GrossSales:    g.StringFixed(2),
			DiscountTotal: fixedMoney(row.DiscountTotal),
			DeliveryFees:  fixedMoney(row.DeliveryFees),
			NetSales:      n.StringFixed(2),
		})
	}

	resp.OrderCount = orderCount
	resp.GrossSales = gross.StringFixed(2)
	resp.NetSales = net.StringFixed(2)
	return resp
}

// --- Helpers ---

func parseDateParam(r *http.Request, name string) (pgtype.Date, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return pgtype.Date{}, nil // Valid=false → no filter
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return pgtype.Date{}, err
	}
	return pgtype.Date{Time: t, Valid: true}, nil
}

func fixedMoney(s string) string {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return "0.00"
	}
	return d.StringFixed(2)
}

func uuidFromPgtype(u pgtype.UUID) string {
	v, err := u.Value()
	if err != nil || v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}
