package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/tomoro-store/api/internal/database"
)

// --- Mock implementations ---

// mockTx implements pgx.Tx with only the methods we need.
// The unused methods panic so we catch accidental calls.
type mockTx struct {
	commitErr   error
	rollbackErr error
	committed   bool
}

func (m *mockTx) Begin(ctx context.Context) (pgx.Tx, error) { panic("not implemented") }
func (m *mockTx) Commit(ctx context.Context) error {
	if m.commitErr == nil {
		m.committed = true
	}
	return m.commitErr
}
func (m *mockTx) Rollback(ctx context.Context) error { return m.rollbackErr }
func (m *mockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}
func (m *mockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}
func (m *mockTx) LargeObjects() pgx.LargeObjects { panic("not implemented") }
func (m *mockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}
func (m *mockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	panic("not implemented")
}
func (m *mockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	panic("not implemented")
}
func (m *mockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	panic("not implemented")
}
func (m *mockTx) Conn() *pgx.Conn { panic("not implemented") }

// mockTxBeginner implements TxBeginner.
type mockTxBeginner struct {
	tx  pgx.Tx
	err error
}

func (m *mockTxBeginner) Begin(ctx context.Context) (pgx.Tx, error) {
	return m.tx, m.err
}

// mockStore implements Store with configurable behavior. Tests set only
// the functions their scenario reaches; an unset function panics.
type mockStore struct {
	getCustomerFn                  func(ctx context.Context, id uuid.UUID) (database.Customer, error)
	createOrderFn                  func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	getOpenOrderForCustomerFn      func(ctx context.Context, arg database.GetOpenOrderForCustomerParams) (database.Order, error)
	getOrderForCustomerFn          func(ctx context.Context, arg database.GetOrderForCustomerParams) (database.Order, error)
	getOrderForCustomerForUpdateFn func(ctx context.Context, arg database.GetOrderForCustomerParams) (database.Order, error)
	getOrderForUpdateFn            func(ctx context.Context, id uuid.UUID) (database.Order, error)
	listOpenOrdersByCustomerFn     func(ctx context.Context, customerID uuid.UUID) ([]database.Order, error)
	updateOrderTotalsFn            func(ctx context.Context, arg database.UpdateOrderTotalsParams) (database.Order, error)
	updateOrderStatusFn            func(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
	deleteDraftOrderFn             func(ctx context.Context, arg database.DeleteDraftOrderParams) (int64, error)
	createOrderItemFn              func(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	getOrderItemByProductFn        func(ctx context.Context, arg database.GetOrderItemByProductParams) (database.OrderItem, error)
	updateOrderItemFn              func(ctx context.Context, arg database.UpdateOrderItemParams) (database.OrderItem, error)
	listOrderItemsByOrderFn        func(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	countOrderItemsFn              func(ctx context.Context, orderID uuid.UUID) (int64, error)
	getProductForOrderFn           func(ctx context.Context, id uuid.UUID) (database.GetProductForOrderRow, error)
	decrementProductStockFn        func(ctx context.Context, arg database.DecrementProductStockParams) (int64, error)
	getActiveDiscountByCodeFn      func(ctx context.Context, arg database.GetActiveDiscountByCodeParams) (database.Discount, error)
	upsertOrderDiscountFn          func(ctx context.Context, arg database.UpsertOrderDiscountParams) (database.OrderDiscount, error)
	deleteOrderDiscountFn          func(ctx context.Context, orderID uuid.UUID) error
	getOrderDiscountFn             func(ctx context.Context, orderID uuid.UUID) (database.OrderDiscount, error)
	createPaymentFn                func(ctx context.Context, arg database.CreatePaymentParams) (database.Payment, error)
	getPaymentForOrderFn           func(ctx context.Context, arg database.GetPaymentForOrderParams) (database.Payment, error)
	updatePaymentStatusFn          func(ctx context.Context, arg database.UpdatePaymentStatusParams) (database.Payment, error)
	createStatusHistoryFn          func(ctx context.Context, arg database.CreateStatusHistoryParams) (database.OrderStatusHistory, error)
	listCustomerStatusHistoryFn    func(ctx context.Context, customerID uuid.UUID) ([]database.CustomerHistoryRow, error)
}

func (m *mockStore) GetCustomer(ctx context.Context, id uuid.UUID) (database.Customer, error) {
	return m.getCustomerFn(ctx, id)
}
func (m *mockStore) CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
	return m.createOrderFn(ctx, arg)
}
func (m *mockStore) GetOpenOrderForCustomer(ctx context.Context, arg database.GetOpenOrderForCustomerParams) (database.Order, error) {
	return m.getOpenOrderForCustomerFn(ctx, arg)
}
func (m *mockStore) GetOrderForCustomer(ctx context.Context, arg database.GetOrderForCustomerParams) (database.Order, error) {
	return m.getOrderForCustomerFn(ctx, arg)
}
func (m *mockStore) GetOrderForCustomerForUpdate(ctx context.Context, arg database.GetOrderForCustomerParams) (database.Order, error) {
	return m.getOrderForCustomerForUpdateFn(ctx, arg)
}
func (m *mockStore) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (database.Order, error) {
	return m.getOrderForUpdateFn(ctx, id)
}
func (m *mockStore) ListOpenOrdersByCustomer(ctx context.Context, customerID uuid.UUID) ([]database.Order, error) {
	return m.listOpenOrdersByCustomerFn(ctx, customerID)
}
func (m *mockStore) UpdateOrderTotals(ctx context.Context, arg database.UpdateOrderTotalsParams) (database.Order, error) {
	return m.updateOrderTotalsFn(ctx, arg)
}
func (m *mockStore) UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error) {
	return m.updateOrderStatusFn(ctx, arg)
}
func (m *mockStore) DeleteDraftOrder(ctx context.Context, arg database.DeleteDraftOrderParams) (int64, error) {
	return m.deleteDraftOrderFn(ctx, arg)
}
func (m *mockStore) CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error) {
	return m.createOrderItemFn(ctx, arg)
}
func (m *mockStore) GetOrderItemByProduct(ctx context.Context, arg database.GetOrderItemByProductParams) (database.OrderItem, error) {
	return m.getOrderItemByProductFn(ctx, arg)
}
func (m *mockStore) UpdateOrderItem(ctx context.Context, arg database.UpdateOrderItemParams) (database.OrderItem, error) {
	return m.updateOrderItemFn(ctx, arg)
}
func (m *mockStore) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error) {
	return m.listOrderItemsByOrderFn(ctx, orderID)
}
func (m *mockStore) CountOrderItems(ctx context.Context, orderID uuid.UUID) (int64, error) {
	return m.countOrderItemsFn(ctx, orderID)
}
func (m *mockStore) GetProductForOrder(ctx context.Context, id uuid.UUID) (database.GetProductForOrderRow, error) {
	return m.getProductForOrderFn(ctx, id)
}
func (m *mockStore) DecrementProductStock(ctx context.Context, arg database.DecrementProductStockParams) (int64, error) {
	return m.decrementProductStockFn(ctx, arg)
}
func (m *mockStore) GetActiveDiscountByCode(ctx context.Context, arg database.GetActiveDiscountByCodeParams) (database.Discount, error) {
	return m.getActiveDiscountByCodeFn(ctx, arg)
}
func (m *mockStore) UpsertOrderDiscount(ctx context.Context, arg database.UpsertOrderDiscountParams) (database.OrderDiscount, error) {
	return m.upsertOrderDiscountFn(ctx, arg)
}
func (m *mockStore) DeleteOrderDiscount(ctx context.Context, orderID uuid.UUID) error {
	return m.deleteOrderDiscountFn(ctx, orderID)
}
func (m *mockStore) GetOrderDiscount(ctx context.Context, orderID uuid.UUID) (database.OrderDiscount, error) {
	return m.getOrderDiscountFn(ctx, orderID)
}
func (m *mockStore) CreatePayment(ctx context.Context, arg database.CreatePaymentParams) (database.Payment, error) {
	return m.createPaymentFn(ctx, arg)
}
func (m *mockStore) GetPaymentForOrder(ctx context.Context, arg database.GetPaymentForOrderParams) (database.Payment, error) {
	return m.getPaymentForOrderFn(ctx, arg)
}
func (m *mockStore) UpdatePaymentStatus(ctx context.Context, arg database.UpdatePaymentStatusParams) (database.Payment, error) {
	return m.updatePaymentStatusFn(ctx, arg)
}
func (m *mockStore) CreateStatusHistory(ctx context.Context, arg database.CreateStatusHistoryParams) (database.OrderStatusHistory, error) {
	return m.createStatusHistoryFn(ctx, arg)
}
func (m *mockStore) ListCustomerStatusHistory(ctx context.Context, customerID uuid.UUID) ([]database.CustomerHistoryRow, error) {
	return m.listCustomerStatusHistoryFn(ctx, customerID)
}

// --- Test helpers ---

func makeNumeric(val string) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(val)
	return n
}

func numericEquals(n pgtype.Numeric, expected string) bool {
	d := numericToDecimal(n)
	exp, _ := decimal.NewFromString(expected)
	return d.Equal(exp)
}

// newTestService creates an OrderService with mocked dependencies.
func newTestService(store *mockStore, opts Options) (*OrderService, *mockTx) {
	tx := &mockTx{}
	pool := &mockTxBeginner{tx: tx}
	newStore := func(db database.DBTX) Store { return store }
	svc := NewOrderService(pool, store, newStore, opts, nil)
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return svc, tx
}

func draftOpts() Options {
	return Options{UseDraftStage: true}
}

// historyRecorder captures history rows inserted by a scenario.
func historyRecorder(store *mockStore) *[]database.CreateStatusHistoryParams {
	rows := &[]database.CreateStatusHistoryParams{}
	store.createStatusHistoryFn = func(ctx context.Context, arg database.CreateStatusHistoryParams) (database.OrderStatusHistory, error) {
		*rows = append(*rows, arg)
		return database.OrderStatusHistory{ID: uuid.New(), OrderID: arg.OrderID, Status: arg.Status, Notes: arg.Notes, ChangedBy: arg.ChangedBy}, nil
	}
	return rows
}

// =====================
// Draft creation / reuse
// =====================

func TestCreateOrReuseDraft_ReusesExisting(t *testing.T) {
	customerID := uuid.New()
	existing := database.Order{
		ID:         uuid.New(),
		CustomerID: customerID,
		Status:     database.OrderStatusDRAFT,
	}
	store := &mockStore{
		getOpenOrderForCustomerFn: func(ctx context.Context, arg database.GetOpenOrderForCustomerParams) (database.Order, error) {
			if arg.Status != database.OrderStatusDRAFT {
				t.Fatalf("expected DRAFT lookup, got %s", arg.Status)
			}
			return existing, nil
		},
	}
	svc, _ := newTestService(store, draftOpts())

	result, err := svc.CreateOrReuseDraft(context.Background(), CreateDraftRequest{CustomerID: customerID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Reused {
		t.Error("expected reused=true")
	}
	if result.Order.ID != existing.ID {
		t.Errorf("expected existing order %s, got %s", existing.ID, result.Order.ID)
	}
}

func TestCreateOrReuseDraft_CreatesNew(t *testing.T) {
	customerID := uuid.New()
	store := &mockStore{
		getOpenOrderForCustomerFn: func(ctx context.Context, arg database.GetOpenOrderForCustomerParams) (database.Order, error) {
			return database.Order{}, pgx.ErrNoRows
		},
		getCustomerFn: func(ctx context.Context, id uuid.UUID) (database.Customer, error) {
			return database.Customer{ID: customerID, Phone: "0812000111"}, nil
		},
		createOrderFn: func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
			if !strings.HasPrefix(arg.OrderNumber, "ORD-") {
				t.Errorf("unexpected order number format: %s", arg.OrderNumber)
			}
			if arg.Status != database.OrderStatusDRAFT {
				t.Errorf("expected DRAFT, got %s", arg.Status)
			}
			if !numericEquals(arg.TotalAmount, "5000") {
				t.Errorf("expected total 5000 (fee only), got %v", numericToDecimal(arg.TotalAmount))
			}
			return database.Order{ID: uuid.New(), OrderNumber: arg.OrderNumber, CustomerID: customerID, Status: arg.Status}, nil
		},
	}
	rows := historyRecorder(store)
	svc, tx := newTestService(store, draftOpts())

	result, err := svc.CreateOrReuseDraft(context.Background(), CreateDraftRequest{
		CustomerID:  customerID,
		DeliveryFee: "5000",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Reused {
		t.Error("expected reused=false")
	}
	if !tx.committed {
		t.Error("expected tx commit")
	}
	if len(*rows) != 1 || (*rows)[0].Status != database.OrderStatusDRAFT {
		t.Errorf("expected one DRAFT history row, got %+v", *rows)
	}
}

func TestCreateOrReuseDraft_CollapsedLifecycleStartsPending(t *testing.T) {
	customerID := uuid.New()
	store := &mockStore{
		getOpenOrderForCustomerFn: func(ctx context.Context, arg database.GetOpenOrderForCustomerParams) (database.Order, error) {
			if arg.Status != database.OrderStatusPENDING {
				t.Fatalf("expected PENDING lookup, got %s", arg.Status)
			}
			return database.Order{}, pgx.ErrNoRows
		},
		getCustomerFn: func(ctx context.Context, id uuid.UUID) (database.Customer, error) {
			return database.Customer{ID: customerID}, nil
		},
		createOrderFn: func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
			if arg.Status != database.OrderStatusPENDING {
				t.Errorf("expected PENDING, got %s", arg.Status)
			}
			if arg.CustomerPhone != "-" {
				t.Errorf("expected placeholder phone, got %q", arg.CustomerPhone)
			}
			return database.Order{ID: uuid.New(), Status: arg.Status}, nil
		},
	}
	historyRecorder(store)
	svc, _ := newTestService(store, Options{UseDraftStage: false})

	if _, err := svc.CreateOrReuseDraft(context.Background(), CreateDraftRequest{CustomerID: customerID}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreateOrReuseDraft_InvalidDeliveryType(t *testing.T) {
	svc, _ := newTestService(&mockStore{}, draftOpts())
	_, err := svc.CreateOrReuseDraft(context.Background(), CreateDraftRequest{
		CustomerID:   uuid.New(),
		DeliveryType: "TELEPORT",
	})
	if !errors.Is(err, ErrInvalidDeliveryType) {
		t.Fatalf("expected ErrInvalidDeliveryType, got: %v", err)
	}
}

func TestCreateOrReuseDraft_NegativeFee(t *testing.T) {
	svc, _ := newTestService(&mockStore{}, draftOpts())
	_, err := svc.CreateOrReuseDraft(context.Background(), CreateDraftRequest{
		CustomerID:  uuid.New(),
		DeliveryFee: "-100",
	})
	if !errors.Is(err, ErrInvalidDeliveryFee) {
		t.Fatalf("expected ErrInvalidDeliveryFee, got: %v", err)
	}
}

func TestCreateOrReuseDraft_CustomerNotFound(t *testing.T) {
	store := &mockStore{
		getOpenOrderForCustomerFn: func(ctx context.Context, arg database.GetOpenOrderForCustomerParams) (database.Order, error) {
			return database.Order{}, pgx.ErrNoRows
		},
		getCustomerFn: func(ctx context.Context, id uuid.UUID) (database.Customer, error) {
			return database.Customer{}, pgx.ErrNoRows
		},
	}
	svc, _ := newTestService(store, draftOpts())
	_, err := svc.CreateOrReuseDraft(context.Background(), CreateDraftRequest{CustomerID: uuid.New()})
	if !errors.Is(err, ErrCustomerNotFound) {
		t.Fatalf("expected ErrCustomerNotFound, got: %v", err)
	}
}

func TestCreateOrReuseDraft_RetriesOnUniqueConflict(t *testing.T) {
	customerID := uuid.New()
	winner := database.Order{ID: uuid.New(), CustomerID: customerID, Status: database.OrderStatusDRAFT}
	lookups := 0
	store := &mockStore{
		getOpenOrderForCustomerFn: func(ctx context.Context, arg database.GetOpenOrderForCustomerParams) (database.Order, error) {
			lookups++
			if lookups == 1 {
				return database.Order{}, pgx.ErrNoRows
			}
			// Second attempt sees the concurrent winner's draft.
			return winner, nil
		},
		getCustomerFn: func(ctx context.Context, id uuid.UUID) (database.Customer, error) {
			return database.Customer{ID: customerID}, nil
		},
		createOrderFn: func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
			return database.Order{}, &pgconn.PgError{Code: "23505", ConstraintName: "orders_customer_draft_key"}
		},
	}
	svc, _ := newTestService(store, draftOpts())

	result, err := svc.CreateOrReuseDraft(context.Background(), CreateDraftRequest{CustomerID: customerID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Reused || result.Order.ID != winner.ID {
		t.Errorf("expected the concurrent winner's draft, got %+v", result)
	}
}

// =====================
// Draft deletion
// =====================

func TestDeleteDraft_OK(t *testing.T) {
	customerID, orderID := uuid.New(), uuid.New()
	store := &mockStore{
		deleteDraftOrderFn: func(ctx context.Context, arg database.DeleteDraftOrderParams) (int64, error) {
			if arg.ID != orderID || arg.CustomerID != customerID || arg.Status != database.OrderStatusDRAFT {
				t.Errorf("unexpected delete args: %+v", arg)
			}
			return 1, nil
		},
	}
	svc, _ := newTestService(store, draftOpts())
	if err := svc.DeleteDraft(context.Background(), customerID, orderID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDeleteDraft_NotFoundOrNotDraft(t *testing.T) {
	store := &mockStore{
		deleteDraftOrderFn: func(ctx context.Context, arg database.DeleteDraftOrderParams) (int64, error) {
			return 0, nil
		},
	}
	svc, _ := newTestService(store, draftOpts())
	err := svc.DeleteDraft(context.Background(), uuid.New(), uuid.New())
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got: %v", err)
	}
}

// =====================
// Checkout
// =====================

func checkoutStore(t *testing.T, order database.Order, items []database.OrderItem) *mockStore {
	t.Helper()
	store := &mockStore{
		getOrderForCustomerForUpdateFn: func(ctx context.Context, arg database.GetOrderForCustomerParams) (database.Order, error) {
			if arg.ID == order.ID && arg.CustomerID == order.CustomerID {
				return order, nil
			}
			return database.Order{}, pgx.ErrNoRows
		},
		countOrderItemsFn: func(ctx context.Context, orderID uuid.UUID) (int64, error) {
			return int64(len(items)), nil
		},
		listOrderItemsByOrderFn: func(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error) {
			return items, nil
		},
		getOrderDiscountFn: func(ctx context.Context, orderID uuid.UUID) (database.OrderDiscount, error) {
			return database.OrderDiscount{}, pgx.ErrNoRows
		},
		deleteOrderDiscountFn: func(ctx context.Context, orderID uuid.UUID) error { return nil },
		updateOrderTotalsFn: func(ctx context.Context, arg database.UpdateOrderTotalsParams) (database.Order, error) {
			order.Subtotal = arg.Subtotal
			order.DiscountAmount = arg.DiscountAmount
			order.TotalAmount = arg.TotalAmount
			return order, nil
		},
		updateOrderStatusFn: func(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error) {
			order.Status = arg.Status
			return order, nil
		},
	}
	historyRecorder(store)
	return store
}

func TestCheckout_EmptyOrder(t *testing.T) {
	order := database.Order{ID: uuid.New(), CustomerID: uuid.New(), Status: database.OrderStatusDRAFT}
	store := checkoutStore(t, order, nil)
	svc, _ := newTestService(store, draftOpts())

	_, err := svc.Checkout(context.Background(), order.CustomerID, order.ID)
	if !errors.Is(err, ErrEmptyOrder) {
		t.Fatalf("expected ErrEmptyOrder, got: %v", err)
	}
}

func TestCheckout_NotMutable(t *testing.T) {
	order := database.Order{ID: uuid.New(), CustomerID: uuid.New(), Status: database.OrderStatusCONFIRMED}
	store := checkoutStore(t, order, nil)
	svc, _ := newTestService(store, draftOpts())

	_, err := svc.Checkout(context.Background(), order.CustomerID, order.ID)
	if !errors.Is(err, ErrOrderNotMutable) {
		t.Fatalf("expected ErrOrderNotMutable, got: %v", err)
	}
}

func TestCheckout_OK(t *testing.T) {
	order := database.Order{
		ID:          uuid.New(),
		CustomerID:  uuid.New(),
		Status:      database.OrderStatusDRAFT,
		DeliveryFee: makeNumeric("5000"),
	}
	items := []database.OrderItem{
		{ID: uuid.New(), OrderID: order.ID, Quantity: 2, TotalPrice: makeNumeric("40000")},
	}
	store := checkoutStore(t, order, items)
	svc, tx := newTestService(store, draftOpts())

	updated, err := svc.Checkout(context.Background(), order.CustomerID, order.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != database.OrderStatusPENDING {
		t.Errorf("expected PENDING, got %s", updated.Status)
	}
	if !numericEquals(updated.Subtotal, "40000") {
		t.Errorf("expected subtotal 40000, got %v", numericToDecimal(updated.Subtotal))
	}
	if !numericEquals(updated.TotalAmount, "45000") {
		t.Errorf("expected total 45000, got %v", numericToDecimal(updated.TotalAmount))
	}
	if !tx.committed {
		t.Error("expected tx commit")
	}
}

func TestCheckout_PreservesVoucherSnapshot(t *testing.T) {
	order := database.Order{
		ID:          uuid.New(),
		CustomerID:  uuid.New(),
		Status:      database.OrderStatusDRAFT,
		DeliveryFee: makeNumeric("5000"),
	}
	items := []database.OrderItem{
		{ID: uuid.New(), OrderID: order.ID, Quantity: 2, TotalPrice: makeNumeric("40000")},
	}
	store := checkoutStore(t, order, items)
	store.getOrderDiscountFn = func(ctx context.Context, orderID uuid.UUID) (database.OrderDiscount, error) {
		return database.OrderDiscount{OrderID: orderID, DiscountCode: "SAVE10", DiscountAmount: makeNumeric("5000")}, nil
	}
	store.getActiveDiscountByCodeFn = func(ctx context.Context, arg database.GetActiveDiscountByCodeParams) (database.Discount, error) {
		return database.Discount{
			ID:              uuid.New(),
			Code:            "SAVE10",
			MinimumPurchase: makeNumeric("25000"),
			DiscountValue:   makeNumeric("5000"),
		}, nil
	}
	store.upsertOrderDiscountFn = func(ctx context.Context, arg database.UpsertOrderDiscountParams) (database.OrderDiscount, error) {
		if !numericEquals(arg.DiscountAmount, "5000") {
			t.Errorf("expected snapshot amount 5000, got %v", numericToDecimal(arg.DiscountAmount))
		}
		return database.OrderDiscount{OrderID: arg.OrderID, DiscountCode: arg.DiscountCode, DiscountAmount: arg.DiscountAmount}, nil
	}
	svc, _ := newTestService(store, draftOpts())

	updated, err := svc.Checkout(context.Background(), order.CustomerID, order.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !numericEquals(updated.DiscountAmount, "5000") {
		t.Errorf("expected discount 5000, got %v", numericToDecimal(updated.DiscountAmount))
	}
	if !numericEquals(updated.TotalAmount, "40000") {
		t.Errorf("expected total 40000, got %v", numericToDecimal(updated.TotalAmount))
	}
}

func TestCheckout_OrderNotFound(t *testing.T) {
	store := checkoutStore(t, database.Order{ID: uuid.New(), CustomerID: uuid.New()}, nil)
	svc, _ := newTestService(store, draftOpts())

	_, err := svc.Checkout(context.Background(), uuid.New(), uuid.New())
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got: %v", err)
	}
}
