package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kirillkom/chat-order-intake/internal/core/domain"
	"github.com/kirillkom/chat-order-intake/internal/core/ports"
	"github.com/kirillkom/chat-order-intake/internal/infrastructure/resilience"
)

func newStoreWithMock(t *testing.T, exec *resilience.Executor) (*OrderStore, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	store := NewOrderStore(db, OrderStoreOptions{
		AttemptTimeout:     time.Second,
		ResilienceExecutor: exec,
	})
	return store, mock, func() { _ = db.Close() }
}

func testExecutor() *resilience.Executor {
	return resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		RetryMultiplier:     2,
		BreakerEnabled:      false,
	})
}

func writeTwoLines(ctx context.Context, tx ports.OrderTx) error {
	headerID, err := tx.NextHeaderID(ctx)
	if err != nil {
		return err
	}
	lineID, err := tx.NextLineID(ctx)
	if err != nil {
		return err
	}
	number, err := tx.NextOrderNumber(ctx, "VE")
	if err != nil {
		return err
	}
	now := time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)
	if err := tx.InsertHeader(ctx, domain.OrderHeader{
		ID:           headerID,
		Partition:    100,
		SeriesCode:   "VE",
		OrderNumber:  number,
		Year:         2026,
		OrderDate:    now,
		DeliveryDate: now.AddDate(0, 0, 1),
		ClientCode:   "C1",
		CreatedAt:    now,
	}); err != nil {
		return err
	}
	for i := 0; i < 2; i++ {
		if err := tx.InsertLine(ctx, domain.OrderLine{
			ID:          lineID + int64(i),
			HeaderID:    headerID,
			Partition:   100,
			Position:    i + 1,
			ArticleCode: "A1",
			Description: "Whole Milk       ",
			Quantity:    2,
			CreatedAt:   now,
		}); err != nil {
			return err
		}
	}
	return nil
}

func expectAllocation(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectExec("SELECT pg_advisory_xact_lock").
		WithArgs(int64(orderLockClass), int64(100)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT COALESCE\\(MAX\\(id\\), 0\\) \\+ 1 FROM tbl_pedidos_venta_cab").
		WithArgs(100).
		WillReturnRows(sqlmock.NewRows([]string{"next"}).AddRow(int64(42)))
	mock.ExpectQuery("SELECT COALESCE\\(MAX\\(id\\), 0\\) \\+ 1 FROM tbl_pedidos_venta_lin").
		WithArgs(100).
		WillReturnRows(sqlmock.NewRows([]string{"next"}).AddRow(int64(310)))
	mock.ExpectQuery("SELECT COALESCE\\(MAX\\(num_pedido\\), 0\\) \\+ 1").
		WithArgs(100, "VE").
		WillReturnRows(sqlmock.NewRows([]string{"next"}).AddRow(int64(9)))
}

func TestWithinTxCommitsHeaderAndLines(t *testing.T) {
	store, mock, done := newStoreWithMock(t, testExecutor())
	defer done()

	expectAllocation(mock)
	mock.ExpectExec("INSERT INTO tbl_pedidos_venta_cab").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO tbl_pedidos_venta_lin").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO tbl_pedidos_venta_lin").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := store.WithinTx(context.Background(), 100, writeTwoLines); err != nil {
		t.Fatalf("WithinTx() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestWithinTxRollsBackWhenLineInsertFails(t *testing.T) {
	store, mock, done := newStoreWithMock(t, testExecutor())
	defer done()

	expectAllocation(mock)
	mock.ExpectExec("INSERT INTO tbl_pedidos_venta_cab").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO tbl_pedidos_venta_lin").
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key"})
	mock.ExpectRollback()

	err := store.WithinTx(context.Background(), 100, writeTwoLines)
	if err == nil {
		t.Fatalf("expected error")
	}
	if domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("unique violation must not be temporary: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestWithinTxRetriesSerializationFailure(t *testing.T) {
	store, mock, done := newStoreWithMock(t, testExecutor())
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec("SELECT pg_advisory_xact_lock").
		WillReturnError(&pgconn.PgError{Code: "40P01", Message: "deadlock detected"})
	mock.ExpectRollback()

	expectAllocation(mock)
	mock.ExpectExec("INSERT INTO tbl_pedidos_venta_cab").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO tbl_pedidos_venta_lin").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO tbl_pedidos_venta_lin").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := store.WithinTx(context.Background(), 100, writeTwoLines); err != nil {
		t.Fatalf("expected success after retry, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestWithinTxReportsTemporaryAfterExhaustedRetries(t *testing.T) {
	store, mock, done := newStoreWithMock(t, testExecutor())
	defer done()

	for i := 0; i < 3; i++ {
		mock.ExpectBegin().WillReturnError(&pgconn.PgError{Code: "08006", Message: "connection failure"})
	}

	calls := 0
	err := store.WithinTx(context.Background(), 100, func(context.Context, ports.OrderTx) error {
		calls++
		return nil
	})
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected ErrTemporary, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("callback must not run without a transaction, ran %d times", calls)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestWithinTxDoesNotRetryCallbackError(t *testing.T) {
	store, mock, done := newStoreWithMock(t, testExecutor())
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec("SELECT pg_advisory_xact_lock").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	errBoom := errors.New("boom")
	calls := 0
	err := store.WithinTx(context.Background(), 100, func(context.Context, ports.OrderTx) error {
		calls++
		return errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected callback error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected one call, got %d", calls)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestIsTransient(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"serialization", &pgconn.PgError{Code: "40001"}, true},
		{"lock timeout", &pgconn.PgError{Code: "55P03"}, true},
		{"connection class", &pgconn.PgError{Code: "08003"}, true},
		{"unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"attempt timeout", domain.WrapError(domain.ErrTemporary, "attempt", context.DeadlineExceeded), true},
		{"caller deadline", context.DeadlineExceeded, false},
		{"cancelled", context.Canceled, false},
		{"plain", errors.New("plain"), false},
	}
	for _, tc := range cases {
		if got := isTransient(tc.err); got != tc.want {
			t.Fatalf("%s: isTransient() = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestWithinTxAttemptTimeoutsOpenBreakerAfterEarlierCallerFinished(t *testing.T) {
	exec := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:        1,
		BreakerEnabled:          true,
		BreakerMinRequests:      2,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      time.Minute,
		BreakerHalfOpenMaxCalls: 1,
	})
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()
	store := NewOrderStore(db, OrderStoreOptions{
		AttemptTimeout:     20 * time.Millisecond,
		ResilienceExecutor: exec,
	})

	// A first request succeeds and its context is gone afterwards.
	first, cancelFirst := context.WithCancel(context.Background())
	mock.ExpectBegin()
	mock.ExpectExec("SELECT pg_advisory_xact_lock").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	if err := store.WithinTx(first, 100, func(context.Context, ports.OrderTx) error { return nil }); err != nil {
		t.Fatalf("first WithinTx() error = %v", err)
	}
	cancelFirst()

	// Later requests hang until the attempt timeout.
	for i := 0; i < 3; i++ {
		mock.ExpectBegin().WillDelayFor(time.Second)
	}

	opened := false
	for i := 0; i < 3; i++ {
		err := store.WithinTx(context.Background(), 100, func(context.Context, ports.OrderTx) error { return nil })
		if !domain.IsKind(err, domain.ErrTemporary) {
			t.Fatalf("call %d: expected ErrTemporary, got %v", i, err)
		}
		if resilience.IsCircuitOpen(err) {
			opened = true
			break
		}
	}
	if !opened {
		t.Fatalf("attempt timeouts must open the orders.write breaker")
	}
}

func TestAttemptTimeoutIsTemporaryOnlyWhileCallerIsAlive(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()
	store := NewOrderStore(db, OrderStoreOptions{AttemptTimeout: 20 * time.Millisecond})

	mock.ExpectBegin().WillDelayFor(time.Second)
	err = store.WithinTx(context.Background(), 100, func(context.Context, ports.OrderTx) error { return nil })
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected ErrTemporary for attempt timeout, got %v", err)
	}

	caller, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	mock.ExpectBegin().WillDelayFor(time.Second)
	store = NewOrderStore(db, OrderStoreOptions{AttemptTimeout: time.Second})
	err = store.WithinTx(caller, 100, func(context.Context, ports.OrderTx) error { return nil })
	if err == nil || domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expired caller deadline must not be temporary, got %v", err)
	}
}
