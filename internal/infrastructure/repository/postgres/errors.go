package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kirillkom/chat-order-intake/internal/core/domain"
	"github.com/kirillkom/chat-order-intake/internal/infrastructure/resilience"
)

var transientSQLStates = map[string]struct{}{
	"40001": {}, // serialization_failure
	"40P01": {}, // deadlock_detected
	"55P03": {}, // lock_not_available
	"57014": {}, // query_canceled (statement_timeout)
	"57P01": {}, // admin_shutdown
	"53300": {}, // too_many_connections
}

// isTransient reports whether err is worth retrying with a fresh transaction.
// It looks at err alone: an expired attempt deadline is already marked
// ErrTemporary by the store, a bare context error means the caller gave up.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if domain.IsKind(err, domain.ErrTemporary) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if _, ok := transientSQLStates[pgErr.Code]; ok {
			return true
		}
		// class 08: connection exception
		return len(pgErr.Code) == 5 && pgErr.Code[:2] == "08"
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

// classifyWriteError is shared by every caller of the "orders.write" breaker,
// so it must not depend on any one request.
func classifyWriteError(err error) resilience.ErrorClassification {
	transient := isTransient(err)
	return resilience.ErrorClassification{
		Retryable:     transient,
		RecordFailure: transient,
	}
}
