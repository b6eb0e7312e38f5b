package httpadapter

import (
	"net/http"

	"github.com/kirillkom/chat-order-intake/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput),
		domain.IsKind(err, domain.ErrMalformedMessage):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrUnknownCatalogSet),
		domain.IsKind(err, domain.ErrNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrClientNotFound),
		domain.IsKind(err, domain.ErrNoValidArticles):
		return http.StatusUnprocessableEntity
	case domain.IsKind(err, domain.ErrTemporary),
		domain.IsKind(err, domain.ErrCatalogNotLoaded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// mapOutcomeToHTTPStatus reports terminal intake outcomes. Rejected orders
// are a valid processing result, so only transport-level problems leave 2xx.
func mapOutcomeToHTTPStatus(report domain.OutcomeReport) int {
	switch report.Status {
	case domain.OutcomeSuccess:
		return http.StatusCreated
	case domain.OutcomeMalformedMessage:
		return http.StatusBadRequest
	case domain.OutcomeClientNotFound, domain.OutcomeNoValidArticles:
		return http.StatusUnprocessableEntity
	case domain.OutcomePersistenceError:
		if report.Retryable {
			return http.StatusServiceUnavailable
		}
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
