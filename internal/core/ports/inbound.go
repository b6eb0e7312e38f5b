package ports

import (
	"context"

	"github.com/kirillkom/chat-order-intake/internal/core/domain"
)

// OrderMessageProcessor is the inbound contract for turning one chat message into a persisted order.
type OrderMessageProcessor interface {
	ProcessOrderMessage(ctx context.Context, rawText string) domain.OutcomeReport
}

// CatalogService is the inbound contract for catalog reloads and operator diagnostics.
type CatalogService interface {
	Reload(ctx context.Context) (domain.CatalogStats, error)
	Search(list domain.CatalogList, query string) ([]domain.MatchCandidate, error)
}

// PendingSummaryReader is the inbound read model for unserved order totals.
type PendingSummaryReader interface {
	PendingSummary(ctx context.Context) ([]domain.PendingArticleTotal, error)
}
