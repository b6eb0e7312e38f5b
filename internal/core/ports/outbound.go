package ports

import (
	"context"
	"io"

	"github.com/kirillkom/chat-order-intake/internal/core/domain"
)

// CatalogLoader reads the reference lists from the system of record.
type CatalogLoader interface {
	LoadClients(ctx context.Context) ([]domain.CatalogEntry, error)
	LoadArticles(ctx context.Context) ([]domain.CatalogEntry, error)
}

// NameIndex performs approximate lookups over one catalog list.
type NameIndex interface {
	Search(query string) []domain.MatchCandidate
	Len() int
}

// NameIndexBuilder builds an immutable index for a catalog list.
type NameIndexBuilder interface {
	Build(list domain.CatalogList, entries []domain.CatalogEntry) NameIndex
}

// OrderStore runs fn inside one transaction in which ID allocation for the
// partition is serialized. The header and all lines commit together or not at all.
type OrderStore interface {
	WithinTx(ctx context.Context, partition int, fn func(ctx context.Context, tx OrderTx) error) error
}

// OrderTx is the allocation and write surface available inside WithinTx.
type OrderTx interface {
	NextHeaderID(ctx context.Context) (int64, error)
	NextLineID(ctx context.Context) (int64, error)
	NextOrderNumber(ctx context.Context, seriesCode string) (int64, error)
	InsertHeader(ctx context.Context, header domain.OrderHeader) error
	InsertLine(ctx context.Context, line domain.OrderLine) error
}

// PendingSummaryStore aggregates unserved order lines.
type PendingSummaryStore interface {
	PendingArticleTotals(ctx context.Context, filter domain.SummaryFilter) ([]domain.PendingArticleTotal, error)
}

// MessageQueue consumes chat messages and delivers the reply produced by handler.
type MessageQueue interface {
	SubscribeOrderMessages(ctx context.Context, handler func(context.Context, domain.ChatMessage) string) error
}

// MessageDeduplicator reports whether a transport message id is seen for the first time.
type MessageDeduplicator interface {
	FirstSeen(ctx context.Context, messageID string) (bool, error)
}

// SummaryExporter renders pending totals into a downloadable document.
type SummaryExporter interface {
	ContentType() string
	Export(w io.Writer, totals []domain.PendingArticleTotal) error
}
