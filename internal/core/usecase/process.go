package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/kirillkom/chat-order-intake/internal/core/domain"
)

type catalogSnapshotter interface {
	Snapshot() (*CatalogSnapshot, error)
}

type orderWriter interface {
	Write(ctx context.Context, order domain.ResolvedOrder) (int64, error)
}

type ProcessOrderMessageUseCase struct {
	catalog catalogSnapshotter
	writer  orderWriter
	logger  *slog.Logger
	now     func() time.Time
}

func NewProcessOrderMessageUseCase(catalog catalogSnapshotter, writer orderWriter, logger *slog.Logger) *ProcessOrderMessageUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessOrderMessageUseCase{
		catalog: catalog,
		writer:  writer,
		logger:  logger,
		now:     time.Now,
	}
}

// ProcessOrderMessage runs parse, resolve and write for one message and folds
// every terminal result into a report. Parse and resolve failures are final;
// persistence failures carry Retryable when the store classified them as transient.
func (uc *ProcessOrderMessageUseCase) ProcessOrderMessage(ctx context.Context, rawText string) domain.OutcomeReport {
	draft, err := ParseOrderMessage(rawText)
	if err != nil {
		uc.logger.Info("order_message_malformed", "error", err)
		return domain.OutcomeReport{Status: domain.OutcomeMalformedMessage}
	}
	if len(draft.Discarded) > 0 {
		uc.logger.Warn("order_lines_discarded",
			"client", draft.ClientNameRaw,
			"parsed_items", len(draft.Items),
			"discarded", draft.Discarded,
		)
	}

	snap, err := uc.catalog.Snapshot()
	if err != nil {
		uc.logger.Error("order_catalog_unavailable", "error", err)
		return persistenceFailure(err)
	}

	deliveryDate := ResolveDeliveryDate(draft.DayToken, uc.now())
	order, unmatched, err := resolveOrder(draft, snap.Clients, snap.Articles, deliveryDate)
	for _, item := range unmatched {
		uc.logger.Warn("order_item_unmatched",
			"client", draft.ClientNameRaw,
			"line", item.Line,
			"description", item.Description,
			"quantity", item.Quantity,
		)
	}
	unmatchedNames := describeUnmatched(unmatched)

	switch {
	case domain.IsKind(err, domain.ErrClientNotFound):
		uc.logger.Info("order_client_not_found", "client", draft.ClientNameRaw, "raw_text", rawText)
		return domain.OutcomeReport{
			Status:     domain.OutcomeClientNotFound,
			ClientName: draft.ClientNameRaw,
		}
	case domain.IsKind(err, domain.ErrNoValidArticles):
		uc.logger.Info("order_no_valid_articles", "client", draft.ClientNameRaw, "items", len(draft.Items))
		return domain.OutcomeReport{
			Status:     domain.OutcomeNoValidArticles,
			ClientName: draft.ClientNameRaw,
			Unmatched:  unmatchedNames,
		}
	case err != nil:
		uc.logger.Error("order_resolve_failed", "error", err)
		return persistenceFailure(err)
	}

	uc.logger.Debug("order_resolved",
		"client", draft.ClientNameRaw,
		"client_code", order.ClientCode,
		"delivery_date", FormatDeliveryDate(order.DeliveryDate),
		"lines", len(order.Items),
	)

	headerID, err := uc.writer.Write(ctx, order)
	if err != nil {
		uc.logger.Error("order_persist_failed",
			"client_code", order.ClientCode,
			"lines", len(order.Items),
			"retryable", domain.IsKind(err, domain.ErrTemporary),
			"error", err,
		)
		report := persistenceFailure(err)
		report.ClientName = draft.ClientNameRaw
		return report
	}

	uc.logger.Info("order_processed",
		"header_id", headerID,
		"client_code", order.ClientCode,
		"lines", len(order.Items),
		"unmatched", len(unmatched),
	)
	return domain.OutcomeReport{
		Status:       domain.OutcomeSuccess,
		HeaderID:     headerID,
		ClientName:   draft.ClientNameRaw,
		ClientCode:   order.ClientCode,
		DeliveryDate: FormatDeliveryDate(order.DeliveryDate),
		Lines:        len(order.Items),
		Unmatched:    unmatchedNames,
	}
}

func persistenceFailure(err error) domain.OutcomeReport {
	return domain.OutcomeReport{
		Status:    domain.OutcomePersistenceError,
		Detail:    err.Error(),
		Retryable: domain.IsKind(err, domain.ErrTemporary),
	}
}

func describeUnmatched(items []domain.DraftItem) []string {
	if len(items) == 0 {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Description)
	}
	return out
}
