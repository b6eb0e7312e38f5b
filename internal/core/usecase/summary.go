package usecase

import (
	"context"
	"fmt"

	"github.com/kirillkom/chat-order-intake/internal/core/domain"
	"github.com/kirillkom/chat-order-intake/internal/core/ports"
)

type PendingSummaryUseCase struct {
	store  ports.PendingSummaryStore
	filter domain.SummaryFilter
}

func NewPendingSummaryUseCase(store ports.PendingSummaryStore, filter domain.SummaryFilter) *PendingSummaryUseCase {
	return &PendingSummaryUseCase{store: store, filter: filter}
}

func (uc *PendingSummaryUseCase) PendingSummary(ctx context.Context) ([]domain.PendingArticleTotal, error) {
	totals, err := uc.store.PendingArticleTotals(ctx, uc.filter)
	if err != nil {
		return nil, fmt.Errorf("pending article totals: %w", err)
	}
	return totals, nil
}
