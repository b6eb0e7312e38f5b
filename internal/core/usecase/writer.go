package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kirillkom/chat-order-intake/internal/core/domain"
	"github.com/kirillkom/chat-order-intake/internal/core/ports"
)

type OrderWriter struct {
	store     ports.OrderStore
	partition int
	defaults  domain.OrderDefaults
	now       func() time.Time
}

func NewOrderWriter(store ports.OrderStore, partition int, defaults domain.OrderDefaults) *OrderWriter {
	return &OrderWriter{
		store:     store,
		partition: partition,
		defaults:  defaults,
		now:       time.Now,
	}
}

// Write persists one header and its lines and returns the allocated header ID.
// IDs are read and written inside the store transaction that holds the
// partition's allocation lock, so the whole block below may rerun on retry.
func (w *OrderWriter) Write(ctx context.Context, order domain.ResolvedOrder) (int64, error) {
	if len(order.Items) == 0 {
		return 0, domain.WrapError(domain.ErrNoValidArticles, "write order", errors.New("order has no lines"))
	}

	createdAt := w.auditTimestamp()
	var headerID int64
	err := w.store.WithinTx(ctx, w.partition, func(ctx context.Context, tx ports.OrderTx) error {
		id, err := tx.NextHeaderID(ctx)
		if err != nil {
			return fmt.Errorf("allocate header id: %w", err)
		}
		lineID, err := tx.NextLineID(ctx)
		if err != nil {
			return fmt.Errorf("allocate line id: %w", err)
		}
		number, err := tx.NextOrderNumber(ctx, w.defaults.Header.SeriesCode)
		if err != nil {
			return fmt.Errorf("allocate order number: %w", err)
		}

		header := domain.OrderHeader{
			ID:           id,
			Partition:    w.partition,
			SeriesCode:   w.defaults.Header.SeriesCode,
			OrderNumber:  number,
			Year:         createdAt.Year(),
			OrderDate:    createdAt,
			DeliveryDate: order.DeliveryDate,
			ClientCode:   order.ClientCode,
			CreatedAt:    createdAt,
			Defaults:     w.defaults.Header,
		}
		if err := tx.InsertHeader(ctx, header); err != nil {
			return fmt.Errorf("insert header %d: %w", id, err)
		}

		for i, item := range order.Items {
			line := domain.OrderLine{
				ID:          lineID + int64(i),
				HeaderID:    id,
				Partition:   w.partition,
				Position:    i + 1,
				ArticleCode: item.ArticleCode,
				Description: item.Description,
				Quantity:    item.Quantity,
				CreatedAt:   createdAt,
				Defaults:    w.defaults.Line,
			}
			if err := tx.InsertLine(ctx, line); err != nil {
				return fmt.Errorf("insert line %d of header %d: %w", line.Position, id, err)
			}
		}

		headerID = id
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("write order: %w", err)
	}
	return headerID, nil
}

func (w *OrderWriter) auditTimestamp() time.Time {
	now := w.now()
	if w.defaults.AuditTime == "" {
		return now
	}
	clock, err := time.Parse(time.TimeOnly, w.defaults.AuditTime)
	if err != nil {
		return now
	}
	year, month, day := now.Date()
	return time.Date(year, month, day, clock.Hour(), clock.Minute(), clock.Second(), 0, now.Location())
}
