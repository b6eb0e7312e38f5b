package usecase

import (
	"fmt"
	"time"

	"github.com/kirillkom/chat-order-intake/internal/core/domain"
	"github.com/kirillkom/chat-order-intake/internal/core/ports"
)

// resolveOrder maps a draft onto catalog codes. A missing client aborts before
// any article lookup; unmatched items are dropped one by one and returned for
// diagnostics, and an order left without items fails with ErrNoValidArticles.
func resolveOrder(
	draft domain.DraftOrder,
	clients ports.NameIndex,
	articles ports.NameIndex,
	deliveryDate time.Time,
) (domain.ResolvedOrder, []domain.DraftItem, error) {
	client, ok := bestMatch(clients, draft.ClientNameRaw)
	if !ok {
		return domain.ResolvedOrder{}, nil, domain.WrapError(
			domain.ErrClientNotFound,
			"resolve client",
			fmt.Errorf("name=%q", draft.ClientNameRaw),
		)
	}

	order := domain.ResolvedOrder{
		ClientCode:   client.Entry.Code,
		ClientName:   client.Entry.DisplayName,
		DeliveryDate: deliveryDate,
		Items:        make([]domain.ResolvedItem, 0, len(draft.Items)),
	}

	var unmatched []domain.DraftItem
	for _, item := range draft.Items {
		article, ok := bestMatch(articles, item.Description)
		if !ok {
			unmatched = append(unmatched, item)
			continue
		}
		order.Items = append(order.Items, domain.ResolvedItem{
			ArticleCode: article.Entry.Code,
			Quantity:    item.Quantity,
			Description: domain.ComposeDescription(article.Entry.DisplayName, item.Annotation),
		})
	}

	if len(order.Items) == 0 {
		return domain.ResolvedOrder{}, unmatched, domain.WrapError(
			domain.ErrNoValidArticles,
			"resolve articles",
			fmt.Errorf("client=%s items=%d", order.ClientCode, len(draft.Items)),
		)
	}
	return order, unmatched, nil
}

func bestMatch(idx ports.NameIndex, query string) (domain.MatchCandidate, bool) {
	if idx == nil || query == "" {
		return domain.MatchCandidate{}, false
	}
	candidates := idx.Search(query)
	if len(candidates) == 0 {
		return domain.MatchCandidate{}, false
	}
	return candidates[0], true
}
