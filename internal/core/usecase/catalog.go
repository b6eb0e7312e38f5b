package usecase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kirillkom/chat-order-intake/internal/core/domain"
	"github.com/kirillkom/chat-order-intake/internal/core/ports"
)

// CatalogSnapshot is an immutable pair of indexes. Readers keep the pointer
// they obtained for the whole message, so a reload never changes a match
// halfway through an order.
type CatalogSnapshot struct {
	Clients  ports.NameIndex
	Articles ports.NameIndex
	LoadedAt time.Time
}

func (s *CatalogSnapshot) index(list domain.CatalogList) (ports.NameIndex, error) {
	switch list {
	case domain.CatalogClients:
		return s.Clients, nil
	case domain.CatalogArticles:
		return s.Articles, nil
	default:
		return nil, domain.WrapError(domain.ErrUnknownCatalogSet, "select catalog index", fmt.Errorf("list=%q", list))
	}
}

type CatalogUseCase struct {
	loader  ports.CatalogLoader
	builder ports.NameIndexBuilder
	now     func() time.Time

	reloadMu sync.Mutex
	current  atomic.Pointer[CatalogSnapshot]
}

func NewCatalogUseCase(loader ports.CatalogLoader, builder ports.NameIndexBuilder) *CatalogUseCase {
	return &CatalogUseCase{
		loader:  loader,
		builder: builder,
		now:     time.Now,
	}
}

// Reload reads both lists, builds new indexes and installs them in one swap.
// On error the previous snapshot stays in place.
func (uc *CatalogUseCase) Reload(ctx context.Context) (domain.CatalogStats, error) {
	uc.reloadMu.Lock()
	defer uc.reloadMu.Unlock()

	clients, err := uc.loader.LoadClients(ctx)
	if err != nil {
		return domain.CatalogStats{}, fmt.Errorf("load clients: %w", err)
	}
	articles, err := uc.loader.LoadArticles(ctx)
	if err != nil {
		return domain.CatalogStats{}, fmt.Errorf("load articles: %w", err)
	}

	next := &CatalogSnapshot{
		Clients:  uc.builder.Build(domain.CatalogClients, clients),
		Articles: uc.builder.Build(domain.CatalogArticles, articles),
		LoadedAt: uc.now().UTC(),
	}
	uc.current.Store(next)

	return domain.CatalogStats{
		Clients:  next.Clients.Len(),
		Articles: next.Articles.Len(),
		LoadedAt: next.LoadedAt,
	}, nil
}

func (uc *CatalogUseCase) Snapshot() (*CatalogSnapshot, error) {
	snap := uc.current.Load()
	if snap == nil {
		return nil, domain.WrapError(domain.ErrTemporary, "catalog snapshot", domain.ErrCatalogNotLoaded)
	}
	return snap, nil
}

func (uc *CatalogUseCase) Search(list domain.CatalogList, query string) ([]domain.MatchCandidate, error) {
	snap, err := uc.Snapshot()
	if err != nil {
		return nil, err
	}
	idx, err := snap.index(list)
	if err != nil {
		return nil, err
	}
	return idx.Search(query), nil
}
