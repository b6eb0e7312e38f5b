package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/kirillkom/chat-order-intake/internal/core/domain"
	"github.com/kirillkom/chat-order-intake/internal/core/ports"
)

type catalogLoaderFake struct {
	mu         sync.Mutex
	clients    []domain.CatalogEntry
	articles   []domain.CatalogEntry
	clientsErr error
	loads      atomic.Int32
}

func (f *catalogLoaderFake) LoadClients(context.Context) ([]domain.CatalogEntry, error) {
	f.loads.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.clientsErr != nil {
		return nil, f.clientsErr
	}
	return append([]domain.CatalogEntry(nil), f.clients...), nil
}

func (f *catalogLoaderFake) LoadArticles(context.Context) ([]domain.CatalogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.CatalogEntry(nil), f.articles...), nil
}

type indexBuilderFake struct{}

func (indexBuilderFake) Build(_ domain.CatalogList, entries []domain.CatalogEntry) ports.NameIndex {
	return &indexFake{entries: entries}
}

func TestCatalogSnapshotBeforeReload(t *testing.T) {
	uc := NewCatalogUseCase(&catalogLoaderFake{}, indexBuilderFake{})

	_, err := uc.Snapshot()
	if !domain.IsKind(err, domain.ErrCatalogNotLoaded) || !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary ErrCatalogNotLoaded, got %v", err)
	}
	if _, err := uc.Search(domain.CatalogClients, "acme"); !domain.IsKind(err, domain.ErrCatalogNotLoaded) {
		t.Fatalf("expected search to fail before load, got %v", err)
	}
}

func TestCatalogReloadInstallsSnapshot(t *testing.T) {
	loader := &catalogLoaderFake{
		clients:  []domain.CatalogEntry{{Code: "C1", DisplayName: "Acme Store Ltd"}},
		articles: []domain.CatalogEntry{{Code: "A1", DisplayName: "Red Apples"}, {Code: "A2", DisplayName: "Whole Milk"}},
	}
	uc := NewCatalogUseCase(loader, indexBuilderFake{})

	stats, err := uc.Reload(context.Background())
	if err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if stats.Clients != 1 || stats.Articles != 2 || stats.LoadedAt.IsZero() {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	got, err := uc.Search(domain.CatalogArticles, "milk")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 1 || got[0].Entry.Code != "A2" {
		t.Fatalf("unexpected candidates: %+v", got)
	}
	if _, err := uc.Search(domain.CatalogList("suppliers"), "x"); !domain.IsKind(err, domain.ErrUnknownCatalogSet) {
		t.Fatalf("expected ErrUnknownCatalogSet, got %v", err)
	}
}

func TestCatalogFailedReloadKeepsPreviousSnapshot(t *testing.T) {
	loader := &catalogLoaderFake{
		clients: []domain.CatalogEntry{{Code: "C1", DisplayName: "Acme Store Ltd"}},
	}
	uc := NewCatalogUseCase(loader, indexBuilderFake{})
	if _, err := uc.Reload(context.Background()); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	before, _ := uc.Snapshot()

	errDown := errors.New("db down")
	loader.mu.Lock()
	loader.clientsErr = errDown
	loader.mu.Unlock()

	if _, err := uc.Reload(context.Background()); !errors.Is(err, errDown) {
		t.Fatalf("expected load error, got %v", err)
	}
	after, err := uc.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if after != before {
		t.Fatalf("failed reload must keep the previous snapshot")
	}
}

func TestCatalogConcurrentReloadAndSearch(t *testing.T) {
	loader := &catalogLoaderFake{
		clients:  []domain.CatalogEntry{{Code: "C1", DisplayName: "Acme Store Ltd"}},
		articles: []domain.CatalogEntry{{Code: "A1", DisplayName: "Red Apples"}},
	}
	uc := NewCatalogUseCase(loader, indexBuilderFake{})
	if _, err := uc.Reload(context.Background()); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				if _, err := uc.Reload(context.Background()); err != nil {
					t.Errorf("Reload() error = %v", err)
					return
				}
			}
		}()
	}
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				got, err := uc.Search(domain.CatalogClients, "acme")
				if err != nil || len(got) != 1 {
					t.Errorf("Search() = %+v, %v", got, err)
					return
				}
			}
		}()
	}
	wg.Wait()

	if loads := loader.loads.Load(); loads != 101 {
		t.Fatalf("expected 101 loads, got %d", loads)
	}
}
