package fuzzy

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/kirillkom/chat-order-intake/internal/core/domain"
)

func testArticles() []domain.CatalogEntry {
	return []domain.CatalogEntry{
		{Code: "A1", DisplayName: "Red Apples"},
		{Code: "A2", DisplayName: "Whole Milk"},
		{Code: "A3", DisplayName: "Green Apples"},
		{Code: "A4", DisplayName: "Café Molido"},
	}
}

func TestSearchSubstringScoresOne(t *testing.T) {
	ix := New(testArticles(), Options{Threshold: 0.3})

	got := ix.Search("milk")
	if len(got) != 1 {
		t.Fatalf("expected one candidate, got %+v", got)
	}
	if got[0].Entry.Code != "A2" || got[0].Score != 1 {
		t.Fatalf("unexpected candidate: %+v", got[0])
	}
}

func TestSearchIsCaseInsensitiveAndCollapsesWhitespace(t *testing.T) {
	ix := New(testArticles(), Options{Threshold: 0.3})

	got := ix.Search("  RED    apples ")
	if len(got) == 0 || got[0].Entry.Code != "A1" {
		t.Fatalf("expected A1 first, got %+v", got)
	}
}

func TestSearchToleratesTypos(t *testing.T) {
	ix := New(testArticles(), Options{Threshold: 0.3})

	got := ix.Search("aple")
	if len(got) != 2 {
		t.Fatalf("expected both apple entries, got %+v", got)
	}
	if got[0].Entry.Code != "A1" || got[1].Entry.Code != "A3" {
		t.Fatalf("equal scores must keep catalog order, got %+v", got)
	}
	if got[0].Score >= 1 || got[0].Score <= 0 {
		t.Fatalf("expected partial score, got %f", got[0].Score)
	}
}

func TestSearchRespectsThreshold(t *testing.T) {
	ix := New(testArticles(), Options{Threshold: 0.2})

	if got := ix.Search("xyzq"); len(got) != 0 {
		t.Fatalf("expected no candidates, got %+v", got)
	}
	// four runes at 0.2 tolerate no edits
	if got := ix.Search("mikl"); len(got) != 0 {
		t.Fatalf("expected no candidates without tolerance, got %+v", got)
	}
}

func TestSearchPrefersExactOverApproximate(t *testing.T) {
	entries := []domain.CatalogEntry{
		{Code: "C1", DisplayName: "Bar Pepe"},
		{Code: "C2", DisplayName: "Bar Pepa"},
	}
	ix := New(entries, Options{Threshold: 0.3})

	got := ix.Search("bar pepa")
	if len(got) != 2 {
		t.Fatalf("expected two candidates, got %+v", got)
	}
	if got[0].Entry.Code != "C2" {
		t.Fatalf("expected exact match first, got %+v", got)
	}
	if got[1].Position != 0 {
		t.Fatalf("expected catalog position 0, got %d", got[1].Position)
	}
}

func TestSearchShortQueryReturnsNothing(t *testing.T) {
	entries := append(testArticles(), domain.CatalogEntry{Code: "X", DisplayName: "R"})
	ix := New(entries, Options{Threshold: 0.3, MinQueryLength: 2})

	if got := ix.Search("r"); got != nil {
		t.Fatalf("expected nil for short query, got %+v", got)
	}
	if got := ix.Search("   "); got != nil {
		t.Fatalf("expected nil for blank query, got %+v", got)
	}
}

func TestSearchFoldsDiacriticsWhenEnabled(t *testing.T) {
	plain := New(testArticles(), Options{Threshold: 0})
	if got := plain.Search("cafe"); len(got) != 0 {
		t.Fatalf("expected no exact match without folding, got %+v", got)
	}

	folded := New(testArticles(), Options{Threshold: 0, FoldDiacritics: true})
	got := folded.Search("cafe")
	if len(got) != 1 || got[0].Entry.Code != "A4" {
		t.Fatalf("expected A4 with folding, got %+v", got)
	}
}

func TestEmptyIndex(t *testing.T) {
	ix := New(nil, Options{Threshold: 0.3})
	if ix.Len() != 0 {
		t.Fatalf("expected empty index")
	}
	if got := ix.Search("milk"); len(got) != 0 {
		t.Fatalf("expected no candidates, got %+v", got)
	}
}

func TestIndexIsolatedFromCallerSlice(t *testing.T) {
	entries := testArticles()
	ix := New(entries, Options{Threshold: 0.3})
	entries[1].Code = "changed"

	got := ix.Search("whole milk")
	if len(got) != 1 || got[0].Entry.Code != "A2" {
		t.Fatalf("index must own its entries, got %+v", got)
	}
}

func TestConcurrentSearch(t *testing.T) {
	ix := New(testArticles(), Options{Threshold: 0.3})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if got := ix.Search("apples"); len(got) != 2 {
					t.Errorf("expected 2 candidates, got %d", len(got))
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestBuilderUsesPerListOptions(t *testing.T) {
	b := Builder{
		Clients:  Options{Threshold: 0},
		Articles: Options{Threshold: 0.3},
	}
	entries := []domain.CatalogEntry{{Code: "X", DisplayName: "Whole Milk"}}

	if got := b.Build(domain.CatalogClients, entries).Search("milkk"); len(got) != 0 {
		t.Fatalf("client index should be exact, got %+v", got)
	}
	if got := b.Build(domain.CatalogArticles, entries).Search("milkk"); len(got) != 1 {
		t.Fatalf("article index should tolerate one edit, got %+v", got)
	}
}

func largeCatalog(n int) []domain.CatalogEntry {
	words := []string{"tomate", "aceite", "harina", "azucar", "leche", "arroz", "garbanzo", "atun", "pimiento", "queso"}
	entries := make([]domain.CatalogEntry, n)
	for i := range entries {
		name := fmt.Sprintf("%s %s %s lote %05d caja",
			words[i%len(words)], words[(i/7)%len(words)], words[(i/13)%len(words)], i)
		entries[i] = domain.CatalogEntry{Code: fmt.Sprintf("A%05d", i), DisplayName: name}
	}
	return entries
}

func TestSearchLargeCatalogIsFast(t *testing.T) {
	ix := New(largeCatalog(5000), Options{Threshold: 0.3})

	start := time.Now()
	got := ix.Search("tomate triturado extra fino")
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("search over 5000 articles took %s", elapsed)
	}
	for _, c := range got {
		if c.Score < 0.7 {
			t.Fatalf("candidate %q below tolerance: %v", c.Entry.DisplayName, c.Score)
		}
	}
}

func TestSearchMatchesInsideLongName(t *testing.T) {
	entries := []domain.CatalogEntry{
		{Code: "T1", DisplayName: "Conserva tomate triturado extrafino 400g"},
		{Code: "T2", DisplayName: "Aceite de oliva virgen extra"},
	}
	ix := New(entries, Options{Threshold: 0.3})

	got := ix.Search("tomate triturado extra fino")
	if len(got) != 1 || got[0].Entry.Code != "T1" {
		t.Fatalf("expected only T1, got %+v", got)
	}
	// One deleted space inside the name.
	if want := 1 - 1.0/27; got[0].Score != want {
		t.Fatalf("expected score %v, got %v", want, got[0].Score)
	}
}

func BenchmarkSearchLargeCatalog(b *testing.B) {
	ix := New(largeCatalog(5000), Options{Threshold: 0.3})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ix.Search("tomate triturado extra fino")
	}
}
