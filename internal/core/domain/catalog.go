package domain

import (
	"fmt"
	"time"
)

type CatalogList string

const (
	CatalogClients  CatalogList = "clients"
	CatalogArticles CatalogList = "articles"
)

func ParseCatalogList(raw string) (CatalogList, error) {
	switch CatalogList(raw) {
	case CatalogClients, CatalogArticles:
		return CatalogList(raw), nil
	default:
		return "", WrapError(ErrUnknownCatalogSet, "parse catalog list", fmt.Errorf("list=%q", raw))
	}
}

// CatalogEntry is one client or article of the reference catalog. Code is
// opaque and written back to the order store unchanged.
type CatalogEntry struct {
	Code        string `json:"code"`
	DisplayName string `json:"display_name"`
}

// MatchCandidate is a ranked fuzzy hit. Position is the entry's index in the
// catalog list it came from.
type MatchCandidate struct {
	Entry    CatalogEntry `json:"entry"`
	Score    float64      `json:"score"`
	Position int          `json:"position"`
}

type CatalogStats struct {
	Clients  int       `json:"clients"`
	Articles int       `json:"articles"`
	LoadedAt time.Time `json:"loaded_at"`
}
