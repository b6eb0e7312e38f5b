// Package fuzzy provides approximate, location-agnostic name lookup over a
// catalog list.
//
// A query of m runes matches a name when some substring of the name is within
// k = floor(Threshold*m) edit operations of the query. The distance is the
// approximate substring distance (Sellers), computed in O(m*n) per name. The
// score is 1 - errors/m; a plain substring hit scores 1.
package fuzzy

import (
	"sort"
	"strings"

	"github.com/kirillkom/chat-order-intake/internal/core/domain"
	"github.com/kirillkom/chat-order-intake/internal/core/ports"
)

type Options struct {
	// Threshold is the tolerated share of edit operations relative to the
	// query length, in [0,1].
	Threshold      float64
	MinQueryLength int
	FoldDiacritics bool
}

func (o Options) normalize() Options {
	out := o
	if out.Threshold < 0 {
		out.Threshold = 0
	}
	if out.Threshold > 1 {
		out.Threshold = 1
	}
	if out.MinQueryLength <= 0 {
		out.MinQueryLength = 2
	}
	return out
}

type indexedName struct {
	text  string
	runes []rune
}

// Index is immutable after New and safe for concurrent Search calls.
type Index struct {
	opts    Options
	entries []domain.CatalogEntry
	names   []indexedName
}

func New(entries []domain.CatalogEntry, opts Options) *Index {
	opts = opts.normalize()
	ix := &Index{
		opts:    opts,
		entries: make([]domain.CatalogEntry, len(entries)),
		names:   make([]indexedName, len(entries)),
	}
	copy(ix.entries, entries)
	for i, entry := range ix.entries {
		text := normalize(entry.DisplayName, opts.FoldDiacritics)
		ix.names[i] = indexedName{text: text, runes: []rune(text)}
	}
	return ix
}

func (ix *Index) Len() int {
	return len(ix.entries)
}

// Search returns every entry within tolerance, best score first. Equal scores
// keep catalog order.
func (ix *Index) Search(query string) []domain.MatchCandidate {
	q := normalize(query, ix.opts.FoldDiacritics)
	qRunes := []rune(q)
	m := len(qRunes)
	if m < ix.opts.MinQueryLength {
		return nil
	}
	maxErrors := int(ix.opts.Threshold * float64(m))

	out := make([]domain.MatchCandidate, 0, 4)
	column := make([]int, m+1)
	for i, name := range ix.names {
		errs, ok := substringDistance(q, qRunes, name, maxErrors, column)
		if !ok {
			continue
		}
		out = append(out, domain.MatchCandidate{
			Entry:    ix.entries[i],
			Score:    1 - float64(errs)/float64(m),
			Position: i,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// substringDistance returns the fewest edits turning the query into some
// substring of name, if that is at most maxErrors. column is scratch space of
// len(qRunes)+1.
func substringDistance(q string, qRunes []rune, name indexedName, maxErrors int, column []int) (int, bool) {
	if name.text == "" {
		return 0, false
	}
	if strings.Contains(name.text, q) {
		return 0, true
	}
	if maxErrors == 0 {
		return 0, false
	}

	m := len(qRunes)
	if len(name.runes) < m-maxErrors {
		return 0, false
	}

	// column[i] is the distance between qRunes[:i] and the best substring of
	// name ending at the current rune. Row 0 stays 0: a match may start anywhere.
	for i := range column {
		column[i] = i
	}
	best := column[m]
	for _, r := range name.runes {
		diag := column[0]
		for i := 1; i <= m; i++ {
			cost := 1
			if qRunes[i-1] == r {
				cost = 0
			}
			next := min(diag+cost, column[i]+1, column[i-1]+1)
			diag = column[i]
			column[i] = next
		}
		if column[m] < best {
			best = column[m]
			if best == 1 {
				break
			}
		}
	}
	if best > maxErrors {
		return 0, false
	}
	return best, true
}

// Builder creates indexes with per-list tolerances. Client names are short and
// typed carefully, article descriptions are noisier.
type Builder struct {
	Clients  Options
	Articles Options
}

func (b Builder) Build(list domain.CatalogList, entries []domain.CatalogEntry) ports.NameIndex {
	if list == domain.CatalogClients {
		return New(entries, b.Clients)
	}
	return New(entries, b.Articles)
}
