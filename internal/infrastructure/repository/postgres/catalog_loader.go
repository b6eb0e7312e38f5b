package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/kirillkom/chat-order-intake/internal/core/domain"
)

type CatalogLoader struct {
	db                   *sql.DB
	partition            int
	clientExcludePattern string
}

// NewCatalogLoader reads clients and articles of one partition. Clients whose
// commercial name matches clientExcludePattern (SQL LIKE) are archived and
// never offered to the matcher; an empty pattern disables the filter.
func NewCatalogLoader(db *sql.DB, partition int, clientExcludePattern string) *CatalogLoader {
	return &CatalogLoader{
		db:                   db,
		partition:            partition,
		clientExcludePattern: strings.TrimSpace(clientExcludePattern),
	}
}

func (l *CatalogLoader) LoadClients(ctx context.Context) ([]domain.CatalogEntry, error) {
	query := `
SELECT codigo, nombre_comercial
FROM tbl_clientes
WHERE cod_empresa = $1
`
	args := []interface{}{l.partition}
	if l.clientExcludePattern != "" {
		query += "AND nombre_comercial NOT LIKE $2\n"
		args = append(args, l.clientExcludePattern)
	}
	query += "ORDER BY codigo"

	entries, err := l.load(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("load clients: %w", err)
	}
	return entries, nil
}

func (l *CatalogLoader) LoadArticles(ctx context.Context) ([]domain.CatalogEntry, error) {
	entries, err := l.load(ctx, `
SELECT codigo, nombre_idioma_1
FROM tbl_articulos
WHERE cod_empresa = $1
ORDER BY codigo`, l.partition)
	if err != nil {
		return nil, fmt.Errorf("load articles: %w", err)
	}
	return entries, nil
}

func (l *CatalogLoader) load(ctx context.Context, query string, args ...interface{}) ([]domain.CatalogEntry, error) {
	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.CatalogEntry, 0)
	for rows.Next() {
		var (
			code string
			name sql.NullString
		)
		if err := rows.Scan(&code, &name); err != nil {
			return nil, fmt.Errorf("scan catalog entry: %w", err)
		}
		display := strings.TrimSpace(name.String)
		if display == "" {
			continue
		}
		out = append(out, domain.CatalogEntry{
			Code:        strings.TrimSpace(code),
			DisplayName: display,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalog entries: %w", err)
	}
	return out, nil
}
