package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/kirillkom/chat-order-intake/internal/core/domain"
)

type SummaryRepository struct {
	db *sql.DB
}

func NewSummaryRepository(db *sql.DB) *SummaryRepository {
	return &SummaryRepository{db: db}
}

// PendingArticleTotals sums ordered quantities of unserved orders per article.
// Empty route or subfamily lists leave that dimension unfiltered.
func (r *SummaryRepository) PendingArticleTotals(ctx context.Context, filter domain.SummaryFilter) ([]domain.PendingArticleTotal, error) {
	args := []interface{}{filter.Partition}
	var b strings.Builder
	b.WriteString(`
SELECT pvl.cod_articulo, MAX(pvl.descripcion), SUM(pvl.cantidad_pedida), COALESCE(a.cod_subfamilia, '')
FROM tbl_pedidos_venta_lin pvl
JOIN tbl_articulos a ON a.codigo = pvl.cod_articulo AND a.cod_empresa = pvl.cod_empresa
JOIN tbl_pedidos_venta_cab pvc ON pvc.id = pvl.id_pedido AND pvc.cod_empresa = pvl.cod_empresa
WHERE pvc.servido != 1
AND pvc.cod_empresa = $1
`)
	if len(filter.RouteCodes) > 0 {
		b.WriteString("AND pvc.cod_cliente IN (SELECT cod_cliente FROM tbl_rutas_clientes WHERE cod_ruta IN (")
		for i, code := range filter.RouteCodes {
			args = append(args, code)
			writePlaceholder(&b, i, len(args))
		}
		b.WriteString("))\n")
	}
	if len(filter.Subfamilies) > 0 {
		b.WriteString("AND a.cod_subfamilia IN (")
		for i, sub := range filter.Subfamilies {
			args = append(args, sub)
			writePlaceholder(&b, i, len(args))
		}
		b.WriteString(")\n")
	}
	b.WriteString("GROUP BY pvl.cod_articulo, a.cod_subfamilia\nORDER BY 2")

	rows, err := r.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query pending totals: %w", err)
	}
	defer rows.Close()

	out := make([]domain.PendingArticleTotal, 0)
	for rows.Next() {
		var (
			item     domain.PendingArticleTotal
			quantity decimal.NullDecimal
		)
		if err := rows.Scan(&item.ArticleCode, &item.Product, &quantity, &item.Subfamily); err != nil {
			return nil, fmt.Errorf("scan pending total: %w", err)
		}
		item.Product = strings.TrimSpace(item.Product)
		item.TotalQuantity = quantity.Decimal
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending totals: %w", err)
	}
	return out, nil
}

func writePlaceholder(b *strings.Builder, i, argIndex int) {
	if i > 0 {
		b.WriteString(", ")
	}
	fmt.Fprintf(b, "$%d", argIndex)
}
