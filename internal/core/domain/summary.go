package domain

import "github.com/shopspring/decimal"

// PendingArticleTotal aggregates the unserved quantity of one article.
type PendingArticleTotal struct {
	ArticleCode   string          `json:"article_code"`
	Product       string          `json:"product"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
	Subfamily     string          `json:"subfamily"`
}

type SummaryFilter struct {
	Partition   int
	RouteCodes  []int
	Subfamilies []string
}
