package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DescriptionGap separates the catalog name from the customer's annotation in
// a persisted line description. Reporting built on the order tables relies on it.
const DescriptionGap = "       "

type DraftItem struct {
	Quantity    int    `json:"quantity"`
	Unit        string `json:"unit,omitempty"`
	Description string `json:"description"`
	Annotation  string `json:"annotation,omitempty"`
	Line        int    `json:"line"`
}

type DraftOrder struct {
	ClientNameRaw string      `json:"client_name_raw"`
	DayToken      string      `json:"day_token,omitempty"`
	Items         []DraftItem `json:"items"`
	Discarded     []string    `json:"discarded,omitempty"`
}

type ResolvedItem struct {
	ArticleCode string `json:"article_code"`
	Quantity    int    `json:"quantity"`
	Description string `json:"description"`
}

type ResolvedOrder struct {
	ClientCode   string         `json:"client_code"`
	ClientName   string         `json:"client_name"`
	DeliveryDate time.Time      `json:"delivery_date"`
	Items        []ResolvedItem `json:"items"`
}

func ComposeDescription(displayName, annotation string) string {
	return displayName + DescriptionGap + annotation
}

// OrderHeader is one row of tbl_pedidos_venta_cab.
type OrderHeader struct {
	ID           int64
	Partition    int
	SeriesCode   string
	OrderNumber  int64
	Year         int
	OrderDate    time.Time
	DeliveryDate time.Time
	ClientCode   string
	CreatedAt    time.Time
	Defaults     HeaderDefaults
}

// OrderLine is one row of tbl_pedidos_venta_lin.
type OrderLine struct {
	ID          int64
	HeaderID    int64
	Partition   int
	Position    int
	ArticleCode string
	Description string
	Quantity    int
	CreatedAt   time.Time
	Defaults    LineDefaults
}

// OrderDefaults are the fixed business values stamped on every header and
// line. They are configuration, never computed per order.
type OrderDefaults struct {
	Header HeaderDefaults `yaml:"header"`
	Line   LineDefaults   `yaml:"line"`
	// AuditTime pins the creation time stamp ("15:04:05"); empty means the
	// processing clock is used.
	AuditTime string `yaml:"audit_time"`
}

type HeaderDefaults struct {
	SeriesCode           string          `yaml:"series_code"`
	Served               int             `yaml:"served"`
	Blocked              int             `yaml:"blocked"`
	Packages             int             `yaml:"packages"`
	EarlyPaymentDiscount decimal.Decimal `yaml:"early_payment_discount"`
	Discount             decimal.Decimal `yaml:"discount"`
	Shipping             decimal.Decimal `yaml:"shipping"`
	ShippingVAT          decimal.Decimal `yaml:"shipping_vat"`
	ShippingSurcharge    decimal.Decimal `yaml:"shipping_surcharge"`
	FinancialCosts       decimal.Decimal `yaml:"financial_costs"`
	ApplyFinancialCosts  string          `yaml:"apply_financial_costs"`
	IncomeTax            decimal.Decimal `yaml:"income_tax"`
	IncomeTaxRegime      string          `yaml:"income_tax_regime"`
	ApplySurcharge       int             `yaml:"apply_surcharge"`
	RateCode             int             `yaml:"rate_code"`
	WarehouseCode        string          `yaml:"warehouse_code"`
	PaymentMethodCode    string          `yaml:"payment_method_code"`
	SalesRepCode         int             `yaml:"sales_rep_code"`
	RouteCode            string          `yaml:"route_code"`
	CurrencyCode         string          `yaml:"currency_code"`
	BankCode             string          `yaml:"bank_code"`
	BankBranch           string          `yaml:"bank_branch"`
	BankCheckDigits      string          `yaml:"bank_check_digits"`
	BankAccount          string          `yaml:"bank_account"`
	IBAN                 string          `yaml:"iban"`
	BIC                  string          `yaml:"bic"`
	ApplyDeposit         int             `yaml:"apply_deposit"`
	Deposit              decimal.Decimal `yaml:"deposit"`
	DepositAmount        decimal.Decimal `yaml:"deposit_amount"`
	PrintArticleCode     int             `yaml:"print_article_code"`
	PrintSectionTotal    int             `yaml:"print_section_total"`
	PrintPrices          int             `yaml:"print_prices"`
	PrintValuation       int             `yaml:"print_valuation"`
	CreatedBy            string          `yaml:"created_by"`
}

type LineDefaults struct {
	SectionCode     string          `yaml:"section_code"`
	BrandCode       string          `yaml:"brand_code"`
	VATIncluded     int             `yaml:"vat_included"`
	VAT             decimal.Decimal `yaml:"vat"`
	Surcharge       decimal.Decimal `yaml:"surcharge"`
	Discount        decimal.Decimal `yaml:"discount"`
	PurchasePrice   decimal.Decimal `yaml:"purchase_price"`
	SalePrice       decimal.Decimal `yaml:"sale_price"`
	SalePriceExVAT  decimal.Decimal `yaml:"sale_price_ex_vat"`
	SalePriceIncVAT decimal.Decimal `yaml:"sale_price_inc_vat"`
	ServedQuantity  int             `yaml:"served_quantity"`
	Commission      decimal.Decimal `yaml:"commission"`
	Italic          int             `yaml:"italic"`
	Bold            int             `yaml:"bold"`
	Underline       int             `yaml:"underline"`
	CreatedBy       string          `yaml:"created_by"`
}
