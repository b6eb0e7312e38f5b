package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/kirillkom/chat-order-intake/internal/core/domain"
)

// DefaultOrderDefaults returns the business values the ERP expects on orders
// entered through chat.
func DefaultOrderDefaults() domain.OrderDefaults {
	return domain.OrderDefaults{
		Header: domain.HeaderDefaults{
			SeriesCode:          "VE",
			ApplyFinancialCosts: "T",
			IncomeTaxRegime:     "N",
			RateCode:            1,
			WarehouseCode:       "AG",
			PaymentMethodCode:   "G30",
			SalesRepCode:        2,
			RouteCode:           "0",
			CurrencyCode:        "EURO",
			BankCode:            "2100",
			BankBranch:          "9155",
			BankCheckDigits:     "59",
			BankAccount:         "0200053195",
			IBAN:                "ES9721009155590200053195",
			BIC:                 "CAIXESBBXXX",
			PrintArticleCode:    1,
			PrintSectionTotal:   1,
			PrintPrices:         1,
			PrintValuation:      1,
			CreatedBy:           "JOSEP",
		},
		Line: domain.LineDefaults{
			SectionCode:     "MT",
			BrandCode:       "MU",
			VAT:             decimal.NewFromInt(10),
			Surcharge:       decimal.RequireFromString("1.4"),
			PurchasePrice:   decimal.RequireFromString("1.65"),
			SalePrice:       decimal.RequireFromString("2.9"),
			SalePriceExVAT:  decimal.RequireFromString("2.9"),
			SalePriceIncVAT: decimal.RequireFromString("3.19"),
			CreatedBy:       "JOSEP",
		},
	}
}

// LoadOrderDefaults overlays the YAML document at path onto the built-in
// defaults. Keys missing from the file keep their default. An empty path
// returns the defaults unchanged.
func LoadOrderDefaults(path string) (domain.OrderDefaults, error) {
	defaults := DefaultOrderDefaults()
	if strings.TrimSpace(path) == "" {
		return defaults, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.OrderDefaults{}, fmt.Errorf("read order defaults %s: %w", path, err)
	}
	return decodeOrderDefaults(raw, defaults)
}

func decodeOrderDefaults(raw []byte, base domain.OrderDefaults) (domain.OrderDefaults, error) {
	out := base
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&out); err != nil && !errors.Is(err, io.EOF) {
		return domain.OrderDefaults{}, domain.WrapError(domain.ErrInvalidInput, "decode order defaults", err)
	}
	if strings.TrimSpace(out.Header.SeriesCode) == "" {
		return domain.OrderDefaults{}, domain.WrapError(domain.ErrInvalidInput, "decode order defaults", errors.New("header.series_code is required"))
	}
	return out, nil
}
