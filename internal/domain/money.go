package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

type Money struct {
	Amount   decimal.Decimal
	Currency currency.Unit
}

func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Amount.StringFixed(2), m.Currency)
}

// DefaultCurrency is used when no currency is configured or resolvable.
var DefaultCurrency = currency.MustParseISO("AED")

// CurrencyForPackage resolves the currency of an app build: the Oman build trades
// in OMR, every other build in AED.
func CurrencyForPackage(packageName, omanPackage string) currency.Unit {
	if packageName != "" && packageName == omanPackage {
		return currency.MustParseISO("OMR")
	}
	return DefaultCurrency
}

// CurrencyFromCode parses an ISO code as reported by the ERP, falling back to fallback.
func CurrencyFromCode(code string, fallback currency.Unit) currency.Unit {
	if code == "" {
		return fallback
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return fallback
	}
	return unit
}
