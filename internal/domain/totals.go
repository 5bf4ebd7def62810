package domain

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// DefaultTaxRate is the VAT applied on top of the untaxed cart amount.
var DefaultTaxRate = decimal.RequireFromString("0.05")

type Totals struct {
	Untaxed       Money
	Tax           Money
	Total         Money
	TotalQuantity int
}

func CalculateTotals(items []CartLineItem, taxRate decimal.Decimal, unit currency.Unit) Totals {
	untaxed := decimal.Zero
	quantity := 0

	for _, item := range items {
		untaxed = untaxed.Add(item.Subtotal())
		quantity += item.Quantity
	}

	tax := untaxed.Mul(taxRate)

	return Totals{
		Untaxed:       Money{Amount: untaxed, Currency: unit},
		Tax:           Money{Amount: tax, Currency: unit},
		Total:         Money{Amount: untaxed.Add(tax), Currency: unit},
		TotalQuantity: quantity,
	}
}
