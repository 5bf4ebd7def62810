package domain

import (
	"regexp"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const defaultUOM = "Pcs"

var numericID = regexp.MustCompile(`^[0-9]+$`)

// OrderLine is a sale order line as submitted to the ERP on checkout.
type OrderLine struct {
	ProductID          string          `json:"product_id"`
	ProductOdooID      *string         `json:"product_odoo_id"`
	ProductName        string          `json:"product_name"`
	ProductCode        *string         `json:"product_code"`
	UOM                string          `json:"uom"`
	Qty                int             `json:"qty"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
	TaxValue           decimal.Decimal `json:"tax_value"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	Total              decimal.Decimal `json:"total"`
}

// Order is the checkout payload for one customer's cart.
type Order struct {
	Reference  uuid.UUID   `json:"reference"`
	CustomerID string      `json:"customer_id"`
	Lines      []OrderLine `json:"order_items"`
	Totals     Totals      `json:"-"`
}

func BuildOrderLines(items []CartLineItem, taxRate decimal.Decimal) []OrderLine {
	lines := make([]OrderLine, 0, len(items))

	for _, item := range items {
		line := OrderLine{
			ProductID:          item.ID,
			ProductName:        item.Name,
			UOM:                defaultUOM,
			Qty:                item.Quantity,
			UnitPrice:          item.Price,
			TaxValue:           taxRate,
			DiscountPercentage: decimal.Zero,
			Total:              item.Subtotal(),
		}
		if numericID.MatchString(item.ID) {
			id := item.ID
			line.ProductOdooID = &id
		}
		if item.ProductCode != "" {
			code := item.ProductCode
			line.ProductCode = &code
		}
		if item.Discount != nil {
			line.DiscountPercentage = *item.Discount
		}
		lines = append(lines, line)
	}

	return lines
}
