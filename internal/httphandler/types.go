package httphandler

import (
	"github.com/nikolayk812/fieldops-cart/internal/domain"
	"github.com/shopspring/decimal"
)

type (
	CartResponse struct {
		CustomerID string                `json:"customer_id"`
		Items      []domain.CartLineItem `json:"items"`
	}

	LineUpdate struct {
		Quantity *string `json:"quantity"`
		Price    *string `json:"price"`
	}

	DiscountRequest struct {
		Discount decimal.Decimal `json:"discount"`
	}

	CustomerRequest struct {
		CustomerID string `json:"customer_id"`
	}

	MoneyResponse struct {
		Amount   string `json:"amount"`
		Currency string `json:"currency"`
	}

	TotalsResponse struct {
		Untaxed       MoneyResponse `json:"untaxed"`
		Tax           MoneyResponse `json:"tax"`
		Total         MoneyResponse `json:"total"`
		TotalQuantity int           `json:"total_quantity"`
	}

	OrderResponse struct {
		domain.Order
		Totals TotalsResponse `json:"totals"`
	}
)

func toMoneyResponse(m domain.Money) MoneyResponse {
	return MoneyResponse{
		Amount:   m.Amount.StringFixed(2),
		Currency: m.Currency.String(),
	}
}

func toTotalsResponse(t domain.Totals) TotalsResponse {
	return TotalsResponse{
		Untaxed:       toMoneyResponse(t.Untaxed),
		Tax:           toMoneyResponse(t.Tax),
		Total:         toMoneyResponse(t.Total),
		TotalQuantity: t.TotalQuantity,
	}
}
