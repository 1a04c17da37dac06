package service

import (
	"github.com/marbelle/marbelle-backend/internal/app/model"
	"github.com/shopspring/decimal"
)

// TaxRate is applied to the cart subtotal. Rounding is half-up to 2 digits.
var TaxRate = decimal.RequireFromString("0.09")

// CartTotals is the pure pricing result over a set of cart items.
type CartTotals struct {
	ItemCount int
	Subtotal  decimal.Decimal
	TaxAmount decimal.Decimal
	Total     decimal.Decimal
}

// CalculateTotals computes item count and monetary totals from item rows.
// The subtotal is summed first and rounded once over the aggregate, not per
// line, so per-line rounding errors cannot compound.
func CalculateTotals(items []model.CartItem) CartTotals {
	itemCount := 0
	subtotal := decimal.Zero
	for i := range items {
		itemCount += items[i].Quantity
		subtotal = subtotal.Add(items[i].Subtotal())
	}

	subtotal = subtotal.Round(2)
	tax := subtotal.Mul(TaxRate).Round(2)

	return CartTotals{
		ItemCount: itemCount,
		Subtotal:  subtotal,
		TaxAmount: tax,
		Total:     subtotal.Add(tax),
	}
}
