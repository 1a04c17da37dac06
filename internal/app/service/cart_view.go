package service

import (
	"time"

	"github.com/marbelle/marbelle-backend/internal/app/model"
)

// All monetary fields in the view types are rendered as strings with exactly
// two fractional digits.

type ProductSummary struct {
	ID            uint   `json:"id"`
	Name          string `json:"name"`
	SKU           string `json:"sku"`
	StockQuantity int    `json:"stock_quantity"`
	InStock       bool   `json:"in_stock"`
	ImageURL      string `json:"image,omitempty"`
}

type CartItemView struct {
	ID        uint           `json:"id"`
	Product   ProductSummary `json:"product"`
	Quantity  int            `json:"quantity"`
	UnitPrice string         `json:"unit_price"`
	Subtotal  string         `json:"subtotal"`
	CreatedAt time.Time      `json:"created_at"`
}

type CartTotalsView struct {
	ItemCount int    `json:"item_count"`
	Subtotal  string `json:"subtotal"`
	TaxAmount string `json:"tax_amount"`
	Total     string `json:"total"`
}

type CartView struct {
	ID        uint           `json:"id"`
	ItemCount int            `json:"item_count"`
	Subtotal  string         `json:"subtotal"`
	TaxAmount string         `json:"tax_amount"`
	Total     string         `json:"total"`
	Items     []CartItemView `json:"items"`
}

func newProductSummary(product *model.Product) ProductSummary {
	return ProductSummary{
		ID:            product.ID,
		Name:          product.Name,
		SKU:           product.SKU,
		StockQuantity: product.StockQuantity,
		InStock:       product.InStock(),
		ImageURL:      product.ImageURL,
	}
}

func newCartItemView(item *model.CartItem) CartItemView {
	return CartItemView{
		ID:        item.ID,
		Product:   newProductSummary(&item.Product),
		Quantity:  item.Quantity,
		UnitPrice: item.UnitPrice.StringFixed(2),
		Subtotal:  item.Subtotal().StringFixed(2),
		CreatedAt: item.CreatedAt,
	}
}

func newCartTotalsView(totals CartTotals) CartTotalsView {
	return CartTotalsView{
		ItemCount: totals.ItemCount,
		Subtotal:  totals.Subtotal.StringFixed(2),
		TaxAmount: totals.TaxAmount.StringFixed(2),
		Total:     totals.Total.StringFixed(2),
	}
}

func newCartView(cartID uint, items []model.CartItem) *CartView {
	totals := CalculateTotals(items)
	view := &CartView{
		ID:        cartID,
		ItemCount: totals.ItemCount,
		Subtotal:  totals.Subtotal.StringFixed(2),
		TaxAmount: totals.TaxAmount.StringFixed(2),
		Total:     totals.Total.StringFixed(2),
		Items:     make([]CartItemView, 0, len(items)),
	}
	for i := range items {
		view.Items = append(view.Items, newCartItemView(&items[i]))
	}
	return view
}

// emptyCartView is the computed zero-valued view returned when an identity
// has no cart row. Nothing is persisted to produce it.
func emptyCartView() *CartView {
	return newCartView(0, nil)
}
