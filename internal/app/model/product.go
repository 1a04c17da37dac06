package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the read-only view of the catalog consumed by the cart
// subsystem. Stock is validated against, never decremented here; inventory
// commitment happens at order placement.
type Product struct {
	ID            uint            `gorm:"primarykey" json:"id"`
	Name          string          `gorm:"not null" json:"name"`
	SKU           string          `gorm:"uniqueIndex;not null" json:"sku"`
	Description   string          `gorm:"type:text" json:"description"`
	Price         decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	StockQuantity int             `gorm:"not null;default:0" json:"stock_quantity"`
	IsActive      bool            `gorm:"not null;default:true" json:"is_active"`
	ImageURL      string          `json:"image_url"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (Product) TableName() string {
	return "products"
}

func (p *Product) InStock() bool {
	return p.StockQuantity > 0
}
