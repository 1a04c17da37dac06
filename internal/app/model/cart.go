package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	// MinItemQuantity and MaxItemQuantity bound the quantity of a single
	// cart item.
	MinItemQuantity = 1
	MaxItemQuantity = 99
)

// Cart belongs to exactly one owner: a user or a guest session, never both.
// A cart row is created lazily on the first mutating operation; reads never
// create one.
type Cart struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	UserID     *uint     `gorm:"uniqueIndex" json:"user_id,omitempty"`
	SessionKey *string   `gorm:"size:64;uniqueIndex" json:"session_key,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Relationships
	Items []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

func (Cart) TableName() string {
	return "carts"
}

// OwnedBy reports whether the cart belongs to the given identity.
func (c *Cart) OwnedBy(identity Identity) bool {
	if identity.IsAuthenticated() {
		return c.UserID != nil && *c.UserID == identity.UserID
	}
	return c.SessionKey != nil && *c.SessionKey == identity.SessionKey
}

// CartItem is a single product line in a cart. UnitPrice is frozen when the
// item is first added and never recomputed from the catalog afterward. At
// most one row exists per (cart, product).
type CartItem struct {
	ID        uint            `gorm:"primarykey" json:"id"`
	CartID    uint            `gorm:"not null;uniqueIndex:idx_cart_items_cart_product" json:"cart_id"`
	ProductID uint            `gorm:"not null;uniqueIndex:idx_cart_items_cart_product" json:"product_id"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`

	// Relationships
	Cart    Cart    `gorm:"foreignKey:CartID" json:"-"`
	Product Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

func (CartItem) TableName() string {
	return "cart_items"
}

// Subtotal returns quantity x frozen unit price for this line.
func (i *CartItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
