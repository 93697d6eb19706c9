package models

import (
	"strings"
	"time"
)

const (
	DefaultSize  = "onesize"
	DefaultColor = "defaultcolor"
)

// CartKey is the identity of a cart line: the same product in another size
// or color is a separate line.
func CartKey(productID, size, color string) string {
	size = strings.TrimSpace(size)
	if size == "" {
		size = DefaultSize
	}
	color = strings.TrimSpace(color)
	if color == "" {
		color = DefaultColor
	}
	return productID + "-" + size + "-" + color
}

type CartItem struct {
	ProductID            string       `bson:"productId" json:"productId"`
	Name                 string       `bson:"name" json:"name"`
	Image                string       `bson:"image,omitempty" json:"image,omitempty"`
	Price                float64      `bson:"price" json:"price"`
	OriginalPrice        *float64     `bson:"originalPrice" json:"originalPrice"`
	Quantity             int          `bson:"quantity" json:"quantity"`
	Size                 string       `bson:"size,omitempty" json:"size,omitempty"`
	ColorName            string       `bson:"colorName,omitempty" json:"colorName,omitempty"`
	ColorHex             string       `bson:"colorHex,omitempty" json:"colorHex,omitempty"`
	AppliedDiscountType  DiscountType `bson:"appliedDiscountType,omitempty" json:"appliedDiscountType,omitempty"`
	AppliedDiscountValue float64      `bson:"appliedDiscountValue,omitempty" json:"appliedDiscountValue,omitempty"`
	CartKey              string       `bson:"cartKey" json:"cartKey"`
}

func (i CartItem) UnitPrice() float64 { return i.Price }
func (i CartItem) Units() int         { return i.Quantity }

type Cart struct {
	ID        string     `bson:"_id,omitempty" json:"id,omitempty"`
	UserID    string     `bson:"userId" json:"userId"`
	Items     []CartItem `bson:"items" json:"items"`
	CreatedAt time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time  `bson:"updatedAt" json:"updatedAt"`
}

// EmptyCart is what a user without a cart document sees.
func EmptyCart(userID string) *Cart {
	return &Cart{UserID: userID, Items: []CartItem{}}
}

func (c *Cart) Find(cartKey string) (int, bool) {
	for i := range c.Items {
		if c.Items[i].CartKey == cartKey {
			return i, true
		}
	}
	return -1, false
}
