package models

import "time"

type DiscountType string

const (
	DiscountNone       DiscountType = ""
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

func (d DiscountType) Valid() bool {
	return d == DiscountNone || d == DiscountPercentage || d == DiscountFixed
}

type Color struct {
	Name  string `bson:"name" json:"name"`
	Hex   string `bson:"hex" json:"hex"`
	Image string `bson:"image,omitempty" json:"image,omitempty"`
}

// Product is the catalog entry the cart and order flows price against.
type Product struct {
	ID            string       `bson:"_id,omitempty" json:"id" gorm:"primaryKey;type:varchar(24)"`
	Name          string       `bson:"name" json:"name" gorm:"type:varchar(200);not null"`
	Image         string       `bson:"image,omitempty" json:"image,omitempty" gorm:"type:varchar(500)"`
	Price         float64      `bson:"price" json:"price" gorm:"type:decimal(12,2);not null"`
	DiscountType  DiscountType `bson:"discountType,omitempty" json:"discountType,omitempty" gorm:"type:varchar(20)"`
	DiscountValue float64      `bson:"discountValue,omitempty" json:"discountValue,omitempty" gorm:"type:decimal(12,2)"`
	Stock         int          `bson:"stock" json:"stock" gorm:"not null;default:0"`
	Colors        []Color      `bson:"colors,omitempty" json:"colors,omitempty" gorm:"serializer:json"`
	Sizes         []string     `bson:"sizes,omitempty" json:"sizes,omitempty" gorm:"serializer:json"`
	CreatedAt     time.Time    `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time    `bson:"updatedAt" json:"updatedAt"`
}

func (Product) TableName() string {
	return "products"
}
