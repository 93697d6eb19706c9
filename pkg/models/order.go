package models

import (
	"time"
)

type OrderStatus string

const (
	StatusPending    OrderStatus = "Pending"
	StatusProcessing OrderStatus = "Processing"
	StatusShipped    OrderStatus = "Shipped"
	StatusDelivered  OrderStatus = "Delivered"
	StatusCancelled  OrderStatus = "Cancelled"
	StatusFailed     OrderStatus = "Failed"
)

var OrderStatuses = []OrderStatus{
	StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled, StatusFailed,
}

func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled || s == StatusFailed
}

// Cancellable reports whether the customer may still cancel.
func (s OrderStatus) Cancellable() bool {
	return s == StatusPending || s == StatusProcessing
}

type ShippingAddress struct {
	FullName   string `bson:"fullName" json:"fullName"`
	Phone      string `bson:"phone" json:"phone"`
	Address    string `bson:"address" json:"address"`
	City       string `bson:"city" json:"city"`
	PostalCode string `bson:"postalCode,omitempty" json:"postalCode,omitempty"`
	Country    string `bson:"country,omitempty" json:"country,omitempty"`
}

type OrderItem struct {
	ProductID            string       `bson:"productId" json:"productId"`
	Name                 string       `bson:"name" json:"name"`
	Price                float64      `bson:"price" json:"price"`
	OriginalPrice        *float64     `bson:"originalPrice" json:"originalPrice"`
	Image                string       `bson:"image,omitempty" json:"image,omitempty"`
	Quantity             int          `bson:"quantity" json:"quantity"`
	Size                 string       `bson:"size,omitempty" json:"size,omitempty"`
	ColorName            string       `bson:"colorName,omitempty" json:"colorName,omitempty"`
	ColorHex             string       `bson:"colorHex,omitempty" json:"colorHex,omitempty"`
	AppliedDiscountType  DiscountType `bson:"appliedDiscountType,omitempty" json:"appliedDiscountType,omitempty"`
	AppliedDiscountValue float64      `bson:"appliedDiscountValue,omitempty" json:"appliedDiscountValue,omitempty"`
}

func (i OrderItem) UnitPrice() float64 { return i.Price }
func (i OrderItem) Units() int         { return i.Quantity }

// OrderItemFromCart snapshots a cart line.
func OrderItemFromCart(ci CartItem) OrderItem {
	return OrderItem{
		ProductID:            ci.ProductID,
		Name:                 ci.Name,
		Price:                ci.Price,
		OriginalPrice:        ci.OriginalPrice,
		Image:                ci.Image,
		Quantity:             ci.Quantity,
		Size:                 ci.Size,
		ColorName:            ci.ColorName,
		ColorHex:             ci.ColorHex,
		AppliedDiscountType:  ci.AppliedDiscountType,
		AppliedDiscountValue: ci.AppliedDiscountValue,
	}
}

// Order is written once; afterwards only OrderStatus, DeliveredAt and
// UpdatedAt change.
type Order struct {
	ID                   string          `bson:"_id,omitempty" json:"id"`
	UserID               string          `bson:"userId" json:"userId"`
	Items                []OrderItem     `bson:"items" json:"items"`
	Subtotal             float64         `bson:"subtotal" json:"subtotal"`
	ShippingFee          float64         `bson:"shippingFee" json:"shippingFee"`
	TotalAmount          float64         `bson:"totalAmount" json:"totalAmount"`
	ShippingAddress      ShippingAddress `bson:"shippingAddress" json:"shippingAddress"`
	PaymentMethod        string          `bson:"paymentMethod" json:"paymentMethod"`
	OrderStatus          OrderStatus     `bson:"orderStatus" json:"orderStatus"`
	AppliedCouponCode    string          `bson:"appliedCouponCode,omitempty" json:"appliedCouponCode,omitempty"`
	CouponDiscountAmount *float64        `bson:"couponDiscountAmount" json:"couponDiscountAmount"`
	DeliveredAt          *time.Time      `bson:"deliveredAt" json:"deliveredAt"`
	CreatedAt            time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt            time.Time       `bson:"updatedAt" json:"updatedAt"`
}

// OrderFilter narrows order listings. Page is 1-based; a zero PageSize
// means no limit.
type OrderFilter struct {
	UserID   string
	Status   OrderStatus
	Page     int
	PageSize int
}

func (f OrderFilter) Skip() int {
	if f.Page <= 1 || f.PageSize <= 0 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}
