package models

import (
	"strings"
	"time"
)

type Coupon struct {
	ID                string       `bson:"_id,omitempty" json:"id"`
	Code              string       `bson:"code" json:"code"`
	DiscountType      DiscountType `bson:"discountType" json:"discountType"`
	DiscountValue     float64      `bson:"discountValue" json:"discountValue"`
	ExpiryDate        time.Time    `bson:"expiryDate" json:"expiryDate"`
	MinPurchaseAmount *float64     `bson:"minPurchaseAmount" json:"minPurchaseAmount"`
	UsageLimit        *int         `bson:"usageLimit" json:"usageLimit"`
	UsageCount        int          `bson:"usageCount" json:"usageCount"`
	IsActive          bool         `bson:"isActive" json:"isActive"`
	RedeemedOrderIDs  []string     `bson:"redeemedOrderIds,omitempty" json:"-"`
	CreatedAt         time.Time    `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time    `bson:"updatedAt" json:"updatedAt"`
}

// NormalizeCouponCode is the stored form of a code: trimmed, upper case.
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (c *Coupon) Exhausted() bool {
	return c.UsageLimit != nil && c.UsageCount >= *c.UsageLimit
}

func (c *Coupon) Expired(now time.Time) bool {
	return !now.Before(c.ExpiryDate)
}

func (c *Coupon) RedeemedFor(orderID string) bool {
	for _, id := range c.RedeemedOrderIDs {
		if id == orderID {
			return true
		}
	}
	return false
}
