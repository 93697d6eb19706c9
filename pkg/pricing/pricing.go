// Package pricing computes effective unit prices, coupon discounts and
// checkout totals. Amounts are float64 at the edges and decimal inside,
// rounded to two places.
package pricing

import (
	"strconv"

	"github.com/example/storefront/pkg/apperr"
	"github.com/example/storefront/pkg/models"
	"github.com/shopspring/decimal"
)

// FlatShippingFee applies to every non-empty order unless configured otherwise.
const FlatShippingFee = 50.0

// CurrencySymbol prefixes fixed discount labels.
const CurrencySymbol = "৳"

var hundred = decimal.NewFromInt(100)

type Quote struct {
	EffectivePrice float64  `json:"effectivePrice"`
	OriginalPrice  *float64 `json:"originalPrice"`
	DiscountLabel  string   `json:"discountLabel,omitempty"`
}

// Breakdown is the checkout summary shown before and stored with an order.
type Breakdown struct {
	Subtotal   float64 `json:"subtotal"`
	Shipping   float64 `json:"shipping"`
	Discount   float64 `json:"discount"`
	GrandTotal float64 `json:"grandTotal"`
}

// Line is anything with a unit price and a quantity.
type Line interface {
	UnitPrice() float64
	Units() int
}

func round(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// Round2 rounds an amount to cents.
func Round2(v float64) float64 {
	return round(decimal.NewFromFloat(v))
}

// EffectivePrice applies a product discount to its base price. Inputs are
// expected to have passed ValidateProductDiscount.
func EffectivePrice(base float64, discountType models.DiscountType, discountValue float64) Quote {
	b := decimal.NewFromFloat(base)
	v := decimal.NewFromFloat(discountValue)

	var effective decimal.Decimal
	switch discountType {
	case models.DiscountPercentage:
		effective = b.Mul(decimal.NewFromInt(1).Sub(v.Div(hundred)))
	case models.DiscountFixed:
		effective = b.Sub(v)
	default:
		return Quote{EffectivePrice: round(b)}
	}
	if effective.IsNegative() {
		effective = decimal.Zero
	}

	original := round(b)
	return Quote{
		EffectivePrice: round(effective),
		OriginalPrice:  &original,
		DiscountLabel:  Label(discountType, discountValue),
	}
}

// Label renders the badge text for a discount, e.g. "20% OFF" or "৳100 OFF".
func Label(discountType models.DiscountType, discountValue float64) string {
	value := strconv.FormatFloat(discountValue, 'f', -1, 64)
	switch discountType {
	case models.DiscountPercentage:
		return value + "% OFF"
	case models.DiscountFixed:
		return CurrencySymbol + value + " OFF"
	default:
		return ""
	}
}

// ValidateProductDiscount is the admin-side check that keeps EffectivePrice
// inputs sane.
func ValidateProductDiscount(base float64, discountType models.DiscountType, discountValue float64) error {
	if base < 0 {
		return apperr.Validation("Price must not be negative")
	}
	if !discountType.Valid() {
		return apperr.Validationf("Unknown discount type %q", discountType)
	}
	switch discountType {
	case models.DiscountNone:
		return nil
	case models.DiscountPercentage:
		if discountValue < 1 || discountValue > 99 {
			return apperr.Validation("Percentage discount must be between 1 and 99")
		}
	case models.DiscountFixed:
		if discountValue <= 0 {
			return apperr.Validation("Discount value must be positive")
		}
		if discountValue >= base {
			return apperr.Validation("Fixed discount must be less than the price")
		}
	}
	return nil
}

// CouponDiscount computes a coupon's discount against a subtotal, capped at
// the subtotal.
func CouponDiscount(discountType models.DiscountType, discountValue, subtotal float64) float64 {
	s := decimal.NewFromFloat(subtotal)
	if !s.IsPositive() {
		return 0
	}
	v := decimal.NewFromFloat(discountValue)

	var d decimal.Decimal
	switch discountType {
	case models.DiscountPercentage:
		d = s.Mul(v).Div(hundred)
	case models.DiscountFixed:
		d = v
	default:
		return 0
	}
	if d.IsNegative() {
		return 0
	}
	if d.GreaterThan(s) {
		d = s
	}
	return round(d)
}

// Subtotal sums price × quantity over the lines.
func Subtotal[L Line](lines []L) float64 {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(decimal.NewFromFloat(l.UnitPrice()).Mul(decimal.NewFromInt(int64(l.Units()))))
	}
	return round(sum)
}

// Totals builds the checkout breakdown. Shipping is charged only on a
// non-empty subtotal; the discount never pushes the total below zero.
func Totals(subtotal, shippingFee, couponDiscount float64) Breakdown {
	s := decimal.NewFromFloat(subtotal)
	shipping := decimal.Zero
	if s.IsPositive() {
		shipping = decimal.NewFromFloat(shippingFee)
	}

	discount := decimal.NewFromFloat(couponDiscount)
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	if ceiling := s.Add(shipping); discount.GreaterThan(ceiling) {
		discount = ceiling
	}

	grand := s.Add(shipping).Sub(discount)
	if grand.IsNegative() {
		grand = decimal.Zero
	}

	return Breakdown{
		Subtotal:   round(s),
		Shipping:   round(shipping),
		Discount:   round(discount),
		GrandTotal: round(grand),
	}
}

// SameAmount compares two money values at cent precision.
func SameAmount(a, b float64) bool {
	return decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)).Abs().LessThan(decimal.New(1, -2))
}
