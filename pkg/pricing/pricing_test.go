package pricing

import (
	"testing"

	"github.com/example/storefront/pkg/apperr"
	"github.com/example/storefront/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffectivePrice(t *testing.T) {
	t.Run("percentage", func(t *testing.T) {
		q := EffectivePrice(1000, models.DiscountPercentage, 20)
		assert.Equal(t, 800.0, q.EffectivePrice)
		require.NotNil(t, q.OriginalPrice)
		assert.Equal(t, 1000.0, *q.OriginalPrice)
		assert.Equal(t, "20% OFF", q.DiscountLabel)
	})

	t.Run("fixed", func(t *testing.T) {
		q := EffectivePrice(500, models.DiscountFixed, 100)
		assert.Equal(t, 400.0, q.EffectivePrice)
		require.NotNil(t, q.OriginalPrice)
		assert.Equal(t, 500.0, *q.OriginalPrice)
		assert.Equal(t, "৳100 OFF", q.DiscountLabel)
	})

	t.Run("none", func(t *testing.T) {
		q := EffectivePrice(349.99, models.DiscountNone, 0)
		assert.Equal(t, 349.99, q.EffectivePrice)
		assert.Nil(t, q.OriginalPrice)
		assert.Empty(t, q.DiscountLabel)
	})

	t.Run("fixed clamps at zero", func(t *testing.T) {
		q := EffectivePrice(80, models.DiscountFixed, 100)
		assert.Equal(t, 0.0, q.EffectivePrice)
	})

	t.Run("fractional percentage rounds to cents", func(t *testing.T) {
		q := EffectivePrice(99.99, models.DiscountPercentage, 12.5)
		assert.Equal(t, 87.49, q.EffectivePrice)
		assert.Equal(t, "12.5% OFF", q.DiscountLabel)
	})
}

func TestValidateProductDiscount(t *testing.T) {
	valid := []struct {
		base  float64
		typ   models.DiscountType
		value float64
	}{
		{1000, models.DiscountNone, 0},
		{1000, models.DiscountPercentage, 1},
		{1000, models.DiscountPercentage, 99},
		{500, models.DiscountFixed, 499},
	}
	for _, c := range valid {
		assert.NoError(t, ValidateProductDiscount(c.base, c.typ, c.value))
	}

	invalid := []struct {
		base  float64
		typ   models.DiscountType
		value float64
	}{
		{1000, models.DiscountPercentage, 0},
		{1000, models.DiscountPercentage, 100},
		{500, models.DiscountFixed, 500},
		{500, models.DiscountFixed, -5},
		{500, models.DiscountType("bogo"), 1},
		{-1, models.DiscountNone, 0},
	}
	for _, c := range invalid {
		err := ValidateProductDiscount(c.base, c.typ, c.value)
		assert.True(t, apperr.Is(err, apperr.KindValidation), "%v/%s/%v", c.base, c.typ, c.value)
	}
	assert.Equal(t, `Unknown discount type "bogo"`, apperr.PublicMessage(ValidateProductDiscount(500, "bogo", 1)))
}

func TestCouponDiscount(t *testing.T) {
	assert.Equal(t, 200.0, CouponDiscount(models.DiscountPercentage, 20, 1000))
	assert.Equal(t, 100.0, CouponDiscount(models.DiscountFixed, 100, 1000))
	assert.Equal(t, 300.0, CouponDiscount(models.DiscountFixed, 500, 300))
	assert.Equal(t, 0.0, CouponDiscount(models.DiscountFixed, 100, 0))
	assert.Equal(t, 33.33, CouponDiscount(models.DiscountPercentage, 10, 333.33))
}

func TestTotals(t *testing.T) {
	b := Totals(1000, FlatShippingFee, 100)
	assert.Equal(t, Breakdown{Subtotal: 1000, Shipping: 50, Discount: 100, GrandTotal: 950}, b)

	empty := Totals(0, FlatShippingFee, 0)
	assert.Equal(t, 0.0, empty.Shipping)
	assert.Equal(t, 0.0, empty.GrandTotal)

	capped := Totals(100, FlatShippingFee, 500)
	assert.Equal(t, 150.0, capped.Discount)
	assert.Equal(t, 0.0, capped.GrandTotal)

	negative := Totals(100, FlatShippingFee, -20)
	assert.Equal(t, 0.0, negative.Discount)
	assert.Equal(t, 150.0, negative.GrandTotal)
}

func TestSubtotal(t *testing.T) {
	items := []models.CartItem{
		{Price: 19.99, Quantity: 3},
		{Price: 0.1, Quantity: 3},
	}
	assert.Equal(t, 60.27, Subtotal(items))
	assert.Equal(t, 0.0, Subtotal([]models.OrderItem{}))
}

func TestSameAmount(t *testing.T) {
	assert.True(t, SameAmount(950, 950.004))
	assert.False(t, SameAmount(950, 950.02))
	assert.Equal(t, 0.3, Round2(0.1+0.2))
}
