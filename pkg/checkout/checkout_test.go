package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/example/storefront/pkg/apperr"
	"github.com/example/storefront/pkg/cart"
	"github.com/example/storefront/pkg/catalog"
	"github.com/example/storefront/pkg/coupon"
	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/order"
	"github.com/example/storefront/pkg/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const userID = "u1"

type fixture struct {
	svc    *Service
	store  *memory.Store
	carts  *cart.Service
	orders *order.Service
	coupon *models.Coupon
	ctx    context.Context
}

func newFixture(t *testing.T, verify bool) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	for _, p := range []*models.Product{
		{ID: "shirt", Name: "Linen shirt", Price: 1000, DiscountType: models.DiscountPercentage, DiscountValue: 20, Stock: 10},
		{ID: "mug", Name: "Mug", Price: 500, DiscountType: models.DiscountFixed, DiscountValue: 100, Stock: 10},
	} {
		require.NoError(t, store.InsertProduct(ctx, p))
	}
	limit := 1
	c := &models.Coupon{
		Code:          "SAVE10",
		DiscountType:  models.DiscountPercentage,
		DiscountValue: 10,
		ExpiryDate:    time.Now().Add(24 * time.Hour),
		UsageLimit:    &limit,
		IsActive:      true,
	}
	require.NoError(t, store.InsertCoupon(ctx, c))

	logger := zap.NewNop()
	products := catalog.NewService(store, logger)
	carts := cart.NewService(store, products, logger)
	coupons := coupon.NewService(store, logger)
	orders := order.NewService(store, products, nil, logger)
	svc := NewService(Config{ShippingFee: 50, VerifyTotals: verify}, carts, coupons, orders, products, logger)

	f := &fixture{svc: svc, store: store, carts: carts, orders: orders, coupon: c, ctx: ctx}
	f.add(t, "shirt", 1)
	f.add(t, "mug", 1)
	return f
}

func (f *fixture) add(t *testing.T, productID string, qty int) {
	t.Helper()
	_, err := f.carts.AddItem(f.ctx, userID, cart.AddItemRequest{ProductID: productID, Quantity: qty})
	require.NoError(t, err)
}

func (f *fixture) request(t *testing.T, total float64, code string) PlaceOrderRequest {
	t.Helper()
	c, err := f.carts.Get(f.ctx, userID)
	require.NoError(t, err)
	items := make([]models.OrderItem, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, models.OrderItemFromCart(it))
	}
	return PlaceOrderRequest{
		Items:             items,
		TotalAmount:       total,
		ShippingAddress:   models.ShippingAddress{FullName: "Rahim Uddin", Phone: "01700000000", Address: "House 7", City: "Dhaka"},
		PaymentMethod:     "cod",
		OrderStatus:       models.StatusPending,
		AppliedCouponCode: code,
	}
}

func TestQuote(t *testing.T) {
	f := newFixture(t, true)

	s, err := f.svc.Quote(f.ctx, userID, "")
	require.NoError(t, err)
	assert.Equal(t, 1200.0, s.Subtotal)
	assert.Equal(t, 50.0, s.Shipping)
	assert.Equal(t, 0.0, s.Discount)
	assert.Equal(t, 1250.0, s.GrandTotal)
	assert.Nil(t, s.Coupon)

	s, err = f.svc.Quote(f.ctx, userID, "save10")
	require.NoError(t, err)
	assert.Equal(t, 120.0, s.Discount)
	assert.Equal(t, 1130.0, s.GrandTotal)
	require.NotNil(t, s.Coupon)
	assert.Equal(t, "SAVE10", s.Coupon.Code)
}

func TestQuote_EmptyCartHasNoShipping(t *testing.T) {
	f := newFixture(t, true)

	s, err := f.svc.Quote(f.ctx, "someone-else", "")
	require.NoError(t, err)
	assert.Equal(t, 0.0, s.Shipping)
	assert.Equal(t, 0.0, s.GrandTotal)
}

func TestPlaceOrder_WithCoupon(t *testing.T) {
	f := newFixture(t, true)

	o, err := f.svc.PlaceOrder(f.ctx, userID, f.request(t, 1130, "save10"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, o.OrderStatus)
	assert.Equal(t, 1130.0, o.TotalAmount)
	assert.Equal(t, 50.0, o.ShippingFee)
	assert.Equal(t, "SAVE10", o.AppliedCouponCode)
	require.NotNil(t, o.CouponDiscountAmount)
	assert.Equal(t, 120.0, *o.CouponDiscountAmount)

	c, err := f.store.GetCoupon(f.ctx, f.coupon.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, c.UsageCount)

	remaining, err := f.carts.Get(f.ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, remaining.Items)

	// the single-use coupon is now exhausted
	f.add(t, "mug", 1)
	_, err = f.svc.PlaceOrder(f.ctx, userID, f.request(t, 410, "SAVE10"))
	assert.Equal(t, coupon.CodeUsageLimit, apperr.CodeOf(err))
}

func TestPlaceOrder_WithoutCoupon(t *testing.T) {
	f := newFixture(t, true)

	o, err := f.svc.PlaceOrder(f.ctx, userID, f.request(t, 1250, ""))
	require.NoError(t, err)
	assert.Empty(t, o.AppliedCouponCode)
	assert.Nil(t, o.CouponDiscountAmount)

	stored, err := f.orders.GetForUser(f.ctx, userID, o.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Items, 2)
}

func TestPlaceOrder_Rejections(t *testing.T) {
	f := newFixture(t, true)

	req := f.request(t, 1250, "")
	req.OrderStatus = models.StatusDelivered
	_, err := f.svc.PlaceOrder(f.ctx, userID, req)
	assert.Equal(t, CodeInvalidStatus, apperr.CodeOf(err))

	req = f.request(t, 1250, "")
	req.Items[0].Price = 1
	_, err = f.svc.PlaceOrder(f.ctx, userID, req)
	assert.Equal(t, CodePriceChanged, apperr.CodeOf(err))

	_, err = f.svc.PlaceOrder(f.ctx, userID, f.request(t, 999, ""))
	assert.Equal(t, CodeTotalMismatch, apperr.CodeOf(err))

	_, err = f.svc.PlaceOrder(f.ctx, userID, f.request(t, 1250, "NOPE"))
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	req = f.request(t, 0, "")
	req.Items = nil
	_, err = f.svc.PlaceOrder(f.ctx, userID, req)
	assert.Equal(t, order.CodeEmptyOrder, apperr.CodeOf(err))

	_, err = f.svc.PlaceOrder(f.ctx, "", f.request(t, 1250, ""))
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))

	// nothing was written and the cart is intact
	orders, err := f.orders.ListForUser(f.ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, orders)
	c, err := f.carts.Get(f.ctx, userID)
	require.NoError(t, err)
	assert.Len(t, c.Items, 2)
}

func TestPlaceOrder_UnverifiedTotalStoredVerbatim(t *testing.T) {
	f := newFixture(t, false)

	req := f.request(t, 1, "save10")
	discount := 5.0
	req.CouponDiscountAmount = &discount
	o, err := f.svc.PlaceOrder(f.ctx, userID, req)
	require.NoError(t, err)
	assert.Equal(t, 1.0, o.TotalAmount)
	assert.Equal(t, "SAVE10", o.AppliedCouponCode)
	require.NotNil(t, o.CouponDiscountAmount)
	assert.Equal(t, 5.0, *o.CouponDiscountAmount)
}

func TestPlaceOrder_DiscountWithoutCouponDropped(t *testing.T) {
	f := newFixture(t, false)

	req := f.request(t, 750, "")
	discount := 500.0
	req.CouponDiscountAmount = &discount
	o, err := f.svc.PlaceOrder(f.ctx, userID, req)
	require.NoError(t, err)
	assert.Empty(t, o.AppliedCouponCode)
	assert.Nil(t, o.CouponDiscountAmount)

	stored, err := f.orders.GetForUser(f.ctx, userID, o.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.CouponDiscountAmount)
}
