// Package checkout turns a cart into an order: it quotes totals, checks the
// submitted order against the catalog, redeems the coupon and empties the
// cart.
package checkout

import (
	"context"
	"strings"

	"github.com/example/storefront/pkg/apperr"
	"github.com/example/storefront/pkg/coupon"
	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/order"
	"github.com/example/storefront/pkg/pricing"
	"go.uber.org/zap"
)

const (
	CodePriceChanged  = "price_changed"
	CodeTotalMismatch = "total_mismatch"
	CodeInvalidStatus = "invalid_initial_status"
)

type CartService interface {
	Get(ctx context.Context, userID string) (*models.Cart, error)
	Clear(ctx context.Context, userID string) (*models.Cart, error)
}

type CouponService interface {
	Validate(ctx context.Context, code string, subtotal float64) (*coupon.Validation, error)
	Redeem(ctx context.Context, couponID, orderID string) (bool, error)
}

type OrderService interface {
	Create(ctx context.Context, userID string, in order.NewOrder) (*models.Order, error)
}

type PriceLookup interface {
	Quote(ctx context.Context, id string) (*models.Product, pricing.Quote, error)
}

type Config struct {
	ShippingFee float64
	// VerifyTotals rechecks item prices and the grand total against the
	// catalog before the order is written.
	VerifyTotals bool
}

// Summary is the checkout preview for the caller's cart.
type Summary struct {
	pricing.Breakdown
	Items  []models.CartItem  `json:"items"`
	Coupon *coupon.Validation `json:"coupon,omitempty"`
}

type PlaceOrderRequest struct {
	Items                []models.OrderItem     `json:"items"`
	TotalAmount          float64                `json:"totalAmount"`
	ShippingAddress      models.ShippingAddress `json:"shippingAddress"`
	PaymentMethod        string                 `json:"paymentMethod"`
	OrderStatus          models.OrderStatus     `json:"orderStatus"`
	AppliedCouponCode    string                 `json:"appliedCouponCode"`
	CouponDiscountAmount *float64               `json:"couponDiscountAmount"`
}

type Service struct {
	cfg      Config
	carts    CartService
	coupons  CouponService
	orders   OrderService
	products PriceLookup
	logger   *zap.Logger
}

func NewService(cfg Config, carts CartService, coupons CouponService, orders OrderService, products PriceLookup, logger *zap.Logger) *Service {
	return &Service{
		cfg:      cfg,
		carts:    carts,
		coupons:  coupons,
		orders:   orders,
		products: products,
		logger:   logger.Named("checkout"),
	}
}

// Quote prices the caller's current cart, optionally with a coupon.
func (s *Service) Quote(ctx context.Context, userID, couponCode string) (*Summary, error) {
	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	subtotal := pricing.Subtotal(c.Items)
	summary := &Summary{Items: c.Items}

	var discount float64
	if strings.TrimSpace(couponCode) != "" {
		v, err := s.coupons.Validate(ctx, couponCode, subtotal)
		if err != nil {
			return nil, err
		}
		summary.Coupon = v
		discount = v.DiscountAmount
	}

	summary.Breakdown = pricing.Totals(subtotal, s.cfg.ShippingFee, discount)
	return summary, nil
}

// PlaceOrder writes the order and then, best effort, redeems the coupon and
// clears the cart. A failure after the order is written is logged and the
// order stands.
func (s *Service) PlaceOrder(ctx context.Context, userID string, req PlaceOrderRequest) (*models.Order, error) {
	if userID == "" {
		return nil, apperr.Unauthorized("Authentication required")
	}
	if req.OrderStatus != "" && req.OrderStatus != models.StatusPending {
		return nil, apperr.Validation("New orders must start as Pending").WithCode(CodeInvalidStatus)
	}
	if len(req.Items) == 0 {
		return nil, apperr.Validation("Order must contain at least one item").WithCode(order.CodeEmptyOrder)
	}

	subtotal := pricing.Subtotal(req.Items)

	var applied *coupon.Validation
	if strings.TrimSpace(req.AppliedCouponCode) != "" {
		v, err := s.coupons.Validate(ctx, req.AppliedCouponCode, subtotal)
		if err != nil {
			return nil, err
		}
		applied = v
	}

	in := order.NewOrder{
		Items:                req.Items,
		ShippingFee:          pricing.Totals(subtotal, s.cfg.ShippingFee, 0).Shipping,
		TotalAmount:          req.TotalAmount,
		ShippingAddress:      req.ShippingAddress,
		PaymentMethod:        req.PaymentMethod,
		CouponDiscountAmount: req.CouponDiscountAmount,
	}
	if applied != nil {
		in.AppliedCouponCode = applied.Code
	} else {
		// a discount is only recorded alongside a coupon
		in.CouponDiscountAmount = nil
	}

	if s.cfg.VerifyTotals {
		if err := s.verify(ctx, req, subtotal, applied); err != nil {
			return nil, err
		}
		if applied != nil {
			amount := applied.DiscountAmount
			in.CouponDiscountAmount = &amount
		}
	}

	o, err := s.orders.Create(ctx, userID, in)
	if err != nil {
		return nil, err
	}

	if applied != nil {
		if _, err := s.coupons.Redeem(ctx, applied.CouponID, o.ID); err != nil {
			s.logger.Error("Failed to redeem coupon",
				zap.String("order_id", o.ID),
				zap.String("coupon", applied.Code),
				zap.Error(err))
		}
	}
	if _, err := s.carts.Clear(ctx, userID); err != nil {
		s.logger.Error("Failed to clear cart after order",
			zap.String("order_id", o.ID),
			zap.String("user_id", userID),
			zap.Error(err))
	}
	return o, nil
}

func (s *Service) verify(ctx context.Context, req PlaceOrderRequest, subtotal float64, applied *coupon.Validation) error {
	for _, it := range req.Items {
		_, q, err := s.products.Quote(ctx, it.ProductID)
		if apperr.Is(err, apperr.KindNotFound) {
			return apperr.Validationf("Product %s is no longer available", it.ProductID)
		}
		if err != nil {
			return err
		}
		if !pricing.SameAmount(it.Price, q.EffectivePrice) {
			return apperr.Validationf("Price of %s has changed, please review your cart", it.Name).
				WithCode(CodePriceChanged)
		}
	}

	var discount float64
	if applied != nil {
		discount = applied.DiscountAmount
	}
	expected := pricing.Totals(subtotal, s.cfg.ShippingFee, discount)
	if !pricing.SameAmount(req.TotalAmount, expected.GrandTotal) {
		s.logger.Warn("Order total mismatch",
			zap.Float64("submitted", req.TotalAmount),
			zap.Float64("expected", expected.GrandTotal))
		return apperr.Validation("Order total does not match the current prices").WithCode(CodeTotalMismatch)
	}
	return nil
}
