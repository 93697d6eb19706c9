// Package coupon validates coupon codes against a cart subtotal and records
// redemptions once per order.
package coupon

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/example/storefront/pkg/apperr"
	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/pricing"
	"go.uber.org/zap"
)

const (
	CodeMalformed   = "coupon_malformed"
	CodeNotFound    = "coupon_not_found"
	CodeInactive    = "coupon_inactive"
	CodeExpired     = "coupon_expired"
	CodeUsageLimit  = "coupon_usage_limit_reached"
	CodeMinPurchase = "coupon_min_purchase_not_met"
)

var codePattern = regexp.MustCompile(`^[A-Z0-9_-]{1,32}$`)

type Store interface {
	GetCouponByCode(ctx context.Context, code string) (*models.Coupon, error)
	GetCoupon(ctx context.Context, id string) (*models.Coupon, error)
	ListCoupons(ctx context.Context) ([]*models.Coupon, error)
	InsertCoupon(ctx context.Context, c *models.Coupon) error
	// UpdateCoupon replaces the editable fields; usage bookkeeping is kept.
	UpdateCoupon(ctx context.Context, c *models.Coupon) error
	DeleteCoupon(ctx context.Context, id string) error
	// IncrementCouponUsage adds one use for orderID unless that order was
	// already counted or the usage limit is reached. It reports whether the
	// count changed.
	IncrementCouponUsage(ctx context.Context, id, orderID string, now time.Time) (bool, error)
}

// Validation is the outcome of a successful Validate.
type Validation struct {
	CouponID       string              `json:"-"`
	Code           string              `json:"code"`
	DiscountType   models.DiscountType `json:"discountType"`
	DiscountValue  float64             `json:"discountValue"`
	DiscountAmount float64             `json:"discountAmount"`
}

type Service struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

func NewService(store Store, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger.Named("coupon"), now: time.Now}
}

// Validate checks code against the subtotal. The discount is capped at the
// subtotal; the shipping cap is applied by checkout.
func (s *Service) Validate(ctx context.Context, code string, subtotal float64) (*Validation, error) {
	normalized := models.NormalizeCouponCode(code)
	if !codePattern.MatchString(normalized) {
		return nil, apperr.Validation("Invalid coupon code").WithCode(CodeMalformed)
	}
	if subtotal < 0 {
		return nil, apperr.Validation("Cart subtotal must not be negative")
	}

	c, err := s.store.GetCouponByCode(ctx, normalized)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, apperr.NotFound("Coupon not found").WithCode(CodeNotFound)
	}
	if err != nil {
		return nil, err
	}

	if err := check(c, subtotal, s.now()); err != nil {
		return nil, err
	}

	return &Validation{
		CouponID:       c.ID,
		Code:           c.Code,
		DiscountType:   c.DiscountType,
		DiscountValue:  c.DiscountValue,
		DiscountAmount: pricing.CouponDiscount(c.DiscountType, c.DiscountValue, subtotal),
	}, nil
}

func check(c *models.Coupon, subtotal float64, now time.Time) error {
	switch {
	case !c.IsActive:
		return apperr.Conflict("Coupon is not active").WithCode(CodeInactive)
	case c.Expired(now):
		return apperr.Conflict("Coupon has expired").WithCode(CodeExpired)
	case c.Exhausted():
		return apperr.Conflict("Coupon usage limit reached").WithCode(CodeUsageLimit)
	case c.MinPurchaseAmount != nil && subtotal < *c.MinPurchaseAmount:
		return apperr.Conflict(fmt.Sprintf("Minimum purchase of %s%s required for this coupon",
			pricing.CurrencySymbol, strconv.FormatFloat(*c.MinPurchaseAmount, 'f', -1, 64))).WithCode(CodeMinPurchase)
	}
	return nil
}

// Redeem counts one use of the coupon for orderID. Calling it again for the
// same order is a no-op and returns false.
func (s *Service) Redeem(ctx context.Context, couponID, orderID string) (bool, error) {
	if couponID == "" || orderID == "" {
		return false, apperr.Validation("Coupon id and order id are required")
	}

	ok, err := s.store.IncrementCouponUsage(ctx, couponID, orderID, s.now().UTC())
	if err != nil {
		return false, err
	}
	if ok {
		s.logger.Info("Coupon redeemed", zap.String("coupon_id", couponID), zap.String("order_id", orderID))
		return true, nil
	}

	c, err := s.store.GetCoupon(ctx, couponID)
	if err != nil {
		return false, err
	}
	if c.RedeemedFor(orderID) {
		return false, nil
	}
	return false, apperr.Conflict("Coupon usage limit reached").WithCode(CodeUsageLimit)
}
