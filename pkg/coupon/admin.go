package coupon

import (
	"context"
	"time"

	"github.com/example/storefront/pkg/apperr"
	"github.com/example/storefront/pkg/models"
	"go.uber.org/zap"
)

// Input is the admin form for creating or editing a coupon.
type Input struct {
	Code              string              `json:"code"`
	DiscountType      models.DiscountType `json:"discountType"`
	DiscountValue     float64             `json:"discountValue"`
	ExpiryDate        time.Time           `json:"expiryDate"`
	MinPurchaseAmount *float64            `json:"minPurchaseAmount"`
	UsageLimit        *int                `json:"usageLimit"`
	IsActive          *bool               `json:"isActive"`
}

func (in Input) validate() error {
	if !codePattern.MatchString(models.NormalizeCouponCode(in.Code)) {
		return apperr.Validation("Coupon code must be 1-32 letters, digits, '-' or '_'").WithCode(CodeMalformed)
	}
	switch in.DiscountType {
	case models.DiscountPercentage:
		if in.DiscountValue <= 0 || in.DiscountValue > 100 {
			return apperr.Validation("Percentage discount must be greater than 0 and at most 100")
		}
	case models.DiscountFixed:
		if in.DiscountValue <= 0 {
			return apperr.Validation("Fixed discount must be positive")
		}
	default:
		return apperr.Validation("Discount type must be percentage or fixed")
	}
	if in.ExpiryDate.IsZero() {
		return apperr.Validation("Expiry date is required")
	}
	if in.MinPurchaseAmount != nil && *in.MinPurchaseAmount < 0 {
		return apperr.Validation("Minimum purchase amount must not be negative")
	}
	if in.UsageLimit != nil && *in.UsageLimit < 1 {
		return apperr.Validation("Usage limit must be at least 1")
	}
	return nil
}

func (s *Service) Create(ctx context.Context, in Input) (*models.Coupon, error) {
	now := s.now().UTC()
	if err := in.validate(); err != nil {
		return nil, err
	}
	if !in.ExpiryDate.After(now) {
		return nil, apperr.Validation("Expiry date must be in the future")
	}

	c := &models.Coupon{CreatedAt: now, IsActive: true}
	apply(c, in, now)
	if err := s.store.InsertCoupon(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Info("Coupon created", zap.String("coupon_id", c.ID), zap.String("code", c.Code))
	return c, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Coupon, error) {
	return s.store.GetCoupon(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*models.Coupon, error) {
	return s.store.ListCoupons(ctx)
}

func (s *Service) Update(ctx context.Context, id string, in Input) (*models.Coupon, error) {
	now := s.now().UTC()
	if err := in.validate(); err != nil {
		return nil, err
	}
	c, err := s.store.GetCoupon(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.UsageLimit != nil && *in.UsageLimit < c.UsageCount {
		return nil, apperr.Validation("Usage limit cannot be below the current usage count")
	}

	apply(c, in, now)
	if err := s.store.UpdateCoupon(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.DeleteCoupon(ctx, id)
}

func apply(c *models.Coupon, in Input, now time.Time) {
	c.Code = models.NormalizeCouponCode(in.Code)
	c.DiscountType = in.DiscountType
	c.DiscountValue = in.DiscountValue
	c.ExpiryDate = in.ExpiryDate.UTC()
	c.MinPurchaseAmount = in.MinPurchaseAmount
	c.UsageLimit = in.UsageLimit
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
	c.UpdatedAt = now
}
