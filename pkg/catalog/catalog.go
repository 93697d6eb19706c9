// Package catalog is the product lookup the cart and order flows depend on,
// plus the admin writes that keep product discounts valid.
package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/example/storefront/pkg/apperr"
	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/pricing"
	"go.uber.org/zap"
)

type Store interface {
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	InsertProduct(ctx context.Context, p *models.Product) error
	UpdateProduct(ctx context.Context, p *models.Product) error
	// DecrementStock lowers stock atomically. Stock may go negative.
	DecrementStock(ctx context.Context, id string, qty int) error
}

type ProductInput struct {
	Name          string              `json:"name"`
	Image         string              `json:"image"`
	Price         float64             `json:"price"`
	DiscountType  models.DiscountType `json:"discountType"`
	DiscountValue float64             `json:"discountValue"`
	Stock         int                 `json:"stock"`
	Colors        []models.Color      `json:"colors"`
	Sizes         []string            `json:"sizes"`
}

func (in ProductInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return apperr.Validation("Product name is required")
	}
	if in.Stock < 0 {
		return apperr.Validation("Stock must not be negative")
	}
	return pricing.ValidateProductDiscount(in.Price, in.DiscountType, in.DiscountValue)
}

type Service struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

func NewService(store Store, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger.Named("catalog"), now: time.Now}
}

func (s *Service) Get(ctx context.Context, id string) (*models.Product, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperr.Validation("Product id is required")
	}
	return s.store.GetProduct(ctx, id)
}

// Quote returns the product with its current effective price.
func (s *Service) Quote(ctx context.Context, id string) (*models.Product, pricing.Quote, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, pricing.Quote{}, err
	}
	return p, pricing.EffectivePrice(p.Price, p.DiscountType, p.DiscountValue), nil
}

func (s *Service) Create(ctx context.Context, in ProductInput) (*models.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	p := &models.Product{CreatedAt: now}
	apply(p, in, now)
	if err := s.store.InsertProduct(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("Product created", zap.String("product_id", p.ID))
	return p, nil
}

func (s *Service) Update(ctx context.Context, id string, in ProductInput) (*models.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	apply(p, in, s.now().UTC())
	if err := s.store.UpdateProduct(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) DecrementStock(ctx context.Context, id string, qty int) error {
	if qty <= 0 {
		return apperr.Validation("Quantity must be positive")
	}
	return s.store.DecrementStock(ctx, id, qty)
}

func apply(p *models.Product, in ProductInput, now time.Time) {
	p.Name = strings.TrimSpace(in.Name)
	p.Image = in.Image
	p.Price = pricing.Round2(in.Price)
	p.DiscountType = in.DiscountType
	p.DiscountValue = in.DiscountValue
	if in.DiscountType == models.DiscountNone {
		p.DiscountValue = 0
	}
	p.Stock = in.Stock
	p.Colors = in.Colors
	p.Sizes = in.Sizes
	p.UpdatedAt = now
}
