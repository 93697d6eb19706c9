// Package cart manages the per-user shopping cart. Lines are keyed by
// product, size and color; adding an existing key raises its quantity.
package cart

import (
	"context"
	"strings"
	"time"

	"github.com/example/storefront/pkg/apperr"
	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/pricing"
	"go.uber.org/zap"
)

const (
	CodeInvalidQuantity = "invalid_quantity"
	CodeItemNotFound    = "item_not_found"
	CodeInvalidVariant  = "invalid_variant"
)

type Store interface {
	GetCart(ctx context.Context, userID string) (*models.Cart, error)
	// AddCartItem merges into the line with the same cart key or appends,
	// creating the cart when needed.
	AddCartItem(ctx context.Context, userID string, item models.CartItem, now time.Time) (*models.Cart, error)
	SetCartItemQuantity(ctx context.Context, userID, cartKey string, qty int, now time.Time) (*models.Cart, error)
	RemoveCartItem(ctx context.Context, userID, cartKey string, now time.Time) (*models.Cart, error)
	ClearCart(ctx context.Context, userID string, now time.Time) (*models.Cart, error)
}

type ProductLookup interface {
	Get(ctx context.Context, id string) (*models.Product, error)
}

type AddItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size"`
	ColorName string `json:"colorName"`
	ColorHex  string `json:"colorHex"`
}

type Service struct {
	store    Store
	products ProductLookup
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(store Store, products ProductLookup, logger *zap.Logger) *Service {
	return &Service{
		store:    store,
		products: products,
		logger:   logger.Named("cart"),
		now:      time.Now,
	}
}

func requireUser(userID string) error {
	if userID == "" {
		return apperr.Unauthorized("Authentication required")
	}
	return nil
}

// Get returns the caller's cart; a user who never added anything gets an
// empty cart.
func (s *Service) Get(ctx context.Context, userID string) (*models.Cart, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	c, err := s.store.GetCart(ctx, userID)
	if apperr.Is(err, apperr.KindNotFound) {
		return models.EmptyCart(userID), nil
	}
	return c, err
}

func (s *Service) AddItem(ctx context.Context, userID string, req AddItemRequest) (*models.Cart, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if req.Quantity < 1 {
		return nil, apperr.Validation("Quantity must be at least 1").WithCode(CodeInvalidQuantity)
	}

	p, err := s.products.Get(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	item, err := snapshot(p, req)
	if err != nil {
		return nil, err
	}

	c, err := s.store.AddCartItem(ctx, userID, item, s.now().UTC())
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Cart item added",
		zap.String("user_id", userID),
		zap.String("cart_key", item.CartKey),
		zap.Int("quantity", req.Quantity))
	return c, nil
}

func (s *Service) UpdateItemQuantity(ctx context.Context, userID, cartKey string, quantity int) (*models.Cart, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if quantity < 1 {
		return nil, apperr.Validation("Quantity must be at least 1").WithCode(CodeInvalidQuantity)
	}
	c, err := s.store.SetCartItemQuantity(ctx, userID, cartKey, quantity, s.now().UTC())
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, apperr.NotFound("Item not in cart").WithCode(CodeItemNotFound)
	}
	return c, err
}

// RemoveItem drops a line. Removing a key that is not in the cart succeeds
// and returns the cart unchanged.
func (s *Service) RemoveItem(ctx context.Context, userID, cartKey string) (*models.Cart, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return s.store.RemoveCartItem(ctx, userID, cartKey, s.now().UTC())
}

func (s *Service) Clear(ctx context.Context, userID string) (*models.Cart, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return s.store.ClearCart(ctx, userID, s.now().UTC())
}

// snapshot prices a new cart line from the catalog as it stands now.
func snapshot(p *models.Product, req AddItemRequest) (models.CartItem, error) {
	size := strings.TrimSpace(req.Size)
	if size != "" && len(p.Sizes) > 0 && !contains(p.Sizes, size) {
		return models.CartItem{}, apperr.Validationf("Size %q is not available", size).WithCode(CodeInvalidVariant)
	}

	image := p.Image
	colorName := strings.TrimSpace(req.ColorName)
	colorHex := req.ColorHex
	if colorName != "" && len(p.Colors) > 0 {
		color, ok := findColor(p.Colors, colorName)
		if !ok {
			return models.CartItem{}, apperr.Validationf("Color %q is not available", colorName).WithCode(CodeInvalidVariant)
		}
		colorName = color.Name
		if color.Image != "" {
			image = color.Image
		}
		if colorHex == "" {
			colorHex = color.Hex
		}
	}

	q := pricing.EffectivePrice(p.Price, p.DiscountType, p.DiscountValue)
	item := models.CartItem{
		ProductID:     p.ID,
		Name:          p.Name,
		Image:         image,
		Price:         q.EffectivePrice,
		OriginalPrice: q.OriginalPrice,
		Quantity:      req.Quantity,
		Size:          size,
		ColorName:     colorName,
		ColorHex:      colorHex,
		CartKey:       models.CartKey(p.ID, size, colorName),
	}
	if q.OriginalPrice != nil {
		item.AppliedDiscountType = p.DiscountType
		item.AppliedDiscountValue = p.DiscountValue
	}
	return item, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func findColor(colors []models.Color, name string) (models.Color, bool) {
	for _, c := range colors {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return models.Color{}, false
}
