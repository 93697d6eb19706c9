// Package wishlist keeps a per-user set of product ids.
package wishlist

import (
	"context"
	"strings"
	"time"

	"github.com/example/storefront/pkg/apperr"
	"github.com/example/storefront/pkg/models"
	"go.uber.org/zap"
)

type Store interface {
	GetWishlist(ctx context.Context, userID string) (*models.Wishlist, error)
	// AddToWishlist inserts productID unless present, creating the wishlist
	// when needed.
	AddToWishlist(ctx context.Context, userID, productID string, now time.Time) (*models.Wishlist, error)
	RemoveFromWishlist(ctx context.Context, userID, productID string, now time.Time) (*models.Wishlist, error)
}

type ProductLookup interface {
	Get(ctx context.Context, id string) (*models.Product, error)
}

type Service struct {
	store    Store
	products ProductLookup
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(store Store, products ProductLookup, logger *zap.Logger) *Service {
	return &Service{store: store, products: products, logger: logger.Named("wishlist"), now: time.Now}
}

func (s *Service) Get(ctx context.Context, userID string) (*models.Wishlist, error) {
	if userID == "" {
		return nil, apperr.Unauthorized("Authentication required")
	}
	w, err := s.store.GetWishlist(ctx, userID)
	if apperr.Is(err, apperr.KindNotFound) {
		return &models.Wishlist{UserID: userID, ProductIDs: []string{}}, nil
	}
	return w, err
}

// Add is idempotent. Unknown products are rejected.
func (s *Service) Add(ctx context.Context, userID, productID string) (*models.Wishlist, error) {
	productID, err := check(userID, productID)
	if err != nil {
		return nil, err
	}
	if _, err := s.products.Get(ctx, productID); err != nil {
		return nil, err
	}
	w, err := s.store.AddToWishlist(ctx, userID, productID, s.now().UTC())
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Wishlist item added", zap.String("user_id", userID), zap.String("product_id", productID))
	return w, nil
}

// Remove succeeds whether or not the product was listed.
func (s *Service) Remove(ctx context.Context, userID, productID string) (*models.Wishlist, error) {
	productID, err := check(userID, productID)
	if err != nil {
		return nil, err
	}
	return s.store.RemoveFromWishlist(ctx, userID, productID, s.now().UTC())
}

func check(userID, productID string) (string, error) {
	if userID == "" {
		return "", apperr.Unauthorized("Authentication required")
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return "", apperr.Validation("Product id is required")
	}
	return productID, nil
}
