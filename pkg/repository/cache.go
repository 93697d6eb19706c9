package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/storefront/pkg/models"
	"go.uber.org/zap"
)

// Cache is the subset of RedisRepository the read-through stores use.
type Cache interface {
	SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	GetJSON(ctx context.Context, key string, dest interface{}) error
	Del(ctx context.Context, keys ...string) error
}

type ProductStore interface {
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	InsertProduct(ctx context.Context, p *models.Product) error
	UpdateProduct(ctx context.Context, p *models.Product) error
	DecrementStock(ctx context.Context, id string, qty int) error
}

type OrderStore interface {
	InsertOrder(ctx context.Context, o *models.Order) error
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	ListOrders(ctx context.Context, f models.OrderFilter) ([]*models.Order, int64, error)
	SetOrderStatus(ctx context.Context, id string, status models.OrderStatus, now time.Time) (*models.Order, error)
	CancelOrder(ctx context.Context, id, userID string, from []models.OrderStatus, now time.Time) (*models.Order, error)
}

func productKey(id string) string { return fmt.Sprintf("product:%s", id) }
func orderKey(id string) string   { return fmt.Sprintf("order:%s", id) }

// readThrough serves key from the cache or loads and caches it. Cache
// failures are logged and never fail the request.
func readThrough[T any](ctx context.Context, cache Cache, logger *zap.Logger, key string, ttl time.Duration, load func() (*T, error)) (*T, error) {
	var cached T
	err := cache.GetJSON(ctx, key, &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		logger.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
	}

	v, err := load()
	if err != nil {
		return nil, err
	}
	if err := cache.SetJSON(ctx, key, v, ttl); err != nil {
		logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
	}
	return v, nil
}

func invalidate(ctx context.Context, cache Cache, logger *zap.Logger, key string) {
	if err := cache.Del(ctx, key); err != nil {
		logger.Warn("Cache invalidation failed", zap.String("key", key), zap.Error(err))
	}
}

// CachedProductStore caches product lookups in Redis and drops the entry on
// every write.
type CachedProductStore struct {
	ProductStore
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedProductStore(store ProductStore, cache Cache, ttl time.Duration, logger *zap.Logger) *CachedProductStore {
	return &CachedProductStore{ProductStore: store, cache: cache, ttl: ttl, logger: logger.Named("product_cache")}
}

func (s *CachedProductStore) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	return readThrough(ctx, s.cache, s.logger, productKey(id), s.ttl, func() (*models.Product, error) {
		return s.ProductStore.GetProduct(ctx, id)
	})
}

func (s *CachedProductStore) UpdateProduct(ctx context.Context, p *models.Product) error {
	err := s.ProductStore.UpdateProduct(ctx, p)
	invalidate(ctx, s.cache, s.logger, productKey(p.ID))
	return err
}

func (s *CachedProductStore) DecrementStock(ctx context.Context, id string, qty int) error {
	err := s.ProductStore.DecrementStock(ctx, id, qty)
	invalidate(ctx, s.cache, s.logger, productKey(id))
	return err
}

// CachedOrderStore caches single-order reads; status changes drop the entry.
type CachedOrderStore struct {
	OrderStore
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedOrderStore(store OrderStore, cache Cache, ttl time.Duration, logger *zap.Logger) *CachedOrderStore {
	return &CachedOrderStore{OrderStore: store, cache: cache, ttl: ttl, logger: logger.Named("order_cache")}
}

func (s *CachedOrderStore) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	return readThrough(ctx, s.cache, s.logger, orderKey(id), s.ttl, func() (*models.Order, error) {
		return s.OrderStore.GetOrder(ctx, id)
	})
}

func (s *CachedOrderStore) SetOrderStatus(ctx context.Context, id string, status models.OrderStatus, now time.Time) (*models.Order, error) {
	previous, err := s.OrderStore.SetOrderStatus(ctx, id, status, now)
	invalidate(ctx, s.cache, s.logger, orderKey(id))
	return previous, err
}

func (s *CachedOrderStore) CancelOrder(ctx context.Context, id, userID string, from []models.OrderStatus, now time.Time) (*models.Order, error) {
	o, err := s.OrderStore.CancelOrder(ctx, id, userID, from, now)
	if err == nil {
		invalidate(ctx, s.cache, s.logger, orderKey(id))
	}
	return o, err
}
