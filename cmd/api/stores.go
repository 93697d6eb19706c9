package main

import (
	"context"
	"fmt"

	"github.com/example/storefront/pkg/cart"
	"github.com/example/storefront/pkg/catalog"
	"github.com/example/storefront/pkg/config"
	"github.com/example/storefront/pkg/coupon"
	"github.com/example/storefront/pkg/grpc"
	"github.com/example/storefront/pkg/order"
	"github.com/example/storefront/pkg/repository"
	"github.com/example/storefront/pkg/repository/memory"
	"github.com/example/storefront/pkg/wishlist"
	"go.uber.org/zap"
)

type backend interface {
	catalog.Store
	cart.Store
	coupon.Store
	order.Store
	wishlist.Store
}

type stores struct {
	products  catalog.Store
	carts     cart.Store
	coupons   coupon.Store
	orders    order.Store
	wishlists wishlist.Store
	audit     *repository.MongoRepository
	checks    map[string]grpc.Check
	closers   []func()
}

func (s *stores) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// openStores builds the store stack: the primary backend, the optional
// MySQL catalog and the optional Redis read-through caches.
func openStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*stores, error) {
	st := &stores{checks: map[string]grpc.Check{}}

	var primary backend
	switch cfg.Storage.Driver {
	case "memory":
		logger.Warn("Using in-memory storage, data is lost on restart")
		primary = memory.New()
	default:
		mongoRepo, err := repository.NewMongoRepository(&cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				logger.Error("Failed to close MongoDB", zap.Error(err))
			}
		})
		if err := mongoRepo.EnsureIndexes(ctx); err != nil {
			st.close()
			return nil, err
		}
		st.checks["mongodb"] = mongoRepo.Ping
		st.audit = mongoRepo
		logger.Info("MongoDB connected successfully", zap.String("database", cfg.MongoDB.Database))
		primary = mongoRepo
	}

	var products repository.ProductStore = primary
	if cfg.Catalog.Driver == "mysql" {
		sqlStore, err := repository.NewMySQLProductStore(&cfg.MySQL)
		if err != nil {
			st.close()
			return nil, fmt.Errorf("failed to open catalog: %w", err)
		}
		st.closers = append(st.closers, func() {
			if err := sqlStore.Close(); err != nil {
				logger.Error("Failed to close MySQL", zap.Error(err))
			}
		})
		st.checks["mysql"] = sqlStore.Ping
		logger.Info("MySQL catalog connected successfully", zap.String("database", cfg.MySQL.Database))
		products = sqlStore
	}

	var orders repository.OrderStore = primary
	if cfg.Redis.Enabled {
		redisRepo := repository.NewRedisRepository(&cfg.Redis)
		if err := redisRepo.Ping(ctx); err != nil {
			logger.Warn("Redis connection failed, continuing without cache", zap.Error(err))
			redisRepo.Close()
		} else {
			st.closers = append(st.closers, func() { redisRepo.Close() })
			st.checks["redis"] = redisRepo.Ping
			products = repository.NewCachedProductStore(products, redisRepo, redisRepo.TTL(), logger)
			orders = repository.NewCachedOrderStore(orders, redisRepo, redisRepo.TTL(), logger)
			logger.Info("Redis connected successfully")
		}
	}

	st.products = products
	st.carts = primary
	st.coupons = primary
	st.orders = orders
	st.wishlists = primary
	return st, nil
}
