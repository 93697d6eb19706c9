package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/storefront/gateway"
	"github.com/example/storefront/pkg/auth"
	"github.com/example/storefront/pkg/cart"
	"github.com/example/storefront/pkg/catalog"
	"github.com/example/storefront/pkg/checkout"
	"github.com/example/storefront/pkg/config"
	"github.com/example/storefront/pkg/coupon"
	"github.com/example/storefront/pkg/discovery"
	"github.com/example/storefront/pkg/events"
	"github.com/example/storefront/pkg/grpc"
	"github.com/example/storefront/pkg/logging"
	"github.com/example/storefront/pkg/order"
	"github.com/example/storefront/pkg/wishlist"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the config file")
	flag.Parse()

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Setup logger
	logger, err := logging.New(cfg.Log)
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("Starting storefront API",
		zap.String("name", cfg.Server.Name),
		zap.String("storage", cfg.Storage.Driver),
		zap.String("catalog", cfg.Catalog.Driver))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage
	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open storage", zap.Error(err))
	}
	defer st.close()

	// Order events
	sinks := []events.Sink{events.NewLogSink(logger)}
	var rmq *events.RabbitMQ
	if cfg.RabbitMQ.Enabled {
		rmq, err = events.NewRabbitMQ(&cfg.RabbitMQ)
		if err != nil {
			logger.Warn("Failed to connect to RabbitMQ, continuing without event publishing", zap.Error(err))
		} else if err := rmq.SetupQueues(); err != nil {
			logger.Warn("Failed to declare RabbitMQ topology, continuing without event publishing", zap.Error(err))
			rmq.Close()
			rmq = nil
		} else {
			sinks = append(sinks, events.NewAMQPSink(rmq.Channel, cfg.RabbitMQ.Exchange))
			logger.Info("RabbitMQ connected successfully")
		}
	}
	dispatcher, err := events.NewDispatcher(logger, sinks...)
	if err != nil {
		logger.Fatal("Failed to start event dispatcher", zap.Error(err))
	}

	// Services
	products := catalog.NewService(st.products, logger)
	carts := cart.NewService(st.carts, products, logger)
	coupons := coupon.NewService(st.coupons, logger)
	orders := order.NewService(st.orders, products, dispatcher, logger)
	services := gateway.Services{
		Catalog:  products,
		Cart:     carts,
		Coupons:  coupons,
		Orders:   orders,
		Wishlist: wishlist.NewService(st.wishlists, products, logger),
		Checkout: checkout.NewService(checkout.Config{
			ShippingFee:  cfg.Checkout.ShippingFee,
			VerifyTotals: cfg.Checkout.VerifyTotals,
		}, carts, coupons, orders, products, logger),
	}

	if st.audit != nil {
		services.Audit = st.audit
	}

	// Create gateway
	gw := gateway.NewGateway(cfg, logger, services, auth.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.Issuer))
	gw.SetupRoutes()

	// gRPC health
	health := grpc.NewHealthServer(cfg.Server.Name, cfg.Server.Addr(), st.checks, logger)

	serverErr := make(chan error, 2)
	go func() {
		if err := gw.Start(); err != nil {
			serverErr <- fmt.Errorf("gateway: %w", err)
		}
	}()
	go func() {
		if err := health.Start(ctx); err != nil {
			serverErr <- fmt.Errorf("health server: %w", err)
		}
	}()

	// Service discovery
	instance := &discovery.ServiceInstance{
		Name: cfg.Server.Name,
		Host: cfg.Gateway.Host,
		Port: cfg.Gateway.Port,
	}
	var sd *discovery.ServiceDiscovery
	if cfg.Etcd.Enabled {
		sd, err = discovery.NewServiceDiscovery(&cfg.Etcd, logger)
		if err != nil {
			logger.Warn("Failed to connect to etcd, continuing without service discovery", zap.Error(err))
		} else if err := sd.Register(ctx, instance); err != nil {
			logger.Warn("Failed to register service", zap.Error(err))
		} else {
			logger.Info("Service registered in etcd", zap.String("address", instance.Addr()))
			peers, err := sd.Discover(ctx, instance.Name)
			switch {
			case err != nil:
				logger.Warn("Failed to read back registration", zap.Error(err))
			case !discovery.Contains(peers, instance):
				logger.Warn("Registration not visible in etcd", zap.String("key", discovery.Key(cfg.Etcd.Prefix, instance)))
			default:
				logger.Info("Registered instances", zap.Int("count", len(peers)))
			}
		}
	}

	logger.Info("Storefront API started successfully", zap.String("address", cfg.Gateway.Addr()))

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info("Received shutdown signal")
	case err := <-serverErr:
		logger.Error("Server error", zap.Error(err))
	}

	if sd != nil {
		if err := sd.Deregister(context.Background(), instance); err != nil {
			logger.Error("Failed to deregister service", zap.Error(err))
		}
		sd.Close()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Gateway.ShutdownTimeout)
	defer shutdownCancel()
	if err := gw.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shut down gateway", zap.Error(err))
	}
	health.Stop()
	cancel()

	if stats, err := dispatcher.Flush(5 * time.Second); err != nil {
		logger.Warn("Pending order events were not flushed", zap.Error(err))
	} else {
		logger.Info("Order events flushed", zap.Int("delivered", stats.Delivered), zap.Int("failed", stats.Failed))
	}
	if err := dispatcher.Close(); err != nil {
		logger.Error("Failed to stop event dispatcher", zap.Error(err))
	}
	if rmq != nil {
		rmq.Close()
	}

	logger.Info("Storefront API stopped")
}
