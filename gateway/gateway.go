package gateway

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/example/storefront/pkg/auth"
	"github.com/example/storefront/pkg/cart"
	"github.com/example/storefront/pkg/catalog"
	"github.com/example/storefront/pkg/checkout"
	"github.com/example/storefront/pkg/config"
	"github.com/example/storefront/pkg/coupon"
	"github.com/example/storefront/pkg/metrics"
	"github.com/example/storefront/pkg/order"
	"github.com/example/storefront/pkg/wishlist"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// Services are the domain services the routes call into.
type Services struct {
	Catalog  *catalog.Service
	Cart     *cart.Service
	Coupons  *coupon.Service
	Orders   *order.Service
	Wishlist *wishlist.Service
	Checkout *checkout.Service
	// Audit is nil when no audit store is configured.
	Audit AuditReader
}

type Gateway struct {
	config   *config.Config
	logger   *zap.Logger
	router   *gin.Engine
	server   *http.Server
	services Services
	auth     *auth.Authenticator
}

func NewGateway(cfg *config.Config, logger *zap.Logger, services Services, authn *auth.Authenticator) *Gateway {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(loggerMiddleware(logger))
	router.Use(metrics.Middleware())

	return &Gateway{
		config:   cfg,
		logger:   logger,
		router:   router,
		services: services,
		auth:     authn,
	}
}

func (g *Gateway) SetupRoutes() {
	// Health check
	g.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	g.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	v1 := g.router.Group("/api/v1")
	{
		v1.GET("/products/:id", g.getProduct)

		customer := v1.Group("", g.authMiddleware())
		{
			customer.GET("/cart", g.getCart)
			customer.POST("/cart/item", g.addCartItem)
			customer.PUT("/cart/item", g.updateCartItem)
			customer.DELETE("/cart/item", g.removeCartItem)
			customer.DELETE("/cart", g.clearCart)

			customer.POST("/coupons/validate-checkout", g.validateCoupon)
			customer.POST("/checkout/quote", g.quoteCheckout)

			customer.POST("/orders", g.createOrder)
			customer.GET("/my-orders", g.listMyOrders)
			customer.GET("/my-orders/:id", g.getMyOrder)
			customer.POST("/my-orders/:id/cancel", g.cancelMyOrder)

			customer.GET("/wishlist", g.getWishlist)
			customer.POST("/wishlist/add", g.addToWishlist)
			customer.POST("/wishlist/remove", g.removeFromWishlist)
		}

		admin := v1.Group("", g.authMiddleware(), adminOnly())
		{
			admin.GET("/orders", g.listOrders)
			admin.GET("/orders/:id", g.getOrder)
			admin.PUT("/orders/:id/status", g.updateOrderStatus)
			admin.GET("/orders/:id/audit", g.getOrderAudit)

			admin.GET("/coupons", g.listCoupons)
			admin.POST("/coupons", g.createCoupon)
			admin.GET("/coupons/:id", g.getCoupon)
			admin.PUT("/coupons/:id", g.updateCoupon)
			admin.DELETE("/coupons/:id", g.deleteCoupon)

			admin.POST("/products", g.createProduct)
			admin.PUT("/products/:id", g.updateProduct)
		}
	}

	// Swagger
	if g.config.Gateway.Swagger {
		g.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
}

func (g *Gateway) Handler() http.Handler {
	return g.router
}

func (g *Gateway) Start() error {
	addr := g.config.Gateway.Addr()
	g.server = &http.Server{
		Addr:              addr,
		Handler:           g.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	g.logger.Info("Gateway starting", zap.String("address", addr))
	if err := g.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (g *Gateway) Shutdown(ctx context.Context) error {
	if g.server == nil {
		return nil
	}
	return g.server.Shutdown(ctx)
}
