package gateway

import (
	"net/http"
	"strconv"

	"github.com/example/storefront/pkg/checkout"
	"github.com/example/storefront/pkg/metrics"
	"github.com/example/storefront/pkg/models"
	"github.com/gin-gonic/gin"
)

type quoteRequest struct {
	CouponCode string `json:"couponCode"`
}

type updateOrderStatusRequest struct {
	NewStatus models.OrderStatus `json:"newStatus"`
}

func (g *Gateway) quoteCheckout(c *gin.Context) {
	var req quoteRequest
	if c.Request.ContentLength > 0 && !bind(c, &req) {
		return
	}
	summary, err := g.services.Checkout.Quote(c.Request.Context(), userID(c), req.CouponCode)
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (g *Gateway) createOrder(c *gin.Context) {
	var req checkout.PlaceOrderRequest
	if !bind(c, &req) {
		return
	}
	o, err := g.services.Checkout.PlaceOrder(c.Request.Context(), userID(c), req)
	metrics.RecordOrderOperation("create", err == nil)
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"orderId": o.ID,
		"message": "Order placed successfully",
	})
}

func (g *Gateway) listMyOrders(c *gin.Context) {
	orders, err := g.services.Orders.ListForUser(c.Request.Context(), userID(c))
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (g *Gateway) getMyOrder(c *gin.Context) {
	o, err := g.services.Orders.GetForUser(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (g *Gateway) cancelMyOrder(c *gin.Context) {
	o, err := g.services.Orders.Cancel(c.Request.Context(), userID(c), c.Param("id"))
	metrics.RecordOrderOperation("cancel", err == nil)
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Order cancelled",
		"order":   o,
	})
}

func (g *Gateway) listOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	result, err := g.services.Orders.List(c.Request.Context(), models.OrderFilter{
		Status:   models.OrderStatus(c.Query("status")),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (g *Gateway) getOrder(c *gin.Context) {
	o, err := g.services.Orders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (g *Gateway) updateOrderStatus(c *gin.Context) {
	var req updateOrderStatusRequest
	if !bind(c, &req) {
		return
	}
	o, err := g.services.Orders.UpdateStatus(c.Request.Context(), c.Param("id"), req.NewStatus)
	metrics.RecordOrderOperation("update_status", err == nil)
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}
