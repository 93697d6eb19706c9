package gateway

import (
	"net/http"

	"github.com/example/storefront/pkg/cart"
	"github.com/gin-gonic/gin"
)

type updateCartItemRequest struct {
	CartKey  string `json:"cartKey"`
	Quantity int    `json:"quantity"`
}

type removeCartItemRequest struct {
	CartKey string `json:"cartKey"`
}

func (g *Gateway) getCart(c *gin.Context) {
	result, err := g.services.Cart.Get(c.Request.Context(), userID(c))
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (g *Gateway) addCartItem(c *gin.Context) {
	var req cart.AddItemRequest
	if !bind(c, &req) {
		return
	}
	result, err := g.services.Cart.AddItem(c.Request.Context(), userID(c), req)
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (g *Gateway) updateCartItem(c *gin.Context) {
	var req updateCartItemRequest
	if !bind(c, &req) {
		return
	}
	result, err := g.services.Cart.UpdateItemQuantity(c.Request.Context(), userID(c), req.CartKey, req.Quantity)
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (g *Gateway) removeCartItem(c *gin.Context) {
	var req removeCartItemRequest
	if !bind(c, &req) {
		return
	}
	result, err := g.services.Cart.RemoveItem(c.Request.Context(), userID(c), req.CartKey)
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (g *Gateway) clearCart(c *gin.Context) {
	result, err := g.services.Cart.Clear(c.Request.Context(), userID(c))
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
