package gateway

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type wishlistRequest struct {
	ProductID string `json:"productId"`
}

func (g *Gateway) getWishlist(c *gin.Context) {
	w, err := g.services.Wishlist.Get(c.Request.Context(), userID(c))
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"productIds": w.ProductIDs})
}

func (g *Gateway) addToWishlist(c *gin.Context) {
	var req wishlistRequest
	if !bind(c, &req) {
		return
	}
	w, err := g.services.Wishlist.Add(c.Request.Context(), userID(c), req.ProductID)
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"productIds": w.ProductIDs})
}

func (g *Gateway) removeFromWishlist(c *gin.Context) {
	var req wishlistRequest
	if !bind(c, &req) {
		return
	}
	w, err := g.services.Wishlist.Remove(c.Request.Context(), userID(c), req.ProductID)
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"productIds": w.ProductIDs})
}
