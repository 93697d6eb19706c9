package gateway

import (
	"net/http"

	"github.com/example/storefront/pkg/catalog"
	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/pricing"
	"github.com/gin-gonic/gin"
)

type productResponse struct {
	*models.Product
	pricing.Quote
}

func (g *Gateway) getProduct(c *gin.Context) {
	p, q, err := g.services.Catalog.Quote(c.Request.Context(), c.Param("id"))
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, productResponse{Product: p, Quote: q})
}

func (g *Gateway) createProduct(c *gin.Context) {
	var in catalog.ProductInput
	if !bind(c, &in) {
		return
	}
	p, err := g.services.Catalog.Create(c.Request.Context(), in)
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (g *Gateway) updateProduct(c *gin.Context) {
	var in catalog.ProductInput
	if !bind(c, &in) {
		return
	}
	p, err := g.services.Catalog.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
