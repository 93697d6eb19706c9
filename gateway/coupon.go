package gateway

import (
	"net/http"

	"github.com/example/storefront/pkg/apperr"
	"github.com/example/storefront/pkg/coupon"
	"github.com/gin-gonic/gin"
)

type validateCouponRequest struct {
	CouponCode   string  `json:"couponCode"`
	CartSubtotal float64 `json:"cartSubtotal"`
}

func (g *Gateway) validateCoupon(c *gin.Context) {
	var req validateCouponRequest
	if !bind(c, &req) {
		return
	}
	v, err := g.services.Coupons.Validate(c.Request.Context(), req.CouponCode, req.CartSubtotal)
	if apperr.Is(err, apperr.KindNotFound) {
		// every rejection, including an unknown code, is a 400 on this route
		c.JSON(http.StatusBadRequest, gin.H{"message": apperr.PublicMessage(err)})
		return
	}
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":           v.Code,
		"discountType":   v.DiscountType,
		"discountValue":  v.DiscountValue,
		"discountAmount": v.DiscountAmount,
		"message":        "Coupon applied successfully",
	})
}

func (g *Gateway) listCoupons(c *gin.Context) {
	coupons, err := g.services.Coupons.List(c.Request.Context())
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, coupons)
}

func (g *Gateway) createCoupon(c *gin.Context) {
	var in coupon.Input
	if !bind(c, &in) {
		return
	}
	created, err := g.services.Coupons.Create(c.Request.Context(), in)
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (g *Gateway) getCoupon(c *gin.Context) {
	found, err := g.services.Coupons.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, found)
}

func (g *Gateway) updateCoupon(c *gin.Context) {
	var in coupon.Input
	if !bind(c, &in) {
		return
	}
	updated, err := g.services.Coupons.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (g *Gateway) deleteCoupon(c *gin.Context) {
	if err := g.services.Coupons.Delete(c.Request.Context(), c.Param("id")); err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Coupon deleted"})
}
