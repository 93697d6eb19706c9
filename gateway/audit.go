package gateway

import (
	"context"
	"net/http"
	"strconv"

	"github.com/example/storefront/pkg/repository"
	"github.com/gin-gonic/gin"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 200
)

// AuditReader reads the trail the worker writes for each order.
type AuditReader interface {
	GetAuditLogs(ctx context.Context, entityID string, limit int64) ([]*repository.AuditLog, error)
}

func (g *Gateway) getOrderAudit(c *gin.Context) {
	id := c.Param("id")
	if _, err := g.services.Orders.Get(c.Request.Context(), id); err != nil {
		g.respondError(c, err)
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultAuditLimit)))
	if err != nil || limit <= 0 {
		limit = defaultAuditLimit
	}
	if limit > maxAuditLimit {
		limit = maxAuditLimit
	}

	entries := []*repository.AuditLog{}
	if g.services.Audit != nil {
		entries, err = g.services.Audit.GetAuditLogs(c.Request.Context(), id, int64(limit))
		if err != nil {
			g.respondError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"orderId": id, "entries": entries})
}
