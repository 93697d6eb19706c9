package gateway

import (
	"net/http"

	"github.com/example/storefront/pkg/apperr"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError writes {"message": ...} with the status for the error kind.
// Internal causes are logged, never returned.
func (g *Gateway) respondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal {
		g.logger.Error("Request failed",
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	c.JSON(kind.HTTPStatus(), gin.H{"message": apperr.PublicMessage(err)})
}

// bind decodes the JSON body and answers 400 when it is malformed.
func bind(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return false
	}
	return true
}
