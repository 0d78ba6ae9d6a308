package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"beiboot-backend/internal/models"
	"beiboot-backend/internal/services"
)

// respondError writes the JSON error body for err. Causes of upstream
// failures are logged and never sent to the client.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	kind := services.KindOf(err)

	status := http.StatusInternalServerError
	switch kind {
	case services.KindUnauthorized:
		status = http.StatusUnauthorized
	case services.KindNotFound:
		status = http.StatusNotFound
	case services.KindBadRequest:
		status = http.StatusBadRequest
	case services.KindUpstream:
		status = http.StatusBadGateway
		log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.Error(err))
		_ = c.Error(err)
	}

	c.AbortWithStatusJSON(status, models.ErrorResponse{
		Error:   kind.String(),
		Message: services.PublicMessage(err),
	})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Error: "bad_request", Message: msg})
}

func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}
