package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"beiboot-backend/internal/middleware"
	"beiboot-backend/internal/services"
)

type UsersHandler struct {
	users *services.UserService
	log   *zap.Logger
}

func NewUsersHandler(users *services.UserService, log *zap.Logger) *UsersHandler {
	return &UsersHandler{users: users, log: log}
}

// Me godoc
// @Summary     Current user
// @Tags        users
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.User
// @Failure     401 {object} models.ErrorResponse
// @Router      /users/me [get]
func (h *UsersHandler) Me(c *gin.Context) {
	principal, ok := middleware.Principal(c)
	if !ok {
		respondError(c, h.log, services.Unauthorized("authentication required"))
		return
	}

	user, err := h.users.Me(c.Request.Context(), principal)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
