package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"beiboot-backend/internal/middleware"
	"beiboot-backend/internal/models"
	"beiboot-backend/internal/services"
)

type SearchHandler struct {
	search *services.SearchService
	log    *zap.Logger
}

func NewSearchHandler(search *services.SearchService, log *zap.Logger) *SearchHandler {
	return &SearchHandler{search: search, log: log}
}

// Search godoc
// @Summary     Search images by filename
// @Description Anonymous callers only see images of public projects.
// @Tags        search
// @Produce     json
// @Param       q query string false "Query"
// @Param       limit query int false "Max hits (default 20, max 100)"
// @Success     200 {object} models.SearchResponse
// @Failure     502 {object} models.ErrorResponse
// @Router      /images/search [get]
func (h *SearchHandler) Search(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, "limit must be a number")
			return
		}
		limit = n
	}

	hits, err := h.search.SearchImages(c.Request.Context(), middleware.CallerID(c), c.Query("q"), limit)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	resp := models.SearchResponse{Hits: make([]models.SearchHit, 0, len(hits))}
	for _, d := range hits {
		resp.Hits = append(resp.Hits, d.Hit())
	}
	c.JSON(http.StatusOK, resp)
}
