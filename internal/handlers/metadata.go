package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"beiboot-backend/internal/middleware"
	"beiboot-backend/internal/models"
	"beiboot-backend/internal/services"
)

type MetadataHandler struct {
	metadata *services.MetadataService
	log      *zap.Logger
}

func NewMetadataHandler(metadata *services.MetadataService, log *zap.Logger) *MetadataHandler {
	return &MetadataHandler{metadata: metadata, log: log}
}

// ReadMetadata godoc
// @Summary     Read the embedded metadata of an image
// @Tags        metadata
// @Produce     json
// @Param       projectId path int true "Project ID"
// @Param       imageId path int true "Image ID"
// @Success     200 {object} models.MetadataResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     502 {object} models.ErrorResponse
// @Router      /projects/{projectId}/images/{imageId}/metadata [get]
func (h *MetadataHandler) ReadMetadata(c *gin.Context) {
	projectID, ok := parseID(c, "projectId")
	if !ok {
		return
	}
	imageID, ok := parseID(c, "imageId")
	if !ok {
		return
	}

	tags, err := h.metadata.ReadMetadata(c.Request.Context(), middleware.CallerID(c), projectID, imageID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, models.MetadataResponse{ImageID: imageID, Tags: tags})
}

func (h *MetadataHandler) WriteMetadata(c *gin.Context) {
	projectID, ok := parseID(c, "projectId")
	if !ok {
		return
	}
	imageID, ok := parseID(c, "imageId")
	if !ok {
		return
	}

	var req models.WriteMetadataRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Tags == nil {
		badRequest(c, "tags are required")
		return
	}

	if err := h.metadata.WriteMetadata(c.Request.Context(), middleware.CallerID(c), projectID, imageID, req.Tags); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true})
}

// MergeMetadata answers GET /projects/:projectId/images/metadata?ids=1,2,3
func (h *MetadataHandler) MergeMetadata(c *gin.Context) {
	projectID, ok := parseID(c, "projectId")
	if !ok {
		return
	}
	ids, err := parseIDList(c.Query("ids"))
	if err != nil {
		badRequest(c, "ids must be a comma separated list of image ids")
		return
	}

	tags, err := h.metadata.MergeMetadata(c.Request.Context(), middleware.CallerID(c), projectID, ids)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, models.MergedMetadataResponse{ImageIDs: ids, Tags: tags})
}

func (h *MetadataHandler) BatchWriteMetadata(c *gin.Context) {
	projectID, ok := parseID(c, "projectId")
	if !ok {
		return
	}

	var req models.BatchWriteMetadataRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Tags == nil {
		badRequest(c, "imageIds and tags are required")
		return
	}

	results, err := h.metadata.BatchWriteMetadata(c.Request.Context(), middleware.CallerID(c), projectID, req.ImageIDs, req.Tags)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, models.BatchWriteMetadataResponse{Results: results})
}

func parseIDList(raw string) ([]int64, error) {
	ids := []int64{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
