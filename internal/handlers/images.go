package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"beiboot-backend/internal/middleware"
	"beiboot-backend/internal/models"
	"beiboot-backend/internal/services"
)

const uploadField = "images"

type ImagesHandler struct {
	images      *services.ImageService
	log         *zap.Logger
	maxMemory   int64
	maxFileSize int64
}

func NewImagesHandler(images *services.ImageService, log *zap.Logger, maxMemory, maxFileSize int64) *ImagesHandler {
	return &ImagesHandler{images: images, log: log, maxMemory: maxMemory, maxFileSize: maxFileSize}
}

// Upload godoc
// @Summary     Upload images to a project
// @Description Stores every file or none of them.
// @Tags        images
// @Accept      multipart/form-data
// @Produce     json
// @Security    Bearer
// @Param       projectId path int true "Project ID"
// @Param       images formData file true "Images (multiple files allowed)"
// @Success     200 {array}  models.Image
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     502 {object} models.ErrorResponse
// @Router      /projects/{projectId}/images [post]
func (h *ImagesHandler) Upload(c *gin.Context) {
	projectID, ok := parseID(c, "projectId")
	if !ok {
		return
	}

	if err := c.Request.ParseMultipartForm(h.maxMemory); err != nil {
		badRequest(c, "failed to parse multipart form")
		return
	}
	form := c.Request.MultipartForm
	if form == nil || len(form.File[uploadField]) == 0 {
		badRequest(c, "no files uploaded")
		return
	}
	defer form.RemoveAll()

	files := make([]models.UploadFile, 0, len(form.File[uploadField]))
	for _, fh := range form.File[uploadField] {
		if h.maxFileSize > 0 && fh.Size > h.maxFileSize {
			badRequest(c, fmt.Sprintf("%s exceeds the maximum file size", fh.Filename))
			return
		}
		src, err := fh.Open()
		if err != nil {
			badRequest(c, "failed to open "+fh.Filename)
			return
		}
		data, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			badRequest(c, "failed to read "+fh.Filename)
			return
		}
		files = append(files, models.UploadFile{Filename: fh.Filename, Data: data})
	}

	images, err := h.images.UploadImages(c.Request.Context(), middleware.CallerID(c), projectID, files)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, images)
}

func (h *ImagesHandler) ListImages(c *gin.Context) {
	projectID, ok := parseID(c, "projectId")
	if !ok {
		return
	}

	images, err := h.images.ListProjectImages(c.Request.Context(), middleware.CallerID(c), projectID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, images)
}

func (h *ImagesHandler) RenameImage(c *gin.Context) {
	projectID, ok := parseID(c, "projectId")
	if !ok {
		return
	}
	imageID, ok := parseID(c, "imageId")
	if !ok {
		return
	}

	var req models.RenameImageRequest
	// An empty body means "no new name".
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, "invalid request body")
		return
	}

	if err := h.images.RenameImage(c.Request.Context(), middleware.CallerID(c), projectID, imageID, req.Name); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true})
}

func (h *ImagesHandler) DeleteImage(c *gin.Context) {
	projectID, ok := parseID(c, "projectId")
	if !ok {
		return
	}
	imageID, ok := parseID(c, "imageId")
	if !ok {
		return
	}

	if err := h.images.DeleteImage(c.Request.Context(), middleware.CallerID(c), projectID, imageID); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true})
}
