package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"beiboot-backend/internal/auth"
	"beiboot-backend/internal/metrics"
	"beiboot-backend/internal/middleware"
)

type Handlers struct {
	Health   *HealthHandler
	Projects *ProjectsHandler
	Images   *ImagesHandler
	Metadata *MetadataHandler
	Users    *UsersHandler
	Search   *SearchHandler
}

// RegisterRoutes mounts every endpoint on router. Reads of possibly public
// data take an optional token; everything else requires one.
func RegisterRoutes(router *gin.Engine, h Handlers, verifier auth.Verifier, log *zap.Logger) {
	required := middleware.RequireAuth(verifier, log)
	optional := middleware.OptionalAuth(verifier, log)

	router.GET("/health", h.Health.Health)
	router.GET("/metrics", metrics.Handler())

	projects := router.Group("/projects")
	projects.POST("", required, h.Projects.CreateProject)
	projects.GET("", required, h.Projects.ListProjects)
	projects.PUT("", required, h.Projects.UpdateProject)
	projects.GET("/public", h.Projects.ListPublicProjects)
	projects.GET("/:projectId", optional, h.Projects.GetProject)

	projects.POST("/:projectId/images", required, h.Images.Upload)
	projects.GET("/:projectId/images", optional, h.Images.ListImages)
	projects.PUT("/:projectId/image/:imageId", required, h.Images.RenameImage)
	projects.DELETE("/:projectId/image/:imageId", required, h.Images.DeleteImage)

	projects.GET("/:projectId/images/metadata", optional, h.Metadata.MergeMetadata)
	projects.POST("/:projectId/images/metadata", required, h.Metadata.BatchWriteMetadata)
	projects.GET("/:projectId/images/:imageId/metadata", optional, h.Metadata.ReadMetadata)
	projects.POST("/:projectId/images/:imageId/metadata", required, h.Metadata.WriteMetadata)

	router.GET("/images/search", optional, h.Search.Search)
	router.GET("/users/me", required, h.Users.Me)
}
