package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"beiboot-backend/internal/middleware"
	"beiboot-backend/internal/models"
	"beiboot-backend/internal/services"
)

type ProjectsHandler struct {
	projects *services.ProjectService
	log      *zap.Logger
}

func NewProjectsHandler(projects *services.ProjectService, log *zap.Logger) *ProjectsHandler {
	return &ProjectsHandler{projects: projects, log: log}
}

// CreateProject godoc
// @Summary     Create a project
// @Tags        projects
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.CreateProjectRequest true "Project"
// @Success     200 {object} models.CreateProjectResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Router      /projects [post]
func (h *ProjectsHandler) CreateProject(c *gin.Context) {
	principal, ok := middleware.Principal(c)
	if !ok {
		respondError(c, h.log, services.Unauthorized("authentication required"))
		return
	}

	var req models.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	public := false
	if req.Public != nil {
		public = *req.Public
	}

	id, err := h.projects.CreateProject(c.Request.Context(), principal, req.Name, public)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, models.CreateProjectResponse{ID: id})
}

func (h *ProjectsHandler) ListProjects(c *gin.Context) {
	projects, err := h.projects.ListOwnedProjects(c.Request.Context(), middleware.CallerID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, projects)
}

func (h *ProjectsHandler) ListPublicProjects(c *gin.Context) {
	projects, err := h.projects.ListPublicProjects(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, projects)
}

func (h *ProjectsHandler) GetProject(c *gin.Context) {
	projectID, ok := parseID(c, "projectId")
	if !ok {
		return
	}

	project, err := h.projects.GetProject(c.Request.Context(), middleware.CallerID(c), projectID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

// UpdateProject godoc
// @Summary     Rename a project and set its visibility
// @Tags        projects
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.UpdateProjectRequest true "Update"
// @Success     200 {object} models.SuccessResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /projects [put]
func (h *ProjectsHandler) UpdateProject(c *gin.Context) {
	var req models.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ProjectID <= 0 {
		badRequest(c, "projectId is required")
		return
	}

	err := h.projects.UpdateProject(c.Request.Context(), middleware.CallerID(c), req.ProjectID, req.Name, req.Public)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true})
}
