package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"beiboot-backend/internal/auth"
	"beiboot-backend/internal/database"
	"beiboot-backend/internal/metrics"
	"beiboot-backend/internal/models"
	"beiboot-backend/internal/search"
)

type ProjectService struct {
	access
	index search.Index
	log   *zap.Logger
}

func NewProjectService(store Store, index search.Index, log *zap.Logger) *ProjectService {
	return &ProjectService{access: access{store: store}, index: index, log: log}
}

// CreateProject creates a project for the caller, adding the user row on
// first use.
func (s *ProjectService) CreateProject(ctx context.Context, caller *auth.Principal, name string, public bool) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, BadRequest("project name is required")
	}

	if err := s.store.EnsureUser(ctx, caller.ID, caller.Username); err != nil {
		return 0, Upstream("could not create project", err)
	}
	project, err := s.store.CreateProject(ctx, caller.ID, name, public)
	if err != nil {
		return 0, Upstream("could not create project", err)
	}

	s.log.Info("project created",
		zap.Int64("projectId", project.ID),
		zap.String("userId", caller.ID),
		zap.Bool("public", public))
	return project.ID, nil
}

func (s *ProjectService) ListOwnedProjects(ctx context.Context, callerID string) ([]models.Project, error) {
	projects, err := s.store.ListProjectsByOwner(ctx, callerID)
	if err != nil {
		return nil, Upstream("could not list projects", err)
	}
	if projects == nil {
		projects = []models.Project{}
	}
	return projects, nil
}

func (s *ProjectService) ListPublicProjects(ctx context.Context) ([]models.Project, error) {
	projects, err := s.store.ListPublicProjects(ctx)
	if err != nil {
		return nil, Upstream("could not list projects", err)
	}
	if projects == nil {
		projects = []models.Project{}
	}
	return projects, nil
}

func (s *ProjectService) GetProject(ctx context.Context, callerID string, projectID int64) (*models.Project, error) {
	return s.readableProject(ctx, callerID, projectID)
}

// UpdateProject renames a project and sets its visibility. Unlike other
// project operations it tells a missing project apart from a foreign one.
// A blank name keeps the current one.
func (s *ProjectService) UpdateProject(ctx context.Context, callerID string, projectID int64, name string, public bool) error {
	project, err := s.store.GetProject(ctx, projectID)
	if errors.Is(err, database.ErrNotFound) {
		return NotFound("project not found")
	}
	if err != nil {
		return Upstream("could not update project", err)
	}
	if callerID == "" || project.OwnerID != callerID {
		return Unauthorized("project not owned by caller")
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = project.Name
	}

	err = s.store.UpdateProject(ctx, projectID, name, public)
	if errors.Is(err, database.ErrNotFound) {
		return NotFound("project not found")
	}
	if err != nil {
		return Upstream("could not update project", err)
	}

	if project.Public != public {
		if err := s.index.SetProjectPublic(ctx, projectID, public); err != nil {
			metrics.IndexFailures.WithLabelValues("set_project_public").Inc()
			s.log.Warn("failed to sync project visibility to search index",
				zap.Int64("projectId", projectID),
				zap.Error(err))
		}
	}
	return nil
}
