package services

import (
	"context"

	"beiboot-backend/internal/models"
)

// Store is the relational store. Lookups of missing rows return
// database.ErrNotFound.
type Store interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
	EnsureUser(ctx context.Context, userID, username string) error

	CreateProject(ctx context.Context, ownerID, name string, public bool) (*models.Project, error)
	GetProject(ctx context.Context, projectID int64) (*models.Project, error)
	ListProjectsByOwner(ctx context.Context, ownerID string) ([]models.Project, error)
	ListPublicProjects(ctx context.Context) ([]models.Project, error)
	UpdateProject(ctx context.Context, projectID int64, name string, public bool) error

	CreateImage(ctx context.Context, img *models.Image) error
	GetImage(ctx context.Context, imageID int64) (*models.Image, error)
	ListImages(ctx context.Context, projectID int64) ([]models.Image, error)
	RenameImage(ctx context.Context, imageID int64, filename string) error
	DeleteImage(ctx context.Context, imageID int64) error
}
