package services

import (
	"context"
	"errors"

	"beiboot-backend/internal/database"
	"beiboot-backend/internal/models"
)

// access applies the read and write rules for projects and images. Missing
// rows and denied access look the same to the caller.
type access struct {
	store Store
}

func (a access) readableProject(ctx context.Context, callerID string, projectID int64) (*models.Project, error) {
	project, err := a.lookupProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !project.Public && (callerID == "" || project.OwnerID != callerID) {
		return nil, Unauthorized("project not accessible")
	}
	return project, nil
}

func (a access) ownedProject(ctx context.Context, callerID string, projectID int64) (*models.Project, error) {
	project, err := a.lookupProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if callerID == "" || project.OwnerID != callerID {
		return nil, Unauthorized("project not accessible")
	}
	return project, nil
}

func (a access) readableImage(ctx context.Context, callerID string, projectID, imageID int64) (*models.Image, error) {
	img, err := a.lookupImage(ctx, projectID, imageID)
	if err != nil {
		return nil, err
	}
	if _, err := a.readableProject(ctx, callerID, projectID); err != nil {
		return nil, err
	}
	return img, nil
}

func (a access) ownedImage(ctx context.Context, callerID string, projectID, imageID int64) (*models.Image, error) {
	img, err := a.lookupImage(ctx, projectID, imageID)
	if err != nil {
		return nil, err
	}
	if callerID == "" || img.OwnerID != callerID {
		return nil, Unauthorized("image not accessible")
	}
	return img, nil
}

func (a access) lookupProject(ctx context.Context, projectID int64) (*models.Project, error) {
	project, err := a.store.GetProject(ctx, projectID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, Unauthorized("project not accessible")
	}
	if err != nil {
		return nil, Upstream("could not load project", err)
	}
	return project, nil
}

func (a access) lookupImage(ctx context.Context, projectID, imageID int64) (*models.Image, error) {
	img, err := a.store.GetImage(ctx, imageID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, Unauthorized("image not accessible")
	}
	if err != nil {
		return nil, Upstream("could not load image", err)
	}
	if img.ProjectID != projectID {
		return nil, Unauthorized("image not accessible")
	}
	return img, nil
}
