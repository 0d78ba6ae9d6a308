package search

import (
	"context"

	"beiboot-backend/internal/models"
)

// Index keeps a searchable copy of image records. Writes are fire and forget
// from the caller's point of view; the database stays authoritative.
type Index interface {
	IndexImage(ctx context.Context, doc models.ImageDocument) error
	RenameImage(ctx context.Context, imageID int64, filename string) error
	SetProjectPublic(ctx context.Context, projectID int64, public bool) error
	DeleteImage(ctx context.Context, imageID int64) error
	Search(ctx context.Context, query, callerID string, limit int) ([]models.ImageDocument, error)
}
