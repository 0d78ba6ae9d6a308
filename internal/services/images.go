package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"beiboot-backend/internal/metrics"
	"beiboot-backend/internal/models"
	"beiboot-backend/internal/search"
	"beiboot-backend/internal/storage"
)

type ImageService struct {
	access
	objects     storage.ObjectStore
	index       search.Index
	log         *zap.Logger
	maxFileSize int64
	urlExpiry   time.Duration
}

type ImageOptions struct {
	MaxFileSize int64
	URLExpiry   time.Duration
}

func NewImageService(store Store, objects storage.ObjectStore, index search.Index, log *zap.Logger, opts ImageOptions) *ImageService {
	if opts.URLExpiry <= 0 {
		opts.URLExpiry = time.Hour
	}
	return &ImageService{
		access:      access{store: store},
		objects:     objects,
		index:       index,
		log:         log,
		maxFileSize: opts.MaxFileSize,
		urlExpiry:   opts.URLExpiry,
	}
}

// UploadImages stores every file or none of them. Objects and rows written
// before a failure are removed again; search documents are only written
// once the whole batch is committed.
func (s *ImageService) UploadImages(ctx context.Context, callerID string, projectID int64, files []models.UploadFile) ([]models.Image, error) {
	if len(files) == 0 {
		return nil, BadRequest("at least one file is required")
	}

	project, err := s.ownedProject(ctx, callerID, projectID)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(files))
	for i, f := range files {
		name := storage.CleanFilename(f.Filename)
		if name == "" {
			return nil, BadRequest(fmt.Sprintf("file %d has no usable name", i+1))
		}
		if len(f.Data) == 0 {
			return nil, BadRequest(fmt.Sprintf("%s is empty", name))
		}
		if s.maxFileSize > 0 && int64(len(f.Data)) > s.maxFileSize {
			return nil, BadRequest(fmt.Sprintf("%s exceeds the maximum file size", name))
		}
		names[i] = name
	}

	comp := &compensator{}
	created := make([]models.Image, 0, len(files))
	for i, f := range files {
		img, err := s.storeOne(ctx, comp, project, names[i], f.Data)
		if err != nil {
			s.rollbackUpload(ctx, comp, projectID, err)
			return nil, Upstream("could not upload images", err)
		}
		created = append(created, *img)
	}
	metrics.ImagesUploaded.Add(float64(len(created)))

	for _, img := range created {
		if err := s.index.IndexImage(ctx, models.NewImageDocument(img, project.Public)); err != nil {
			metrics.IndexFailures.WithLabelValues("index_image").Inc()
			s.log.Warn("failed to index image",
				zap.Int64("imageId", img.ID),
				zap.Error(err))
		}
	}

	s.log.Info("images uploaded",
		zap.Int64("projectId", projectID),
		zap.String("userId", callerID),
		zap.Int("count", len(created)))
	return created, nil
}

func (s *ImageService) storeOne(ctx context.Context, comp *compensator, project *models.Project, name string, data []byte) (*models.Image, error) {
	key := storage.ImageKey(project.OwnerID, project.ID, uuid.NewString()[:8], name)
	contentType := mimetype.Detect(data).String()

	if err := s.objects.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return nil, err
	}
	comp.add("remove object "+key, func(ctx context.Context) error {
		return s.objects.Remove(ctx, key)
	})

	img := &models.Image{
		StorageKey: key,
		Filename:   name,
		ProjectID:  project.ID,
		OwnerID:    project.OwnerID,
	}
	if err := s.store.CreateImage(ctx, img); err != nil {
		return nil, err
	}
	imageID := img.ID
	comp.add(fmt.Sprintf("delete image row %d", imageID), func(ctx context.Context) error {
		return s.store.DeleteImage(ctx, imageID)
	})
	return img, nil
}

func (s *ImageService) rollbackUpload(ctx context.Context, comp *compensator, projectID int64, cause error) {
	metrics.UploadRollbacks.Inc()
	s.log.Warn("upload failed, rolling back batch",
		zap.Int64("projectId", projectID),
		zap.Error(cause))

	if err := comp.rollback(ctx); err != nil {
		var merr *multierror.Error
		if errors.As(err, &merr) {
			metrics.CompensationFailures.Add(float64(len(merr.Errors)))
		}
		s.log.Error("upload rollback incomplete",
			zap.Int64("projectId", projectID),
			zap.Error(err))
	}
}

// ListProjectImages returns the images of a readable project with presigned
// URLs. An image whose URL cannot be signed gets a null URL.
func (s *ImageService) ListProjectImages(ctx context.Context, callerID string, projectID int64) ([]models.SignedImage, error) {
	if _, err := s.readableProject(ctx, callerID, projectID); err != nil {
		return nil, err
	}

	images, err := s.store.ListImages(ctx, projectID)
	if err != nil {
		return nil, Upstream("could not list images", err)
	}

	signed := make([]models.SignedImage, 0, len(images))
	for _, img := range images {
		item := models.SignedImage{Image: img}
		u, err := s.objects.PresignGet(ctx, img.StorageKey, s.urlExpiry)
		if err != nil {
			s.log.Warn("failed to sign image url",
				zap.Int64("imageId", img.ID),
				zap.Error(err))
		} else {
			item.URL = &u
		}
		signed = append(signed, item)
	}
	return signed, nil
}

// RenameImage changes the display name only; the stored object keeps its key.
func (s *ImageService) RenameImage(ctx context.Context, callerID string, projectID, imageID int64, name string) error {
	if _, err := s.ownedImage(ctx, callerID, projectID, imageID); err != nil {
		return err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}

	if err := s.store.RenameImage(ctx, imageID, name); err != nil {
		return Upstream("could not rename image", err)
	}
	if err := s.index.RenameImage(ctx, imageID, name); err != nil {
		metrics.IndexFailures.WithLabelValues("rename_image").Inc()
		s.log.Warn("failed to rename image in search index",
			zap.Int64("imageId", imageID),
			zap.Error(err))
	}
	return nil
}

// DeleteImage removes the object, then the row, then the search document.
// If the row cannot be deleted the object is put back.
func (s *ImageService) DeleteImage(ctx context.Context, callerID string, projectID, imageID int64) error {
	img, err := s.ownedImage(ctx, callerID, projectID, imageID)
	if err != nil {
		return err
	}

	comp := &compensator{}
	backup, err := s.readObject(ctx, img.StorageKey)
	switch {
	case errors.Is(err, storage.ErrObjectNotFound):
		s.log.Warn("image object already missing", zap.Int64("imageId", imageID), zap.String("key", img.StorageKey))
	case err != nil:
		return Upstream("could not delete image", err)
	default:
		if err := s.objects.Remove(ctx, img.StorageKey); err != nil {
			return Upstream("could not delete image", err)
		}
		comp.add("restore object "+img.StorageKey, func(ctx context.Context) error {
			return s.objects.Put(ctx, img.StorageKey, bytes.NewReader(backup), int64(len(backup)), mimetype.Detect(backup).String())
		})
	}

	if err := s.store.DeleteImage(ctx, imageID); err != nil {
		if rbErr := comp.rollback(ctx); rbErr != nil {
			metrics.CompensationFailures.Inc()
			s.log.Error("failed to restore object after row delete failure",
				zap.Int64("imageId", imageID),
				zap.Error(rbErr))
		}
		return Upstream("could not delete image", err)
	}

	if err := s.index.DeleteImage(ctx, imageID); err != nil {
		metrics.IndexFailures.WithLabelValues("delete_image").Inc()
		s.log.Warn("failed to delete image from search index",
			zap.Int64("imageId", imageID),
			zap.Error(err))
	}

	s.log.Info("image deleted", zap.Int64("imageId", imageID), zap.String("userId", callerID))
	return nil
}

func (s *ImageService) readObject(ctx context.Context, key string) ([]byte, error) {
	rc, err := s.objects.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
