package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"beiboot-backend/internal/exif"
	"beiboot-backend/internal/metrics"
	"beiboot-backend/internal/models"
	"beiboot-backend/internal/storage"
)

const metadataConcurrency = 4

type MetadataService struct {
	access
	objects    storage.ObjectStore
	tool       exif.TagTool
	scratchDir string
	log        *zap.Logger
}

func NewMetadataService(store Store, objects storage.ObjectStore, tool exif.TagTool, scratchDir string, log *zap.Logger) *MetadataService {
	return &MetadataService{
		access:     access{store: store},
		objects:    objects,
		tool:       tool,
		scratchDir: scratchDir,
		log:        log,
	}
}

func (s *MetadataService) ReadMetadata(ctx context.Context, callerID string, projectID, imageID int64) (map[string]interface{}, error) {
	img, err := s.readableImage(ctx, callerID, projectID, imageID)
	if err != nil {
		return nil, err
	}

	var tags map[string]interface{}
	err = s.withScratchCopy(ctx, img, func(file string) error {
		tags, err = s.tool.ReadTags(ctx, file)
		return err
	})
	if err != nil {
		metrics.MetadataOperations.WithLabelValues("read", "error").Inc()
		s.log.Warn("metadata read failed", zap.Int64("imageId", imageID), zap.Error(err))
		return nil, Upstream("could not read metadata", err)
	}

	metrics.MetadataOperations.WithLabelValues("read", "ok").Inc()
	return tags, nil
}

// WriteMetadata rewrites the embedded tags of an owned image and replaces
// the stored object. The image row is left as is.
func (s *MetadataService) WriteMetadata(ctx context.Context, callerID string, projectID, imageID int64, tags map[string]interface{}) error {
	img, err := s.ownedImage(ctx, callerID, projectID, imageID)
	if err != nil {
		return err
	}
	return s.writeTags(ctx, img, exif.SanitizeTags(tags))
}

func (s *MetadataService) writeTags(ctx context.Context, img *models.Image, clean map[string]interface{}) error {
	err := s.withScratchCopy(ctx, img, func(file string) error {
		if err := s.tool.WriteTags(ctx, file, clean); err != nil {
			return err
		}
		return s.upload(ctx, img.StorageKey, file)
	})
	if err != nil {
		metrics.MetadataOperations.WithLabelValues("write", "error").Inc()
		s.log.Warn("metadata write failed", zap.Int64("imageId", img.ID), zap.Error(err))
		return Upstream("could not write metadata", err)
	}

	metrics.MetadataOperations.WithLabelValues("write", "ok").Inc()
	s.log.Info("metadata written", zap.Int64("imageId", img.ID), zap.Int("tags", len(clean)))
	return nil
}

// MergeMetadata reads the tags of several images and folds them into one
// view where disagreeing values become exif.Mixed.
func (s *MetadataService) MergeMetadata(ctx context.Context, callerID string, projectID int64, imageIDs []int64) (map[string]interface{}, error) {
	imageIDs = uniqueIDs(imageIDs)
	if len(imageIDs) == 0 {
		return nil, BadRequest("at least one image id is required")
	}

	sets := make([]map[string]interface{}, len(imageIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(metadataConcurrency)
	for i, id := range imageIDs {
		i, id := i, id
		g.Go(func() error {
			tags, err := s.ReadMetadata(gctx, callerID, projectID, id)
			if err != nil {
				return err
			}
			sets[i] = tags
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return exif.MergeTags(sets), nil
}

// BatchWriteMetadata applies the same tags to several images. Images are
// independent; one failure does not stop the others.
func (s *MetadataService) BatchWriteMetadata(ctx context.Context, callerID string, projectID int64, imageIDs []int64, tags map[string]interface{}) ([]models.MetadataWriteResult, error) {
	imageIDs = uniqueIDs(imageIDs)
	if len(imageIDs) == 0 {
		return nil, BadRequest("at least one image id is required")
	}

	clean := exif.SanitizeTags(exif.DropMixed(tags))
	results := make([]models.MetadataWriteResult, len(imageIDs))

	var g errgroup.Group
	g.SetLimit(metadataConcurrency)
	for i, id := range imageIDs {
		i, id := i, id
		g.Go(func() error {
			results[i] = models.MetadataWriteResult{ImageID: id, Success: true}
			img, err := s.ownedImage(ctx, callerID, projectID, id)
			if err == nil {
				err = s.writeTags(ctx, img, clean)
			}
			if err != nil {
				results[i].Success = false
				results[i].Error = PublicMessage(err)
			}
			return nil
		})
	}
	_ = g.Wait()

	return results, nil
}

// withScratchCopy downloads the image into a directory private to this call
// and removes it afterwards.
func (s *MetadataService) withScratchCopy(ctx context.Context, img *models.Image, fn func(file string) error) error {
	dir := filepath.Join(s.scratchDir, "metadata-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create scratch dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			s.log.Warn("failed to remove scratch dir", zap.String("dir", dir), zap.Error(err))
		}
	}()

	file := filepath.Join(dir, path.Base(img.StorageKey))
	if err := s.download(ctx, img.StorageKey, file); err != nil {
		return err
	}
	return fn(file)
}

func (s *MetadataService) download(ctx context.Context, key, file string) error {
	rc, err := s.objects.Get(ctx, key)
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(file)
	if err != nil {
		return fmt.Errorf("failed to create scratch file: %w", err)
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return fmt.Errorf("failed to download %s: %w", key, err)
	}
	return out.Close()
}

func (s *MetadataService) upload(ctx context.Context, key, file string) error {
	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("failed to open scratch file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat scratch file: %w", err)
	}
	mt, err := mimetype.DetectReader(f)
	if err != nil {
		return fmt.Errorf("failed to detect content type: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to rewind scratch file: %w", err)
	}

	return s.objects.Put(ctx, key, f, info.Size(), mt.String())
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
