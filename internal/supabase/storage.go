package supabase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	storage "github.com/supabase-community/storage-go"

	objects "beiboot-backend/internal/storage"
)

// StorageAPI is the part of the storage-go client used here.
type StorageAPI interface {
	UploadFile(bucketID, relativePath string, data io.Reader, fileOptions ...storage.FileOptions) (storage.FileUploadResponse, error)
	DownloadFile(bucketID, filePath string, urlOptions ...storage.UrlOptions) ([]byte, error)
	RemoveFile(bucketID string, paths []string) ([]storage.FileUploadResponse, error)
	CreateSignedUrl(bucketID, filePath string, expiresIn int) (storage.SignedUrlResponse, error)
}

// StorageClient stores images in a Supabase storage bucket.
//
// storage-go keeps per-request headers on a map shared by every call, so
// all client calls are serialized through mu.
type StorageClient struct {
	mu      sync.Mutex
	client  StorageAPI
	bucket  string
	baseURL string
}

func NewStorageClient(supabaseURL, serviceRoleKey, bucket string) *StorageClient {
	baseURL := strings.TrimRight(supabaseURL, "/")
	client := storage.NewClient(baseURL+"/storage/v1", serviceRoleKey, nil)
	return NewStorageClientWithAPI(client, baseURL, bucket)
}

func NewStorageClientWithAPI(client StorageAPI, baseURL, bucket string) *StorageClient {
	return &StorageClient{client: client, bucket: bucket, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *StorageClient) Put(_ context.Context, key string, body io.Reader, _ int64, contentType string) error {
	// Metadata writes re-upload to the same key.
	upsert := true
	opts := storage.FileOptions{Upsert: &upsert}
	if contentType != "" {
		opts.ContentType = &contentType
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.client.UploadFile(s.bucket, key, body, opts); err != nil {
		return fmt.Errorf("failed to upload file: %w", err)
	}
	return nil
}

func (s *StorageClient) Get(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	data, err := s.client.DownloadFile(s.bucket, key)
	s.mu.Unlock()
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", objects.ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *StorageClient) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.client.RemoveFile(s.bucket, []string{key}); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (s *StorageClient) PresignGet(_ context.Context, key string, expiry time.Duration) (string, error) {
	s.mu.Lock()
	resp, err := s.client.CreateSignedUrl(s.bucket, key, int(expiry.Seconds()))
	s.mu.Unlock()
	if err != nil {
		return "", fmt.Errorf("failed to sign url: %w", err)
	}
	if resp.SignedURL == "" {
		return "", fmt.Errorf("failed to sign url: empty response for %s", key)
	}
	// Some server versions answer with a path relative to /storage/v1.
	if strings.HasPrefix(resp.SignedURL, "/") {
		return s.baseURL + "/storage/v1" + resp.SignedURL, nil
	}
	return resp.SignedURL, nil
}

// isNotFound reports whether err is the storage API's missing object answer.
// The API sends it as a 400 with "Object not found", so the message is checked
// along with the status.
func isNotFound(err error) bool {
	var se *storage.StorageError
	if !errors.As(err, &se) {
		return false
	}
	return se.Status == http.StatusNotFound || strings.Contains(strings.ToLower(se.Message), "not found")
}
