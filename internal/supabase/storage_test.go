package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	storage "github.com/supabase-community/storage-go"

	objects "beiboot-backend/internal/storage"
)

type fakeAPI struct {
	files       map[string][]byte
	lastOptions storage.FileOptions
	signed      string
	failSign    bool
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{files: map[string][]byte{}}
}

func (f *fakeAPI) UploadFile(bucketID, relativePath string, data io.Reader, fileOptions ...storage.FileOptions) (storage.FileUploadResponse, error) {
	b, err := io.ReadAll(data)
	if err != nil {
		return storage.FileUploadResponse{}, err
	}
	upsert := false
	if len(fileOptions) > 0 {
		f.lastOptions = fileOptions[0]
		upsert = fileOptions[0].Upsert != nil && *fileOptions[0].Upsert
	}
	if _, exists := f.files[bucketID+"/"+relativePath]; exists && !upsert {
		return storage.FileUploadResponse{}, &storage.StorageError{Message: "The resource already exists"}
	}
	f.files[bucketID+"/"+relativePath] = b
	return storage.FileUploadResponse{}, nil
}

func (f *fakeAPI) DownloadFile(bucketID, filePath string, _ ...storage.UrlOptions) ([]byte, error) {
	b, ok := f.files[bucketID+"/"+filePath]
	if !ok {
		return nil, &storage.StorageError{Message: "Object not found"}
	}
	return b, nil
}

func (f *fakeAPI) RemoveFile(bucketID string, paths []string) ([]storage.FileUploadResponse, error) {
	for _, p := range paths {
		delete(f.files, bucketID+"/"+p)
	}
	return nil, nil
}

func (f *fakeAPI) CreateSignedUrl(bucketID, filePath string, expiresIn int) (storage.SignedUrlResponse, error) {
	if f.failSign {
		return storage.SignedUrlResponse{}, errors.New("denied")
	}
	return storage.SignedUrlResponse{SignedURL: f.signed}, nil
}

func TestPutGetRemove(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	s := NewStorageClientWithAPI(api, "https://proj.supabase.co/", "photos")

	require.NoError(t, s.Put(ctx, "u1/1/a.jpg", strings.NewReader("jpeg"), 4, "image/jpeg"))
	require.NotNil(t, api.lastOptions.ContentType)
	assert.Equal(t, "image/jpeg", *api.lastOptions.ContentType)
	require.NotNil(t, api.lastOptions.Upsert)
	assert.True(t, *api.lastOptions.Upsert)

	rc, err := s.Get(ctx, "u1/1/a.jpg")
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	assert.Equal(t, "jpeg", string(data))

	require.NoError(t, s.Remove(ctx, "u1/1/a.jpg"))
	_, err = s.Get(ctx, "u1/1/a.jpg")
	assert.ErrorIs(t, err, objects.ErrObjectNotFound)
}

func TestPutOverwritesExistingKey(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	s := NewStorageClientWithAPI(api, "https://proj.supabase.co", "photos")

	require.NoError(t, s.Put(ctx, "u1/1/a.jpg", strings.NewReader("v1"), 2, "image/jpeg"))
	require.NoError(t, s.Put(ctx, "u1/1/a.jpg", strings.NewReader("v2"), 2, "image/jpeg"))

	rc, err := s.Get(ctx, "u1/1/a.jpg")
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	assert.Equal(t, "v2", string(data))
}

func TestGetMissingObject(t *testing.T) {
	s := NewStorageClientWithAPI(newFakeAPI(), "https://proj.supabase.co", "photos")

	_, err := s.Get(context.Background(), "u1/1/gone.jpg")
	assert.ErrorIs(t, err, objects.ErrObjectNotFound)
	assert.Contains(t, err.Error(), "u1/1/gone.jpg")
}

func TestGetOtherErrorIsNotMissing(t *testing.T) {
	api := &failingDownloadAPI{fakeAPI: newFakeAPI()}
	s := NewStorageClientWithAPI(api, "https://proj.supabase.co", "photos")

	_, err := s.Get(context.Background(), "u1/1/a.jpg")
	require.Error(t, err)
	assert.NotErrorIs(t, err, objects.ErrObjectNotFound)
}

type failingDownloadAPI struct {
	*fakeAPI
}

func (f *failingDownloadAPI) DownloadFile(string, string, ...storage.UrlOptions) ([]byte, error) {
	return nil, &storage.StorageError{Status: http.StatusInternalServerError, Message: "internal error"}
}

// storageServer mimics the Supabase storage object endpoints, including the
// x-upsert contract and the 400 "Object not found" answer.
func storageServer(t *testing.T) *httptest.Server {
	t.Helper()
	var mu sync.Mutex
	files := map[string][]byte{}

	reply := func(w http.ResponseWriter, status int, body interface{}) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(r.URL.Path, "/storage/v1/object/")
		mu.Lock()
		defer mu.Unlock()

		switch r.Method {
		case http.MethodPost:
			if _, exists := files[key]; exists && r.Header.Get("x-upsert") != "true" {
				reply(w, http.StatusBadRequest, map[string]string{
					"statusCode": "409", "error": "Duplicate", "message": "The resource already exists",
				})
				return
			}
			data, _ := io.ReadAll(r.Body)
			files[key] = data
			reply(w, http.StatusOK, map[string]string{"Key": key})
		case http.MethodGet:
			data, ok := files[key]
			if !ok {
				reply(w, http.StatusBadRequest, map[string]string{
					"statusCode": "404", "error": "not_found", "message": "Object not found",
				})
				return
			}
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(data)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
}

func TestClientAgainstStorageServer(t *testing.T) {
	srv := storageServer(t)
	defer srv.Close()
	ctx := context.Background()
	s := NewStorageClient(srv.URL, "service-key", "photos")

	require.NoError(t, s.Put(ctx, "u/1/a.jpg", strings.NewReader("v1"), 2, "image/jpeg"))
	require.NoError(t, s.Put(ctx, "u/1/a.jpg", strings.NewReader("v2"), 2, "image/jpeg"))

	rc, err := s.Get(ctx, "u/1/a.jpg")
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	assert.Equal(t, "v2", string(data))

	_, err = s.Get(ctx, "u/1/missing.jpg")
	assert.ErrorIs(t, err, objects.ErrObjectNotFound)
}

func TestConcurrentPuts(t *testing.T) {
	srv := storageServer(t)
	defer srv.Close()
	ctx := context.Background()
	s := NewStorageClient(srv.URL, "service-key", "photos")

	var wg sync.WaitGroup
	errs := make(chan error, 8*20)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				key := fmt.Sprintf("u/%d/%d.jpg", g, i)
				if err := s.Put(ctx, key, strings.NewReader("x"), 1, "image/jpeg"); err != nil {
					errs <- err
				}
			}
		}(g)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestPresignGetRelative(t *testing.T) {
	api := newFakeAPI()
	api.signed = "/object/sign/photos/k?token=abc"
	s := NewStorageClientWithAPI(api, "https://proj.supabase.co", "photos")

	got, err := s.PresignGet(context.Background(), "k", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "https://proj.supabase.co/storage/v1/object/sign/photos/k?token=abc", got)
}

func TestPresignGetAbsolute(t *testing.T) {
	api := newFakeAPI()
	api.signed = "https://cdn.example.com/k?token=abc"
	s := NewStorageClientWithAPI(api, "https://proj.supabase.co", "photos")

	got, err := s.PresignGet(context.Background(), "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, api.signed, got)
}

func TestPresignGetErrors(t *testing.T) {
	api := newFakeAPI()
	s := NewStorageClientWithAPI(api, "https://proj.supabase.co", "photos")

	_, err := s.PresignGet(context.Background(), "k", time.Minute)
	assert.Error(t, err, "empty signed url")

	api.failSign = true
	_, err = s.PresignGet(context.Background(), "k", time.Minute)
	assert.Error(t, err)
}
