package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"beiboot-backend/internal/models"
)

func TestVisibilityFilter(t *testing.T) {
	assert.Equal(t, "projectPublic = true", VisibilityFilter(""))
	assert.Equal(t, `projectPublic = true OR ownerId = "user-1"`, VisibilityFilter("user-1"))
	assert.Equal(t, `projectPublic = true OR ownerId = "a\"b"`, VisibilityFilter(`a"b`))
}

func TestDecodeHits(t *testing.T) {
	hits := []interface{}{
		map[string]interface{}{
			"id":            float64(7),
			"storageKey":    "u1/3/cat.jpg",
			"filename":      "cat.jpg",
			"projectId":     float64(3),
			"ownerId":       "u1",
			"createdAt":     "2024-05-01T10:00:00Z",
			"projectPublic": true,
		},
	}

	docs, err := decodeHits(hits)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, int64(7), docs[0].ID)
	assert.Equal(t, int64(3), docs[0].ProjectID)
	assert.Equal(t, "u1", docs[0].OwnerID)
	assert.True(t, docs[0].ProjectPublic)
	assert.True(t, docs[0].CreatedAt.Equal(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)))
}

func TestDecodeHitsEmpty(t *testing.T) {
	docs, err := decodeHits(nil)
	require.NoError(t, err)
	assert.NotNil(t, docs)
	assert.Empty(t, docs)
}

type meiliRequest struct {
	Method string
	Path   string
	Query  string
	Body   string
}

// meiliServer answers the index endpoints used by MeiliIndex and records
// every request.
func meiliServer(t *testing.T) (*httptest.Server, func() []meiliRequest) {
	t.Helper()
	var mu sync.Mutex
	var seen []meiliRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		seen = append(seen, meiliRequest{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery, Body: string(body)})
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/indexes/images/documents/fetch":
			_, _ = w.Write([]byte(`{"results":[{"id":7},{"id":8}],"limit":10000,"offset":0,"total":2}`))
		case r.URL.Path == "/indexes/images/search":
			_, _ = w.Write([]byte(`{"hits":[{"id":7,"filename":"cat.jpg","projectId":3,"ownerId":"u1","projectPublic":true,"createdAt":"2024-05-01T10:00:00Z"}]}`))
		default:
			w.WriteHeader(http.StatusAccepted)
			_, _ = w.Write([]byte(`{"taskUid":1,"indexUid":"images","status":"enqueued","type":"documentAdditionOrUpdate"}`))
		}
	}))
	return srv, func() []meiliRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]meiliRequest(nil), seen...)
	}
}

func TestMeiliIndexWrites(t *testing.T) {
	srv, requests := meiliServer(t)
	defer srv.Close()
	ctx := context.Background()
	idx := NewMeiliIndex(srv.URL, "", "images", zap.NewNop())

	require.NoError(t, idx.IndexImage(ctx, models.ImageDocument{ID: 7, Filename: "cat.jpg", ProjectID: 3, OwnerID: "u1"}))
	require.NoError(t, idx.RenameImage(ctx, 7, "dog.jpg"))
	require.NoError(t, idx.DeleteImage(ctx, 7))

	reqs := requests()
	require.Len(t, reqs, 3)

	assert.Equal(t, http.MethodPost, reqs[0].Method)
	assert.Equal(t, "/indexes/images/documents", reqs[0].Path)
	assert.Equal(t, "primaryKey=id", reqs[0].Query)
	var added []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(reqs[0].Body), &added))
	require.Len(t, added, 1)
	assert.Equal(t, "cat.jpg", added[0]["filename"])

	assert.Equal(t, http.MethodPut, reqs[1].Method)
	assert.Equal(t, "primaryKey=id", reqs[1].Query)
	assert.JSONEq(t, `[{"id":7,"filename":"dog.jpg"}]`, reqs[1].Body)

	assert.Equal(t, http.MethodDelete, reqs[2].Method)
	assert.Equal(t, "/indexes/images/documents/7", reqs[2].Path)
}

func TestMeiliIndexSetProjectPublic(t *testing.T) {
	srv, requests := meiliServer(t)
	defer srv.Close()
	idx := NewMeiliIndex(srv.URL, "", "images", zap.NewNop())

	require.NoError(t, idx.SetProjectPublic(context.Background(), 3, true))

	reqs := requests()
	require.Len(t, reqs, 2)
	assert.Contains(t, reqs[0].Body, `"filter":"projectId = 3"`)
	assert.Equal(t, http.MethodPut, reqs[1].Method)
	assert.Equal(t, "primaryKey=id", reqs[1].Query)
	assert.JSONEq(t, `[{"id":7,"projectPublic":true},{"id":8,"projectPublic":true}]`, reqs[1].Body)
}

func TestMeiliIndexSearch(t *testing.T) {
	srv, requests := meiliServer(t)
	defer srv.Close()
	idx := NewMeiliIndex(srv.URL, "", "images", zap.NewNop())

	docs, err := idx.Search(context.Background(), "cat", "u1", 5)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, int64(7), docs[0].ID)

	reqs := requests()
	require.Len(t, reqs, 1)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(reqs[0].Body), &body))
	assert.Equal(t, "cat", body["q"])
	assert.Equal(t, float64(5), body["limit"])
	assert.Equal(t, `projectPublic = true OR ownerId = "u1"`, body["filter"])
}
