// Package fakes holds in-memory stand-ins for the stores and tools the
// services depend on, with switches to inject failures.
package fakes

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"beiboot-backend/internal/database"
	"beiboot-backend/internal/models"
	"beiboot-backend/internal/storage"
)

var ErrInjected = errors.New("injected failure")

// Store is an in-memory services.Store.
type Store struct {
	mu       sync.Mutex
	Users    map[string]models.User
	Projects map[int64]models.Project
	Images   map[int64]models.Image
	nextID   int64

	FailCreateImageAt int // fail the nth CreateImage call (1-based), 0 = never
	createImageCalls  int
	FailDeleteImage   bool
	FailGetProject    bool
}

func NewStore() *Store {
	return &Store{
		Users:    map[string]models.User{},
		Projects: map[int64]models.Project{},
		Images:   map[int64]models.Image{},
	}
}

func (f *Store) GetUser(_ context.Context, userID string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.Users[userID]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &u, nil
}

func (f *Store) EnsureUser(_ context.Context, userID, username string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.Users[userID]; !ok {
		f.Users[userID] = models.User{ID: userID, Username: username}
	}
	return nil
}

func (f *Store) CreateProject(_ context.Context, ownerID, name string, public bool) (*models.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	p := models.Project{
		ID:        f.nextID,
		Name:      name,
		OwnerID:   ownerID,
		Public:    public,
		CreatedAt: time.Unix(f.nextID, 0),
	}
	f.Projects[p.ID] = p
	return &p, nil
}

func (f *Store) GetProject(_ context.Context, projectID int64) (*models.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailGetProject {
		return nil, ErrInjected
	}
	p, ok := f.Projects[projectID]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &p, nil
}

func (f *Store) listProjects(keep func(models.Project) bool) []models.Project {
	out := []models.Project{}
	for _, p := range f.Projects {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (f *Store) ListProjectsByOwner(_ context.Context, ownerID string) ([]models.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listProjects(func(p models.Project) bool { return p.OwnerID == ownerID }), nil
}

func (f *Store) ListPublicProjects(_ context.Context) ([]models.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listProjects(func(p models.Project) bool { return p.Public }), nil
}

func (f *Store) UpdateProject(_ context.Context, projectID int64, name string, public bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.Projects[projectID]
	if !ok {
		return database.ErrNotFound
	}
	p.Name = name
	p.Public = public
	f.Projects[projectID] = p
	return nil
}

func (f *Store) CreateImage(_ context.Context, img *models.Image) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createImageCalls++
	if f.FailCreateImageAt > 0 && f.createImageCalls == f.FailCreateImageAt {
		return ErrInjected
	}
	f.nextID++
	img.ID = f.nextID
	img.CreatedAt = time.Unix(f.nextID, 0)
	f.Images[img.ID] = *img
	return nil
}

func (f *Store) GetImage(_ context.Context, imageID int64) (*models.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	img, ok := f.Images[imageID]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &img, nil
}

func (f *Store) ListImages(_ context.Context, projectID int64) ([]models.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Image{}
	for _, img := range f.Images {
		if img.ProjectID == projectID {
			out = append(out, img)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *Store) RenameImage(_ context.Context, imageID int64, filename string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	img, ok := f.Images[imageID]
	if !ok {
		return database.ErrNotFound
	}
	img.Filename = filename
	f.Images[imageID] = img
	return nil
}

func (f *Store) DeleteImage(_ context.Context, imageID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailDeleteImage {
		return ErrInjected
	}
	if _, ok := f.Images[imageID]; !ok {
		return database.ErrNotFound
	}
	delete(f.Images, imageID)
	return nil
}

// Objects is an in-memory storage.ObjectStore.
type Objects struct {
	mu           sync.Mutex
	Data         map[string][]byte
	ContentTypes map[string]string
	putCalls     int
	FailPutAt    int // fail the nth Put call (1-based), 0 = never
	FailRemove   bool
	FailSign     map[string]bool
}

func NewObjects() *Objects {
	return &Objects{
		Data:         map[string][]byte{},
		ContentTypes: map[string]string{},
		FailSign:     map[string]bool{},
	}
}

func (f *Objects) Put(_ context.Context, key string, body io.Reader, _ int64, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.putCalls++
	if f.FailPutAt > 0 && f.putCalls == f.FailPutAt {
		return ErrInjected
	}
	f.Data[key] = data
	f.ContentTypes[key] = contentType
	return nil
}

func (f *Objects) Get(_ context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.Data[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrObjectNotFound, key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *Objects) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailRemove {
		return ErrInjected
	}
	delete(f.Data, key)
	return nil
}

func (f *Objects) PresignGet(_ context.Context, key string, expiry time.Duration) (string, error) {
	if f.FailSign[key] {
		return "", ErrInjected
	}
	return fmt.Sprintf("https://objects.test/%s?expires=%d", key, int(expiry.Seconds())), nil
}

func (f *Objects) Has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.Data[key]
	return ok
}

func (f *Objects) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Data)
}

// Index is an in-memory search.Index applying the same visibility rule.
type Index struct {
	mu   sync.Mutex
	Docs map[int64]models.ImageDocument
	Fail bool

	LastQuery  string
	LastCaller string
	LastLimit  int
}

func NewIndex() *Index {
	return &Index{Docs: map[int64]models.ImageDocument{}}
}

func (f *Index) IndexImage(_ context.Context, doc models.ImageDocument) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Fail {
		return ErrInjected
	}
	f.Docs[doc.ID] = doc
	return nil
}

func (f *Index) RenameImage(_ context.Context, imageID int64, filename string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Fail {
		return ErrInjected
	}
	d := f.Docs[imageID]
	d.Filename = filename
	f.Docs[imageID] = d
	return nil
}

func (f *Index) SetProjectPublic(_ context.Context, projectID int64, public bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Fail {
		return ErrInjected
	}
	for id, d := range f.Docs {
		if d.ProjectID == projectID {
			d.ProjectPublic = public
			f.Docs[id] = d
		}
	}
	return nil
}

func (f *Index) DeleteImage(_ context.Context, imageID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Fail {
		return ErrInjected
	}
	delete(f.Docs, imageID)
	return nil
}

func (f *Index) Search(_ context.Context, query, callerID string, limit int) ([]models.ImageDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastQuery, f.LastCaller, f.LastLimit = query, callerID, limit
	if f.Fail {
		return nil, ErrInjected
	}
	out := []models.ImageDocument{}
	for _, d := range f.Docs {
		if d.ProjectPublic || (callerID != "" && d.OwnerID == callerID) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Tool keeps tags per file content, so a write followed by an upload
// and a fresh download round-trips.
type Tool struct {
	mu       sync.Mutex
	Tags     map[string]map[string]interface{}
	Paths    []string
	FailRead bool
	Written  []map[string]interface{}
}

func NewTool() *Tool {
	return &Tool{Tags: map[string]map[string]interface{}{}}
}

func (f *Tool) ReadTags(_ context.Context, path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Paths = append(f.Paths, path)
	if f.FailRead {
		return nil, ErrInjected
	}
	out := map[string]interface{}{}
	for k, v := range f.Tags[string(data)] {
		out[k] = v
	}
	return out, nil
}

func (f *Tool) WriteTags(_ context.Context, path string, tags map[string]interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Paths = append(f.Paths, path)
	f.Written = append(f.Written, tags)

	next := string(data) + "+"
	merged := map[string]interface{}{}
	for k, v := range f.Tags[string(data)] {
		merged[k] = v
	}
	for k, v := range tags {
		if s, ok := v.(string); ok && s == "" {
			delete(merged, k)
			continue
		}
		merged[k] = v
	}
	f.Tags[next] = merged
	return os.WriteFile(path, []byte(next), 0o600)
}
