package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/meilisearch/meilisearch-go"
	"go.uber.org/zap"

	"beiboot-backend/internal/models"
)

const primaryKey = "id"

// MeiliIndex is an Index backed by a Meilisearch index.
type MeiliIndex struct {
	client meilisearch.ServiceManager
	name   string
	log    *zap.Logger
}

func NewMeiliIndex(url, apiKey, name string, log *zap.Logger) *MeiliIndex {
	var client meilisearch.ServiceManager
	if apiKey == "" {
		client = meilisearch.New(url)
	} else {
		client = meilisearch.New(url, meilisearch.WithAPIKey(apiKey))
	}
	return &MeiliIndex{client: client, name: name, log: log}
}

// EnsureSettings creates the index if needed and sets the attributes the
// visibility filter and project sync rely on.
func (m *MeiliIndex) EnsureSettings(ctx context.Context) error {
	// An "index already exists" task failure is expected here.
	_, _ = m.client.CreateIndexWithContext(ctx, &meilisearch.IndexConfig{Uid: m.name, PrimaryKey: primaryKey})

	settings := &meilisearch.Settings{
		SearchableAttributes: []string{"filename"},
		FilterableAttributes: []string{"ownerId", "projectId", "projectPublic"},
		SortableAttributes:   []string{"createdAt"},
	}
	task, err := m.client.Index(m.name).UpdateSettingsWithContext(ctx, settings)
	if err != nil {
		return fmt.Errorf("failed to update index settings: %w", err)
	}

	m.log.Info("search index settings updated",
		zap.String("index", m.name),
		zap.Int64("taskUID", task.TaskUID))
	return nil
}

func (m *MeiliIndex) IndexImage(ctx context.Context, doc models.ImageDocument) error {
	if _, err := m.client.Index(m.name).AddDocumentsWithContext(ctx, []models.ImageDocument{doc}, primaryKey); err != nil {
		return fmt.Errorf("failed to index image %d: %w", doc.ID, err)
	}
	return nil
}

func (m *MeiliIndex) RenameImage(ctx context.Context, imageID int64, filename string) error {
	partial := []map[string]interface{}{{primaryKey: imageID, "filename": filename}}
	if _, err := m.client.Index(m.name).UpdateDocumentsWithContext(ctx, partial, primaryKey); err != nil {
		return fmt.Errorf("failed to rename image %d in index: %w", imageID, err)
	}
	return nil
}

// SetProjectPublic rewrites projectPublic on every document of a project.
func (m *MeiliIndex) SetProjectPublic(ctx context.Context, projectID int64, public bool) error {
	index := m.client.Index(m.name)

	var docs meilisearch.DocumentsResult
	err := index.GetDocumentsWithContext(ctx, &meilisearch.DocumentsQuery{
		Fields: []string{primaryKey},
		Filter: fmt.Sprintf("projectId = %d", projectID),
		Limit:  10000,
	}, &docs)
	if err != nil {
		return fmt.Errorf("failed to list documents of project %d: %w", projectID, err)
	}
	if len(docs.Results) == 0 {
		return nil
	}

	partial := make([]map[string]interface{}, 0, len(docs.Results))
	for _, d := range docs.Results {
		partial = append(partial, map[string]interface{}{primaryKey: d[primaryKey], "projectPublic": public})
	}

	task, err := index.UpdateDocumentsWithContext(ctx, partial, primaryKey)
	if err != nil {
		return fmt.Errorf("failed to update visibility of project %d: %w", projectID, err)
	}

	m.log.Debug("project visibility synced to index",
		zap.Int64("projectId", projectID),
		zap.Bool("public", public),
		zap.Int("documents", len(partial)),
		zap.Int64("taskUID", task.TaskUID))
	return nil
}

func (m *MeiliIndex) DeleteImage(ctx context.Context, imageID int64) error {
	if _, err := m.client.Index(m.name).DeleteDocumentWithContext(ctx, strconv.FormatInt(imageID, 10)); err != nil {
		return fmt.Errorf("failed to delete image %d from index: %w", imageID, err)
	}
	return nil
}

func (m *MeiliIndex) Search(ctx context.Context, query, callerID string, limit int) ([]models.ImageDocument, error) {
	resp, err := m.client.Index(m.name).SearchWithContext(ctx, query, &meilisearch.SearchRequest{
		Filter: VisibilityFilter(callerID),
		Limit:  int64(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	return decodeHits(resp.Hits)
}

// VisibilityFilter limits hits to public projects plus the caller's own images.
func VisibilityFilter(callerID string) string {
	if callerID == "" {
		return "projectPublic = true"
	}
	escaped := strings.ReplaceAll(callerID, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	return fmt.Sprintf(`projectPublic = true OR ownerId = "%s"`, escaped)
}

func decodeHits(hits interface{}) ([]models.ImageDocument, error) {
	raw, err := json.Marshal(hits)
	if err != nil {
		return nil, fmt.Errorf("failed to encode search hits: %w", err)
	}
	docs := []models.ImageDocument{}
	if string(raw) == "null" {
		return docs, nil
	}
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode search hits: %w", err)
	}
	return docs, nil
}
