package services

import (
	"context"

	"beiboot-backend/internal/models"
	"beiboot-backend/internal/search"
)

const (
	DefaultSearchLimit = 20
	MaxSearchLimit     = 100
)

type SearchService struct {
	index search.Index
}

func NewSearchService(index search.Index) *SearchService {
	return &SearchService{index: index}
}

// SearchImages finds images in public projects plus the caller's own.
func (s *SearchService) SearchImages(ctx context.Context, callerID, query string, limit int) ([]models.ImageDocument, error) {
	switch {
	case limit <= 0:
		limit = DefaultSearchLimit
	case limit > MaxSearchLimit:
		limit = MaxSearchLimit
	}

	docs, err := s.index.Search(ctx, query, callerID, limit)
	if err != nil {
		return nil, Upstream("search unavailable", err)
	}
	if docs == nil {
		docs = []models.ImageDocument{}
	}
	return docs, nil
}
