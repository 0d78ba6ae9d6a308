package models

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

type CreateProjectResponse struct {
	ID int64 `json:"id"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

// SignedImage is an image with its storage key swapped for a presigned URL.
// URL is null when signing failed for this image.
type SignedImage struct {
	Image
	URL *string `json:"url"`
}

type MetadataResponse struct {
	ImageID int64                  `json:"imageId"`
	Tags    map[string]interface{} `json:"tags"`
}

type MergedMetadataResponse struct {
	ImageIDs []int64                `json:"imageIds"`
	Tags     map[string]interface{} `json:"tags"`
}

type MetadataWriteResult struct {
	ImageID int64  `json:"imageId"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type BatchWriteMetadataResponse struct {
	Results []MetadataWriteResult `json:"results"`
}

type SearchResponse struct {
	Hits []SearchHit `json:"hits"`
}
