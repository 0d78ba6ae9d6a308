package models

type CreateProjectRequest struct {
	Name   string `json:"name"`
	Public *bool  `json:"public,omitempty"`
}

type UpdateProjectRequest struct {
	ProjectID int64  `json:"projectId"`
	Name      string `json:"name"`
	Public    bool   `json:"public"`
}

type RenameImageRequest struct {
	Name string `json:"name,omitempty"`
}

type WriteMetadataRequest struct {
	Tags map[string]interface{} `json:"tags"`
}

type BatchWriteMetadataRequest struct {
	ImageIDs []int64               `json:"imageIds"`
	Tags     map[string]interface{} `json:"tags"`
}

// UploadFile is one file of a multipart upload, already read into memory.
type UploadFile struct {
	Filename string
	Data     []byte
}
