package models

import "time"

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type Project struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"userId"`
	Public    bool      `json:"public"`
	CreatedAt time.Time `json:"createdAt"`
}

// Image is the relational row. StorageKey addresses the binary in the
// object store and is never sent to clients.
type Image struct {
	ID         int64     `json:"id"`
	StorageKey string    `json:"-"`
	Filename   string    `json:"filename"`
	ProjectID  int64     `json:"projectId"`
	OwnerID    string    `json:"userId"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ImageDocument is the denormalized search index entry for an image.
type ImageDocument struct {
	ID            int64     `json:"id"`
	StorageKey    string    `json:"storageKey"`
	Filename      string    `json:"filename"`
	ProjectID     int64     `json:"projectId"`
	OwnerID       string    `json:"ownerId"`
	CreatedAt     time.Time `json:"createdAt"`
	ProjectPublic bool      `json:"projectPublic"`
}

// SearchHit is an index entry as returned to clients, without the storage key.
type SearchHit struct {
	ID            int64     `json:"id"`
	Filename      string    `json:"filename"`
	ProjectID     int64     `json:"projectId"`
	OwnerID       string    `json:"ownerId"`
	CreatedAt     time.Time `json:"createdAt"`
	ProjectPublic bool      `json:"projectPublic"`
}

func (d ImageDocument) Hit() SearchHit {
	return SearchHit{
		ID:            d.ID,
		Filename:      d.Filename,
		ProjectID:     d.ProjectID,
		OwnerID:       d.OwnerID,
		CreatedAt:     d.CreatedAt,
		ProjectPublic: d.ProjectPublic,
	}
}

func NewImageDocument(img Image, projectPublic bool) ImageDocument {
	return ImageDocument{
		ID:            img.ID,
		StorageKey:    img.StorageKey,
		Filename:      img.Filename,
		ProjectID:     img.ProjectID,
		OwnerID:       img.OwnerID,
		CreatedAt:     img.CreatedAt,
		ProjectPublic: projectPublic,
	}
}
