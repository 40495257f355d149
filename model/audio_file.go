package model

import "time"

// AudioFile is one archived recording: a metadata row pointing at an
// asset in the object store.
type AudioFile struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	FileURL    string    `json:"fileUrl"`    // absolute retrieval URL of the current asset
	Duration   int       `json:"duration"`   // whole seconds, always describes the asset at FileURL
	UploadedBy int64     `json:"uploadedBy"` // owning user, immutable
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
