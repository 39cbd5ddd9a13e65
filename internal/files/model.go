package files

import "time"

// File represents an uploaded data file owned by a user. Ingestion jobs
// reference files by ID.
type File struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"ownerId"`
	Name       string    `json:"name"`
	MimeType   string    `json:"mimeType"`
	SizeBytes  int64     `json:"sizeBytes"`
	StorageKey string    `json:"-"`
	CreatedAt  time.Time `json:"createdAt"`
}
