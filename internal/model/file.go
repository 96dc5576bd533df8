package model

import "time"

// File represents one stored vault file.
// This is a pure domain model with no database-specific dependencies or tags.
// It can be used across layers (HTTP, service, storage) without coupling to persistence.
type File struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	StoragePath string    `json:"-"`
	OwnerID     string    `json:"owner_id"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
}
