package model

import "time"

// AuditAction is the kind of sensitive operation an audit entry records.
type AuditAction string

const (
	ActionUpload   AuditAction = "UPLOAD"
	ActionDownload AuditAction = "DOWNLOAD"
	ActionDelete   AuditAction = "DELETE"
)

// AuditEntry is one append-only record of a sensitive action.
// FileID is a back-reference only: it stays set after the file is deleted
// and may point at a record that no longer exists.
type AuditEntry struct {
	ID        string      `json:"id"`
	ActorID   string      `json:"actor_id"`
	Action    AuditAction `json:"action"`
	FileID    *string     `json:"file_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}
