package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"time"

	"github.com/google/uuid"
)

// Package storage contains the vault's blob store abstraction for
// S3-compatible object stores. It holds encrypted payloads only and knows
// nothing about file metadata or authorization.

var (
	// ErrWrite wraps any backend failure while persisting a blob. The
	// caller must not commit metadata for a blob that failed to write.
	ErrWrite = errors.New("blob write failed")

	// ErrRead wraps a missing or unreadable blob.
	ErrRead = errors.New("blob read failed")
)

// PutObjectOptions define optional parameters for uploading blobs.
// Size should be the exact number of bytes if known; if unknown, set to -1
// and the implementation will buffer/chunk as supported by the backend.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo contains basic information about a stored blob.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage is the blob store: durable ciphertext objects addressed by an
// internal storage handle, never by display name.
type Storage interface {
	// Put writes a blob under the given key using the provided reader and options.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Get retrieves a blob's content as a streaming reader alongside its info.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Delete removes a blob by key. Deleting a key that does not exist is not an error.
	Delete(ctx context.Context, key string) error
}

// ObjectKey allocates a globally-unique storage handle for a new blob.
// The display name is appended purely for operator debuggability; uniqueness
// comes from the UUID alone, since display names may collide.
func ObjectKey(displayName string) string {
	return "vault/" + uuid.NewString() + "_" + path.Base(displayName)
}
