package repository

import (
	"context"

	"github.com/ChetanRathod03/Ironclad-Secure-Vault/internal/model"
)

// Package repository contains data access layer abstractions.
// Implementations can live in subpackages (e.g., postgres) inside this directory.
// No authorization happens here; visibility rules belong to the service layer.

// FileRepository defines the metadata index for vault files using SQL queries only.
// No business logic here, strictly persistence operations.
type FileRepository interface {
	// Create inserts a new file record. Assigns ID and CreatedAt when absent.
	// Returns the stored record (may include values set by the DB).
	Create(ctx context.Context, f *model.File) (*model.File, error)

	// FindByID returns a file record by its ID. Returns sql.ErrNoRows when absent.
	FindByID(ctx context.Context, id string) (*model.File, error)

	// ListByOwner returns all records owned by ownerID.
	ListByOwner(ctx context.Context, ownerID string) ([]model.File, error)

	// ListAll returns every record. Callers gate this behind privileged roles.
	ListAll(ctx context.Context) ([]model.File, error)

	// SearchByOwner returns ownerID's records whose filename contains query.
	// Matching is case-sensitive substring containment.
	SearchByOwner(ctx context.Context, ownerID, query string) ([]model.File, error)

	// SearchAll is SearchByOwner without the owner scope.
	SearchAll(ctx context.Context, query string) ([]model.File, error)

	// Delete removes a record by ID. It returns nil if the row was deleted or did not exist.
	Delete(ctx context.Context, id string) error
}
