package repository

import (
	"context"

	"github.com/ChetanRathod03/Ironclad-Secure-Vault/internal/model"
)

// AuditLogRepository is the append-only audit trail. There are deliberately
// no update or delete operations in this interface.
type AuditLogRepository interface {
	// Append records one entry. The repository assigns the ID and the
	// timestamp itself so callers cannot backdate entries. Returns the
	// stored entry.
	Append(ctx context.Context, actorID string, action model.AuditAction, fileID *string) (*model.AuditEntry, error)

	// ListAll returns the full trail in insertion order. Callers gate this
	// behind the admin role.
	ListAll(ctx context.Context) ([]model.AuditEntry, error)

	// ListByActor returns the entries recorded for one actor in insertion order.
	ListByActor(ctx context.Context, actorID string) ([]model.AuditEntry, error)
}
