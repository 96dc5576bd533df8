package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/ChetanRathod03/Ironclad-Secure-Vault/internal/model"
	"github.com/ChetanRathod03/Ironclad-Secure-Vault/internal/repository"
)

// AuditLogPostgres is a PostgreSQL implementation of repository.AuditLogRepository.
// It only ever inserts and selects; the audit trail is append-only.
type AuditLogPostgres struct {
	db *sql.DB
}

// NewAuditLogPostgres creates a new AuditLogPostgres repository.
func NewAuditLogPostgres(db *sql.DB) *AuditLogPostgres {
	return &AuditLogPostgres{db: db}
}

var _ repository.AuditLogRepository = (*AuditLogPostgres)(nil)

const auditColumns = `id, actor_id, action, file_id, recorded_at`

// Append inserts one entry. ID and timestamp are assigned here, not by the
// caller, so entries cannot be backdated.
func (r *AuditLogPostgres) Append(ctx context.Context, actorID string, action model.AuditAction, fileID *string) (*model.AuditEntry, error) {
	const q = `
		INSERT INTO audit_logs (id, actor_id, action, file_id, recorded_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + auditColumns
	row := r.db.QueryRowContext(ctx, q,
		uuid.NewString(),
		actorID,
		string(action),
		fileID,
		time.Now().UTC(),
	)
	return scanAuditEntry(row)
}

// ListAll returns the full trail in insertion order.
func (r *AuditLogPostgres) ListAll(ctx context.Context) ([]model.AuditEntry, error) {
	const q = `
		SELECT ` + auditColumns + `
		FROM audit_logs
		ORDER BY recorded_at ASC, id ASC
	`
	return r.queryEntries(ctx, q)
}

// ListByActor returns one actor's entries in insertion order.
func (r *AuditLogPostgres) ListByActor(ctx context.Context, actorID string) ([]model.AuditEntry, error) {
	const q = `
		SELECT ` + auditColumns + `
		FROM audit_logs
		WHERE actor_id = $1
		ORDER BY recorded_at ASC, id ASC
	`
	return r.queryEntries(ctx, q, actorID)
}

func (r *AuditLogPostgres) queryEntries(ctx context.Context, q string, args ...any) ([]model.AuditEntry, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.AuditEntry, 0)
	for rows.Next() {
		var e model.AuditEntry
		var action string
		if err := rows.Scan(
			&e.ID,
			&e.ActorID,
			&action,
			&e.FileID,
			&e.Timestamp,
		); err != nil {
			return nil, err
		}
		e.Action = model.AuditAction(action)
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func scanAuditEntry(row *sql.Row) (*model.AuditEntry, error) {
	var e model.AuditEntry
	var action string
	if err := row.Scan(
		&e.ID,
		&e.ActorID,
		&action,
		&e.FileID,
		&e.Timestamp,
	); err != nil {
		return nil, err
	}
	e.Action = model.AuditAction(action)
	return &e, nil
}
