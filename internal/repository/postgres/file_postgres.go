package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/ChetanRathod03/Ironclad-Secure-Vault/internal/model"
	"github.com/ChetanRathod03/Ironclad-Secure-Vault/internal/repository"
)

// FilePostgres is a PostgreSQL implementation of repository.FileRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type FilePostgres struct {
	db *sql.DB
}

// NewFilePostgres creates a new FilePostgres repository.
func NewFilePostgres(db *sql.DB) *FilePostgres {
	return &FilePostgres{db: db}
}

var _ repository.FileRepository = (*FilePostgres)(nil)

const fileColumns = `id, filename, storage_path, owner_id, size, created_at`

// Create inserts a new file row and returns the stored record.
func (r *FilePostgres) Create(ctx context.Context, f *model.File) (*model.File, error) {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}

	const q = `
		INSERT INTO files (id, filename, storage_path, owner_id, size, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + fileColumns
	row := r.db.QueryRowContext(ctx, q,
		f.ID,
		f.Filename,
		f.StoragePath,
		f.OwnerID,
		f.Size,
		f.CreatedAt,
	)
	return scanFile(row)
}

// FindByID fetches a single file record by its ID.
func (r *FilePostgres) FindByID(ctx context.Context, id string) (*model.File, error) {
	const q = `
		SELECT ` + fileColumns + `
		FROM files
		WHERE id = $1
	`
	return scanFile(r.db.QueryRowContext(ctx, q, id))
}

// ListByOwner returns every record owned by ownerID, newest first.
func (r *FilePostgres) ListByOwner(ctx context.Context, ownerID string) ([]model.File, error) {
	const q = `
		SELECT ` + fileColumns + `
		FROM files
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC
	`
	return r.queryFiles(ctx, q, ownerID)
}

// ListAll returns every record, newest first.
func (r *FilePostgres) ListAll(ctx context.Context) ([]model.File, error) {
	const q = `
		SELECT ` + fileColumns + `
		FROM files
		ORDER BY created_at DESC, id DESC
	`
	return r.queryFiles(ctx, q)
}

// SearchByOwner matches by case-sensitive substring containment on filename.
func (r *FilePostgres) SearchByOwner(ctx context.Context, ownerID, query string) ([]model.File, error) {
	const q = `
		SELECT ` + fileColumns + `
		FROM files
		WHERE owner_id = $1 AND filename LIKE '%' || $2 || '%'
		ORDER BY created_at DESC, id DESC
	`
	return r.queryFiles(ctx, q, ownerID, query)
}

// SearchAll matches across all owners.
func (r *FilePostgres) SearchAll(ctx context.Context, query string) ([]model.File, error) {
	const q = `
		SELECT ` + fileColumns + `
		FROM files
		WHERE filename LIKE '%' || $1 || '%'
		ORDER BY created_at DESC, id DESC
	`
	return r.queryFiles(ctx, q, query)
}

// Delete removes a record by ID. It does not return an error if the row does not exist.
func (r *FilePostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM files WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	_, _ = res.RowsAffected()
	return nil
}

func (r *FilePostgres) queryFiles(ctx context.Context, q string, args ...any) ([]model.File, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.File, 0)
	for rows.Next() {
		var f model.File
		if err := rows.Scan(
			&f.ID,
			&f.Filename,
			&f.StoragePath,
			&f.OwnerID,
			&f.Size,
			&f.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func scanFile(row *sql.Row) (*model.File, error) {
	var f model.File
	if err := row.Scan(
		&f.ID,
		&f.Filename,
		&f.StoragePath,
		&f.OwnerID,
		&f.Size,
		&f.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &f, nil
}
