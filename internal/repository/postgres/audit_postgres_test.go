package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChetanRathod03/Ironclad-Secure-Vault/internal/model"
)

var auditCols = []string{"id", "actor_id", "action", "file_id", "recorded_at"}

func TestAuditLogPostgres_Append(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewAuditLogPostgres(db)

	fileID := "file-1"
	now := time.Now().UTC()
	rows := sqlmock.NewRows(auditCols).
		AddRow("entry-1", "alice", "UPLOAD", &fileID, now)

	mock.ExpectQuery("INSERT INTO audit_logs").
		WithArgs(sqlmock.AnyArg(), "alice", "UPLOAD", &fileID, sqlmock.AnyArg()).
		WillReturnRows(rows)

	entry, err := repo.Append(context.Background(), "alice", model.ActionUpload, &fileID)

	assert.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "alice", entry.ActorID)
	assert.Equal(t, model.ActionUpload, entry.Action)
	require.NotNil(t, entry.FileID)
	assert.Equal(t, "file-1", *entry.FileID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditLogPostgres_Append_NilFileRef(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewAuditLogPostgres(db)

	rows := sqlmock.NewRows(auditCols).
		AddRow("entry-1", "carol", "DELETE", nil, time.Now().UTC())

	mock.ExpectQuery("INSERT INTO audit_logs").
		WithArgs(sqlmock.AnyArg(), "carol", "DELETE", nil, sqlmock.AnyArg()).
		WillReturnRows(rows)

	entry, err := repo.Append(context.Background(), "carol", model.ActionDelete, nil)

	assert.NoError(t, err)
	require.NotNil(t, entry)
	assert.Nil(t, entry.FileID)
}

func TestAuditLogPostgres_ListAll(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewAuditLogPostgres(db)

	fileID := "file-1"
	rows := sqlmock.NewRows(auditCols).
		AddRow("entry-1", "alice", "UPLOAD", &fileID, time.Now().Add(-time.Minute)).
		AddRow("entry-2", "carol", "DOWNLOAD", &fileID, time.Now())

	mock.ExpectQuery("SELECT (.+) FROM audit_logs ORDER BY").
		WillReturnRows(rows)

	entries, err := repo.ListAll(context.Background())

	assert.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, model.ActionUpload, entries[0].Action)
	assert.Equal(t, model.ActionDownload, entries[1].Action)
}

func TestAuditLogPostgres_ListByActor(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewAuditLogPostgres(db)

	mock.ExpectQuery("SELECT (.+) FROM audit_logs WHERE actor_id = ?").
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows(auditCols))

	entries, err := repo.ListByActor(context.Background(), "alice")

	assert.NoError(t, err)
	assert.Empty(t, entries)
	assert.NoError(t, mock.ExpectationsWereMet())
}
