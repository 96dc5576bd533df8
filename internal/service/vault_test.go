package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ChetanRathod03/Ironclad-Secure-Vault/internal/crypto"
	"github.com/ChetanRathod03/Ironclad-Secure-Vault/internal/model"
	repoMocks "github.com/ChetanRathod03/Ironclad-Secure-Vault/internal/repository/mocks"
	"github.com/ChetanRathod03/Ironclad-Secure-Vault/internal/storage"
	storeMocks "github.com/ChetanRathod03/Ironclad-Secure-Vault/internal/storage/mocks"
)

var (
	alice = model.Actor{ID: "alice", Role: model.RoleUser}
	bob   = model.Actor{ID: "bob", Role: model.RoleUser}
	mia   = model.Actor{ID: "mia", Role: model.RoleManager}
	carol = model.Actor{ID: "carol", Role: model.RoleAdmin}
)

type vaultFixture struct {
	store *storeMocks.MockStorage
	files *repoMocks.MockFileRepository
	audit *repoMocks.MockAuditLogRepository
	key   crypto.Key
	svc   VaultService
}

func newVaultFixture(t *testing.T) *vaultFixture {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	f := &vaultFixture{
		store: new(storeMocks.MockStorage),
		files: new(repoMocks.MockFileRepository),
		audit: new(repoMocks.MockAuditLogRepository),
		key:   key,
	}
	f.svc = NewVaultService(f.store, f.files, f.audit, key)
	return f
}

// sealedBlob returns what the blob store would hold for the given plaintext.
func (f *vaultFixture) sealedBlob(t *testing.T, plaintext []byte) io.ReadCloser {
	t.Helper()
	sealed, err := crypto.Encrypt(plaintext, f.key)
	require.NoError(t, err)
	return io.NopCloser(bytes.NewReader(sealed))
}

func auditOK(actorID string, action model.AuditAction) *model.AuditEntry {
	return &model.AuditEntry{ID: "entry", ActorID: actorID, Action: action}
}

func TestVaultService_Upload(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path", func(t *testing.T) {
		f := newVaultFixture(t)

		f.store.On("Put", ctx, mock.MatchedBy(func(key string) bool {
			return strings.HasPrefix(key, "vault/") && strings.HasSuffix(key, "_report.pdf")
		}), mock.Anything, mock.MatchedBy(func(opt storage.PutObjectOptions) bool {
			return opt.ContentType == "application/octet-stream" &&
				opt.Metadata["original-filename"] == "report.pdf"
		})).Return(storage.ObjectInfo{}, nil)

		f.files.On("Create", ctx, mock.MatchedBy(func(rec *model.File) bool {
			return rec.Filename == "report.pdf" &&
				rec.OwnerID == "alice" &&
				rec.Size == 10 &&
				strings.HasPrefix(rec.StoragePath, "vault/")
		})).Return(&model.File{ID: "file-1", Filename: "report.pdf", OwnerID: "alice"}, nil)

		f.audit.On("Append", ctx, "alice", model.ActionUpload, mock.MatchedBy(func(id *string) bool {
			return id != nil && *id == "file-1"
		})).Return(auditOK("alice", model.ActionUpload), nil)

		rec, err := f.svc.Upload(ctx, alice, "report.pdf", []byte("0123456789"))

		require.NoError(t, err)
		assert.Equal(t, "file-1", rec.ID)
		assert.Equal(t, "alice", rec.OwnerID)
		f.store.AssertExpectations(t)
		f.files.AssertExpectations(t)
		f.audit.AssertExpectations(t)
	})

	t.Run("stored blob is encrypted, not the raw payload", func(t *testing.T) {
		f := newVaultFixture(t)

		var sealed []byte
		f.store.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				var err error
				sealed, err = io.ReadAll(args.Get(2).(io.Reader))
				require.NoError(t, err)
			}).
			Return(storage.ObjectInfo{}, nil)
		f.files.On("Create", ctx, mock.Anything).
			Return(&model.File{ID: "file-1"}, nil)
		f.audit.On("Append", ctx, "alice", model.ActionUpload, mock.Anything).
			Return(auditOK("alice", model.ActionUpload), nil)

		payload := []byte("top secret contents")
		_, err := f.svc.Upload(ctx, alice, "secret.txt", payload)

		require.NoError(t, err)
		assert.NotContains(t, string(sealed), "top secret")

		got, err := crypto.Decrypt(sealed, f.key)
		require.NoError(t, err)
		assert.Equal(t, payload, got)
	})

	t.Run("empty payload", func(t *testing.T) {
		f := newVaultFixture(t)

		_, err := f.svc.Upload(ctx, alice, "report.pdf", nil)

		assert.ErrorIs(t, err, ErrEmptyFile)
		f.store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		f.audit.AssertNotCalled(t, "Append", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("blank filename", func(t *testing.T) {
		f := newVaultFixture(t)

		_, err := f.svc.Upload(ctx, alice, "   ", []byte("data"))

		assert.ErrorIs(t, err, ErrFilenameRequired)
	})

	t.Run("storage error leaves no metadata", func(t *testing.T) {
		f := newVaultFixture(t)

		f.store.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
			Return(storage.ObjectInfo{}, storage.ErrWrite)

		_, err := f.svc.Upload(ctx, alice, "report.pdf", []byte("data"))

		assert.ErrorIs(t, err, storage.ErrWrite)
		f.files.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		f.audit.AssertNotCalled(t, "Append", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("metadata error rolls back blob", func(t *testing.T) {
		f := newVaultFixture(t)

		var putKey string
		f.store.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { putKey = args.String(1) }).
			Return(storage.ObjectInfo{}, nil)
		f.files.On("Create", ctx, mock.Anything).Return(nil, errors.New("db fail"))
		f.store.On("Delete", ctx, mock.MatchedBy(func(key string) bool { return key == putKey })).
			Return(nil)

		_, err := f.svc.Upload(ctx, alice, "report.pdf", []byte("data"))

		assert.ErrorContains(t, err, "metadata save failed: db fail")
		f.store.AssertExpectations(t)
	})

	t.Run("metadata error with failed rollback", func(t *testing.T) {
		f := newVaultFixture(t)

		f.store.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
			Return(storage.ObjectInfo{}, nil)
		f.files.On("Create", ctx, mock.Anything).Return(nil, errors.New("db fail"))
		f.store.On("Delete", ctx, mock.Anything).Return(errors.New("delete fail"))

		_, err := f.svc.Upload(ctx, alice, "report.pdf", []byte("data"))

		assert.ErrorContains(t, err, "rollback delete failed: delete fail")
	})

	t.Run("audit failure undoes the upload", func(t *testing.T) {
		f := newVaultFixture(t)

		f.store.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
			Return(storage.ObjectInfo{}, nil)
		f.files.On("Create", ctx, mock.Anything).
			Return(&model.File{ID: "file-1"}, nil)
		f.audit.On("Append", ctx, "alice", model.ActionUpload, mock.Anything).
			Return(nil, errors.New("audit down"))
		f.store.On("Delete", ctx, mock.Anything).Return(nil)
		f.files.On("Delete", ctx, "file-1").Return(nil)

		_, err := f.svc.Upload(ctx, alice, "report.pdf", []byte("data"))

		assert.ErrorContains(t, err, "audit append failed")
		f.store.AssertExpectations(t)
		f.files.AssertExpectations(t)
	})
}

func TestVaultService_List(t *testing.T) {
	ctx := context.Background()
	all := []model.File{{ID: "1"}, {ID: "2"}, {ID: "3"}}
	own := []model.File{{ID: "1"}}

	tests := []struct {
		name  string
		actor model.Actor
		setup func(f *vaultFixture)
		want  []model.File
	}{
		{
			name:  "user sees own files",
			actor: alice,
			setup: func(f *vaultFixture) {
				f.files.On("ListByOwner", ctx, "alice").Return(own, nil)
			},
			want: own,
		},
		{
			name:  "manager sees all files",
			actor: mia,
			setup: func(f *vaultFixture) {
				f.files.On("ListAll", ctx).Return(all, nil)
			},
			want: all,
		},
		{
			name:  "admin sees all files",
			actor: carol,
			setup: func(f *vaultFixture) {
				f.files.On("ListAll", ctx).Return(all, nil)
			},
			want: all,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newVaultFixture(t)
			tt.setup(f)

			got, err := f.svc.List(ctx, tt.actor)

			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
			f.files.AssertExpectations(t)
		})
	}
}

func TestVaultService_Search(t *testing.T) {
	ctx := context.Background()

	t.Run("user scoped search", func(t *testing.T) {
		f := newVaultFixture(t)
		f.files.On("SearchByOwner", ctx, "alice", "report").
			Return([]model.File{{ID: "1"}}, nil)

		got, err := f.svc.Search(ctx, alice, "report")

		assert.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("manager unscoped search", func(t *testing.T) {
		f := newVaultFixture(t)
		f.files.On("SearchAll", ctx, "report").
			Return([]model.File{{ID: "1"}, {ID: "2"}}, nil)

		got, err := f.svc.Search(ctx, mia, "report")

		assert.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("query is trimmed", func(t *testing.T) {
		f := newVaultFixture(t)
		f.files.On("SearchByOwner", ctx, "alice", "report").
			Return([]model.File{}, nil)

		_, err := f.svc.Search(ctx, alice, "  report  ")

		assert.NoError(t, err)
		f.files.AssertExpectations(t)
	})

	t.Run("blank query behaves as list", func(t *testing.T) {
		f := newVaultFixture(t)
		own := []model.File{{ID: "1"}}
		f.files.On("ListByOwner", ctx, "alice").Return(own, nil)

		got, err := f.svc.Search(ctx, alice, "   ")

		assert.NoError(t, err)
		assert.Equal(t, own, got)
		f.files.AssertNotCalled(t, "SearchByOwner", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestVaultService_Download(t *testing.T) {
	ctx := context.Background()
	payload := []byte("0123456789")

	record := func() *model.File {
		return &model.File{
			ID:          "file-1",
			Filename:    "report.pdf",
			StoragePath: "vault/x_report.pdf",
			OwnerID:     "alice",
		}
	}

	t.Run("owner round-trips the original bytes", func(t *testing.T) {
		f := newVaultFixture(t)
		f.files.On("FindByID", ctx, "file-1").Return(record(), nil)
		f.store.On("Get", ctx, "vault/x_report.pdf").
			Return(f.sealedBlob(t, payload), storage.ObjectInfo{}, nil)
		f.audit.On("Append", ctx, "alice", model.ActionDownload, mock.MatchedBy(func(id *string) bool {
			return id != nil && *id == "file-1"
		})).Return(auditOK("alice", model.ActionDownload), nil)

		res, err := f.svc.Download(ctx, alice, "file-1")

		require.NoError(t, err)
		assert.Equal(t, payload, res.Data)
		assert.Equal(t, "report.pdf", res.Filename)
		f.audit.AssertExpectations(t)
	})

	t.Run("distinct user is forbidden", func(t *testing.T) {
		f := newVaultFixture(t)
		f.files.On("FindByID", ctx, "file-1").Return(record(), nil)

		_, err := f.svc.Download(ctx, bob, "file-1")

		assert.ErrorIs(t, err, ErrForbidden)
		f.store.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
		f.audit.AssertNotCalled(t, "Append", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("manager may download", func(t *testing.T) {
		f := newVaultFixture(t)
		f.files.On("FindByID", ctx, "file-1").Return(record(), nil)
		f.store.On("Get", ctx, "vault/x_report.pdf").
			Return(f.sealedBlob(t, payload), storage.ObjectInfo{}, nil)
		f.audit.On("Append", ctx, "mia", model.ActionDownload, mock.Anything).
			Return(auditOK("mia", model.ActionDownload), nil)

		res, err := f.svc.Download(ctx, mia, "file-1")

		require.NoError(t, err)
		assert.Equal(t, payload, res.Data)
	})

	t.Run("admin may download", func(t *testing.T) {
		f := newVaultFixture(t)
		f.files.On("FindByID", ctx, "file-1").Return(record(), nil)
		f.store.On("Get", ctx, "vault/x_report.pdf").
			Return(f.sealedBlob(t, payload), storage.ObjectInfo{}, nil)
		f.audit.On("Append", ctx, "carol", model.ActionDownload, mock.Anything).
			Return(auditOK("carol", model.ActionDownload), nil)

		res, err := f.svc.Download(ctx, carol, "file-1")

		require.NoError(t, err)
		assert.Equal(t, payload, res.Data)
	})

	t.Run("unknown id", func(t *testing.T) {
		f := newVaultFixture(t)
		f.files.On("FindByID", ctx, "missing").Return(nil, sql.ErrNoRows)

		_, err := f.svc.Download(ctx, alice, "missing")

		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("blank id", func(t *testing.T) {
		f := newVaultFixture(t)

		_, err := f.svc.Download(ctx, alice, "")

		assert.ErrorIs(t, err, ErrIDRequired)
	})

	t.Run("unreadable blob", func(t *testing.T) {
		f := newVaultFixture(t)
		f.files.On("FindByID", ctx, "file-1").Return(record(), nil)
		f.store.On("Get", ctx, "vault/x_report.pdf").
			Return(nil, storage.ObjectInfo{}, storage.ErrRead)

		_, err := f.svc.Download(ctx, alice, "file-1")

		assert.ErrorIs(t, err, storage.ErrRead)
		f.audit.AssertNotCalled(t, "Append", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("corrupted blob", func(t *testing.T) {
		f := newVaultFixture(t)
		f.files.On("FindByID", ctx, "file-1").Return(record(), nil)
		f.store.On("Get", ctx, "vault/x_report.pdf").
			Return(io.NopCloser(bytes.NewReader([]byte("garbage"))), storage.ObjectInfo{}, nil)

		_, err := f.svc.Download(ctx, alice, "file-1")

		assert.ErrorIs(t, err, crypto.ErrDecryption)
	})

	t.Run("audit failure blocks the read", func(t *testing.T) {
		f := newVaultFixture(t)
		f.files.On("FindByID", ctx, "file-1").Return(record(), nil)
		f.store.On("Get", ctx, "vault/x_report.pdf").
			Return(f.sealedBlob(t, payload), storage.ObjectInfo{}, nil)
		f.audit.On("Append", ctx, "alice", model.ActionDownload, mock.Anything).
			Return(nil, errors.New("audit down"))

		res, err := f.svc.Download(ctx, alice, "file-1")

		assert.Nil(t, res)
		assert.ErrorContains(t, err, "audit append failed")
	})
}

func TestVaultService_Delete(t *testing.T) {
	ctx := context.Background()

	record := func() *model.File {
		return &model.File{
			ID:          "file-1",
			Filename:    "report.pdf",
			StoragePath: "vault/x_report.pdf",
			OwnerID:     "alice",
		}
	}

	t.Run("non-admin forbidden, nothing touched", func(t *testing.T) {
		for _, actor := range []model.Actor{alice, mia} {
			f := newVaultFixture(t)

			err := f.svc.Delete(ctx, actor, "file-1")

			assert.ErrorIs(t, err, ErrForbidden)
			f.files.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
			f.files.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
			f.store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
		}
	})

	t.Run("admin deletes blob, record and audits", func(t *testing.T) {
		f := newVaultFixture(t)
		f.files.On("FindByID", ctx, "file-1").Return(record(), nil)
		f.store.On("Delete", ctx, "vault/x_report.pdf").Return(nil)
		f.files.On("Delete", ctx, "file-1").Return(nil)
		f.audit.On("Append", ctx, "carol", model.ActionDelete, mock.MatchedBy(func(id *string) bool {
			return id != nil && *id == "file-1"
		})).Return(auditOK("carol", model.ActionDelete), nil)

		err := f.svc.Delete(ctx, carol, "file-1")

		assert.NoError(t, err)
		f.store.AssertExpectations(t)
		f.files.AssertExpectations(t)
		f.audit.AssertExpectations(t)
	})

	t.Run("unknown id", func(t *testing.T) {
		f := newVaultFixture(t)
		f.files.On("FindByID", ctx, "missing").Return(nil, sql.ErrNoRows)

		err := f.svc.Delete(ctx, carol, "missing")

		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("blob failure still removes the record and surfaces", func(t *testing.T) {
		f := newVaultFixture(t)
		f.files.On("FindByID", ctx, "file-1").Return(record(), nil)
		f.store.On("Delete", ctx, "vault/x_report.pdf").Return(errors.New("minio down"))
		f.files.On("Delete", ctx, "file-1").Return(nil)

		err := f.svc.Delete(ctx, carol, "file-1")

		assert.ErrorContains(t, err, "minio down")
		f.files.AssertCalled(t, "Delete", ctx, "file-1")
		f.audit.AssertNotCalled(t, "Append", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestVaultService_ListAuditLogs(t *testing.T) {
	ctx := context.Background()

	t.Run("admin gets the full trail", func(t *testing.T) {
		f := newVaultFixture(t)
		trail := []model.AuditEntry{
			{ID: "1", ActorID: "alice", Action: model.ActionUpload},
			{ID: "2", ActorID: "carol", Action: model.ActionDownload},
		}
		f.audit.On("ListAll", ctx).Return(trail, nil)

		got, err := f.svc.ListAuditLogs(ctx, carol)

		assert.NoError(t, err)
		assert.Equal(t, trail, got)
	})

	t.Run("non-admin forbidden", func(t *testing.T) {
		for _, actor := range []model.Actor{alice, mia} {
			f := newVaultFixture(t)

			_, err := f.svc.ListAuditLogs(ctx, actor)

			assert.ErrorIs(t, err, ErrForbidden)
			f.audit.AssertNotCalled(t, "ListAll", mock.Anything)
		}
	})
}

func TestVaultService_ListActorAuditLogs(t *testing.T) {
	ctx := context.Background()
	f := newVaultFixture(t)

	own := []model.AuditEntry{{ID: "1", ActorID: "alice", Action: model.ActionUpload}}
	f.audit.On("ListByActor", ctx, "alice").Return(own, nil)

	got, err := f.svc.ListActorAuditLogs(ctx, alice)

	assert.NoError(t, err)
	assert.Equal(t, own, got)
}

func TestVaultService_DownloadDeleteSameFileSerialized(t *testing.T) {
	ctx := context.Background()
	f := newVaultFixture(t)

	rec := &model.File{
		ID:          "file-1",
		Filename:    "report.pdf",
		StoragePath: "vault/abc_report.pdf",
		OwnerID:     "alice",
		Size:        10,
	}

	entered := make(chan struct{})
	release := make(chan struct{})

	f.files.On("FindByID", ctx, "file-1").Return(rec, nil).Once()
	f.store.On("Delete", ctx, rec.StoragePath).Run(func(mock.Arguments) {
		close(entered)
		<-release
	}).Return(nil)
	f.files.On("Delete", ctx, "file-1").Return(nil)
	f.audit.On("Append", ctx, "carol", model.ActionDelete, mock.MatchedBy(func(id *string) bool {
		return id != nil && *id == "file-1"
	})).Return(auditOK("carol", model.ActionDelete), nil)

	// Once the delete has gone through, lookups no longer find the record.
	f.files.On("FindByID", ctx, "file-1").Return(nil, sql.ErrNoRows)

	var wg sync.WaitGroup
	var delErr, dlErr error

	wg.Add(1)
	go func() {
		defer wg.Done()
		delErr = f.svc.Delete(ctx, carol, "file-1")
	}()

	// The delete now holds the file lock and is mid-removal.
	<-entered

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, dlErr = f.svc.Download(ctx, alice, "file-1")
	}()

	close(release)
	wg.Wait()

	assert.NoError(t, delErr)
	// The download must observe the completed delete, never the blob of a
	// file whose record is being torn down.
	assert.ErrorIs(t, dlErr, ErrNotFound)
	f.store.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	assert.Zero(t, f.svc.(*vaultService).locks.size())
}

func TestVaultService_LockEntriesReleased(t *testing.T) {
	ctx := context.Background()
	f := newVaultFixture(t)

	plaintext := []byte("0123456789")
	for _, id := range []string{"file-1", "file-2", "file-3"} {
		rec := &model.File{
			ID:          id,
			Filename:    "report.pdf",
			StoragePath: "vault/" + id,
			OwnerID:     "alice",
			Size:        int64(len(plaintext)),
		}
		f.files.On("FindByID", ctx, id).Return(rec, nil)
		f.store.On("Get", ctx, rec.StoragePath).Return(f.sealedBlob(t, plaintext), storage.ObjectInfo{}, nil)
	}
	f.audit.On("Append", ctx, "alice", model.ActionDownload, mock.Anything).
		Return(auditOK("alice", model.ActionDownload), nil)

	for _, id := range []string{"file-1", "file-2", "file-3"} {
		_, err := f.svc.Download(ctx, alice, id)
		require.NoError(t, err)
	}

	assert.Zero(t, f.svc.(*vaultService).locks.size())
}
