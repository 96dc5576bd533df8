package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ChetanRathod03/Ironclad-Secure-Vault/internal/crypto"
	"github.com/ChetanRathod03/Ironclad-Secure-Vault/internal/model"
	"github.com/ChetanRathod03/Ironclad-Secure-Vault/internal/repository"
	"github.com/ChetanRathod03/Ironclad-Secure-Vault/internal/storage"
)

var (
	ErrIDRequired       = errors.New("id is required")
	ErrFilenameRequired = errors.New("filename is required")
	ErrEmptyFile        = errors.New("file is empty")
	ErrNotFound         = errors.New("file not found")
	ErrForbidden        = errors.New("access denied")
)

// DownloadResult carries the decrypted payload plus the display name the
// transport needs for its Content-Disposition header.
type DownloadResult struct {
	Filename string
	Data     []byte
}

// VaultService defines the use cases of the encrypted vault. Every operation
// takes an explicit actor; nothing here reads ambient session state.
type VaultService interface {
	// Upload encrypts the payload, persists the blob and its metadata owned
	// by the actor, and records an UPLOAD audit entry. Blob writes are
	// rolled back when the metadata insert fails.
	Upload(ctx context.Context, actor model.Actor, filename string, data []byte) (*model.File, error)

	// List returns the records visible to the actor: everything for
	// MANAGER/ADMIN, the actor's own files otherwise.
	List(ctx context.Context, actor model.Actor) ([]model.File, error)

	// Search filters the actor's visible records by case-sensitive filename
	// substring. A blank query behaves exactly like List.
	Search(ctx context.Context, actor model.Actor, query string) ([]model.File, error)

	// Download decrypts and returns a file's content for its owner or a
	// MANAGER/ADMIN, and records a DOWNLOAD audit entry.
	Download(ctx context.Context, actor model.Actor, fileID string) (*DownloadResult, error)

	// Delete removes blob and metadata. ADMIN only. Records a DELETE audit
	// entry referencing the removed id.
	Delete(ctx context.Context, actor model.Actor, fileID string) error

	// ListAuditLogs returns the full audit trail. ADMIN only.
	ListAuditLogs(ctx context.Context, actor model.Actor) ([]model.AuditEntry, error)

	// ListActorAuditLogs returns the actor's own trail, any role.
	ListActorAuditLogs(ctx context.Context, actor model.Actor) ([]model.AuditEntry, error)
}

// vaultService is a concrete implementation of VaultService.
type vaultService struct {
	store storage.Storage
	files repository.FileRepository
	audit repository.AuditLogRepository
	key   crypto.Key

	// locks serializes Download/Delete per file id so a racing Delete can
	// never leave a Download holding a half-deleted blob.
	locks *keyedMutex
}

// NewVaultService constructs a new VaultService around a process-lifetime key.
func NewVaultService(store storage.Storage, files repository.FileRepository, audit repository.AuditLogRepository, key crypto.Key) VaultService {
	return &vaultService{store: store, files: files, audit: audit, key: key, locks: newKeyedMutex()}
}

func (s *vaultService) Upload(ctx context.Context, actor model.Actor, filename string, data []byte) (*model.File, error) {
	if strings.TrimSpace(filename) == "" {
		return nil, ErrFilenameRequired
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	sealed, err := crypto.Encrypt(data, s.key)
	if err != nil {
		return nil, fmt.Errorf("encrypt payload: %w", err)
	}

	key := storage.ObjectKey(filename)
	_, err = s.store.Put(ctx, key, bytes.NewReader(sealed), storage.PutObjectOptions{
		Size:        int64(len(sealed)),
		ContentType: "application/octet-stream",
		Metadata: map[string]string{
			"original-filename": filename,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	f := &model.File{
		Filename:    filename,
		StoragePath: key,
		OwnerID:     actor.ID,
		Size:        int64(len(data)),
	}
	stored, err := s.files.Create(ctx, f)
	if err != nil {
		// Rollback: no orphaned ciphertext without an index entry.
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("metadata save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("metadata save failed: %w", err)
	}

	if _, err := s.audit.Append(ctx, actor.ID, model.ActionUpload, &stored.ID); err != nil {
		// The upload is not allowed to stand without its audit entry.
		delErr := s.store.Delete(ctx, key)
		repoErr := s.files.Delete(ctx, stored.ID)
		if undo := errors.Join(delErr, repoErr); undo != nil {
			return nil, fmt.Errorf("audit append failed: %v; rollback failed: %v", err, undo)
		}
		return nil, fmt.Errorf("audit append failed: %w", err)
	}

	return stored, nil
}

func (s *vaultService) List(ctx context.Context, actor model.Actor) ([]model.File, error) {
	if actor.Role.AtLeast(model.RoleManager) {
		return s.files.ListAll(ctx)
	}
	return s.files.ListByOwner(ctx, actor.ID)
}

func (s *vaultService) Search(ctx context.Context, actor model.Actor, query string) ([]model.File, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.List(ctx, actor)
	}
	if actor.Role.AtLeast(model.RoleManager) {
		return s.files.SearchAll(ctx, query)
	}
	return s.files.SearchByOwner(ctx, actor.ID, query)
}

func (s *vaultService) Download(ctx context.Context, actor model.Actor, fileID string) (*DownloadResult, error) {
	if fileID == "" {
		return nil, ErrIDRequired
	}

	s.locks.Lock(fileID)
	defer s.locks.Unlock(fileID)

	f, err := s.files.FindByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if actor.ID != f.OwnerID && !actor.Role.AtLeast(model.RoleManager) {
		return nil, ErrForbidden
	}

	rc, _, err := s.store.Get(ctx, f.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("read blob: %w", err)
	}
	defer rc.Close()

	sealed, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrRead, err)
	}

	data, err := crypto.Decrypt(sealed, s.key)
	if err != nil {
		return nil, fmt.Errorf("decrypt blob: %w", err)
	}

	if _, err := s.audit.Append(ctx, actor.ID, model.ActionDownload, &f.ID); err != nil {
		// Sensitive reads are not served unless they are recorded.
		return nil, fmt.Errorf("audit append failed: %w", err)
	}

	return &DownloadResult{Filename: f.Filename, Data: data}, nil
}

func (s *vaultService) Delete(ctx context.Context, actor model.Actor, fileID string) error {
	if fileID == "" {
		return ErrIDRequired
	}
	if !actor.Role.AtLeast(model.RoleAdmin) {
		return ErrForbidden
	}

	s.locks.Lock(fileID)
	defer s.locks.Unlock(fileID)

	f, err := s.files.FindByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	// Attempt both removals even if one fails: leaking a blob and losing the
	// index entry are separate defects, and either failure must surface.
	blobErr := s.store.Delete(ctx, f.StoragePath)
	repoErr := s.files.Delete(ctx, f.ID)
	if err := errors.Join(blobErr, repoErr); err != nil {
		return fmt.Errorf("delete file %s: %w", f.ID, err)
	}

	if _, err := s.audit.Append(ctx, actor.ID, model.ActionDelete, &f.ID); err != nil {
		return fmt.Errorf("audit append failed: %w", err)
	}
	return nil
}

func (s *vaultService) ListAuditLogs(ctx context.Context, actor model.Actor) ([]model.AuditEntry, error) {
	if !actor.Role.AtLeast(model.RoleAdmin) {
		return nil, ErrForbidden
	}
	return s.audit.ListAll(ctx)
}

func (s *vaultService) ListActorAuditLogs(ctx context.Context, actor model.Actor) ([]model.AuditEntry, error) {
	return s.audit.ListByActor(ctx, actor.ID)
}
