package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/ChetanRathod03/Ironclad-Secure-Vault/internal/model"
	"github.com/ChetanRathod03/Ironclad-Secure-Vault/internal/service"
)

type MockVaultService struct {
	mock.Mock
}

func (m *MockVaultService) Upload(ctx context.Context, actor model.Actor, filename string, data []byte) (*model.File, error) {
	args := m.Called(ctx, actor, filename, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.File), args.Error(1)
}

func (m *MockVaultService) List(ctx context.Context, actor model.Actor) ([]model.File, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.File), args.Error(1)
}

func (m *MockVaultService) Search(ctx context.Context, actor model.Actor, query string) ([]model.File, error) {
	args := m.Called(ctx, actor, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.File), args.Error(1)
}

func (m *MockVaultService) Download(ctx context.Context, actor model.Actor, fileID string) (*service.DownloadResult, error) {
	args := m.Called(ctx, actor, fileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DownloadResult), args.Error(1)
}

func (m *MockVaultService) Delete(ctx context.Context, actor model.Actor, fileID string) error {
	args := m.Called(ctx, actor, fileID)
	return args.Error(0)
}

func (m *MockVaultService) ListAuditLogs(ctx context.Context, actor model.Actor) ([]model.AuditEntry, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.AuditEntry), args.Error(1)
}

func (m *MockVaultService) ListActorAuditLogs(ctx context.Context, actor model.Actor) ([]model.AuditEntry, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.AuditEntry), args.Error(1)
}
