package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/ChetanRathod03/Ironclad-Secure-Vault/internal/model"
)

type MockAuditLogRepository struct {
	mock.Mock
}

func (m *MockAuditLogRepository) Append(ctx context.Context, actorID string, action model.AuditAction, fileID *string) (*model.AuditEntry, error) {
	args := m.Called(ctx, actorID, action, fileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AuditEntry), args.Error(1)
}

func (m *MockAuditLogRepository) ListAll(ctx context.Context) ([]model.AuditEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.AuditEntry), args.Error(1)
}

func (m *MockAuditLogRepository) ListByActor(ctx context.Context, actorID string) ([]model.AuditEntry, error) {
	args := m.Called(ctx, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.AuditEntry), args.Error(1)
}
