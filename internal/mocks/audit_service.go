package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"kisah-comments/internal/domain"
)

type AuditService struct {
	mock.Mock
}

func (m *AuditService) Record(ctx context.Context, input domain.CreateAuditLogInput) error {
	args := m.Called(ctx, input)
	return args.Error(0)
}

func (m *AuditService) GetRecentActivities(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AuditLog), args.Error(1)
}

func (m *AuditService) ListByComment(ctx context.Context, commentID uuid.UUID, params domain.PaginationParams) (domain.PaginatedResponse[domain.AuditLog], error) {
	args := m.Called(ctx, commentID, params)
	return args.Get(0).(domain.PaginatedResponse[domain.AuditLog]), args.Error(1)
}
