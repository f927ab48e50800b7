package audit

import (
	"context"

	"github.com/google/uuid"

	"kisah-comments/internal/domain"
	"kisah-comments/internal/repository"
)

type Service interface {
	Record(ctx context.Context, input domain.CreateAuditLogInput) error
	GetRecentActivities(ctx context.Context, limit int) ([]domain.AuditLog, error)
	ListByComment(ctx context.Context, commentID uuid.UUID, params domain.PaginationParams) (domain.PaginatedResponse[domain.AuditLog], error)
}

type service struct {
	auditRepo repository.AuditLogRepository
}

func NewService(auditRepo repository.AuditLogRepository) Service {
	return &service{
		auditRepo: auditRepo,
	}
}

func (s *service) Record(ctx context.Context, input domain.CreateAuditLogInput) error {
	return repository.CreateAuditLog(s.auditRepo, ctx, input)
}

func (s *service) GetRecentActivities(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	params := domain.PaginationParams{
		Page:     1,
		PageSize: limit,
	}

	logs, _, err := s.auditRepo.List(ctx, params)
	return logs, err
}

func (s *service) ListByComment(ctx context.Context, commentID uuid.UUID, params domain.PaginationParams) (domain.PaginatedResponse[domain.AuditLog], error) {
	params.Validate()
	logs, total, err := s.auditRepo.ListByEntity(ctx, domain.AuditEntityComment, commentID, params)
	if err != nil {
		return domain.PaginatedResponse[domain.AuditLog]{}, err
	}
	return domain.NewPaginatedResponse(logs, params.Page, params.PageSize, total), nil
}
