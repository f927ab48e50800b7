package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"kisah-comments/internal/domain"
)

type CommentRepository struct {
	mock.Mock
}

func (m *CommentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	args := m.Called(ctx, comment)
	return args.Error(0)
}

func (m *CommentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Comment), args.Error(1)
}

func (m *CommentRepository) Edit(ctx context.Context, id, byUserID uuid.UUID, content string) (*domain.Comment, error) {
	args := m.Called(ctx, id, byUserID, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Comment), args.Error(1)
}

func (m *CommentRepository) Delete(ctx context.Context, id, byUserID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, id, byUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *CommentRepository) ToggleLike(ctx context.Context, id, userID uuid.UUID) (*domain.LikeResult, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LikeResult), args.Error(1)
}

func (m *CommentRepository) ListBySubject(ctx context.Context, subjectID uuid.UUID) ([]domain.Comment, error) {
	args := m.Called(ctx, subjectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Comment), args.Error(1)
}

func (m *CommentRepository) LikedBySubject(ctx context.Context, subjectID, userID uuid.UUID) (map[uuid.UUID]bool, error) {
	args := m.Called(ctx, subjectID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]bool), args.Error(1)
}

func (m *CommentRepository) CountBySubject(ctx context.Context, subjectID uuid.UUID) (int64, error) {
	args := m.Called(ctx, subjectID)
	return args.Get(0).(int64), args.Error(1)
}
