package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"kisah-comments/internal/service/email"
)

type EmailService struct {
	mock.Mock
}

func (m *EmailService) SendNewCommentEmail(ctx context.Context, msg email.CommentEmail) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *EmailService) SendReplyEmail(ctx context.Context, msg email.CommentEmail) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *EmailService) SendCommentLikedEmail(ctx context.Context, msg email.CommentEmail) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}
