package notification_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"kisah-comments/internal/domain"
	"kisah-comments/internal/mocks"
	"kisah-comments/internal/repository"
	"kisah-comments/internal/service/email"
	"kisah-comments/internal/service/notification"
)

type fixture struct {
	repos   *repository.Repositories
	emails  *mocks.EmailService
	svc     notification.Service
	subject domain.Subject
	owner   domain.User
	actor   domain.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repos, subjects, users := repository.NewMemoryRepositories()

	f := &fixture{
		repos:  repos,
		emails: new(mocks.EmailService),
		owner:  domain.User{ID: uuid.New(), Email: "owner@kisah.test", FullName: "Owner"},
		actor:  domain.User{ID: uuid.New(), Email: "actor@kisah.test", FullName: "Actor"},
	}
	f.subject = domain.Subject{ID: uuid.New(), AuthorID: f.owner.ID, Title: "Senja di Pantai"}
	subjects.Put(f.subject)
	users.Put(f.owner)
	users.Put(f.actor)

	f.svc = notification.NewService(repos.Notification, repos.User, repos.Subject, repos.Comment, f.emails)
	return f
}

func (f *fixture) comment(t *testing.T, author uuid.UUID, parent *uuid.UUID) *domain.Comment {
	t.Helper()
	c := &domain.Comment{SubjectID: f.subject.ID, AuthorID: author, ParentID: parent, Content: "hello"}
	require.NoError(t, f.repos.Comment.Create(context.Background(), c))
	return c
}

func TestService_Deliver(t *testing.T) {
	ctx := context.Background()

	t.Run("Top level comment notifies the subject author", func(t *testing.T) {
		f := newFixture(t)
		c := f.comment(t, f.actor.ID, nil)

		f.emails.On("SendNewCommentEmail", mock.Anything, mock.MatchedBy(func(m email.CommentEmail) bool {
			return m.ToEmail == f.owner.Email && m.ActorName == "Actor" && m.SubjectTitle == f.subject.Title
		})).Return(nil).Once()

		err := f.svc.Deliver(ctx, domain.CommentEvent{
			Type: domain.NotifNewComment, CommentID: c.ID, SubjectID: f.subject.ID, ActorID: f.actor.ID, Excerpt: "hello",
		})
		require.NoError(t, err)

		list, err := f.svc.List(ctx, f.owner.ID, false, domain.DefaultPagination())
		require.NoError(t, err)
		require.Len(t, list.Data, 1)
		assert.Equal(t, domain.NotifNewComment, list.Data[0].Type)
		assert.Equal(t, f.actor.ID, *list.Data[0].ActorID)
		f.emails.AssertExpectations(t)
	})

	t.Run("Reply notifies the parent author", func(t *testing.T) {
		f := newFixture(t)
		parent := f.comment(t, f.owner.ID, nil)
		reply := f.comment(t, f.actor.ID, &parent.ID)

		f.emails.On("SendReplyEmail", mock.Anything, mock.AnythingOfType("email.CommentEmail")).Return(nil).Once()

		err := f.svc.Deliver(ctx, domain.CommentEvent{
			Type: domain.NotifCommentReply, CommentID: reply.ID, SubjectID: f.subject.ID, ParentID: &parent.ID, ActorID: f.actor.ID,
		})
		require.NoError(t, err)

		count, err := f.svc.GetUnreadCount(ctx, f.owner.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
		f.emails.AssertExpectations(t)
	})

	t.Run("Self actions are not notified", func(t *testing.T) {
		f := newFixture(t)
		c := f.comment(t, f.owner.ID, nil)

		err := f.svc.Deliver(ctx, domain.CommentEvent{
			Type: domain.NotifCommentLiked, CommentID: c.ID, SubjectID: f.subject.ID, ActorID: f.owner.ID,
		})
		require.NoError(t, err)

		count, _ := f.svc.GetUnreadCount(ctx, f.owner.ID)
		assert.Zero(t, count)
		f.emails.AssertNotCalled(t, "SendCommentLikedEmail", mock.Anything, mock.Anything)
	})

	t.Run("Like on a deleted comment is skipped", func(t *testing.T) {
		f := newFixture(t)
		err := f.svc.Deliver(ctx, domain.CommentEvent{
			Type: domain.NotifCommentLiked, CommentID: uuid.New(), SubjectID: f.subject.ID, ActorID: f.actor.ID,
		})
		require.NoError(t, err)
		count, _ := f.svc.GetUnreadCount(ctx, f.owner.ID)
		assert.Zero(t, count)
	})
}

func TestService_MarkAsRead(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.comment(t, f.owner.ID, nil)
	f.emails.On("SendCommentLikedEmail", mock.Anything, mock.Anything).Return(nil)

	require.NoError(t, f.svc.Deliver(ctx, domain.CommentEvent{
		Type: domain.NotifCommentLiked, CommentID: c.ID, SubjectID: f.subject.ID, ActorID: f.actor.ID,
	}))
	list, err := f.svc.List(ctx, f.owner.ID, true, domain.PaginationParams{})
	require.NoError(t, err)
	require.Len(t, list.Data, 1)
	id := list.Data[0].ID

	t.Run("Other users cannot mark it", func(t *testing.T) {
		err := f.svc.MarkAsRead(ctx, f.actor.ID, id)
		assert.ErrorIs(t, err, domain.ErrNotificationNotYours)
	})

	t.Run("Owner marks it read", func(t *testing.T) {
		require.NoError(t, f.svc.MarkAsRead(ctx, f.owner.ID, id))
		count, _ := f.svc.GetUnreadCount(ctx, f.owner.ID)
		assert.Zero(t, count)
	})

	t.Run("Unknown notification", func(t *testing.T) {
		assert.ErrorIs(t, f.svc.MarkAsRead(ctx, f.owner.ID, uuid.New()), domain.ErrNotFound)
	})
}
