package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/google/uuid"

	"kisah-comments/internal/domain"
	"kisah-comments/internal/pkg/metrics"
	"kisah-comments/internal/repository"
	"kisah-comments/internal/service/email"
)

type Service interface {
	List(ctx context.Context, userID uuid.UUID, unreadOnly bool, params domain.PaginationParams) (domain.PaginatedResponse[domain.Notification], error)
	MarkAsRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) error
	GetUnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)

	// Deliver turns a comment event into an inbox entry (and an email when the
	// recipient has an address). Events whose recipient is the actor, or whose
	// target disappeared in the meantime, are skipped.
	Deliver(ctx context.Context, event domain.CommentEvent) error
}

type service struct {
	notifRepo   repository.NotificationRepository
	userRepo    repository.UserRepository
	subjectRepo repository.SubjectRepository
	commentRepo repository.CommentRepository
	emailSvc    email.Service
}

func NewService(
	notifRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
	subjectRepo repository.SubjectRepository,
	commentRepo repository.CommentRepository,
	emailSvc email.Service,
) Service {
	return &service{
		notifRepo:   notifRepo,
		userRepo:    userRepo,
		subjectRepo: subjectRepo,
		commentRepo: commentRepo,
		emailSvc:    emailSvc,
	}
}

func (s *service) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, params domain.PaginationParams) (domain.PaginatedResponse[domain.Notification], error) {
	params.Validate()
	notifications, total, err := s.notifRepo.ListByUser(ctx, userID, unreadOnly, params)
	if err != nil {
		return domain.PaginatedResponse[domain.Notification]{}, err
	}

	return domain.NewPaginatedResponse(notifications, params.Page, params.PageSize, total), nil
}

func (s *service) MarkAsRead(ctx context.Context, userID, id uuid.UUID) error {
	notif, err := s.notifRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if notif.UserID != userID {
		return domain.ErrNotificationNotYours
	}
	return s.notifRepo.MarkAsRead(ctx, id)
}

func (s *service) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return s.notifRepo.MarkAllAsRead(ctx, userID)
}

func (s *service) GetUnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.notifRepo.CountUnread(ctx, userID)
}

func (s *service) Deliver(ctx context.Context, event domain.CommentEvent) error {
	recipientID, err := s.recipient(ctx, event)
	if err != nil {
		return err
	}
	if recipientID == uuid.Nil || recipientID == event.ActorID {
		return nil
	}

	subject, err := s.subjectRepo.GetByID(ctx, event.SubjectID)
	if err != nil {
		return fmt.Errorf("failed to get subject: %w", err)
	}
	subjectTitle := "a story"
	if subject != nil {
		subjectTitle = subject.Title
	}

	actorName := "Someone"
	actor, err := s.userRepo.GetByID(ctx, event.ActorID)
	if err != nil {
		return fmt.Errorf("failed to get actor: %w", err)
	}
	if actor != nil {
		actorName = actor.FullName
	}

	dataMap := map[string]string{
		"comment_id": event.CommentID.String(),
		"subject_id": event.SubjectID.String(),
	}
	if event.ParentID != nil {
		dataMap["parent_id"] = event.ParentID.String()
	}
	data, _ := json.Marshal(dataMap)

	actorID := event.ActorID
	notif := &domain.Notification{
		ID:      uuid.New(),
		UserID:  recipientID,
		ActorID: &actorID,
		Type:    event.Type,
		Data:    json.RawMessage(data),
	}
	switch event.Type {
	case domain.NotifCommentReply:
		notif.Title = "New reply"
		notif.Message = fmt.Sprintf("%s replied to your comment on %s", actorName, subjectTitle)
	case domain.NotifCommentLiked:
		notif.Title = "Comment liked"
		notif.Message = fmt.Sprintf("%s liked your comment on %s", actorName, subjectTitle)
	default:
		notif.Title = "New comment"
		notif.Message = fmt.Sprintf("%s commented on %s", actorName, subjectTitle)
	}

	if err := s.notifRepo.Create(ctx, notif); err != nil {
		metrics.NotificationsDelivered.WithLabelValues(string(event.Type), "error").Inc()
		return fmt.Errorf("failed to create notification: %w", err)
	}
	metrics.NotificationsDelivered.WithLabelValues(string(event.Type), "ok").Inc()

	s.sendEmail(ctx, recipientID, event, actorName, subjectTitle)
	return nil
}

func (s *service) recipient(ctx context.Context, event domain.CommentEvent) (uuid.UUID, error) {
	var target uuid.UUID
	switch event.Type {
	case domain.NotifCommentReply:
		if event.ParentID == nil {
			return uuid.Nil, nil
		}
		target = *event.ParentID
	case domain.NotifCommentLiked:
		target = event.CommentID
	default:
		subject, err := s.subjectRepo.GetByID(ctx, event.SubjectID)
		if err != nil {
			return uuid.Nil, fmt.Errorf("failed to get subject: %w", err)
		}
		if subject == nil {
			return uuid.Nil, nil
		}
		return subject.AuthorID, nil
	}

	c, err := s.commentRepo.GetByID(ctx, target)
	if err != nil {
		if domain.KindOf(err) == domain.KindNotFound {
			return uuid.Nil, nil
		}
		return uuid.Nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return c.AuthorID, nil
}

func (s *service) sendEmail(ctx context.Context, recipientID uuid.UUID, event domain.CommentEvent, actorName, subjectTitle string) {
	if s.emailSvc == nil {
		return
	}
	user, err := s.userRepo.GetByID(ctx, recipientID)
	if err != nil || user == nil || user.Email == "" {
		return
	}

	msg := email.CommentEmail{
		ToEmail:       user.Email,
		RecipientName: user.FullName,
		ActorName:     actorName,
		SubjectID:     event.SubjectID,
		SubjectTitle:  subjectTitle,
		CommentID:     event.CommentID,
		Excerpt:       excerpt(event.Excerpt, 280),
	}

	switch event.Type {
	case domain.NotifCommentReply:
		err = s.emailSvc.SendReplyEmail(ctx, msg)
	case domain.NotifCommentLiked:
		err = s.emailSvc.SendCommentLikedEmail(ctx, msg)
	default:
		err = s.emailSvc.SendNewCommentEmail(ctx, msg)
	}
	if err != nil {
		slog.WarnContext(ctx, "failed to send notification email", "user_id", recipientID, "type", event.Type, "error", err)
	}
}

func excerpt(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max]) + "…"
}
