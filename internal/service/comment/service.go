package comment

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"kisah-comments/internal/domain"
	"kisah-comments/internal/pkg/metrics"
	"kisah-comments/internal/repository"
	"kisah-comments/internal/service/audit"
	"kisah-comments/internal/tree"
)

// Notifier accepts comment events for asynchronous delivery. Enqueue must not
// block.
type Notifier interface {
	Enqueue(event domain.CommentEvent) bool
}

// Service is the authenticated entry point for reading and changing a
// subject's comment tree. Every mutation returns only what a client needs to
// patch its local copy of the tree.
type Service interface {
	Tree(ctx context.Context, subjectID, viewerID uuid.UUID) ([]*tree.Node, error)
	Post(ctx context.Context, viewerID, subjectID uuid.UUID, input domain.CreateCommentInput) (*tree.Node, error)
	Edit(ctx context.Context, viewerID, commentID uuid.UUID, input domain.UpdateCommentInput) (*domain.EditResult, error)
	Delete(ctx context.Context, viewerID, commentID uuid.UUID) (*domain.DeleteResult, error)
	ToggleLike(ctx context.Context, viewerID, commentID uuid.UUID) (*domain.LikeResult, error)

	SetNotifier(notifier Notifier)
	SetAuditService(auditSvc audit.Service)
}

type Option func(*service)

func WithCacheTTL(ttl time.Duration) Option {
	return func(s *service) { s.cacheTTL = ttl }
}

// WithRenderer fills content_html on every returned node.
func WithRenderer(render func(string) string) Option {
	return func(s *service) { s.render = render }
}

type service struct {
	commentRepo repository.CommentRepository
	cache       *listCache
	cacheTTL    time.Duration
	render      func(string) string
	notifier    Notifier
	auditSvc    audit.Service
}

func NewService(commentRepo repository.CommentRepository, redis *redis.Client, opts ...Option) Service {
	s := &service{
		commentRepo: commentRepo,
		cacheTTL:    DefaultCacheTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cache = newListCache(redis, s.cacheTTL)
	return s
}

func (s *service) SetNotifier(notifier Notifier) {
	s.notifier = notifier
}

func (s *service) SetAuditService(auditSvc audit.Service) {
	s.auditSvc = auditSvc
}

func (s *service) Tree(ctx context.Context, subjectID, viewerID uuid.UUID) ([]*tree.Node, error) {
	start := time.Now()
	defer func() { metrics.TreeAssembly.Observe(time.Since(start).Seconds()) }()

	comments, gen, ok := s.cache.get(ctx, subjectID)
	if !ok {
		var err error
		comments, err = s.commentRepo.ListBySubject(ctx, subjectID)
		if err != nil {
			return nil, err
		}
		s.cache.set(ctx, subjectID, gen, comments)
	}

	var liked map[uuid.UUID]bool
	if viewerID != uuid.Nil {
		var err error
		liked, err = s.commentRepo.LikedBySubject(ctx, subjectID, viewerID)
		if err != nil {
			return nil, err
		}
	}

	var opts []tree.Option
	if s.render != nil {
		opts = append(opts, tree.WithRenderer(s.render))
	}
	return tree.Assemble(comments, liked, opts...), nil
}

func (s *service) Post(ctx context.Context, viewerID, subjectID uuid.UUID, input domain.CreateCommentInput) (node *tree.Node, err error) {
	defer func() { metrics.CommentMutations.WithLabelValues("post", metrics.Outcome(err)).Inc() }()

	if viewerID == uuid.Nil {
		return nil, domain.ErrUnauthenticated
	}
	content, err := domain.NormalizeContent(input.Content)
	if err != nil {
		return nil, err
	}

	comment := &domain.Comment{
		SubjectID: subjectID,
		AuthorID:  viewerID,
		ParentID:  input.ParentID,
		Content:   content,
	}

	// Once issued, a store write runs to completion even if the caller goes away.
	storeCtx := context.WithoutCancel(ctx)
	if err := s.commentRepo.Create(storeCtx, comment); err != nil {
		return nil, err
	}
	s.cache.invalidate(storeCtx, subjectID)

	eventType := domain.NotifNewComment
	if comment.ParentID != nil {
		eventType = domain.NotifCommentReply
	}
	s.notify(domain.CommentEvent{
		Type:      eventType,
		CommentID: comment.ID,
		SubjectID: subjectID,
		ParentID:  comment.ParentID,
		ActorID:   viewerID,
		Excerpt:   comment.Content,
	})

	node = tree.NewNode(*comment, false)
	if s.render != nil {
		node.ContentHTML = s.render(node.Content)
	}
	return node, nil
}

func (s *service) Edit(ctx context.Context, viewerID, commentID uuid.UUID, input domain.UpdateCommentInput) (result *domain.EditResult, err error) {
	defer func() { metrics.CommentMutations.WithLabelValues("edit", metrics.Outcome(err)).Inc() }()

	if viewerID == uuid.Nil {
		return nil, domain.ErrUnauthenticated
	}

	// Existence, then ownership, then content.
	storeCtx := context.WithoutCancel(ctx)
	before, err := s.commentRepo.GetByID(storeCtx, commentID)
	if err != nil {
		return nil, err
	}
	if before.AuthorID != viewerID {
		return nil, domain.ErrNotCommentAuthor
	}
	content, err := domain.NormalizeContent(input.Content)
	if err != nil {
		return nil, err
	}

	updated, err := s.commentRepo.Edit(storeCtx, commentID, viewerID, content)
	if err != nil {
		return nil, err
	}
	s.cache.invalidate(storeCtx, updated.SubjectID)

	s.record(storeCtx, domain.CreateAuditLogInput{
		UserID:     viewerID,
		Action:     domain.AuditActionCommentEdited,
		EntityType: domain.AuditEntityComment,
		EntityID:   commentID,
		OldValue:   map[string]string{"content": before.Content},
		NewValue:   map[string]string{"content": updated.Content},
	})

	result = &domain.EditResult{Content: updated.Content}
	if updated.UpdatedAt != nil {
		result.UpdatedAt = *updated.UpdatedAt
	}
	if s.render != nil {
		result.ContentHTML = s.render(updated.Content)
	}
	return result, nil
}

func (s *service) Delete(ctx context.Context, viewerID, commentID uuid.UUID) (result *domain.DeleteResult, err error) {
	defer func() { metrics.CommentMutations.WithLabelValues("delete", metrics.Outcome(err)).Inc() }()

	if viewerID == uuid.Nil {
		return nil, domain.ErrUnauthenticated
	}

	storeCtx := context.WithoutCancel(ctx)
	target, err := s.commentRepo.GetByID(storeCtx, commentID)
	if err != nil {
		return nil, err
	}

	removed, err := s.commentRepo.Delete(storeCtx, commentID, viewerID)
	if err != nil {
		return nil, err
	}
	s.cache.invalidate(storeCtx, target.SubjectID)

	s.record(storeCtx, domain.CreateAuditLogInput{
		UserID:     viewerID,
		Action:     domain.AuditActionCommentDeleted,
		EntityType: domain.AuditEntityComment,
		EntityID:   commentID,
		OldValue:   map[string]string{"content": target.Content},
		NewValue:   map[string]interface{}{"removed_ids": removed},
	})

	return &domain.DeleteResult{RemovedIDs: removed}, nil
}

func (s *service) ToggleLike(ctx context.Context, viewerID, commentID uuid.UUID) (result *domain.LikeResult, err error) {
	defer func() { metrics.CommentMutations.WithLabelValues("like", metrics.Outcome(err)).Inc() }()

	if viewerID == uuid.Nil {
		return nil, domain.ErrUnauthenticated
	}

	storeCtx := context.WithoutCancel(ctx)
	target, err := s.commentRepo.GetByID(storeCtx, commentID)
	if err != nil {
		return nil, err
	}

	result, err = s.commentRepo.ToggleLike(storeCtx, commentID, viewerID)
	if err != nil {
		return nil, err
	}
	s.cache.invalidate(storeCtx, target.SubjectID)

	if result.Liked {
		s.notify(domain.CommentEvent{
			Type:      domain.NotifCommentLiked,
			CommentID: commentID,
			SubjectID: target.SubjectID,
			ParentID:  target.ParentID,
			ActorID:   viewerID,
		})
	}
	return result, nil
}

func (s *service) notify(event domain.CommentEvent) {
	if s.notifier == nil {
		return
	}
	s.notifier.Enqueue(event)
}

// record writes the audit entry; failures are logged and never fail the
// mutation that already committed.
func (s *service) record(ctx context.Context, input domain.CreateAuditLogInput) {
	if s.auditSvc == nil {
		return
	}
	if err := s.auditSvc.Record(ctx, input); err != nil {
		slog.WarnContext(ctx, "failed to record audit log", "action", input.Action, "entity_id", input.EntityID, "error", err)
	}
}
