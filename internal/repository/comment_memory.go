package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"kisah-comments/internal/domain"
)

// memoryCommentRepository keeps comments in process memory. A single mutex
// serializes every mutation, which trivially gives per-comment ordering.
type memoryCommentRepository struct {
	mu       sync.RWMutex
	comments map[uuid.UUID]domain.Comment
	likes    map[uuid.UUID]map[uuid.UUID]time.Time
	now      func() time.Time
}

func NewMemoryCommentRepository() CommentRepository {
	return newMemoryCommentRepository(time.Now)
}

func newMemoryCommentRepository(now func() time.Time) *memoryCommentRepository {
	return &memoryCommentRepository{
		comments: make(map[uuid.UUID]domain.Comment),
		likes:    make(map[uuid.UUID]map[uuid.UUID]time.Time),
		now:      now,
	}
}

func copyComment(c domain.Comment) *domain.Comment {
	if c.UpdatedAt != nil {
		t := *c.UpdatedAt
		c.UpdatedAt = &t
	}
	if c.ParentID != nil {
		p := *c.ParentID
		c.ParentID = &p
	}
	return &c
}

func (r *memoryCommentRepository) Create(_ context.Context, comment *domain.Comment) error {
	content, err := domain.NormalizeContent(comment.Content)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if comment.ParentID != nil {
		parent, ok := r.comments[*comment.ParentID]
		if !ok || parent.SubjectID != comment.SubjectID {
			return domain.ErrInvalidParent
		}
	}

	// The store owns ids; a caller supplied one is ignored.
	comment.ID = uuid.New()
	comment.Content = content
	comment.LikeCount = 0
	comment.CreatedAt = r.now().UTC()
	comment.UpdatedAt = nil

	r.comments[comment.ID] = *copyComment(*comment)
	return nil
}

func (r *memoryCommentRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.comments[id]
	if !ok {
		return nil, domain.ErrCommentNotFound
	}
	return copyComment(c), nil
}

func (r *memoryCommentRepository) owned(id, byUserID uuid.UUID) (domain.Comment, error) {
	c, ok := r.comments[id]
	if !ok {
		return domain.Comment{}, domain.ErrCommentNotFound
	}
	if c.AuthorID != byUserID {
		return domain.Comment{}, domain.ErrNotCommentAuthor
	}
	return c, nil
}

func (r *memoryCommentRepository) Edit(_ context.Context, id, byUserID uuid.UUID, content string) (*domain.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.owned(id, byUserID)
	if err != nil {
		return nil, err
	}
	normalized, err := domain.NormalizeContent(content)
	if err != nil {
		return nil, err
	}

	now := r.now().UTC()
	c.Content = normalized
	c.UpdatedAt = &now
	r.comments[id] = c
	return copyComment(c), nil
}

func (r *memoryCommentRepository) Delete(_ context.Context, id, byUserID uuid.UUID) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.owned(id, byUserID); err != nil {
		return nil, err
	}

	children := make(map[uuid.UUID][]uuid.UUID)
	for _, c := range r.comments {
		if c.ParentID != nil {
			children[*c.ParentID] = append(children[*c.ParentID], c.ID)
		}
	}

	// breadth first, so the root comes first like the SQL store
	removed := []uuid.UUID{id}
	for i := 0; i < len(removed); i++ {
		removed = append(removed, children[removed[i]]...)
	}
	for _, cid := range removed {
		delete(r.comments, cid)
		delete(r.likes, cid)
	}
	return removed, nil
}

func (r *memoryCommentRepository) ToggleLike(_ context.Context, id, userID uuid.UUID) (*domain.LikeResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.comments[id]
	if !ok {
		return nil, domain.ErrCommentNotFound
	}

	members := r.likes[id]
	if members == nil {
		members = make(map[uuid.UUID]time.Time)
		r.likes[id] = members
	}

	liked := false
	if _, exists := members[userID]; exists {
		delete(members, userID)
	} else {
		members[userID] = r.now().UTC()
		liked = true
	}

	c.LikeCount = len(members)
	r.comments[id] = c
	return &domain.LikeResult{Liked: liked, LikeCount: c.LikeCount}, nil
}

func (r *memoryCommentRepository) ListBySubject(_ context.Context, subjectID uuid.UUID) ([]domain.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	comments := []domain.Comment{}
	for _, c := range r.comments {
		if c.SubjectID == subjectID {
			comments = append(comments, *copyComment(c))
		}
	}
	return comments, nil
}

func (r *memoryCommentRepository) LikedBySubject(_ context.Context, subjectID, userID uuid.UUID) (map[uuid.UUID]bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	liked := make(map[uuid.UUID]bool)
	for cid, members := range r.likes {
		if _, ok := members[userID]; !ok {
			continue
		}
		if c, ok := r.comments[cid]; ok && c.SubjectID == subjectID {
			liked[cid] = true
		}
	}
	return liked, nil
}

func (r *memoryCommentRepository) CountBySubject(_ context.Context, subjectID uuid.UUID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, c := range r.comments {
		if c.SubjectID == subjectID {
			count++
		}
	}
	return count, nil
}
