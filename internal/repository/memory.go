package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"kisah-comments/internal/domain"
)

// The memory repositories back STORE_DRIVER=memory and the package tests.

type MemorySubjectRepository struct {
	mu       sync.RWMutex
	subjects map[uuid.UUID]domain.Subject
}

func NewMemorySubjectRepository() *MemorySubjectRepository {
	return &MemorySubjectRepository{subjects: make(map[uuid.UUID]domain.Subject)}
}

func (r *MemorySubjectRepository) Put(subject domain.Subject) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subjects[subject.ID] = subject
}

func (r *MemorySubjectRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Subject, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.subjects[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[uuid.UUID]domain.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[uuid.UUID]domain.User)}
}

func (r *MemoryUserRepository) Put(user domain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

type memoryNotificationRepository struct {
	mu    sync.RWMutex
	items []domain.Notification
}

func NewMemoryNotificationRepository() NotificationRepository {
	return &memoryNotificationRepository{}
}

func (r *memoryNotificationRepository) Create(_ context.Context, notif *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if notif.ID == uuid.Nil {
		notif.ID = uuid.New()
	}
	notif.CreatedAt = time.Now().UTC()
	r.items = append(r.items, *notif)
	return nil
}

func (r *memoryNotificationRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, n := range r.items {
		if n.ID == id {
			return &n, nil
		}
	}
	return nil, domain.ErrNotificationNotFound
}

func (r *memoryNotificationRepository) ListByUser(_ context.Context, userID uuid.UUID, unreadOnly bool, params domain.PaginationParams) ([]domain.Notification, int64, error) {
	params.Validate()
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := []domain.Notification{}
	for _, n := range r.items {
		if n.UserID != userID || (unreadOnly && n.IsRead) {
			continue
		}
		matched = append(matched, n)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	return paginate(matched, params), int64(len(matched)), nil
}

func (r *memoryNotificationRepository) MarkAsRead(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	for i := range r.items {
		if r.items[i].ID == id && !r.items[i].IsRead {
			r.items[i].IsRead = true
			r.items[i].ReadAt = &now
		}
	}
	return nil
}

func (r *memoryNotificationRepository) MarkAllAsRead(_ context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	for i := range r.items {
		if r.items[i].UserID == userID && !r.items[i].IsRead {
			r.items[i].IsRead = true
			r.items[i].ReadAt = &now
		}
	}
	return nil
}

func (r *memoryNotificationRepository) CountUnread(_ context.Context, userID uuid.UUID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var count int64
	for _, n := range r.items {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

type memoryAuditLogRepository struct {
	mu   sync.RWMutex
	logs []domain.AuditLog
}

func NewMemoryAuditLogRepository() AuditLogRepository {
	return &memoryAuditLogRepository{}
}

func (r *memoryAuditLogRepository) Create(_ context.Context, log *domain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	log.CreatedAt = time.Now().UTC()
	r.logs = append(r.logs, *log)
	return nil
}

func (r *memoryAuditLogRepository) List(_ context.Context, params domain.PaginationParams) ([]domain.AuditLog, int64, error) {
	return r.filter(params, func(domain.AuditLog) bool { return true })
}

func (r *memoryAuditLogRepository) ListByEntity(_ context.Context, entityType string, entityID uuid.UUID, params domain.PaginationParams) ([]domain.AuditLog, int64, error) {
	return r.filter(params, func(l domain.AuditLog) bool {
		return l.EntityType == entityType && l.EntityID == entityID
	})
}

func (r *memoryAuditLogRepository) filter(params domain.PaginationParams, keep func(domain.AuditLog) bool) ([]domain.AuditLog, int64, error) {
	params.Validate()
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := []domain.AuditLog{}
	for i := len(r.logs) - 1; i >= 0; i-- {
		if keep(r.logs[i]) {
			matched = append(matched, r.logs[i])
		}
	}
	return paginate(matched, params), int64(len(matched)), nil
}

func paginate[T any](items []T, params domain.PaginationParams) []T {
	start := params.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + params.PageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
