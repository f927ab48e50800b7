package repository

import (
	"github.com/jmoiron/sqlx"
)

type Repositories struct {
	Comment      CommentRepository
	Subject      SubjectRepository
	User         UserRepository
	Notification NotificationRepository
	AuditLog     AuditLogRepository
}

func NewRepositories(db *sqlx.DB) *Repositories {
	return &Repositories{
		Comment:      NewCommentRepository(db),
		Subject:      NewSubjectRepository(db),
		User:         NewUserRepository(db),
		Notification: NewNotificationRepository(db),
		AuditLog:     NewAuditLogRepository(db),
	}
}

// NewMemoryRepositories wires the in-process implementations. The subject and
// user directories are returned as well so callers can seed them.
func NewMemoryRepositories() (*Repositories, *MemorySubjectRepository, *MemoryUserRepository) {
	subjects := NewMemorySubjectRepository()
	users := NewMemoryUserRepository()
	return &Repositories{
		Comment:      NewMemoryCommentRepository(),
		Subject:      subjects,
		User:         users,
		Notification: NewMemoryNotificationRepository(),
		AuditLog:     NewMemoryAuditLogRepository(),
	}, subjects, users
}
