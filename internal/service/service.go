package service

import (
	"github.com/minio/minio-go/v7"
	"github.com/redis/go-redis/v9"

	"kisah-comments/internal/config"
	"kisah-comments/internal/pkg/markdown"
	"kisah-comments/internal/repository"
	"kisah-comments/internal/service/archive"
	"kisah-comments/internal/service/audit"
	"kisah-comments/internal/service/auth"
	"kisah-comments/internal/service/comment"
	"kisah-comments/internal/service/email"
	"kisah-comments/internal/service/notification"
)

type Services struct {
	Auth         auth.Service
	Comment      comment.Service
	Email        email.Service
	Audit        audit.Service
	Notification notification.Service
	Dispatcher   *notification.Dispatcher
	// Archive is nil when no object storage is configured.
	Archive archive.Service
}

// NewServices wires every service. The dispatcher is returned unstarted;
// the caller owns Start and Shutdown.
func NewServices(repos *repository.Repositories, redis *redis.Client, minioClient *minio.Client, renderer *markdown.Renderer, cfg *config.Config) *Services {
	emailService := email.NewService(cfg)
	authService := auth.NewService(cfg)
	auditService := audit.NewService(repos.AuditLog)
	notificationService := notification.NewService(repos.Notification, repos.User, repos.Subject, repos.Comment, emailService)
	dispatcher := notification.NewDispatcher(notificationService, cfg.NotifyWorkers, cfg.NotifyQueueSize)

	opts := []comment.Option{comment.WithCacheTTL(cfg.CommentCacheTTL)}
	if renderer != nil {
		opts = append(opts, comment.WithRenderer(renderer.Render))
	}
	commentService := comment.NewService(repos.Comment, redis, opts...)
	commentService.SetNotifier(dispatcher)
	commentService.SetAuditService(auditService)

	var archiveService archive.Service
	if minioClient != nil {
		archiveService = archive.NewService(repos.Comment, minioClient, cfg.ArchiveBucket)
	}

	return &Services{
		Auth:         authService,
		Comment:      commentService,
		Email:        emailService,
		Audit:        auditService,
		Notification: notificationService,
		Dispatcher:   dispatcher,
		Archive:      archiveService,
	}
}
